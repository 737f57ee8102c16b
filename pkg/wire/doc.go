// Package wire defines the wire format types for the accessory protocol.
//
// The accessory protocol is a point-to-point attribute/command protocol
// between the host and a detachable accessory. Every message is addressed to
// an endpoint (the logical channel of one accessory) and is one of:
//   - Command: a numbered command with an opaque payload (connect, key event,
//     authorization, firmware update phases)
//   - Read/Write: a typed attribute value addressed by attribute ID
//   - Response: the completion of a command, read or write, carrying a
//     status byte and, for reads, the encoded attribute value
//
// Commands sent by the accessory on its own (connect, disconnect, key events)
// carry sequence number 0 and are not answered.
//
// # Attribute Values
//
// Attribute values carry their storage type on the wire so the receiver can
// check the decoded shape against what it expects:
//
//	[type][payload]
//
// Integers are little-endian. Arrays carry an element subtype and a length
// byte; strings carry a length byte.
//
// # Link Envelope
//
// On the serial link, packets are CBOR (RFC 8949) maps with integer keys,
// carried in length-prefixed frames (see package transport).
package wire
