// Package transport carries link packets between the host and the
// accessory.
//
// Packets are framed with a 4-byte big-endian length prefix and travel over
// any byte stream. On the device this is the accessory UART, opened with
// OpenSerial; tests and the simulator use in-memory pipes.
//
//	┌────────────────────────────────┐
//	│      CBOR Packets              │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│   UART (8N1) or pipe           │
//	└────────────────────────────────┘
//
// A Link owns one opened stream. Every link gets a UUID connection id that
// tags its frames in the protocol log.
package transport
