// Package model implements the keyboard accessory data model.
//
// # Attributes
//
// The accessory exposes typed attributes addressed by a one-byte ID. IDs are
// grouped in classes:
//
//	0x01-0x09  read-only identity (versions, device name, build fingerprint)
//	0x10-0x13  read-write configuration (layout, language, serial numbers)
//	0x20       production records
//	0x30-0x31  communication timing
//	0x40-0x41  key debouncing
//	0x50-0x54  backlight and key lights
//
// Each known attribute has a static Descriptor carrying the wire type its
// value must have. Apply decodes a raw value, checks its shape against the
// descriptor and stores it in an AccessoryState. Dispatch is a closed switch
// on the attribute ID; unknown IDs are rejected.
//
// # Accessory State
//
// AccessoryState is the record kept for one accessory slot: connection
// state, cached attributes, brightness and LED state, and firmware update
// progress. It carries no locking of its own; the owner serializes access.
package model
