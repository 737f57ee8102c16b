// Package firmware loads bundled accessory firmware images and runs the
// in-place update sequence.
//
// An update runs five phases in strict order:
//
//  1. Init: announce version, start address and size
//  2. Transfer: send the image in chunks that fit the negotiated packet size
//  3. Validate: ask the accessory to check the image CRC
//  4. Read-back: re-read the accessory's attributes and compare the running
//     version with the image's declared version
//  5. Activate: mark the new image active
//
// The first failure stops the sequence and is returned as a *PhaseError.
// Nothing is rolled back: the accessory keeps running its previous image.
//
// Images live in a directory next to a manifest.yaml that names the images
// for each device and pins their BLAKE2b-256 digests:
//
//	images:
//	  - device: rM-Keyboard
//	    file: kbd-1.4-a.img
//	    blake2b: 3f2a...
//	  - device: rM-Keyboard
//	    file: kbd-1.4-b.img
//	    blake2b: 91c0...
//
// Accessories have two flash banks. Several images may be listed per device;
// the one built for the bank that is not running gets selected.
package firmware
