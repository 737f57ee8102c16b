// Package connection keeps the accessory link open.
//
// A Supervisor opens the transport stream, runs the link's read loop and
// reopens the stream when it fails. The accessory may be unplugged at any
// time, so failed opens are retried with exponential backoff:
//
//  1. Initial delay: 250 ms
//  2. Doubling on every failed attempt
//  3. Capped at 10 seconds
//  4. Reset on the next successful open
//
// Jitter spreads attempts:
//
//	actual_delay = base_delay + random(0, base_delay * 0.2)
package connection
