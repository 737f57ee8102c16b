// Package input defines the input surface through which an authorized
// accessory delivers key and indicator events to the host, and provides an
// in-process implementation.
//
// A Surface is created unregistered. Registering it makes it visible to the
// host; unregistering it is idempotent and reports whether anything was
// removed. Indicator changes requested by the host are passed to the
// surface's LEDHandler, which may refuse them.
package input
