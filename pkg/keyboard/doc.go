// Package keyboard manages one keyboard accessory slot.
//
// A Manager owns the accessory's state and drives it through
// Disconnected, Authorizing and Connected in response to packets from the
// accessory endpoint:
//
//	ACCS_CONNECT     schedule a connect on the connect queue
//	ACCS_DISCONNECT  unregister the input surface
//	KEY_EVENT        translate and report through the input surface
//	AUTHORIZE        complete the pending authorization request
//
// A connect reads the initial attributes, authorizes the accessory and, if
// a bundled firmware image applies, flashes it and authorizes again. The
// input surface is registered only once the accessory reaches Connected
// and is removed on every disconnect, so a registered surface always
// belongs to a connected accessory.
//
// Indicator changes requested by the host are written asynchronously
// through a single-slot Writer. Brightness is written synchronously.
package keyboard
