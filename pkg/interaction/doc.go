// Package interaction implements request/response correlation between the
// host and an accessory.
//
// The host issues three kinds of requests, each carrying a sequence number
// that the matching response echoes:
//
//   - Read: fetch the raw value of one attribute
//   - Write: store the raw value of one attribute
//   - Command: run a command such as authorization or a firmware update step
//
// The accessory also sends commands of its own (connect, disconnect, key
// events, authorization results). These carry the unsolicited sequence
// number and are dispatched to per-endpoint handlers.
//
// # Client Usage
//
//	client := interaction.NewClient(interaction.ClientConfig{Timeout: time.Second})
//	client.Attach(link, link.ID())
//	client.RegisterEndpoint(wire.EndpointKeyboard, handler)
//
//	raw, err := client.ReadAttribute(ctx, wire.EndpointKeyboard, 0x04)
//	if interaction.IsIOError(err) {
//	    // transport failure or timeout
//	}
//
// A command whose result arrives as an accessory command is finished by the
// endpoint handler calling Complete.
//
// # Server Usage
//
// The Server plays the accessory side from an attribute table. It backs the
// simulator and tests:
//
//	server := interaction.NewServer(wire.EndpointKeyboard)
//	server.SetValue(0x04, wire.Uint16Value(0x0201))
//	server.SetSender(link)
//	err := server.HandleFrame(ctx, frame)
package interaction
