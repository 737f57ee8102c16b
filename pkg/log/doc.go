// Package log captures a machine-readable trace of the accessory link.
//
// Every layer (transport framing, wire packets, the accessory manager)
// reports what it sees as an Event to a Logger. This is separate from the
// operational slog output; the trace is what you replay when a keyboard
// refuses to authorize or a firmware transfer stalls.
//
// # Wiring
//
// Protocol loggers are set on the transport, interaction and keyboard
// configs. kbd-hwmon combines a SlogAdapter behind its console trace switch
// with an optional trace file:
//
//	file, _ := log.NewFileLogger("/var/log/kbd-hwmon/link.klog")
//	logger := log.NewMultiLogger(file, log.NewSlogAdapter(slog.Default()))
//
// # Event Types
//
// Transport events carry a FrameEvent with the first MaxFrameCapture bytes,
// wire events a decoded PacketEvent, and service events a StateChangeEvent
// for link, accessory and firmware update transitions. Failures at any
// layer are reported as ErrorEventData.
//
// # File Format
//
// Log files use the .klog extension: a CBOR Header record followed by one
// CBOR record per Event. FileLogger can rotate them by size, and Reader
// replays them through a Filter.
package log
