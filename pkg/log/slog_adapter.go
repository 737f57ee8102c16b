package log

import (
	"context"
	"encoding/hex"
	"log/slog"
)

// SlogAdapter prints protocol events through an slog.Logger. Error events
// are logged at Warn, everything else at Debug.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter returns an adapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes event as one record whose message names the payload type.
func (a *SlogAdapter) Log(event Event) {
	attrs := make([]slog.Attr, 0, 12)
	attrs = append(attrs,
		slog.String("conn_id", event.ConnectionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
	)
	if event.Port != "" {
		attrs = append(attrs, slog.String("port", event.Port))
	}
	if event.Serial != "" {
		attrs = append(attrs, slog.String("serial", event.Serial))
	}

	msg := "protocol"
	level := slog.LevelDebug
	switch {
	case event.Frame != nil:
		msg = "frame"
		attrs = append(attrs, slog.Int("frame_size", event.Frame.Size))
		if event.Frame.Truncated {
			attrs = append(attrs, slog.Bool("truncated", true))
		}
	case event.Packet != nil:
		msg = "packet"
		attrs = append(attrs, packetAttrs(event.Packet)...)
	case event.StateChange != nil:
		msg = "state"
		sc := event.StateChange
		attrs = append(attrs,
			slog.String("entity", sc.Entity.String()),
			slog.String("old_state", sc.OldState),
			slog.String("new_state", sc.NewState),
		)
		if sc.Reason != "" {
			attrs = append(attrs, slog.String("reason", sc.Reason))
		}
	case event.Error != nil:
		msg = "error"
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
		)
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

func packetAttrs(p *PacketEvent) []slog.Attr {
	attrs := []slog.Attr{
		slog.Uint64("seq", uint64(p.Seq)),
		slog.String("kind", p.Kind.String()),
		slog.String("endpoint", p.Endpoint.String()),
	}
	if p.Command != nil {
		attrs = append(attrs, slog.String("command", p.Command.String()))
	}
	if p.Attribute != nil {
		attrs = append(attrs, slog.Uint64("attr", uint64(*p.Attribute)))
	}
	if p.Status != nil {
		attrs = append(attrs, slog.String("status", p.Status.String()))
	}
	if len(p.Data) > 0 {
		attrs = append(attrs, slog.String("data", hex.EncodeToString(p.Data)))
	}
	return attrs
}

var _ Logger = (*SlogAdapter)(nil)
