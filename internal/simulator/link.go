package simulator

import (
	"context"
	"io"
	"net"

	"github.com/hwmon-accessory/kbd-go/pkg/interaction"
	"github.com/hwmon-accessory/kbd-go/pkg/transport"
)

type senderFunc func(data []byte) error

func (f senderFunc) Send(data []byte) error { return f(data) }

// Loopback connects client and accessory directly. Frames are delivered
// synchronously on the sending goroutine.
func Loopback(client *interaction.Client, a *Accessory) {
	a.SetSender(senderFunc(func(data []byte) error {
		_ = client.HandleFrame(data)
		return nil
	}))
	client.Attach(senderFunc(func(data []byte) error {
		return a.HandleFrame(context.Background(), data)
	}), "loopback")
}

// Opener returns a transport opener that plugs the accessory in on every
// open. The accessory runs its side of an in-memory pipe and announces
// itself once the link is up.
func Opener(a *Accessory) transport.Opener {
	return func(ctx context.Context) (io.ReadWriteCloser, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		host, acc := net.Pipe()

		link := transport.NewLink(acc, transport.LinkConfig{Port: "simulator"})
		a.SetSender(link)
		go func() {
			_ = link.Run(func(frame []byte) {
				// Requests are answered off the read goroutine so a
				// deferred completion never blocks the pipe.
				go func() { _ = a.HandleFrame(ctx, frame) }()
			})
		}()
		go func() { _ = a.Connect() }()

		return host, nil
	}
}
