// Package interactive provides the interactive command-line interface
// for kbd-hwmon.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/hwmon-accessory/kbd-go/internal/simulator"
	"github.com/hwmon-accessory/kbd-go/pkg/connection"
	"github.com/hwmon-accessory/kbd-go/pkg/keyboard"
	"github.com/hwmon-accessory/kbd-go/pkg/model"
	"github.com/hwmon-accessory/kbd-go/pkg/transport"
)

// requestTimeout bounds console commands that talk to the accessory.
const requestTimeout = 5 * time.Second

// TraceSwitch turns console protocol tracing on and off.
type TraceSwitch interface {
	SetTrace(on bool)
	Trace() bool
}

// Target is what the console controls.
type Target struct {
	Manager    *keyboard.Manager
	Supervisor *connection.Supervisor

	// Accessory is the simulated accessory, nil on real hardware.
	Accessory *simulator.Accessory

	Trace TraceSwitch
}

// Console handles interactive mode for kbd-hwmon.
type Console struct {
	rl     *readline.Instance
	target Target
}

// NewConsole creates the console. Attach must be called before Run.
func NewConsole() (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "kbd> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{rl: rl}, nil
}

// Attach sets what the console controls.
func (c *Console) Attach(target Target) {
	c.target = target
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	fmt.Fprint(c.rl.Stdout(), helpText)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		if c.Execute(line) {
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}
	}
}

// Execute runs one command line. It returns true if the console should
// exit.
func (c *Console) Execute(line string) bool {
	return execute(c.rl.Stdout(), c.target, line)
}

func execute(out io.Writer, t Target, line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		fmt.Fprint(out, helpText)
	case "status", "s":
		cmdStatus(out, t)
	case "brightness", "b":
		cmdBrightness(out, t, args)
	case "led":
		cmdLED(out, t, args)
	case "suspend":
		cmdSuspend(out, t, args)
	case "resume":
		t.Manager.Resume()
		fmt.Fprintln(out, "Resumed")
	case "connect":
		cmdConnect(out, t)
	case "disconnect":
		if t.Manager.Disconnect() {
			fmt.Fprintln(out, "Input surface removed")
		} else {
			fmt.Fprintln(out, "Nothing to remove")
		}
	case "key", "k":
		cmdKey(out, t, args)
	case "plug":
		cmdPlug(out, t, true)
	case "unplug":
		cmdPlug(out, t, false)
	case "reopen":
		t.Supervisor.Reopen()
		fmt.Fprintln(out, "Link reopen requested")
	case "trace":
		cmdTrace(out, t, args)
	case "ports":
		cmdPorts(out)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

const helpText = `
Keyboard Commands:
  Status:
    status                 - Show accessory state
    ports                  - List serial ports

  Control:
    brightness [0-255]     - Show or set backlight level
    led <caps|rm> <on|off> - Set an indicator as the host would
    suspend [slumber]      - Run the suspend hook
    resume                 - Run the resume hook
    connect                - Run the connect sequence now
    disconnect             - Remove the input surface
    reopen                 - Close and reopen the link

  Simulation (with -simulate):
    key <row> <col> [up]   - Press (or release) a matrix key
    plug / unplug          - Attach or detach the keyboard

  General:
    trace <on|off>         - Protocol events on the console
    help                   - Show this help
    quit                   - Exit
`

func cmdStatus(out io.Writer, t Target) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	state := t.Manager.State()
	fmt.Fprintln(out, "\nAccessory Status")
	fmt.Fprintln(out, "-------------------------------------------")
	fmt.Fprintf(out, "  Link:           %s (attempts: %d)\n", t.Supervisor.State(), t.Supervisor.Attempts())
	fmt.Fprintf(out, "  State:          %s\n", state.State)
	fmt.Fprintf(out, "  Device:         %s\n", orNone(state.DeviceName))

	if fw, err := t.Manager.Firmware(); err == nil {
		fmt.Fprintf(out, "  Firmware:       %s (%s)\n", fw, state.Fingerprint)
	} else {
		fmt.Fprintf(out, "  Firmware:       %v\n", err)
	}
	if serial, err := t.Manager.HostSerial(); err == nil {
		fmt.Fprintf(out, "  rM serial:      %s\n", serial)
	}
	if state.State == model.StateConnected {
		if serial, err := t.Manager.PeripheralSerial(ctx); err == nil {
			fmt.Fprintf(out, "  CN serial:      %s\n", serial)
		} else {
			fmt.Fprintf(out, "  CN serial:      %v\n", err)
		}
		if record, err := t.Manager.ProductionRecord(ctx); err == nil {
			fmt.Fprintf(out, "  Prod records:   %s\n", record)
		}
		if lang, err := t.Manager.Language(); err == nil {
			fmt.Fprintf(out, "  Language:       %s\n", lang)
		} else {
			fmt.Fprintf(out, "  Language:       %v\n", err)
		}
	}
	fmt.Fprintf(out, "  Brightness:     %d\n", state.Brightness)
	fmt.Fprintf(out, "  Caps light:     %s\n", onOff(state.CapsLockLight))
	fmt.Fprintf(out, "  rM light:       %s\n", onOff(state.RMKeyLight))
	if state.Update.Active {
		fmt.Fprintf(out, "  Update:         %s %d/%d\n", state.Update.Phase, state.Update.Transferred, state.Update.Total)
	}
	fmt.Fprintln(out)
}

func cmdBrightness(out io.Writer, t Target, args []string) {
	if len(args) == 0 {
		fmt.Fprintf(out, "Brightness: %d\n", t.Manager.Brightness())
		return
	}
	level, err := parseLevel(args[0])
	if err != nil {
		fmt.Fprintf(out, "Invalid brightness: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := t.Manager.SetBrightness(ctx, level); err != nil {
		fmt.Fprintf(out, "Failed to set brightness: %v\n", err)
		return
	}
	fmt.Fprintf(out, "Brightness set to %d\n", level)
}

func cmdLED(out io.Writer, t Target, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(out, "Usage: led <caps|rm> <on|off>")
		return
	}
	led, err := parseLED(args[0])
	if err != nil {
		fmt.Fprintf(out, "Invalid indicator: %v\n", err)
		return
	}
	on, err := parseOnOff(args[1])
	if err != nil {
		fmt.Fprintf(out, "Invalid state: %v\n", err)
		return
	}

	if err := t.Manager.SetIndicator(led, on); err != nil {
		if errors.Is(err, keyboard.ErrBusy) {
			fmt.Fprintln(out, "Writer busy, try again")
			return
		}
		fmt.Fprintf(out, "Failed to set indicator: %v\n", err)
		return
	}
	fmt.Fprintf(out, "%s light %s\n", led, onOff(on))
}

func cmdSuspend(out io.Writer, t Target, args []string) {
	slumber := len(args) > 0 && strings.EqualFold(args[0], "slumber")
	t.Manager.SetSlumber(slumber)
	t.Manager.Suspend()
	if slumber {
		fmt.Fprintln(out, "Suspended (slumber)")
		return
	}
	fmt.Fprintln(out, "Suspended")
}

func cmdConnect(out io.Writer, t Target) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := t.Manager.Connect(ctx); err != nil {
		fmt.Fprintf(out, "Connect failed: %v\n", err)
		return
	}
	fmt.Fprintln(out, "Connected")
}

func cmdKey(out io.Writer, t Target, args []string) {
	if t.Accessory == nil {
		fmt.Fprintln(out, "Key injection needs -simulate")
		return
	}
	if len(args) < 2 {
		fmt.Fprintln(out, "Usage: key <row> <col> [up]")
		return
	}
	row, col, err := parsePosition(args[0], args[1])
	if err != nil {
		fmt.Fprintf(out, "Invalid position: %v\n", err)
		return
	}
	pressed := len(args) < 3 || !strings.EqualFold(args[2], "up")
	if err := t.Accessory.Key(row, col, pressed); err != nil {
		fmt.Fprintf(out, "Key event failed: %v\n", err)
	}
}

func cmdPlug(out io.Writer, t Target, plug bool) {
	if t.Accessory == nil {
		fmt.Fprintln(out, "Plug simulation needs -simulate")
		return
	}
	var err error
	if plug {
		err = t.Accessory.Connect()
	} else {
		err = t.Accessory.Disconnect()
	}
	if err != nil {
		fmt.Fprintf(out, "Failed: %v\n", err)
	}
}

func cmdTrace(out io.Writer, t Target, args []string) {
	if t.Trace == nil {
		fmt.Fprintln(out, "Tracing not available")
		return
	}
	if len(args) == 0 {
		fmt.Fprintf(out, "Trace: %s\n", onOff(t.Trace.Trace()))
		return
	}
	on, err := parseOnOff(args[0])
	if err != nil {
		fmt.Fprintf(out, "Invalid state: %v\n", err)
		return
	}
	t.Trace.SetTrace(on)
	fmt.Fprintf(out, "Trace %s\n", onOff(on))
}

func cmdPorts(out io.Writer) {
	ports, err := transport.ListPorts()
	if err != nil {
		fmt.Fprintf(out, "Failed to list ports: %v\n", err)
		return
	}
	if len(ports) == 0 {
		fmt.Fprintln(out, "No serial ports found")
		return
	}
	for _, p := range ports {
		fmt.Fprintf(out, "  %s\n", p)
	}
}
