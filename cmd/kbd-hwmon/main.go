// Command kbd-hwmon manages the pogo keyboard accessory.
//
// It keeps the accessory link open, authorizes the keyboard when it is
// attached, flashes bundled firmware when the keyboard needs it and reports
// key presses through an input surface.
//
// Usage:
//
//	kbd-hwmon [flags]
//
// Flags:
//
//	-config string        Configuration file path (default /etc/kbd-hwmon/config.yaml if present)
//	-port string          Serial port of the accessory link
//	-baud int             Serial baud rate
//	-firmware-dir string  Firmware bundle directory
//	-protocol-log string  Write a CBOR protocol trace to this file
//	-log-level string     Log level: debug, info, warn, error
//	-simulate             Run against a simulated accessory instead of the serial port
//	-interactive          Enable interactive command mode
//
// Examples:
//
//	# Run on the default port with the installed configuration
//	kbd-hwmon
//
//	# Try the connect and update flow without hardware
//	kbd-hwmon -simulate -interactive -firmware-dir ./testdata/bundle -log-level debug
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hwmon-accessory/kbd-go/cmd/kbd-hwmon/interactive"
	"github.com/hwmon-accessory/kbd-go/internal/config"
	"github.com/hwmon-accessory/kbd-go/internal/simulator"
	"github.com/hwmon-accessory/kbd-go/pkg/connection"
	"github.com/hwmon-accessory/kbd-go/pkg/firmware"
	"github.com/hwmon-accessory/kbd-go/pkg/input"
	"github.com/hwmon-accessory/kbd-go/pkg/interaction"
	"github.com/hwmon-accessory/kbd-go/pkg/keyboard"
	protolog "github.com/hwmon-accessory/kbd-go/pkg/log"
	"github.com/hwmon-accessory/kbd-go/pkg/transport"
)

// Flags holds the command line. Empty values leave the config file alone.
type Flags struct {
	ConfigFile  string
	Port        string
	Baud        int
	FirmwareDir string
	ProtocolLog string
	LogLevel    string
	Simulate    bool
	Interactive bool
}

var flags Flags

func init() {
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path")
	flag.StringVar(&flags.Port, "port", "", "Serial port of the accessory link")
	flag.IntVar(&flags.Baud, "baud", 0, "Serial baud rate")
	flag.StringVar(&flags.FirmwareDir, "firmware-dir", "", "Firmware bundle directory")
	flag.StringVar(&flags.ProtocolLog, "protocol-log", "", "Write a CBOR protocol trace to this file")
	flag.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.BoolVar(&flags.Simulate, "simulate", false, "Run against a simulated accessory")
	flag.BoolVar(&flags.Interactive, "interactive", false, "Enable interactive command mode")
}

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	level, _ := cfg.Level()

	log.Println("Keyboard accessory manager")
	log.Println("==========================")
	if flags.Simulate {
		log.Println("Link: simulated accessory")
	} else {
		log.Printf("Link: %s @ %d baud", cfg.Serial.Port, cfg.Serial.BaudRate)
	}
	log.Printf("Firmware bundle: %s", cfg.Firmware.Dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var console *interactive.Console
	var out io.Writer = os.Stderr
	if flags.Interactive {
		console, err = interactive.NewConsole()
		if err != nil {
			log.Fatalf("Failed to create interactive console: %v", err)
		}
		// Route log output through readline to keep the prompt intact.
		out = console.Stdout()
		log.SetOutput(out)
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))

	trace := newTraceSwitch(protolog.NewSlogAdapter(logger))
	protocolLogger := protolog.Logger(trace)
	if cfg.ProtocolLog != "" {
		host, _ := os.Hostname()
		fl, err := protolog.NewFileLoggerWithConfig(protolog.FileConfig{
			Path:     cfg.ProtocolLog,
			MaxBytes: cfg.ProtocolLogMaxBytes,
			Host:     host,
		})
		if err != nil {
			log.Fatalf("Failed to open protocol log: %v", err)
		}
		defer fl.Close()
		protocolLogger = protolog.NewMultiLogger(fl, trace)
		log.Printf("Protocol trace: %s", cfg.ProtocolLog)
	}

	client := interaction.NewClient(interaction.ClientConfig{
		Timeout:        cfg.RequestTimeout,
		Logger:         logger.With("component", "client"),
		ProtocolLogger: protocolLogger,
	})
	defer client.Close()

	var source firmware.Source
	if cfg.Firmware.Dir != "" {
		source = firmware.NewDirSource(cfg.Firmware.Dir)
	}

	kbdConfig := keyboard.DefaultConfig()
	kbdConfig.MaxPacketSize = cfg.Firmware.MaxPacketSize
	kbdConfig.AuthorizeRetries = cfg.Keyboard.AuthorizeRetries
	kbdConfig.InitialBrightness = cfg.Keyboard.InitialBrightness
	kbdConfig.Logger = logger.With("component", "keyboard")
	kbdConfig.ProtocolLogger = protocolLogger

	factory := &input.DeviceFactory{
		Sink: inputLogger(logger.With("component", "input")),
		Repeat: input.RepeatConfig{
			Delay:  cfg.Keyboard.RepeatDelay,
			Period: cfg.Keyboard.RepeatPeriod,
		},
		Logger: logger.With("component", "input"),
	}

	mgr, err := keyboard.New(kbdConfig, client, factory, source)
	if err != nil {
		log.Fatalf("Failed to create keyboard manager: %v", err)
	}
	defer mgr.Detach()
	mgr.OnEvent(handleEvent)

	linkConfig := transport.LinkConfig{
		Port:           cfg.Serial.Port,
		Logger:         logger.With("component", "link"),
		ProtocolLogger: protocolLogger,
	}

	var accessory *simulator.Accessory
	var opener transport.Opener
	if flags.Simulate {
		simConfig := simulator.DefaultConfig()
		simConfig.Logger = logger.With("component", "simulator")
		accessory = simulator.New(simConfig)
		opener = simulator.Opener(accessory)
		linkConfig.Port = "simulator"
	} else {
		opener = transport.SerialOpener(transport.SerialConfig{
			Port:     cfg.Serial.Port,
			BaudRate: cfg.Serial.BaudRate,
		})
	}

	sup := connection.NewSupervisor(connection.SupervisorConfig{
		Opener:  opener,
		Link:    linkConfig,
		Backoff: cfg.Reopen,
		Logger:  logger.With("component", "supervisor"),
	}, &linkHandler{client: client, manager: mgr, logger: logger})
	sup.OnStateChange(func(oldState, newState connection.State) {
		logger.Debug("link state", "from", oldState.String(), "to", newState.String())
	})

	supDone := make(chan error, 1)
	go func() { supDone <- sup.Run(ctx) }()

	if console != nil {
		console.Attach(interactive.Target{
			Manager:    mgr,
			Supervisor: sup,
			Accessory:  accessory,
			Trace:      trace,
		})
		go console.Run(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
		// Context was cancelled (e.g., by interactive quit command)
	}

	log.Println("Shutting down...")
	cancel()
	if err := <-supDone; err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Link supervisor stopped: %v", err)
	}
	log.Println("Goodbye!")
}

// loadConfig reads the config file, overlays flags and validates the
// result.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()

	path := flags.ConfigFile
	if path == "" {
		if _, err := os.Stat(config.DefaultPath); err == nil {
			path = config.DefaultPath
		}
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if flags.Port != "" {
		cfg.Serial.Port = flags.Port
	}
	if flags.Baud != 0 {
		cfg.Serial.BaudRate = flags.Baud
	}
	if flags.FirmwareDir != "" {
		cfg.Firmware.Dir = flags.FirmwareDir
	}
	if flags.ProtocolLog != "" {
		cfg.ProtocolLog = flags.ProtocolLog
	}
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func handleEvent(event keyboard.Event) {
	switch event.Type {
	case keyboard.EventConnected:
		log.Printf("[CONNECTED] %s firmware %s", event.DeviceName, event.Firmware)
	case keyboard.EventDisconnected:
		log.Printf("[DISCONNECTED] %s", event.DeviceName)
	case keyboard.EventConnectFailed:
		log.Printf("[CONNECT FAILED] %v", event.Err)
	case keyboard.EventFirmwareUpdated:
		log.Printf("[FIRMWARE] %s updated to %s", event.DeviceName, event.Firmware)
	case keyboard.EventFirmwareUpdateFailed:
		log.Printf("[FIRMWARE] update of %s failed in %s: %v",
			event.DeviceName, firmware.FailedPhase(event.Err), event.Err)
	case keyboard.EventKey:
		// Reported by the input sink.
	default:
		fmt.Fprintf(os.Stderr, "unhandled event %s\n", event.Type)
	}
}
