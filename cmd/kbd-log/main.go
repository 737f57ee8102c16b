// Command kbd-log views and analyzes kbd-hwmon protocol traces.
//
// Trace files are written by kbd-hwmon when started with -protocol-log or
// when protocol_log is set in its configuration.
//
// Usage:
//
//	kbd-log <command> [flags] <file.klog>
//
// Commands:
//
//	view     View trace in human-readable format
//	export   Export trace to JSON lines or CSV
//	filter   Filter trace and write to a new file
//	stats    Show statistics about the trace
//
// Examples:
//
//	# View all events
//	kbd-log view link.klog
//
//	# View the authorization exchange only
//	kbd-log view -command ACCS_AUTHORIZE_REQUEST link.klog
//
//	# Export to CSV
//	kbd-log export -format csv -o link.csv link.klog
//
//	# Keep one link session
//	kbd-log filter -conn-id 3f2a9c1e-... -o session.klog link.klog
//
//	# Show statistics
//	kbd-log stats link.klog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hwmon-accessory/kbd-go/cmd/kbd-log/commands"
)

const usage = `kbd-log - keyboard link trace analyzer

Usage:
  kbd-log <command> [flags] <file.klog>

Commands:
  view     View trace in human-readable format
  export   Export trace to JSON lines or CSV
  filter   Filter trace and write to a new file
  stats    Show statistics about the trace

Use "kbd-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// filterFlags registers the shared filter flags on fs.
func filterFlags(fs *flag.FlagSet) *commands.FilterOptions {
	var opts commands.FilterOptions
	fs.StringVar(&opts.ConnID, "conn-id", "", "Filter by connection ID")
	fs.StringVar(&opts.Port, "port", "", "Filter by serial port")
	fs.StringVar(&opts.Serial, "serial", "", "Filter by accessory host serial")
	fs.StringVar(&opts.Since, "since", "", "Filter by start time (RFC3339)")
	fs.StringVar(&opts.Until, "until", "", "Filter by end time (RFC3339)")
	fs.StringVar(&opts.Layer, "layer", "", "Filter by layer (transport, wire, service)")
	fs.StringVar(&opts.Direction, "direction", "", "Filter by direction (in, out)")
	fs.StringVar(&opts.Category, "category", "", "Filter by category (message, state, error)")
	fs.StringVar(&opts.Command, "command", "", "Filter by packet command (e.g. FWU_DATA)")
	return &opts
}

func newFlagSet(name, summary, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "kbd-log %s - %s\n\nUsage:\n  kbd-log %s\n\nFlags:\n", name, summary, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

// tracePath parses args and returns the single trace file argument.
func tracePath(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runView(args []string) {
	fs := newFlagSet("view", "View trace in human-readable format", "view [flags] <file.klog>")
	opts := filterFlags(fs)
	path := tracePath(fs, args)

	filter, err := opts.Build()
	if err != nil {
		fail(err)
	}
	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := newFlagSet("export", "Export trace to JSON lines or CSV", "export [flags] <file.klog>")
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	path := tracePath(fs, args)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := newFlagSet("filter", "Filter trace and write to a new file", "filter [flags] -o <out.klog> <file.klog>")
	output := fs.String("o", "", "Output file (required)")
	opts := filterFlags(fs)
	path := tracePath(fs, args)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	filter, err := opts.Build()
	if err != nil {
		fail(err)
	}
	count, err := commands.RunFilter(path, *output, filter)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Filtered %d events to %s\n", count, *output)
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show statistics about the trace", "stats <file.klog>")
	path := tracePath(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
