package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hwmon-accessory/kbd-go/pkg/log"
	"github.com/hwmon-accessory/kbd-go/pkg/wire"
)

const connA = "3f2a9c1e-0000-4000-8000-000000000001"

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.klog")
	logger, err := log.NewFileLoggerWithConfig(log.FileConfig{Path: path, Host: "rm-test"})
	if err != nil {
		t.Fatalf("failed to create log file: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close log file: %v", err)
	}
	return path
}

func sessionEvents() []log.Event {
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	authorize := wire.CmdAuthorizeRequest
	data := wire.CmdFWUData
	failed := wire.StatusNotAuthorized
	attr := uint8(0x02)
	return []log.Event{
		{Timestamp: ts, ConnectionID: connA, Direction: log.DirectionIn, Layer: log.LayerTransport, Category: log.CategoryMessage,
			Port: "/dev/ttymxc1", Frame: log.NewFrameEvent(12, []byte{0x00, 0x00, 0x00, 0x08})},
		{Timestamp: ts.Add(10 * time.Millisecond), ConnectionID: connA, Direction: log.DirectionOut, Layer: log.LayerWire, Category: log.CategoryMessage,
			Packet: &log.PacketEvent{Seq: 1, Kind: wire.KindRead, Endpoint: wire.EndpointKeyboard, Attribute: &attr}},
		{Timestamp: ts.Add(20 * time.Millisecond), ConnectionID: connA, Direction: log.DirectionOut, Layer: log.LayerWire, Category: log.CategoryMessage,
			Packet: &log.PacketEvent{Seq: 2, Kind: wire.KindCommand, Endpoint: wire.EndpointKeyboard, Command: &authorize}},
		{Timestamp: ts.Add(30 * time.Millisecond), ConnectionID: connA, Direction: log.DirectionIn, Layer: log.LayerWire, Category: log.CategoryMessage,
			Packet: &log.PacketEvent{Seq: 2, Kind: wire.KindResponse, Endpoint: wire.EndpointKeyboard, Command: &authorize, Status: &failed}},
		{Timestamp: ts.Add(40 * time.Millisecond), ConnectionID: connA, Direction: log.DirectionOut, Layer: log.LayerWire, Category: log.CategoryMessage,
			Packet: &log.PacketEvent{Seq: 3, Kind: wire.KindCommand, Endpoint: wire.EndpointKeyboard, Command: &data, Data: []byte{0, 0, 0, 0, 0xaa}}},
		{Timestamp: ts.Add(2 * time.Second), ConnectionID: connA, Layer: log.LayerService, Category: log.CategoryState, Serial: "RM110-313-00001",
			StateChange: &log.StateChangeEvent{Entity: log.StateEntityAccessory, OldState: "AUTHORIZING", NewState: "CONNECTED"}},
		{Timestamp: ts.Add(3 * time.Second), ConnectionID: connA, Layer: log.LayerService, Category: log.CategoryError,
			Error: &log.ErrorEventData{Layer: log.LayerService, Message: "read back failed", Context: "firmware update"}},
	}
}

func TestFormatEvent(t *testing.T) {
	events := sessionEvents()
	tests := []struct {
		name  string
		event log.Event
		want  []string
	}{
		{"frame", events[0], []string{"2026-03-02T09:00:00.000000Z", "[conn:3f2a9c1e]", "IN", "TRANSPORT Frame", "Size: 12 bytes", "Data: 00000008"}},
		{"read", events[1], []string{"OUT WIRE Read", "Seq: 1  Endpoint: KEYBOARD", "Attribute: 0x02"}},
		{"response", events[3], []string{"WIRE Response", "Command: ACCS_AUTHORIZE_REQUEST", "Status: " + wire.StatusNotAuthorized.String()}},
		{"data", events[4], []string{"Command: FWU_DATA", "Data: 00000000aa"}},
		{"state", events[5], []string{"SERVICE State", "Entity: ACCESSORY", "AUTHORIZING -> CONNECTED", "Serial: RM110-313-00001"}},
		{"error", events[6], []string{"SERVICE Error", "Message: read back failed", "Context: firmware update"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			formatEvent(&buf, tt.event)
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("missing %q in:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestShortenConnID(t *testing.T) {
	if got := shortenConnID(connA); got != "3f2a9c1e" {
		t.Errorf("shortenConnID = %q", got)
	}
	if got := shortenConnID("abc"); got != "abc" {
		t.Errorf("shortenConnID = %q", got)
	}
}

func TestRunViewFilters(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	opts := FilterOptions{Command: "acc_authorize_request"}
	if _, err := opts.Build(); err == nil {
		t.Fatal("expected error for unknown command")
	}

	opts = FilterOptions{Command: "ACCS_AUTHORIZE_REQUEST"}
	filter, err := opts.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	var buf bytes.Buffer
	if err := RunView(path, filter, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	if n := strings.Count(buf.String(), "[conn:"); n != 2 {
		t.Errorf("got %d events, want 2:\n%s", n, buf.String())
	}
}

func TestFilterOptionsBuild(t *testing.T) {
	tests := []struct {
		name    string
		opts    FilterOptions
		wantErr bool
	}{
		{"empty", FilterOptions{}, false},
		{"all set", FilterOptions{ConnID: connA, Since: "2026-03-02T09:00:00Z", Until: "2026-03-02T10:00:00Z",
			Layer: "Wire", Direction: "OUT", Category: "error", Command: "fwu_init"}, false},
		{"bad since", FilterOptions{Since: "yesterday"}, true},
		{"bad until", FilterOptions{Until: "2026-03-02"}, true},
		{"bad layer", FilterOptions{Layer: "link"}, true},
		{"bad direction", FilterOptions{Direction: "both"}, true},
		{"bad category", FilterOptions{Category: "control"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.opts.Build()
			if (err != nil) != tt.wantErr {
				t.Errorf("Build() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunFilter(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	out := filepath.Join(t.TempDir(), "wire.klog")

	layer := log.LayerWire
	count, err := RunFilter(path, out, log.Filter{Layer: &layer})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if count != 4 {
		t.Errorf("count = %d, want 4", count)
	}

	r, err := log.NewReader(out)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()
	if r.Header().Host != "rm-test" {
		t.Errorf("Host = %q, want rm-test", r.Header().Host)
	}
	n := 0
	for {
		_, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		n++
	}
	if n != 4 {
		t.Errorf("filtered file holds %d events, want 4", n)
	}
}

func TestCollectStats(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	stats, err := CollectStats(path)
	if err != nil {
		t.Fatalf("CollectStats failed: %v", err)
	}
	if stats.TotalEvents != 7 {
		t.Errorf("TotalEvents = %d, want 7", stats.TotalEvents)
	}
	if stats.Commands[wire.CmdAuthorizeRequest] != 1 || stats.Commands[wire.CmdFWUData] != 1 {
		t.Errorf("Commands = %v", stats.Commands)
	}
	if stats.FailedResponses != 1 {
		t.Errorf("FailedResponses = %d, want 1", stats.FailedResponses)
	}
	if stats.Errors != 1 {
		t.Errorf("Errors = %d, want 1", stats.Errors)
	}
	conn := stats.Connections[connA]
	if conn == nil {
		t.Fatal("connection not tracked")
	}
	if conn.Port != "/dev/ttymxc1" || conn.Serial != "RM110-313-00001" {
		t.Errorf("conn = %+v", conn)
	}
	if len(conn.Transitions) != 1 || conn.Transitions[0] != "CONNECTED" {
		t.Errorf("Transitions = %v", conn.Transitions)
	}
}

func TestRunStatsOutput(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()
	for _, want := range []string{
		"Host:       rm-test",
		"Total Events: 7",
		"Duration:   3s",
		"ACCS_AUTHORIZE_REQUEST:",
		"Connections: 1",
		"[3f2a9c1e]",
		"-> CONNECTED",
		"Failed responses: 1",
		"Errors: 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("missing %q in:\n%s", want, output)
		}
	}
}

func TestExportCSV(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	r, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if err := export(r, "csv", &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv: %v", err)
	}
	if len(rows) != 8 {
		t.Fatalf("got %d rows, want 8", len(rows))
	}
	if rows[0][9] != "command" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[4][7] != "Response" || rows[4][9] != "ACCS_AUTHORIZE_REQUEST" || rows[4][8] != "2" {
		t.Errorf("response row = %v", rows[4])
	}
}

func TestExportJSONL(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	r, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if err := export(r, "jsonl", &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 7 {
		t.Fatalf("got %d lines, want 7", len(lines))
	}
	for i, line := range lines {
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Errorf("line %d: %v", i, err)
		}
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, nil)
	if err := RunExport(path, "xml", ""); err == nil {
		t.Error("expected error for unknown format")
	}
}
