package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/hwmon-accessory/kbd-go/pkg/log"
	"github.com/hwmon-accessory/kbd-go/pkg/wire"
)

// FilterOptions holds the string form of filter flags.
type FilterOptions struct {
	ConnID    string
	Port      string
	Serial    string
	Since     string
	Until     string
	Layer     string
	Direction string
	Category  string
	Command   string
}

// Build converts the options to a log.Filter.
func (o FilterOptions) Build() (log.Filter, error) {
	filter := log.Filter{
		ConnectionID: o.ConnID,
		Port:         o.Port,
		Serial:       o.Serial,
	}

	if o.Since != "" {
		t, err := time.Parse(time.RFC3339, o.Since)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid since format: %w", err)
		}
		filter.Since = &t
	}
	if o.Until != "" {
		t, err := time.Parse(time.RFC3339, o.Until)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid until format: %w", err)
		}
		filter.Until = &t
	}

	if o.Layer != "" {
		l, err := ParseLayer(o.Layer)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Layer = &l
	}
	if o.Direction != "" {
		d, err := ParseDirection(o.Direction)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Direction = &d
	}
	if o.Category != "" {
		c, err := ParseCategory(o.Category)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Category = &c
	}
	if o.Command != "" {
		c, err := wire.ParseCommand(o.Command)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Command = &c
	}
	return filter, nil
}

// RunFilter copies the events of the trace at path that match filter into
// a new trace at output. It returns the number of events copied.
func RunFilter(path, output string, filter log.Filter) (int, error) {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLoggerWithConfig(log.FileConfig{Path: output, Host: reader.Header().Host})
	if err != nil {
		return 0, fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return count, fmt.Errorf("failed to read event: %w", err)
		}
		logger.Log(event)
		count++
	}
}
