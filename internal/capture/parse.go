package capture

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"spytrap/internal/models"
)

var (
	ErrEmptyLine     = errors.New("empty capture line")
	ErrUnknownFormat = errors.New("unknown capture line format")
)

// Parse decodes one line produced by a capture adapter. Both sniffglue's
// --json output and tshark's -T ek output are understood. Unknown protocol
// layers are not an error: the frame is returned without a Record.
func Parse(line []byte) (Frame, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Frame{}, ErrEmptyLine
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(line, &top); err != nil {
		return Frame{}, fmt.Errorf("malformed capture line: %w", err)
	}

	if layers, ok := top["layers"]; ok {
		return parseEK(layers)
	}
	if len(top) == 1 {
		return parseSniffglue(top)
	}
	return Frame{}, ErrUnknownFormat
}

// Observe returns the hostnames in a capture line. It never fails: a line
// that cannot be parsed simply yields no observations.
func Observe(line []byte) []models.Observation {
	frame, err := Parse(line)
	if err != nil {
		return nil
	}
	return frame.Observations()
}
