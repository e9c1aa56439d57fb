package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"devfestsched/model"
)

// DefaultFilename is the name SaveJSON callers use when none is given,
// e.g. devfest_lagos_schedule_20241116_083000.json.
func DefaultFilename(location string, now time.Time) string {
	return fmt.Sprintf("devfest_%s_schedule_%s.json", strings.ToLower(location), now.Format("20060102_150405"))
}

// MarshalJSON encodes c with two-space indentation and without HTML escaping.
func MarshalJSON(c model.Collection) ([]byte, error) {
	out := make(model.Collection, len(c))
	for day, sessions := range c {
		if sessions == nil {
			sessions = []model.Session{}
		}
		out[day] = sessions
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encode schedule: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveJSON writes c to path.
func SaveJSON(path string, c model.Collection) error {
	data, err := MarshalJSON(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadJSON reads a collection written by SaveJSON.
func LoadJSON(path string) (model.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalJSON(data)
}

func UnmarshalJSON(data []byte) (model.Collection, error) {
	var c model.Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	for day, sessions := range c {
		if sessions == nil {
			c[day] = []model.Session{}
		}
	}
	if c == nil {
		c = model.Empty()
	}
	return c, nil
}
