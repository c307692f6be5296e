package view

import (
	"encoding/json"
	"fmt"
)

// Mode selects what the choropleth colors encode.
type Mode uint8

const (
	// ModeBaseline colors countries by share of population near plants.
	ModeBaseline Mode = iota
	// ModeChange colors countries by decade-over-decade growth of
	// population near plants.
	ModeChange
)

func (m Mode) String() string {
	switch m {
	case ModeBaseline:
		return "baseline"
	case ModeChange:
		return "change"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseMode converts a mode's wire name.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "baseline":
		return ModeBaseline, nil
	case "change":
		return ModeChange, nil
	default:
		return ModeBaseline, fmt.Errorf("unknown mode %q", s)
	}
}

// Modes travel as names in snapshots and state-change documents.

func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
