package editor

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/linuxmatters/pweq/internal/eq"
)

// state is the session file layout
type state struct {
	Device  string      `json:"device"`
	Filters []eq.Filter `json:"filters"`
}

// SaveState writes the band list and device name to path as JSON
func (s *Session) SaveState(path string) error {
	data, err := json.MarshalIndent(state{Device: s.device, Filters: s.filters}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LoadState restores a session written by SaveState. A band count above
// MaxBands is trimmed.
func (s *Session) LoadState(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("failed to parse session %s: %w", path, err)
	}

	if len(st.Filters) > MaxBands {
		st.Filters = st.Filters[:MaxBands]
	}
	s.SetFilters(st.Filters)
	if st.Device != "" {
		s.device = st.Device
	}
	return nil
}
