// Package eq defines the parametric EQ band model shared by the REW codec,
// the PipeWire emitter and the editor.
package eq

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the shape of an EQ band
type Kind int

const (
	Peaking Kind = iota
	LowShelf
	HighShelf
)

// Editor ranges and defaults
const (
	MinFrequency = 20.0
	MaxFrequency = 20000.0
	MinGain      = -24.0
	MaxGain      = 24.0
	MinQ         = 0.1
	MaxQ         = 10.0

	DefaultFrequency = 1000.0
	DefaultGain      = 0.0
	DefaultQ         = 1.0
)

// Token returns the REW text token for the kind ("PK", "LS" or "HS")
func (k Kind) Token() string {
	switch k {
	case Peaking:
		return "PK"
	case LowShelf:
		return "LS"
	case HighShelf:
		return "HS"
	}
	return "??"
}

// String returns a human readable kind name
func (k Kind) String() string {
	switch k {
	case Peaking:
		return "Peaking"
	case LowShelf:
		return "LowShelf"
	case HighShelf:
		return "HighShelf"
	}
	return "unknown"
}

// ParseKind maps a case-sensitive REW token to a Kind.
func ParseKind(token string) (Kind, error) {
	switch token {
	case "PK":
		return Peaking, nil
	case "LS":
		return LowShelf, nil
	case "HS":
		return HighShelf, nil
	}
	return 0, fmt.Errorf("unknown filter type %q", token)
}

// Filter is one EQ band. Only peaking bands carry a Q; the constructors and
// SetKind keep that invariant, so the q field is never read for shelves.
type Filter struct {
	kind        Kind
	FrequencyHz float64
	GainDB      float64
	q           float64
	Enabled     bool
}

// NewPeaking returns an enabled peaking band
func NewPeaking(freq, gain, q float64) Filter {
	return Filter{kind: Peaking, FrequencyHz: freq, GainDB: gain, q: q, Enabled: true}
}

// NewShelf returns an enabled shelf band. A Peaking kind is promoted to a
// peaking band with the default Q.
func NewShelf(kind Kind, freq, gain float64) Filter {
	if kind == Peaking {
		return NewPeaking(freq, gain, DefaultQ)
	}
	return Filter{kind: kind, FrequencyHz: freq, GainDB: gain, Enabled: true}
}

// Default returns the band used by "add band": 1 kHz, 0 dB, Q 1.0
func Default() Filter {
	return NewPeaking(DefaultFrequency, DefaultGain, DefaultQ)
}

// Kind returns the band shape
func (f Filter) Kind() Kind {
	return f.kind
}

// Q returns the quality factor and whether the band has one.
func (f Filter) Q() (float64, bool) {
	if f.kind != Peaking {
		return 0, false
	}
	return f.q, true
}

// SetQ updates Q on a peaking band. It reports false for shelves.
func (f *Filter) SetQ(q float64) bool {
	if f.kind != Peaking {
		return false
	}
	f.q = q
	return true
}

// SetKind changes the band shape, giving a new peaking band the default Q
// and dropping Q from a band that becomes a shelf.
func (f *Filter) SetKind(kind Kind) {
	if kind == f.kind {
		return
	}
	if kind == Peaking {
		f.q = DefaultQ
	} else {
		f.q = 0
	}
	f.kind = kind
}

// String renders a compact description for logs
func (f Filter) String() string {
	state := "ON"
	if !f.Enabled {
		state = "OFF"
	}
	if q, ok := f.Q(); ok {
		return fmt.Sprintf("%s %s %.1f Hz %+.1f dB Q %.2f", state, f.kind.Token(), f.FrequencyHz, f.GainDB, q)
	}
	return fmt.Sprintf("%s %s %.1f Hz %+.1f dB", state, f.kind.Token(), f.FrequencyHz, f.GainDB)
}

// Enabled returns the enabled filters in their original order
func Enabled(filters []Filter) []Filter {
	out := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if f.Enabled {
			out = append(out, f)
		}
	}
	return out
}

// Clone returns a copy of the sequence
func Clone(filters []Filter) []Filter {
	if filters == nil {
		return nil
	}
	out := make([]Filter, len(filters))
	copy(out, filters)
	return out
}

// Clamp limits v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// filterJSON is the on-disk form used by the session state file
type filterJSON struct {
	Type    string   `json:"type"`
	Freq    float64  `json:"freq"`
	Gain    float64  `json:"gain"`
	Q       *float64 `json:"q,omitempty"`
	Enabled bool     `json:"enabled"`
}

// MarshalJSON implements json.Marshaler
func (f Filter) MarshalJSON() ([]byte, error) {
	out := filterJSON{
		Type:    f.kind.Token(),
		Freq:    f.FrequencyHz,
		Gain:    f.GainDB,
		Enabled: f.Enabled,
	}
	if q, ok := f.Q(); ok {
		out.Q = &q
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. A peaking band without "q"
// gets the default Q.
func (f *Filter) UnmarshalJSON(data []byte) error {
	var in filterJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	kind, err := ParseKind(in.Type)
	if err != nil {
		return err
	}

	if kind == Peaking {
		q := DefaultQ
		if in.Q != nil {
			q = *in.Q
		}
		*f = NewPeaking(in.Freq, in.Gain, q)
	} else {
		*f = NewShelf(kind, in.Freq, in.Gain)
	}
	f.Enabled = in.Enabled
	return nil
}
