// Package stereo combines left and right channel band lists into one.
package stereo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/linuxmatters/pweq/internal/eq"
)

// Mode selects which channel data ends up in the output
type Mode int

const (
	LeftOnly Mode = iota
	RightOnly
	Average
)

func (m Mode) String() string {
	switch m {
	case LeftOnly:
		return "left"
	case RightOnly:
		return "right"
	case Average:
		return "average"
	}
	return "unknown"
}

// ParseMode accepts "left", "right" or "average" (any case)
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "left":
		return LeftOnly, nil
	case "right":
		return RightOnly, nil
	case "average", "avg":
		return Average, nil
	}
	return 0, fmt.Errorf("unknown channel mode %q (want left, right or average)", s)
}

// ErrMismatch is matched by both mismatch error types via errors.Is
var ErrMismatch = errors.New("channel mismatch")

// LengthMismatchError reports left and right lists of different length
type LengthMismatchError struct {
	Left, Right int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("filter count mismatch: left has %d, right has %d", e.Left, e.Right)
}

func (e *LengthMismatchError) Is(target error) bool { return target == ErrMismatch }

// TypeMismatchError reports the first index whose band kinds differ
type TypeMismatchError struct {
	Index       int
	Left, Right eq.Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("filter type mismatch at filter %d: left is %s, right is %s",
		e.Index+1, e.Left.Token(), e.Right.Token())
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrMismatch }

// Reconcile returns the band list for mode.
//
// For Average, both lists must hold the same number of bands in the same
// order with the same kinds, as produced by measuring both channels with one
// REW filter set. When they don't, the left list is returned unchanged along
// with a mismatch error; the error is informational and the returned list is
// always usable.
func Reconcile(mode Mode, left, right []eq.Filter) ([]eq.Filter, error) {
	switch mode {
	case LeftOnly:
		return left, nil
	case RightOnly:
		return right, nil
	}

	if len(left) != len(right) {
		return left, &LengthMismatchError{Left: len(left), Right: len(right)}
	}

	for i := range left {
		if left[i].Kind() != right[i].Kind() {
			return left, &TypeMismatchError{Index: i, Left: left[i].Kind(), Right: right[i].Kind()}
		}
	}

	out := make([]eq.Filter, len(left))
	for i := range left {
		out[i] = average(left[i], right[i])
	}
	return out, nil
}

// average assumes both bands share a kind
func average(l, r eq.Filter) eq.Filter {
	freq := (l.FrequencyHz + r.FrequencyHz) / 2
	gain := (l.GainDB + r.GainDB) / 2

	var f eq.Filter
	lq, lok := l.Q()
	rq, rok := r.Q()
	if lok && rok {
		f = eq.NewPeaking(freq, gain, (lq+rq)/2)
	} else {
		f = eq.NewShelf(l.Kind(), freq, gain)
	}
	f.Enabled = l.Enabled && r.Enabled
	return f
}
