package ui

import "time"

// ApplyMsg is posted when the edit debounce fires. The model then pushes
// the band list to the running graph.
type ApplyMsg struct{}

// AppliedMsg reports the outcome of a live apply
type AppliedMsg struct {
	Err error
}

// tickMsg drives the spinner while an apply is in flight
type tickMsg time.Time
