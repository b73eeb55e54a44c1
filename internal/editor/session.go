// Package editor holds the state of one editing session: the band list, the
// output device name and the debounced live apply. The TUI drives it; it
// knows nothing about terminals.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linuxmatters/pweq/internal/debounce"
	"github.com/linuxmatters/pweq/internal/eq"
	"github.com/linuxmatters/pweq/internal/mains"
	"github.com/linuxmatters/pweq/internal/pipewire"
	"github.com/linuxmatters/pweq/internal/rew"
)

// MaxBands is the upper limit of the band count control
const MaxBands = 100

// Hum notch shape
const (
	HumNotchGain = -12.0
	HumNotchQ    = 10.0
)

// UnknownDevice is shown until the running graph reports an output device
const UnknownDevice = "Unknown"

var (
	// ErrNoBand is returned for an index outside the band list
	ErrNoBand = errors.New("no such band")

	// ErrOffline is returned by live operations when no graph is attached
	ErrOffline = errors.New("live apply unavailable")
)

// Applier pushes a band list to the running audio graph
type Applier interface {
	Apply(ctx context.Context, filters []eq.Filter) error
}

// Graph is an Applier that can also report what is currently running.
// *pipewire.Client satisfies it.
type Graph interface {
	Applier
	Load(ctx context.Context) ([]eq.Filter, string, error)
}

// Options configures a Session. Zero values fall back to defaults.
type Options struct {
	Graph    Graph
	Debounce time.Duration
	MainsHz  int
	Export   *pipewire.ConfigOptions
}

// Session is the explicit application context of the editor. All methods
// except the func returned by ApplyFunc must be called from one goroutine.
type Session struct {
	filters []eq.Filter
	device  string

	graph    Graph
	debounce *debounce.Debouncer
	dispatch func()
	mainsHz  int
	export   *pipewire.ConfigOptions
}

// New returns an empty session
func New(opts Options) *Session {
	if opts.Debounce <= 0 {
		opts.Debounce = time.Second
	}
	if opts.MainsHz <= 0 {
		opts.MainsHz = mains.Frequency()
	}
	if opts.Export == nil {
		opts.Export = pipewire.DefaultConfigOptions()
	}
	return &Session{
		filters:  []eq.Filter{},
		device:   UnknownDevice,
		graph:    opts.Graph,
		debounce: debounce.New(opts.Debounce),
		mainsHz:  opts.MainsHz,
		export:   opts.Export,
	}
}

// Filters returns a copy of the band list
func (s *Session) Filters() []eq.Filter {
	return eq.Clone(s.filters)
}

// Band returns band i
func (s *Session) Band(i int) (eq.Filter, error) {
	if err := s.check(i); err != nil {
		return eq.Filter{}, err
	}
	return s.filters[i], nil
}

// Len returns the number of bands
func (s *Session) Len() int {
	return len(s.filters)
}

// Device returns the output device name
func (s *Session) Device() string {
	return s.device
}

// MainsHz returns the mains frequency used for hum notches
func (s *Session) MainsHz() int {
	return s.mainsHz
}

// Live reports whether a graph is attached
func (s *Session) Live() bool {
	return s.graph != nil
}

// SetFilters replaces the band list
func (s *Session) SetFilters(filters []eq.Filter) {
	s.filters = eq.Clone(filters)
	if s.filters == nil {
		s.filters = []eq.Filter{}
	}
}

func (s *Session) check(i int) error {
	if i < 0 || i >= len(s.filters) {
		return fmt.Errorf("%w: %d", ErrNoBand, i+1)
	}
	return nil
}

// AddBand appends a default band. It reports false at MaxBands.
func (s *Session) AddBand() bool {
	if len(s.filters) >= MaxBands {
		return false
	}
	s.filters = append(s.filters, eq.Default())
	return true
}

// RemoveLast drops the last band. It reports false when there is none.
func (s *Session) RemoveLast() bool {
	if len(s.filters) == 0 {
		return false
	}
	s.filters = s.filters[:len(s.filters)-1]
	return true
}

// SetBandCount grows the list with default bands or trims it from the end.
// n is clamped to 0..MaxBands. It returns the resulting count.
func (s *Session) SetBandCount(n int) int {
	n = min(max(n, 0), MaxBands)
	for len(s.filters) < n {
		s.filters = append(s.filters, eq.Default())
	}
	s.filters = s.filters[:n]
	return n
}

// SetGain sets the gain of band i, clamped to the editor range, and
// schedules a live apply.
func (s *Session) SetGain(i int, db float64) error {
	if err := s.check(i); err != nil {
		return err
	}
	s.filters[i].GainDB = eq.Clamp(db, eq.MinGain, eq.MaxGain)
	s.ScheduleApply()
	return nil
}

// SetFrequency sets the centre or corner frequency of band i
func (s *Session) SetFrequency(i int, hz float64) error {
	if err := s.check(i); err != nil {
		return err
	}
	s.filters[i].FrequencyHz = eq.Clamp(hz, eq.MinFrequency, eq.MaxFrequency)
	return nil
}

// SetQ sets the Q of band i. Shelves have no Q and are left unchanged.
func (s *Session) SetQ(i int, q float64) error {
	if err := s.check(i); err != nil {
		return err
	}
	s.filters[i].SetQ(eq.Clamp(q, eq.MinQ, eq.MaxQ))
	return nil
}

// SetKind changes the shape of band i
func (s *Session) SetKind(i int, kind eq.Kind) error {
	if err := s.check(i); err != nil {
		return err
	}
	s.filters[i].SetKind(kind)
	return nil
}

// ToggleBypass flips band i between active and bypassed, keeping its
// parameters, and schedules a live apply.
func (s *Session) ToggleBypass(i int) error {
	if err := s.check(i); err != nil {
		return err
	}
	s.filters[i].Enabled = !s.filters[i].Enabled
	s.ScheduleApply()
	return nil
}

// AddHumNotch appends a narrow cut at the mains frequency
func (s *Session) AddHumNotch() int {
	return s.AddHumNotches(1)
}

// AddHumNotches appends cuts at the mains frequency and its next n-1
// harmonics, stopping at MaxBands. It returns how many were added.
func (s *Session) AddHumNotches(n int) int {
	added := 0
	for _, hz := range mains.Harmonics(s.mainsHz, n, eq.MaxFrequency) {
		if len(s.filters) >= MaxBands {
			break
		}
		s.filters = append(s.filters, eq.NewPeaking(hz, HumNotchGain, HumNotchQ))
		added++
	}
	return added
}

// ImportREW replaces the band list with the filters read from a REW export.
// Lines that could not be used are logged and returned.
func (s *Session) ImportREW(path string) ([]rew.Skip, error) {
	result, err := rew.ParseFile(path)
	if err != nil {
		return nil, err
	}
	for _, skip := range result.Skipped {
		slog.Warn("REW line skipped", "path", path, "line", skip.Line, "reason", skip.Reason)
	}
	s.SetFilters(result.Filters)
	slog.Info("REW filters imported", "path", path, "bands", len(result.Filters))
	return result.Skipped, nil
}

// ExportREW writes the active bands as REW text
func (s *Session) ExportREW(path string) error {
	if err := rew.WriteFile(path, eq.Enabled(s.filters)); err != nil {
		return err
	}
	slog.Info("REW filters exported", "path", path)
	return nil
}

// ExportConfig writes a filter-chain config file. It returns the indices of
// shelves left out of it.
func (s *Session) ExportConfig(path string) ([]int, error) {
	if err := s.export.WriteConfig(path, s.filters); err != nil {
		return nil, err
	}
	skipped := pipewire.Unsupported(s.filters)
	if len(skipped) > 0 {
		slog.Warn("shelf bands left out of config", "path", path, "bands", skipped)
	}
	slog.Info("Config exported", "path", path)
	return skipped, nil
}

// LoadActive replaces the band list with the bands of the running graph.
// The device name is kept even when the bands cannot be read.
func (s *Session) LoadActive(ctx context.Context) error {
	if s.graph == nil {
		return ErrOffline
	}
	filters, device, err := s.graph.Load(ctx)
	if device != "" {
		s.device = device
	}
	if err != nil {
		return fmt.Errorf("failed to read running filters: %w", err)
	}
	s.SetFilters(filters)
	slog.Info("Loaded running filters", "device", s.device, "bands", len(filters))
	return nil
}

// SetDispatch routes fired debounces to fn instead of applying on the timer
// goroutine. The TUI uses it to post a message and apply from Update.
func (s *Session) SetDispatch(fn func()) {
	s.dispatch = fn
}

// ScheduleApply arms the debounce. Without a dispatch func the band list as
// it is now is applied when the timer fires.
func (s *Session) ScheduleApply() {
	if s.graph == nil {
		return
	}
	if s.dispatch != nil {
		s.debounce.Trigger(s.dispatch)
		return
	}
	apply := s.ApplyFunc()
	s.debounce.Trigger(func() {
		_ = apply(context.Background())
	})
}

// Pending reports whether a live apply is waiting on the debounce
func (s *Session) Pending() bool {
	return s.debounce.Pending()
}

// Close cancels any pending live apply
func (s *Session) Close() {
	s.debounce.Stop()
}

// ApplyNow cancels the debounce and applies the band list immediately
func (s *Session) ApplyNow(ctx context.Context) error {
	s.debounce.Stop()
	return s.ApplyFunc()(ctx)
}

// ApplyFunc snapshots the band list and returns a func that applies it.
// The func is safe to call from any goroutine.
func (s *Session) ApplyFunc() func(ctx context.Context) error {
	graph := s.graph
	filters := s.Filters()
	return func(ctx context.Context) error {
		if graph == nil {
			return ErrOffline
		}
		if err := graph.Apply(ctx, filters); err != nil {
			slog.Warn("Live apply failed", "error", err)
			return err
		}
		return nil
	}
}
