package editor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/linuxmatters/pweq/internal/eq"
)

// fakeGraph records every applied band list
type fakeGraph struct {
	mu      sync.Mutex
	applied [][]eq.Filter
	done    chan struct{}
	err     error

	loaded []eq.Filter
	device string
	lErr   error
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{done: make(chan struct{}, 16)}
}

func (g *fakeGraph) Apply(_ context.Context, filters []eq.Filter) error {
	g.mu.Lock()
	g.applied = append(g.applied, filters)
	g.mu.Unlock()
	g.done <- struct{}{}
	return g.err
}

func (g *fakeGraph) Load(context.Context) ([]eq.Filter, string, error) {
	return g.loaded, g.device, g.lErr
}

func (g *fakeGraph) calls() [][]eq.Filter {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.applied
}

func newSession(g Graph) *Session {
	return New(Options{Graph: g, Debounce: 20 * time.Millisecond, MainsHz: 50})
}

func TestNewSessionIsEmpty(t *testing.T) {
	s := newSession(nil)
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	if s.Device() != UnknownDevice {
		t.Errorf("Device() = %q, want %q", s.Device(), UnknownDevice)
	}
	if s.Live() {
		t.Error("Live() = true without a graph")
	}
}

func TestSetBandCount(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"grow", 3, 3},
		{"zero", 0, 0},
		{"negative", -4, 0},
		{"over max", 250, MaxBands},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(nil)
			if got := s.SetBandCount(tt.n); got != tt.want {
				t.Errorf("SetBandCount(%d) = %d, want %d", tt.n, got, tt.want)
			}
			if s.Len() != tt.want {
				t.Errorf("Len() = %d, want %d", s.Len(), tt.want)
			}
		})
	}
}

func TestSetBandCountTrimsFromEnd(t *testing.T) {
	s := newSession(nil)
	s.SetFilters([]eq.Filter{
		eq.NewPeaking(100, 1, 1),
		eq.NewPeaking(200, 2, 1),
		eq.NewPeaking(300, 3, 1),
	})

	s.SetBandCount(2)
	got := s.Filters()
	if len(got) != 2 || got[0].FrequencyHz != 100 || got[1].FrequencyHz != 200 {
		t.Errorf("after trim = %v", got)
	}

	s.SetBandCount(3)
	if b, _ := s.Band(2); b != eq.Default() {
		t.Errorf("new band = %v, want default", b)
	}
}

func TestAddAndRemove(t *testing.T) {
	s := newSession(nil)
	if s.RemoveLast() {
		t.Error("RemoveLast() on empty list = true")
	}
	s.AddBand()
	s.AddBand()
	if !s.RemoveLast() || s.Len() != 1 {
		t.Errorf("Len() = %d after add, add, remove", s.Len())
	}

	s.SetBandCount(MaxBands)
	if s.AddBand() {
		t.Error("AddBand() past MaxBands = true")
	}
}

func TestSettersClamp(t *testing.T) {
	s := newSession(nil)
	s.AddBand()

	_ = s.SetGain(0, 40)
	_ = s.SetFrequency(0, 5)
	_ = s.SetQ(0, 0.01)

	b, _ := s.Band(0)
	if b.GainDB != eq.MaxGain {
		t.Errorf("GainDB = %v, want %v", b.GainDB, eq.MaxGain)
	}
	if b.FrequencyHz != eq.MinFrequency {
		t.Errorf("FrequencyHz = %v, want %v", b.FrequencyHz, eq.MinFrequency)
	}
	if q, _ := b.Q(); q != eq.MinQ {
		t.Errorf("Q = %v, want %v", q, eq.MinQ)
	}
}

func TestSetQIgnoredForShelf(t *testing.T) {
	s := newSession(nil)
	s.AddBand()
	_ = s.SetKind(0, eq.LowShelf)
	_ = s.SetQ(0, 4)

	b, _ := s.Band(0)
	if _, ok := b.Q(); ok {
		t.Error("shelf has a Q after SetQ")
	}
}

func TestBadIndex(t *testing.T) {
	s := newSession(nil)
	for name, err := range map[string]error{
		"gain":   s.SetGain(0, 1),
		"freq":   s.SetFrequency(-1, 100),
		"q":      s.SetQ(3, 1),
		"kind":   s.SetKind(0, eq.HighShelf),
		"bypass": s.ToggleBypass(0),
	} {
		if !errors.Is(err, ErrNoBand) {
			t.Errorf("%s: err = %v, want ErrNoBand", name, err)
		}
	}
}

func TestToggleBypassKeepsParameters(t *testing.T) {
	s := newSession(nil)
	s.SetFilters([]eq.Filter{eq.NewPeaking(440, -3, 2.5)})

	_ = s.ToggleBypass(0)
	b, _ := s.Band(0)
	if b.Enabled {
		t.Fatal("band still enabled after bypass")
	}
	if b.FrequencyHz != 440 || b.GainDB != -3 {
		t.Errorf("parameters changed: %v", b)
	}

	_ = s.ToggleBypass(0)
	if b, _ = s.Band(0); !b.Enabled {
		t.Error("band not re-enabled")
	}
}

func TestHumNotch(t *testing.T) {
	s := newSession(nil)
	s.AddHumNotch()

	b, _ := s.Band(0)
	q, _ := b.Q()
	if b.FrequencyHz != 50 || b.GainDB != HumNotchGain || q != HumNotchQ {
		t.Errorf("hum notch = %v", b)
	}

	if added := s.AddHumNotches(3); added != 3 {
		t.Errorf("AddHumNotches(3) = %d, want 3", added)
	}
	if b, _ := s.Band(3); b.FrequencyHz != 150 {
		t.Errorf("third harmonic at %v Hz, want 150", b.FrequencyHz)
	}
}

func TestDebouncedApply(t *testing.T) {
	g := newFakeGraph()
	s := newSession(g)
	s.AddBand()

	_ = s.SetGain(0, 1)
	_ = s.SetGain(0, 2)
	_ = s.SetGain(0, 3)

	select {
	case <-g.done:
	case <-time.After(time.Second):
		t.Fatal("debounced apply never ran")
	}
	time.Sleep(60 * time.Millisecond)

	calls := g.calls()
	if len(calls) != 1 {
		t.Fatalf("got %d applies, want 1", len(calls))
	}
	if calls[0][0].GainDB != 3 {
		t.Errorf("applied gain %v, want 3", calls[0][0].GainDB)
	}
}

func TestDispatchReplacesTimerApply(t *testing.T) {
	g := newFakeGraph()
	s := newSession(g)
	s.AddBand()

	fired := make(chan struct{}, 1)
	s.SetDispatch(func() { fired <- struct{}{} })
	_ = s.ToggleBypass(0)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("dispatch never ran")
	}
	if n := len(g.calls()); n != 0 {
		t.Errorf("graph applied %d times, want 0", n)
	}
}

func TestApplyNow(t *testing.T) {
	g := newFakeGraph()
	g.err = errors.New("pw-cli failed")
	s := newSession(g)
	s.SetFilters([]eq.Filter{eq.NewPeaking(100, 2, 1)})

	_ = s.SetGain(0, 4)
	if err := s.ApplyNow(context.Background()); err == nil {
		t.Error("ApplyNow() error = nil, want graph error")
	}
	if s.Pending() {
		t.Error("debounce still pending after ApplyNow")
	}

	if err := newSession(nil).ApplyNow(context.Background()); !errors.Is(err, ErrOffline) {
		t.Errorf("offline ApplyNow() = %v, want ErrOffline", err)
	}
}

func TestLoadActive(t *testing.T) {
	g := newFakeGraph()
	g.loaded = []eq.Filter{eq.NewPeaking(63, -2, 1.5)}
	g.device = "Built-in Audio"
	s := newSession(g)

	if err := s.LoadActive(context.Background()); err != nil {
		t.Fatalf("LoadActive failed: %v", err)
	}
	if s.Len() != 1 || s.Device() != "Built-in Audio" {
		t.Errorf("after load: %d bands, device %q", s.Len(), s.Device())
	}

	g.lErr = errors.New("bad dump")
	s.AddBand()
	if err := s.LoadActive(context.Background()); err == nil {
		t.Error("expected error")
	}
	if s.Len() != 2 {
		t.Errorf("band list replaced on failed load: %d bands", s.Len())
	}
}

func TestImportExportREW(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	content := "Filter 1: ON  PK       Fc   100.0 Hz  Gain  -3.0 dB  Q  1.000\n" +
		"Filter 2: ON  None\n" +
		"Filter 3: ON  HS       Fc   8000 Hz  Gain  2.0 dB\n"
	if err := os.WriteFile(in, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s := newSession(nil)
	skips, err := s.ImportREW(in)
	if err != nil {
		t.Fatalf("ImportREW failed: %v", err)
	}
	if s.Len() != 2 || len(skips) != 1 {
		t.Fatalf("imported %d bands, %d skips", s.Len(), len(skips))
	}

	_ = s.ToggleBypass(0)
	out := filepath.Join(dir, "out.txt")
	if err := s.ExportREW(out); err != nil {
		t.Fatalf("ExportREW failed: %v", err)
	}
	data, _ := os.ReadFile(out)
	if lines := strings.Count(string(data), "\n"); lines != 1 {
		t.Errorf("exported %d lines, want 1 (bypassed band dropped):\n%s", lines, data)
	}
}

func TestExportConfigReportsShelves(t *testing.T) {
	s := newSession(nil)
	s.SetFilters([]eq.Filter{
		eq.NewPeaking(100, 1, 1),
		eq.NewShelf(eq.LowShelf, 80, 3),
	})

	path := filepath.Join(t.TempDir(), "exported_eq.conf")
	skipped, err := s.ExportConfig(path)
	if err != nil {
		t.Fatalf("ExportConfig failed: %v", err)
	}
	if len(skipped) != 1 || skipped[0] != 1 {
		t.Errorf("skipped = %v, want [1]", skipped)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config not written: %v", err)
	}
}

func TestStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s := newSession(nil)
	s.SetFilters([]eq.Filter{eq.NewPeaking(250, 1.5, 0.7), eq.NewShelf(eq.HighShelf, 9000, -2)})
	_ = s.ToggleBypass(1)
	s.device = "USB DAC"
	if err := s.SaveState(path); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	restored := newSession(nil)
	if err := restored.LoadState(path); err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if restored.Device() != "USB DAC" {
		t.Errorf("Device() = %q", restored.Device())
	}
	want := s.Filters()
	got := restored.Filters()
	if len(got) != len(want) {
		t.Fatalf("got %d bands, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("band %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLoadStateErrors(t *testing.T) {
	dir := t.TempDir()
	if err := newSession(nil).LoadState(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	_ = os.WriteFile(bad, []byte("{not json"), 0644)
	if err := newSession(nil).LoadState(bad); err == nil {
		t.Error("expected error for bad JSON")
	}
}
