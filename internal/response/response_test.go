package response

import (
	"math"
	"testing"

	"github.com/linuxmatters/pweq/internal/eq"
)

const sampleRate = 48000

func TestFlatWithoutBands(t *testing.T) {
	for _, p := range Curve(nil, sampleRate, 32) {
		if math.Abs(p.GainDB) > 1e-9 {
			t.Fatalf("gain at %.1f Hz = %v, want 0", p.FrequencyHz, p.GainDB)
		}
	}
}

func TestPeakAtCentre(t *testing.T) {
	filters := []eq.Filter{eq.NewPeaking(1000, 6, 2)}

	got := At(filters, sampleRate, []float64{1000, 100, 10000})
	if math.Abs(got[0].GainDB-6) > 0.01 {
		t.Errorf("gain at centre = %.3f dB, want 6", got[0].GainDB)
	}
	if math.Abs(got[1].GainDB) > 0.5 || math.Abs(got[2].GainDB) > 0.5 {
		t.Errorf("gain far from centre = %.3f / %.3f dB, want ~0", got[1].GainDB, got[2].GainDB)
	}
}

func TestDisabledBandsIgnored(t *testing.T) {
	f := eq.NewPeaking(1000, 12, 1)
	f.Enabled = false

	if n := len(Coefficients([]eq.Filter{f}, sampleRate)); n != 0 {
		t.Errorf("got %d sections, want 0", n)
	}
}

func TestShelves(t *testing.T) {
	filters := []eq.Filter{eq.NewShelf(eq.LowShelf, 200, -6)}
	got := At(filters, sampleRate, []float64{20, 15000})
	if math.Abs(got[0].GainDB+6) > 0.5 {
		t.Errorf("low shelf gain at 20 Hz = %.2f dB, want about -6", got[0].GainDB)
	}
	if math.Abs(got[1].GainDB) > 0.5 {
		t.Errorf("low shelf gain at 15 kHz = %.2f dB, want about 0", got[1].GainDB)
	}
}

func TestAboveNyquistSkipped(t *testing.T) {
	filters := []eq.Filter{eq.NewPeaking(30000, 6, 1)}
	if n := len(Coefficients(filters, sampleRate)); n != 0 {
		t.Errorf("got %d sections, want 0", n)
	}
}

func TestLogFrequencies(t *testing.T) {
	freqs := LogFrequencies(20, 20000, 4)
	want := []float64{20, 200, 2000, 20000}
	for i := range want {
		if math.Abs(freqs[i]-want[i]) > 1e-6*want[i] {
			t.Errorf("freqs[%d] = %v, want %v", i, freqs[i], want[i])
		}
	}
}

func TestRange(t *testing.T) {
	lo, hi := Range([]Point{{100, -3}, {200, 4}, {300, 1}})
	if lo != -3 || hi != 4 {
		t.Errorf("Range() = %v, %v, want -3, 4", lo, hi)
	}
}
