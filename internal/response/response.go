// Package response computes the magnitude response of an EQ band list by
// cascading one RBJ biquad per enabled band.
package response

import (
	"math"

	"github.com/linuxmatters/pweq/internal/eq"
)

// ShelfQ is the slope used for shelves, which carry no Q of their own
var ShelfQ = 1 / math.Sqrt2

// Point is the combined gain at one frequency
type Point struct {
	FrequencyHz float64
	GainDB      float64
}

// Coefficients designs one biquad per enabled band. Bands at or above
// Nyquist are left out.
func Coefficients(filters []eq.Filter, sampleRate float64) Chain {
	coeffs := make(Chain, 0, len(filters))
	for _, f := range filters {
		if !f.Enabled || f.FrequencyHz <= 0 || f.FrequencyHz >= sampleRate/2 {
			continue
		}

		switch f.Kind() {
		case eq.Peaking:
			q, _ := f.Q()
			coeffs = append(coeffs, Peak(f.FrequencyHz, f.GainDB, q, sampleRate))
		case eq.LowShelf:
			coeffs = append(coeffs, LowShelf(f.FrequencyHz, f.GainDB, ShelfQ, sampleRate))
		case eq.HighShelf:
			coeffs = append(coeffs, HighShelf(f.FrequencyHz, f.GainDB, ShelfQ, sampleRate))
		}
	}
	return coeffs
}

// LogFrequencies returns n log-spaced frequencies from lo to hi inclusive
func LogFrequencies(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}

	out := make([]float64, n)
	ratio := math.Log(hi / lo)
	for i := range out {
		out[i] = lo * math.Exp(ratio*float64(i)/float64(n-1))
	}
	return out
}

// Curve evaluates the combined response at n log-spaced points across the
// editor's 20 Hz to 20 kHz range.
func Curve(filters []eq.Filter, sampleRate float64, n int) []Point {
	hi := math.Min(eq.MaxFrequency, sampleRate/2*0.999)
	return At(filters, sampleRate, LogFrequencies(eq.MinFrequency, hi, n))
}

// At evaluates the combined response at the given frequencies
func At(filters []eq.Filter, sampleRate float64, freqs []float64) []Point {
	chain := Coefficients(filters, sampleRate)

	points := make([]Point, len(freqs))
	for i, f := range freqs {
		points[i] = Point{FrequencyHz: f, GainDB: chain.MagnitudeDB(f, sampleRate)}
	}
	return points
}

// Range returns the lowest and highest gain in points
func Range(points []Point) (lo, hi float64) {
	if len(points) == 0 {
		return 0, 0
	}
	lo, hi = points[0].GainDB, points[0].GainDB
	for _, p := range points[1:] {
		lo = math.Min(lo, p.GainDB)
		hi = math.Max(hi, p.GainDB)
	}
	return lo, hi
}
