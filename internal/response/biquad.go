package response

import (
	"math"
	"math/cmplx"
)

// Biquad holds one second-order section normalised so that a0 is 1
type Biquad struct {
	B0, B1, B2 float64
	A1, A2     float64
}

func normalise(b0, b1, b2, a0, a1, a2 float64) Biquad {
	return Biquad{B0: b0 / a0, B1: b1 / a0, B2: b2 / a0, A1: a1 / a0, A2: a2 / a0}
}

// rbj returns the shared RBJ cookbook terms for a band
func rbj(freq, gainDB, q, sampleRate float64) (a, cosW, alpha float64) {
	w0 := 2 * math.Pi * freq / sampleRate
	return math.Pow(10, gainDB/40), math.Cos(w0), math.Sin(w0) / (2 * q)
}

// Peak designs a peaking band
func Peak(freq, gainDB, q, sampleRate float64) Biquad {
	a, cosW, alpha := rbj(freq, gainDB, q, sampleRate)
	return normalise(
		1+alpha*a, -2*cosW, 1-alpha*a,
		1+alpha/a, -2*cosW, 1-alpha/a,
	)
}

// LowShelf designs a low shelf with slope set by q
func LowShelf(freq, gainDB, q, sampleRate float64) Biquad {
	a, cosW, alpha := rbj(freq, gainDB, q, sampleRate)
	sq := 2 * math.Sqrt(a) * alpha
	return normalise(
		a*((a+1)-(a-1)*cosW+sq),
		2*a*((a-1)-(a+1)*cosW),
		a*((a+1)-(a-1)*cosW-sq),
		(a+1)+(a-1)*cosW+sq,
		-2*((a-1)+(a+1)*cosW),
		(a+1)+(a-1)*cosW-sq,
	)
}

// HighShelf designs a high shelf with slope set by q
func HighShelf(freq, gainDB, q, sampleRate float64) Biquad {
	a, cosW, alpha := rbj(freq, gainDB, q, sampleRate)
	sq := 2 * math.Sqrt(a) * alpha
	return normalise(
		a*((a+1)+(a-1)*cosW+sq),
		-2*a*((a-1)+(a+1)*cosW),
		a*((a+1)+(a-1)*cosW-sq),
		(a+1)-(a-1)*cosW+sq,
		2*((a-1)-(a+1)*cosW),
		(a+1)-(a-1)*cosW-sq,
	)
}

// MagnitudeDB evaluates |H(e^jw)| of the section at freq, in dB
func (b Biquad) MagnitudeDB(freq, sampleRate float64) float64 {
	z1 := cmplx.Exp(complex(0, -2*math.Pi*freq/sampleRate))
	z2 := z1 * z1
	num := complex(b.B0, 0) + complex(b.B1, 0)*z1 + complex(b.B2, 0)*z2
	den := 1 + complex(b.A1, 0)*z1 + complex(b.A2, 0)*z2
	return 20 * math.Log10(cmplx.Abs(num)/cmplx.Abs(den))
}

// Chain is a cascade of sections
type Chain []Biquad

// MagnitudeDB sums the per-section gains at freq
func (c Chain) MagnitudeDB(freq, sampleRate float64) float64 {
	var total float64
	for _, b := range c {
		total += b.MagnitudeDB(freq, sampleRate)
	}
	return total
}
