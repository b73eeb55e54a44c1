// Package mains works out where electrical hum sits in the spectrum, so the
// editor can drop notch bands on the local mains frequency and its harmonics.
package mains

import (
	"strings"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"
)

// Fallback is used when the timezone gives no answer. Most of the world
// runs on 50 Hz.
const Fallback = 50

// Detection is the outcome of a mains frequency lookup
type Detection struct {
	Hz       int
	Timezone string // empty when the local timezone could not be read
	Country  string // empty when the timezone maps to no country
}

// Detect reads the local timezone and maps it to a mains frequency
func Detect() Detection {
	timezone, err := tzlocal.RuntimeTZ()
	if err != nil {
		return Detection{Hz: Fallback}
	}
	return DetectForTimezone(timezone)
}

// Frequency returns the local mains frequency in Hz (50 or 60)
func Frequency() int {
	return Detect().Hz
}

// DetectForTimezone maps an IANA timezone to a mains frequency
func DetectForTimezone(timezone string) Detection {
	d := Detection{Hz: Fallback, Timezone: timezone}

	// UTC/GMT have no country
	if timezone == "UTC" || timezone == "GMT" || strings.HasPrefix(timezone, "Etc/") {
		return d
	}

	tzMap, err := tz.NewTimezoneCountryMap()
	if err != nil {
		return d
	}

	country, err := tzMap.GetCountry(timezone)
	if err != nil {
		return d
	}

	d.Country = country
	d.Hz = frequencyForCountry(country)
	return d
}

// FrequencyForTimezone returns the mains frequency for a given IANA timezone
func FrequencyForTimezone(timezone string) int {
	return DetectForTimezone(timezone).Hz
}

// Harmonics returns base and its next n-1 integer multiples, stopping
// below maxHz.
func Harmonics(base int, n int, maxHz float64) []float64 {
	out := make([]float64, 0, n)
	for k := 1; k <= n; k++ {
		f := float64(base * k)
		if f >= maxHz {
			break
		}
		out = append(out, f)
	}
	return out
}

// frequencyForCountry returns 50 Hz for anything not listed as 60 Hz.
// Japan is split by region; the Tokyo side (50 Hz) is used.
func frequencyForCountry(country string) int {
	if country == "Japan" {
		return 50
	}
	if hz60Countries[country] {
		return 60
	}
	return Fallback
}

// hz60Countries lists countries on 60 Hz mains.
// Source: https://en.wikipedia.org/wiki/Mains_electricity_by_country
var hz60Countries = map[string]bool{
	// North America
	"United States": true,
	"Canada":        true,
	"Mexico":        true,

	// Central America
	"Belize":      true,
	"Costa Rica":  true,
	"El Salvador": true,
	"Guatemala":   true,
	"Honduras":    true,
	"Nicaragua":   true,
	"Panama":      true,

	// Caribbean
	"Bahamas":             true,
	"Barbados":            true,
	"Cayman Islands":      true,
	"Cuba":                true,
	"Dominican Republic":  true,
	"Haiti":               true,
	"Jamaica":             true,
	"Puerto Rico":         true,
	"Trinidad and Tobago": true,
	"U.S. Virgin Islands": true,

	// South America, Brazil is mixed but mostly 60 Hz
	"Brazil":    true,
	"Colombia":  true,
	"Ecuador":   true,
	"Guyana":    true,
	"Peru":      true,
	"Suriname":  true,
	"Venezuela": true,

	// Asia
	"South Korea":  true,
	"Taiwan":       true,
	"Philippines":  true,
	"Saudi Arabia": true,

	// Pacific
	"Guam":             true,
	"American Samoa":   true,
	"Marshall Islands": true,
	"Micronesia":       true,
	"Palau":            true,
}
