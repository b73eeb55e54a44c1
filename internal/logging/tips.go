package logging

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/linuxmatters/pweq/internal/eq"
	"github.com/linuxmatters/pweq/internal/pipewire"
	"github.com/linuxmatters/pweq/internal/response"
)

// Tip is one piece of actionable advice about a band list
type Tip struct {
	Priority int    // Higher = more important (1-10)
	Message  string // Human-readable advice (1-2 sentences)
	RuleID   string // Identifier for testing/logging, e.g. "clipping_risk"
}

// MaxTips is the maximum number of tips to return
const MaxTips = 5

// Thresholds used by the rules
const (
	ExtremeBoostDB   = 12.0
	NarrowBoostQ     = 5.0
	DuplicateRatio   = 0.01 // bands closer than 1% in frequency
	responsePoints   = 256
	clippingMarginDB = 0.1
)

// tipInput is what every rule sees
type tipInput struct {
	filters    []eq.Filter
	sampleRate float64
	peakDB     float64
}

// GenerateTips checks a band list and returns prioritised suggestions
func GenerateTips(filters []eq.Filter, sampleRate float64) []Tip {
	if len(filters) == 0 {
		return nil
	}

	_, peak := response.Range(response.Curve(filters, sampleRate, responsePoints))
	in := tipInput{filters: filters, sampleRate: sampleRate, peakDB: peak}

	var tips []Tip
	fired := make(map[string]bool)

	rules := []func(tipInput) *Tip{
		tipClippingRisk,
		tipExtremeBoost,
		tipNarrowBoost,
		tipShelvesNotApplied,
		tipAboveNyquist,
		tipDuplicateBands,
		tipAllBypassed,
	}

	for _, rule := range rules {
		if tip := rule(in); tip != nil {
			tips = append(tips, *tip)
			fired[tip.RuleID] = true
		}
	}

	tips = applyExclusions(tips, fired)

	sort.SliceStable(tips, func(i, j int) bool {
		return tips[i].Priority > tips[j].Priority
	})

	if len(tips) > MaxTips {
		tips = tips[:MaxTips]
	}
	return tips
}

// applyExclusions drops tips made redundant by a more specific one. With
// every band bypassed nothing else matters.
func applyExclusions(tips []Tip, fired map[string]bool) []Tip {
	var result []Tip
	for _, tip := range tips {
		if fired["all_bypassed"] && tip.RuleID != "all_bypassed" {
			continue
		}
		result = append(result, tip)
	}
	return result
}

// FormatTips renders tips as a numbered list wrapped at width
func FormatTips(tips []Tip, width int) string {
	var sb strings.Builder
	for i, tip := range tips {
		prefix := fmt.Sprintf("%d. ", i+1)
		sb.WriteString(prefix)
		sb.WriteString(wrapText(tip.Message, width-len(prefix), strings.Repeat(" ", len(prefix))))
		sb.WriteString("\n")
	}
	return sb.String()
}

// wrapText wraps text at word boundaries to fit within maxWidth columns.
// Continuation lines are prefixed with indent.
func wrapText(text string, maxWidth int, indent string) string {
	words := strings.Fields(text)
	var lines []string
	currentLine := ""

	for _, word := range words {
		if currentLine == "" {
			currentLine = word
		} else if len(currentLine)+1+len(word) <= maxWidth {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return strings.Join(lines, "\n"+indent)
}

// tipClippingRisk fires when the combined response rises above 0 dB, so a
// full-scale signal would clip without a matching pre-gain cut.
func tipClippingRisk(in tipInput) *Tip {
	if in.peakDB <= clippingMarginDB {
		return nil
	}
	return &Tip{
		Priority: 10,
		RuleID:   "clipping_risk",
		Message:  fmt.Sprintf("The combined response peaks at %+.1f dB - lower the source or preamp by about %.0f dB to avoid clipping.", in.peakDB, math.Ceil(in.peakDB)),
	}
}

// tipExtremeBoost fires for any single boost beyond ExtremeBoostDB
func tipExtremeBoost(in tipInput) *Tip {
	var bands []string
	for i, f := range in.filters {
		if f.Enabled && f.GainDB > ExtremeBoostDB {
			bands = append(bands, fmt.Sprintf("%d", i+1))
		}
	}
	if len(bands) == 0 {
		return nil
	}
	return &Tip{
		Priority: 8,
		RuleID:   "extreme_boost",
		Message:  fmt.Sprintf("Band(s) %s boost by more than %.0f dB. Room dips rarely fill in with boost; consider cutting the peaks around them instead.", strings.Join(bands, ", "), ExtremeBoostDB),
	}
}

// tipNarrowBoost fires for narrow peaking boosts, which ring
func tipNarrowBoost(in tipInput) *Tip {
	var bands []string
	for i, f := range in.filters {
		q, ok := f.Q()
		if f.Enabled && ok && q > NarrowBoostQ && f.GainDB > 0 {
			bands = append(bands, fmt.Sprintf("%d", i+1))
		}
	}
	if len(bands) == 0 {
		return nil
	}
	return &Tip{
		Priority: 6,
		RuleID:   "narrow_boost",
		Message:  fmt.Sprintf("Band(s) %s are narrow boosts (Q above %.0f). Keep high Q for cuts such as hum notches.", strings.Join(bands, ", "), NarrowBoostQ),
	}
}

// tipShelvesNotApplied fires when shelves would be dropped by PipeWire
func tipShelvesNotApplied(in tipInput) *Tip {
	skipped := pipewire.Unsupported(in.filters)
	if len(skipped) == 0 {
		return nil
	}
	return &Tip{
		Priority: 7,
		RuleID:   "shelves_not_applied",
		Message:  fmt.Sprintf("%d shelf band(s) are shown in the response but not written to PipeWire, which only takes peaking bands here.", len(skipped)),
	}
}

// tipAboveNyquist fires for bands the sample rate cannot represent
func tipAboveNyquist(in tipInput) *Tip {
	n := 0
	for _, f := range in.filters {
		if f.Enabled && f.FrequencyHz >= in.sampleRate/2 {
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return &Tip{
		Priority: 5,
		RuleID:   "above_nyquist",
		Message:  fmt.Sprintf("%d band(s) sit at or above %.0f Hz, half the %.0f Hz sample rate, and have no effect.", n, in.sampleRate/2, in.sampleRate),
	}
}

// tipDuplicateBands fires when two enabled bands share a frequency
func tipDuplicateBands(in tipInput) *Tip {
	for i, a := range in.filters {
		if !a.Enabled {
			continue
		}
		for j := i + 1; j < len(in.filters); j++ {
			b := in.filters[j]
			if !b.Enabled || a.Kind() != b.Kind() {
				continue
			}
			if math.Abs(a.FrequencyHz-b.FrequencyHz) <= DuplicateRatio*a.FrequencyHz {
				return &Tip{
					Priority: 3,
					RuleID:   "duplicate_bands",
					Message:  fmt.Sprintf("Bands %d and %d share %.0f Hz - merging them frees a band and is easier to tune.", i+1, j+1, a.FrequencyHz),
				}
			}
		}
	}
	return nil
}

// tipAllBypassed fires when no band is active
func tipAllBypassed(in tipInput) *Tip {
	if len(eq.Enabled(in.filters)) > 0 {
		return nil
	}
	return &Tip{
		Priority: 9,
		RuleID:   "all_bypassed",
		Message:  "Every band is bypassed, so the equaliser is flat.",
	}
}
