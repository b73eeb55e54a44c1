package logging

import (
	"fmt"
	"math"
	"strings"

	"github.com/linuxmatters/pweq/internal/eq"
	"github.com/linuxmatters/pweq/internal/response"
)

// Row is one line of a Table. Values are pre-formatted.
type Row struct {
	Label  string   // e.g. "Band 3"
	Values []string // one per header
	Note   string   // shown after the values when non-empty
}

// Table formats aligned columns: labels left, values right, notes left.
type Table struct {
	Headers []string
	Rows    []Row
}

// String renders the table with aligned columns. The note column is only
// emitted when at least one row has a note.
func (t *Table) String() string {
	if len(t.Rows) == 0 {
		return ""
	}

	hasNote := false
	labelWidth := 0
	for _, row := range t.Rows {
		if row.Note != "" {
			hasNote = true
		}
		labelWidth = max(labelWidth, len(row.Label))
	}

	valueWidths := make([]int, len(t.Headers))
	for i, header := range t.Headers {
		valueWidths[i] = len(header)
	}
	for _, row := range t.Rows {
		for i, val := range row.Values {
			if i < len(valueWidths) {
				valueWidths[i] = max(valueWidths[i], len(val))
			}
		}
	}

	var sb strings.Builder

	sb.WriteString(strings.Repeat(" ", labelWidth+2))
	for i, header := range t.Headers {
		fmt.Fprintf(&sb, "%*s  ", valueWidths[i], header)
	}
	if hasNote {
		sb.WriteString("Note")
	}
	sb.WriteString("\n")

	for _, row := range t.Rows {
		fmt.Fprintf(&sb, "%-*s  ", labelWidth, row.Label)
		for i := range t.Headers {
			val := MissingValue
			if i < len(row.Values) && row.Values[i] != "" {
				val = row.Values[i]
			}
			fmt.Fprintf(&sb, "%*s  ", valueWidths[i], val)
		}
		if hasNote {
			sb.WriteString(row.Note)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// AddRow appends a row of pre-formatted values
func (t *Table) AddRow(label string, values []string, note string) {
	t.Rows = append(t.Rows, Row{Label: label, Values: values, Note: note})
}

// MissingValue is the placeholder for values that do not apply, such as the
// Q of a shelf.
const MissingValue = "-"

// formatMetric formats a value to the given precision. NaN and Inf become
// MissingValue.
func formatMetric(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	return fmt.Sprintf("%.*f", decimals, value)
}

// formatMetricSigned formats a value with an explicit sign, e.g. "+2.5"
func formatMetricSigned(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	return fmt.Sprintf("%+.*f", decimals, value)
}

// BandTable lists filters one per row, numbered from 1
func BandTable(filters []eq.Filter) *Table {
	t := &Table{Headers: []string{"Type", "Freq Hz", "Gain dB", "Q", "State"}}
	for i, f := range filters {
		q := MissingValue
		if v, ok := f.Q(); ok {
			q = formatMetric(v, 2)
		}
		state := "on"
		if !f.Enabled {
			state = "bypass"
		}
		note := ""
		if f.Kind() != eq.Peaking {
			note = "not applied to PipeWire"
		}
		t.AddRow(fmt.Sprintf("Band %d", i+1), []string{
			f.Kind().String(),
			formatMetric(f.FrequencyHz, 1),
			formatMetricSigned(f.GainDB, 1),
			q,
			state,
		}, note)
	}
	return t
}

// ResponseTable lists a response curve, one point per row
func ResponseTable(points []response.Point) *Table {
	t := &Table{Headers: []string{"Freq Hz", "Gain dB"}}
	for _, p := range points {
		t.AddRow("", []string{
			formatMetric(p.FrequencyHz, 1),
			formatMetricSigned(p.GainDB, 2),
		}, "")
	}
	return t
}
