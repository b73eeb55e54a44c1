package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/pweq/internal/eq"
	"github.com/linuxmatters/pweq/internal/logging"
	"github.com/linuxmatters/pweq/internal/response"
)

var (
	primaryColor = lipgloss.Color("#A40000")
	accentColor  = lipgloss.Color("#FFA500")
	okColor      = lipgloss.Color("#00AA00")
	mutedColor   = lipgloss.Color("#888888")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	subtitleStyle = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	cellStyle     = lipgloss.NewStyle().Bold(true).Foreground(accentColor).Underline(true)
	bypassStyle   = lipgloss.NewStyle().Foreground(mutedColor).Strikethrough(true)
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	okStyle       = lipgloss.NewStyle().Foreground(okColor)
	helpStyle     = lipgloss.NewStyle().Foreground(mutedColor)

	curveBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)
)

// curveHeight is the number of text rows in the response plot
const curveHeight = 6

// maxVisibleBands caps the band table before it scrolls
const maxVisibleBands = 16

// View renders the UI
func (m Model) View() string {
	if m.Width == 0 {
		return "Initializing..."
	}

	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")
	b.WriteString(renderBands(m))
	b.WriteString("\n")
	b.WriteString(renderResponse(m))
	b.WriteString("\n")
	if tip := renderTip(m); tip != "" {
		b.WriteString(tip)
		b.WriteString("\n")
	}
	b.WriteString(renderStatus(m))
	b.WriteString("\n")
	if m.prompt != promptNone {
		b.WriteString(headerStyle.Render(promptLabels[m.prompt]+": ") + m.input.View())
	} else {
		b.WriteString(renderHelp())
	}

	return b.String()
}

// renderHeader renders the application header
func renderHeader(m Model) string {
	title := titleStyle.Render("pweq 🎚 - PipeWire Filter-Chain Equaliser")

	mode := okStyle.Render("live")
	if !m.session.Live() {
		mode = errorStyle.Render("offline")
	}
	subtitle := subtitleStyle.Render(fmt.Sprintf("Device: %s | %d band(s) | mains %d Hz | ",
		m.session.Device(), m.session.Len(), m.session.MainsHz())) + mode

	return title + "\n" + subtitle
}

// renderBands renders the band table with the cursor cell highlighted
func renderBands(m Model) string {
	filters := m.session.Filters()
	if len(filters) == 0 {
		return subtitleStyle.Render("  No bands. Press a to add one or i to import a REW file.") + "\n"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %3s  %-9s %10s %9s %6s  %-6s", "#", "Type", "Freq Hz", "Gain dB", "Q", "State")))
	b.WriteString("\n")

	start, end := visibleRange(m.Cursor, len(filters), maxVisibleBands)
	for i := start; i < end; i++ {
		b.WriteString(renderBandRow(filters[i], i, m.Cursor == i, m.Field))
		b.WriteString("\n")
	}
	if end-start < len(filters) {
		b.WriteString(subtitleStyle.Render(fmt.Sprintf("  showing %d-%d of %d", start+1, end, len(filters))))
		b.WriteString("\n")
	}
	return b.String()
}

// renderBandRow renders one band; on the selected row the field under the
// cursor is highlighted
func renderBandRow(f eq.Filter, index int, selected bool, field Field) string {
	q := "-"
	if v, ok := f.Q(); ok {
		q = fmt.Sprintf("%.2f", v)
	}
	state := "on"
	if !f.Enabled {
		state = "bypass"
	}

	cells := []string{
		fmt.Sprintf("%-9s", f.Kind().String()),
		fmt.Sprintf("%10.1f", f.FrequencyHz),
		fmt.Sprintf("%+9.1f", f.GainDB),
		fmt.Sprintf("%6s", q),
		fmt.Sprintf("%-6s", state),
	}

	if selected {
		cells[field] = cellStyle.Render(cells[field])
	}
	row := fmt.Sprintf("%3d  %s %s %s %s  %s", index+1, cells[0], cells[1], cells[2], cells[3], cells[4])

	switch {
	case selected:
		return selectedStyle.Render(">") + " " + row
	case !f.Enabled:
		return "  " + bypassStyle.Render(row)
	}
	return "  " + row
}

// visibleRange keeps the cursor inside a window of size rows
func visibleRange(cursor, total, size int) (int, int) {
	if total <= size {
		return 0, total
	}
	start := max(0, cursor-size/2)
	end := start + size
	if end > total {
		end = total
		start = end - size
	}
	return start, end
}

// renderResponse renders the combined magnitude response as a block plot
func renderResponse(m Model) string {
	width := max(20, min(m.Width-8, 120))
	points := response.Curve(m.session.Filters(), m.settings.SampleRate, width)
	lo, hi := response.Range(points)
	scale := math.Max(3, math.Max(math.Abs(lo), math.Abs(hi)))

	var b strings.Builder
	fmt.Fprintf(&b, "Response (±%.0f dB, 20 Hz - 20 kHz)  min %+.1f dB  max %+.1f dB\n", scale, lo, hi)
	b.WriteString(strings.Join(renderCurve(points, scale, curveHeight), "\n"))

	return curveBox.Render(b.String())
}

var blocks = []rune(" ▁▂▃▄▅▆▇█")

// renderCurve draws points as filled columns, height rows tall, with 0 dB
// at the middle and ±scale at the edges. Row 0 is the top.
func renderCurve(points []response.Point, scale float64, height int) []string {
	rows := make([][]rune, height)
	for r := range rows {
		rows[r] = make([]rune, len(points))
	}

	steps := float64(height * 8)
	for c, p := range points {
		level := (eq.Clamp(p.GainDB, -scale, scale) + scale) / (2 * scale) * steps
		for r := 0; r < height; r++ {
			base := float64((height - 1 - r) * 8)
			fill := int(math.Round(eq.Clamp(level-base, 0, 8)))
			rows[r][c] = blocks[fill]
		}
	}

	out := make([]string, height)
	for r := range rows {
		out[r] = string(rows[r])
	}
	return out
}

// renderTip shows the most important tip for the current bands
func renderTip(m Model) string {
	tips := logging.GenerateTips(m.session.Filters(), m.settings.SampleRate)
	if len(tips) == 0 {
		return ""
	}
	return headerStyle.Render("Tip: ") + helpStyle.Render(tips[0].Message)
}

// renderStatus renders the last status message and any apply in flight
func renderStatus(m Model) string {
	var parts []string
	if m.Applying {
		parts = append(parts, lipgloss.NewStyle().Foreground(primaryColor).Render(spinnerFrames[m.spinnerIndex])+" applying")
	} else if m.session.Pending() {
		parts = append(parts, "apply pending")
	}
	if m.Status != "" {
		if m.StatusErr {
			parts = append(parts, errorStyle.Render(m.Status))
		} else {
			parts = append(parts, m.Status)
		}
	}
	return strings.Join(parts, " | ")
}

func renderHelp() string {
	return helpStyle.Render(strings.Join([]string{
		"↑/↓ band  ←/→ field  +/- adjust  enter type value  space bypass  t type",
		"a add  x remove  n count  m hum notch  M hum + harmonics",
		"i import REW  e export REW  c export config  p apply  r reload  s save  q quit",
	}, "\n"))
}
