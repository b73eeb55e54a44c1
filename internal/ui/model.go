// Package ui provides the Bubbletea terminal editor for pweq
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/pweq/internal/editor"
	"github.com/linuxmatters/pweq/internal/eq"
)

// Field is the band column under the cursor
type Field int

const (
	FieldType Field = iota
	FieldFrequency
	FieldGain
	FieldQ
	FieldState
	fieldCount
)

var fieldNames = [...]string{"Type", "Freq", "Gain", "Q", "State"}

func (f Field) String() string {
	return fieldNames[f]
}

// Step sizes for +/- adjustments
const (
	GainStep = 0.5
	QStep    = 0.1
	// one third of an octave
	FrequencyRatio = 1.2599210498948732
)

// prompt is what the text input is currently collecting
type prompt int

const (
	promptNone prompt = iota
	promptValue
	promptBandCount
	promptImportREW
	promptExportREW
	promptExportConfig
)

var promptLabels = map[prompt]string{
	promptValue:        "Value",
	promptBandCount:    "Band count",
	promptImportREW:    "Import REW file",
	promptExportREW:    "Export REW file",
	promptExportConfig: "Export config file",
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Paths and settings the editor needs beyond the session
type Settings struct {
	StatePath  string
	ExportPath string
	REWPath    string
	SampleRate float64
}

// Model is the Bubbletea model for the band editor
type Model struct {
	session  *editor.Session
	settings Settings

	Cursor int
	Field  Field

	prompt prompt
	input  textinput.Model

	Status    string
	StatusErr bool

	Applying     bool
	spinnerIndex int

	// Terminal dimensions
	Width  int
	Height int
}

// NewModel creates the editor over session
func NewModel(session *editor.Session, settings Settings) Model {
	if settings.SampleRate <= 0 {
		settings.SampleRate = 48000
	}

	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 4096
	ti.Width = 60

	m := Model{
		session:  session,
		settings: settings,
		Field:    FieldGain,
		input:    ti,
	}
	if !session.Live() {
		m.setStatus("offline: edits are not applied live", false)
	}
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// tickCmd returns a command that sends a tick message every 100ms
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// applyCmd snapshots the session and applies it off the UI goroutine
func (m Model) applyCmd() tea.Cmd {
	apply := m.session.ApplyFunc()
	return func() tea.Msg {
		return AppliedMsg{Err: apply(context.Background())}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m.updatePrompt(msg)
		}
		return m.updateKeys(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case ApplyMsg:
		if m.Applying {
			// one in flight; the next edit schedules another
			m.session.ScheduleApply()
			return m, nil
		}
		m.Applying = true
		return m, tea.Batch(m.applyCmd(), tickCmd())

	case AppliedMsg:
		m.Applying = false
		if msg.Err != nil {
			m.setStatus("apply failed: "+msg.Err.Error(), true)
		} else {
			m.setStatus(fmt.Sprintf("applied %d band(s) live", len(eq.Enabled(m.session.Filters()))), false)
		}

	case tickMsg:
		if m.Applying {
			m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)
			return m, tickCmd()
		}
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.session.Close()
		if m.settings.StatePath != "" {
			if err := m.session.SaveState(m.settings.StatePath); err != nil {
				slog.Warn("Session not saved", "error", err)
			}
		}
		return m, tea.Quit

	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < m.session.Len()-1 {
			m.Cursor++
		}
	case "left":
		m.Field = (m.Field + fieldCount - 1) % fieldCount
	case "right", "tab":
		m.Field = (m.Field + 1) % fieldCount

	case "+", "=":
		m.adjust(1)
	case "-", "_":
		m.adjust(-1)

	case " ", "b":
		m.report(m.session.ToggleBypass(m.Cursor))
	case "t":
		m.cycleKind()

	case "a":
		if !m.session.AddBand() {
			m.setStatus(fmt.Sprintf("at most %d bands", editor.MaxBands), true)
		}
		m.Cursor = m.session.Len() - 1
	case "x":
		m.session.RemoveLast()
		m.clampCursor()
	case "n":
		m.openPrompt(promptBandCount, strconv.Itoa(m.session.Len()))

	case "m":
		m.addHum(1)
	case "M":
		m.addHum(3)

	case "enter":
		if m.session.Len() > 0 && m.Field != FieldType && m.Field != FieldState {
			m.openPrompt(promptValue, m.fieldValue())
		}
	case "i":
		m.openPrompt(promptImportREW, m.settings.REWPath)
	case "e":
		m.openPrompt(promptExportREW, m.settings.REWPath)
	case "c":
		m.openPrompt(promptExportConfig, m.settings.ExportPath)

	case "p":
		if m.session.Live() && !m.Applying {
			m.session.Close()
			m.Applying = true
			return m, tea.Batch(m.applyCmd(), tickCmd())
		}
	case "r":
		if err := m.session.LoadActive(context.Background()); err != nil {
			m.setStatus(err.Error(), true)
		} else {
			m.clampCursor()
			m.setStatus(fmt.Sprintf("loaded %d band(s) from %s", m.session.Len(), m.session.Device()), false)
		}
	case "s":
		if err := m.session.SaveState(m.settings.StatePath); err != nil {
			m.setStatus(err.Error(), true)
		} else {
			m.setStatus("session saved to "+m.settings.StatePath, false)
		}
	}

	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePrompt()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		p := m.prompt
		m.closePrompt()
		m.submit(p, value)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) openPrompt(p prompt, initial string) {
	m.prompt = p
	m.input.SetValue(initial)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) closePrompt() {
	m.prompt = promptNone
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) submit(p prompt, value string) {
	if value == "" {
		return
	}

	switch p {
	case promptValue:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			m.setStatus(fmt.Sprintf("not a number: %q", value), true)
			return
		}
		m.setField(v)

	case promptBandCount:
		n, err := strconv.Atoi(value)
		if err != nil {
			m.setStatus(fmt.Sprintf("not a band count: %q", value), true)
			return
		}
		m.session.SetBandCount(n)
		m.clampCursor()

	case promptImportREW:
		skips, err := m.session.ImportREW(value)
		if err != nil {
			m.setStatus(err.Error(), true)
			return
		}
		m.settings.REWPath = value
		m.Cursor = 0
		msg := fmt.Sprintf("imported %d band(s)", m.session.Len())
		if len(skips) > 0 {
			msg += fmt.Sprintf(", %d line(s) skipped", len(skips))
		}
		m.setStatus(msg, false)
		m.session.ScheduleApply()

	case promptExportREW:
		if err := m.session.ExportREW(value); err != nil {
			m.setStatus(err.Error(), true)
			return
		}
		m.settings.REWPath = value
		m.setStatus("REW filters written to "+value, false)

	case promptExportConfig:
		skipped, err := m.session.ExportConfig(value)
		if err != nil {
			m.setStatus(err.Error(), true)
			return
		}
		msg := "config written to " + value
		if len(skipped) > 0 {
			msg += fmt.Sprintf(" (%d shelf band(s) left out)", len(skipped))
		}
		m.setStatus(msg, false)
	}
}

// adjust nudges the field under the cursor one step in dir
func (m *Model) adjust(dir float64) {
	b, err := m.session.Band(m.Cursor)
	if err != nil {
		return
	}

	switch m.Field {
	case FieldType:
		m.cycleKind()
	case FieldFrequency:
		m.report(m.session.SetFrequency(m.Cursor, b.FrequencyHz*math.Pow(FrequencyRatio, dir)))
	case FieldGain:
		m.report(m.session.SetGain(m.Cursor, b.GainDB+dir*GainStep))
	case FieldQ:
		if q, ok := b.Q(); ok {
			m.report(m.session.SetQ(m.Cursor, q+dir*QStep))
		}
	case FieldState:
		m.report(m.session.ToggleBypass(m.Cursor))
	}
}

// setField sets the field under the cursor to v
func (m *Model) setField(v float64) {
	switch m.Field {
	case FieldFrequency:
		m.report(m.session.SetFrequency(m.Cursor, v))
	case FieldGain:
		m.report(m.session.SetGain(m.Cursor, v))
	case FieldQ:
		m.report(m.session.SetQ(m.Cursor, v))
	}
}

func (m Model) fieldValue() string {
	b, err := m.session.Band(m.Cursor)
	if err != nil {
		return ""
	}
	switch m.Field {
	case FieldFrequency:
		return strconv.FormatFloat(b.FrequencyHz, 'f', -1, 64)
	case FieldGain:
		return strconv.FormatFloat(b.GainDB, 'f', -1, 64)
	case FieldQ:
		if q, ok := b.Q(); ok {
			return strconv.FormatFloat(q, 'f', -1, 64)
		}
	}
	return ""
}

// cycleKind steps the band through Peaking, LowShelf and HighShelf
func (m *Model) cycleKind() {
	b, err := m.session.Band(m.Cursor)
	if err != nil {
		return
	}
	next := (b.Kind() + 1) % (eq.HighShelf + 1)
	m.report(m.session.SetKind(m.Cursor, next))
	if next != eq.Peaking {
		m.setStatus(next.String()+" bands are not applied to PipeWire", false)
	}
}

func (m *Model) addHum(n int) {
	added := m.session.AddHumNotches(n)
	if added == 0 {
		m.setStatus(fmt.Sprintf("at most %d bands", editor.MaxBands), true)
		return
	}
	m.Cursor = m.session.Len() - 1
	m.setStatus(fmt.Sprintf("added %d hum notch(es) at %d Hz", added, m.session.MainsHz()), false)
}

func (m *Model) clampCursor() {
	m.Cursor = max(0, min(m.Cursor, m.session.Len()-1))
}

func (m *Model) report(err error) {
	if err != nil {
		m.setStatus(err.Error(), true)
	}
}

func (m *Model) setStatus(s string, isErr bool) {
	m.Status = s
	m.StatusErr = isErr
	if isErr {
		slog.Debug("editor status", "error", s)
	}
}
