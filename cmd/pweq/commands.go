package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/pweq/internal/cli"
	"github.com/linuxmatters/pweq/internal/editor"
	"github.com/linuxmatters/pweq/internal/eq"
	"github.com/linuxmatters/pweq/internal/logging"
	"github.com/linuxmatters/pweq/internal/pipewire"
	"github.com/linuxmatters/pweq/internal/response"
	"github.com/linuxmatters/pweq/internal/rew"
	"github.com/linuxmatters/pweq/internal/stereo"
	"github.com/linuxmatters/pweq/internal/ui"
)

// EditCmd runs the interactive editor
type EditCmd struct {
	REW     string `short:"r" type:"existingfile" placeholder:"FILE" help:"Start from a REW filter export"`
	Restore bool   `help:"Start from the saved session file"`
	Offline bool   `help:"Do not read or write the running graph"`
}

// Run starts the TUI
func (c *EditCmd) Run(g *Globals) error {
	opts := editor.Options{
		Debounce: g.Config.Debounce,
		Export:   g.ConfigOptions(),
	}
	if !c.Offline {
		opts.Graph = g.Client()
	}
	session := editor.New(opts)
	defer session.Close()

	switch {
	case c.REW != "":
		if _, err := session.ImportREW(c.REW); err != nil {
			return err
		}
	case c.Restore:
		if err := session.LoadState(g.Config.StatePath); err != nil {
			return err
		}
	case session.Live():
		// An editor with no running filter-chain is still useful for export
		if err := session.LoadActive(context.Background()); err != nil {
			slog.Warn("Starting without running filters", "error", err)
		}
	}

	model := ui.NewModel(session, ui.Settings{
		StatePath:  g.Config.StatePath,
		ExportPath: g.Config.ExportPath,
		REWPath:    c.REW,
		SampleRate: g.Config.SampleRate,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	session.SetDispatch(func() { p.Send(ui.ApplyMsg{}) })

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("UI error: %w", err)
	}
	return nil
}

// ConvertCmd merges left/right REW exports
type ConvertCmd struct {
	Left   string `short:"l" type:"path" placeholder:"FILE" help:"Left channel REW export"`
	Right  string `short:"r" type:"path" placeholder:"FILE" help:"Right channel REW export"`
	Mode   string `short:"m" default:"average" placeholder:"MODE" help:"left, right or average"`
	Output string `short:"o" type:"path" required:"" placeholder:"FILE" help:"REW text file to write"`
}

// Run reads the selected channels and writes the reconciled bands
func (c *ConvertCmd) Run(g *Globals) error {
	mode, err := stereo.ParseMode(c.Mode)
	if err != nil {
		return err
	}

	var left, right []eq.Filter
	if mode != stereo.RightOnly {
		if left, err = readREW(c.Left, "left"); err != nil {
			return err
		}
	}
	if mode != stereo.LeftOnly {
		if right, err = readREW(c.Right, "right"); err != nil {
			return err
		}
	}

	filters, err := stereo.Reconcile(mode, left, right)
	if err != nil {
		if !errors.Is(err, stereo.ErrMismatch) {
			return err
		}
		slog.Warn("Channels differ, using left", "error", err)
		cli.PrintWarning(err.Error() + "; using the left channel")
	}

	if err := rew.WriteFile(c.Output, filters); err != nil {
		return err
	}

	fmt.Print(logging.BandTable(filters).String())
	cli.PrintSuccess(fmt.Sprintf("REW filters (%s, %d bands) saved to %s", mode, len(filters), c.Output))
	return nil
}

// ExportCmd writes a filter-chain config file
type ExportCmd struct {
	REW    string `arg:"" optional:"" type:"existingfile" help:"REW filter export; the running graph is used when omitted"`
	Output string `short:"o" type:"path" placeholder:"FILE" help:"Config file to write (default: export_path from the config)"`
}

// Run writes the config and lists what went into it
func (c *ExportCmd) Run(g *Globals) error {
	filters, err := loadBands(g, c.REW)
	if err != nil {
		return err
	}

	output := c.Output
	if output == "" {
		output = g.Config.ExportPath
	}
	if err := g.ConfigOptions().WriteConfig(output, filters); err != nil {
		return err
	}

	fmt.Print(logging.BandTable(filters).String())
	warnUnsupported(filters)
	printTips(filters, g.Config.SampleRate)
	cli.PrintSuccess("Config saved to " + output)
	return nil
}

// ApplyCmd pushes a REW file to the running graph
type ApplyCmd struct {
	REW    string `arg:"" type:"existingfile" help:"REW filter export"`
	DryRun bool   `short:"n" help:"Print the control string instead of applying it"`
}

// Run applies the file once; nothing is retried
func (c *ApplyCmd) Run(g *Globals) error {
	filters, err := readREW(c.REW, "input")
	if err != nil {
		return err
	}
	warnUnsupported(filters)

	if c.DryRun {
		fmt.Println(pipewire.ControlString(filters))
		return nil
	}

	if err := g.Client().Apply(context.Background(), filters); err != nil {
		return err
	}
	fmt.Print(logging.BandTable(filters).String())
	cli.PrintSuccess(fmt.Sprintf("Applied %d band(s) to %s", len(eq.Enabled(filters)), g.Config.NodeName))
	return nil
}

// ResponseCmd prints the combined magnitude response
type ResponseCmd struct {
	REW        string  `arg:"" optional:"" type:"existingfile" help:"REW filter export; the running graph is used when omitted"`
	Points     int     `short:"p" default:"31" help:"Number of log-spaced frequencies"`
	SampleRate float64 `short:"s" placeholder:"HZ" help:"Sample rate for the response (default: sample_rate from the config)"`
}

// Run tabulates the response
func (c *ResponseCmd) Run(g *Globals) error {
	filters, err := loadBands(g, c.REW)
	if err != nil {
		return err
	}

	sr := c.SampleRate
	if sr <= 0 {
		sr = g.Config.SampleRate
	}
	if c.Points < 2 {
		return fmt.Errorf("points must be at least 2, got %d", c.Points)
	}

	points := response.Curve(filters, sr, c.Points)
	lo, hi := response.Range(points)

	fmt.Print(logging.BandTable(filters).String())
	fmt.Println()
	fmt.Print(logging.ResponseTable(points).String())
	cli.PrintKeyValue("Range", fmt.Sprintf("%+.2f to %+.2f dB at %s Hz", lo, hi, strconv.FormatFloat(sr, 'f', -1, 64)))
	printTips(filters, sr)
	return nil
}

// readREW parses a REW export, printing each skipped line. An empty result
// is an error here since there is nothing to write or apply.
func readREW(path, channel string) ([]eq.Filter, error) {
	if path == "" {
		return nil, fmt.Errorf("missing %s file", channel)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("missing %s file: %w", channel, err)
	}

	result, err := rew.ParseFile(path)
	if err != nil {
		return nil, err
	}
	for _, skip := range result.Skipped {
		slog.Warn("REW line skipped", "path", path, "line", skip.Line, "reason", skip.Reason)
		cli.PrintWarning(fmt.Sprintf("%s: %s", path, skip))
	}
	if len(result.Filters) == 0 {
		return nil, fmt.Errorf("no usable filters in %s", path)
	}
	return result.Filters, nil
}

// loadBands reads a REW file, or the running graph when path is empty
func loadBands(g *Globals, path string) ([]eq.Filter, error) {
	if path != "" {
		return readREW(path, "input")
	}

	filters, device, err := g.Client().Load(context.Background())
	if err != nil {
		return nil, err
	}
	cli.PrintKeyValue("Device", device)
	return filters, nil
}

func warnUnsupported(filters []eq.Filter) {
	for _, i := range pipewire.Unsupported(filters) {
		cli.PrintWarning(fmt.Sprintf("band %d is a %s; shelves are not written to PipeWire", i+1, filters[i].Kind()))
	}
}

func printTips(filters []eq.Filter, sampleRate float64) {
	tips := logging.GenerateTips(filters, sampleRate)
	if len(tips) == 0 {
		return
	}
	fmt.Println()
	fmt.Println(cli.WarningStyle.Render("Tips:"))
	fmt.Print(logging.FormatTips(tips, 78))
}
