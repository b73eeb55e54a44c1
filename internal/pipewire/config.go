// Package pipewire renders EQ bands for libpipewire-module-filter-chain and
// talks to a running PipeWire graph through pw-dump and pw-cli.
package pipewire

import (
	"fmt"
	"os"
	"strings"

	"github.com/linuxmatters/pweq/internal/eq"
)

// ModuleName is the PipeWire module that hosts the EQ graph
const ModuleName = "libpipewire-module-filter-chain"

// DefaultExportPath is written relative to the working directory
const DefaultExportPath = "exported_eq.conf"

// SectionID identifies a block of the exported filter-chain config
type SectionID string

const (
	SectionModuleHeader SectionID = "module_header" // context.modules opener and node identity
	SectionGraph        SectionID = "graph"         // filter.graph with one eq node per band
	SectionCapture      SectionID = "capture"       // capture.props stream block
	SectionPlayback     SectionID = "playback"      // playback.props stream block
	SectionModuleFooter SectionID = "module_footer" // closes args, module and list
)

// ConfigSectionOrder is the order sections appear in the exported file
var ConfigSectionOrder = []SectionID{
	SectionModuleHeader,
	SectionGraph,
	SectionCapture,
	SectionPlayback,
	SectionModuleFooter,
}

// sectionBuilderFunc renders one config section as lines
type sectionBuilderFunc func(*ConfigOptions, []eq.Filter) []string

var sectionBuilders = map[SectionID]sectionBuilderFunc{
	SectionModuleHeader: (*ConfigOptions).buildModuleHeader,
	SectionGraph:        (*ConfigOptions).buildGraph,
	SectionCapture:      (*ConfigOptions).buildCapture,
	SectionPlayback:     (*ConfigOptions).buildPlayback,
	SectionModuleFooter: (*ConfigOptions).buildModuleFooter,
}

// ConfigOptions names the nodes created by the exported module
type ConfigOptions struct {
	NodeName        string // filter-chain node.name
	NodeDescription string // shown in desktop mixers
	MediaName       string

	CaptureNodeName  string
	PlaybackNodeName string
}

// DefaultConfigOptions returns the node names the live-apply path looks for
func DefaultConfigOptions() *ConfigOptions {
	return &ConfigOptions{
		NodeName:         "eq_gui",
		NodeDescription:  "EQ GUI",
		MediaName:        "EQ GUI",
		CaptureNodeName:  "eq_capture",
		PlaybackNodeName: DefaultPlaybackNode,
	}
}

// emittable reports whether a band has a representation in the
// freq:gain:q control format. Shelves have none.
func emittable(f eq.Filter) bool {
	return f.Enabled && f.Kind() == eq.Peaking
}

// Unsupported returns the indices of enabled bands that the filter-chain
// format cannot express and that the emitters therefore leave out.
func Unsupported(filters []eq.Filter) []int {
	var out []int
	for i, f := range filters {
		if f.Enabled && f.Kind() != eq.Peaking {
			out = append(out, i)
		}
	}
	return out
}

func (o *ConfigOptions) buildModuleHeader(_ []eq.Filter) []string {
	return []string{
		"context.modules = [",
		"  { name = " + ModuleName,
		"    args = {",
		fmt.Sprintf("      node.name = %q", o.NodeName),
		fmt.Sprintf("      node.description = %q", o.NodeDescription),
		fmt.Sprintf("      media.name = %q", o.MediaName),
	}
}

// buildGraph keys each node by its index in the full list, so bypassing a
// band never renumbers the others.
func (o *ConfigOptions) buildGraph(filters []eq.Filter) []string {
	lines := []string{
		"      filter.graph = {",
		"        nodes = [",
	}
	for i, f := range filters {
		if !emittable(f) {
			continue
		}
		q, _ := f.Q()
		lines = append(lines, fmt.Sprintf(
			"          { type = builtin name = eq%d label = eq control = { %d = %.1f:%.1f:%.2f } }",
			i, i, f.FrequencyHz, f.GainDB, q))
	}
	return append(lines,
		"        ]",
		"      }",
	)
}

func (o *ConfigOptions) buildCapture(_ []eq.Filter) []string {
	return []string{
		fmt.Sprintf("      capture.props = { node.name = %q media.class = \"Stream/Output/Audio\" }", o.CaptureNodeName),
	}
}

func (o *ConfigOptions) buildPlayback(_ []eq.Filter) []string {
	return []string{
		fmt.Sprintf("      playback.props = { node.name = %q media.class = \"Stream/Input/Audio\" }", o.PlaybackNodeName),
	}
}

func (o *ConfigOptions) buildModuleFooter(_ []eq.Filter) []string {
	return []string{
		"    }",
		"  }",
		"]",
	}
}

// BuildConfig renders the filter-chain module block for filters. Only enabled
// peaking bands are written; Q uses two decimals.
func (o *ConfigOptions) BuildConfig(filters []eq.Filter) string {
	var lines []string
	for _, id := range ConfigSectionOrder {
		if builder, ok := sectionBuilders[id]; ok {
			lines = append(lines, builder(o, filters)...)
		}
	}
	return strings.Join(lines, "\n")
}

// ExportConfig renders the config with the default node names
func ExportConfig(filters []eq.Filter) string {
	return DefaultConfigOptions().BuildConfig(filters)
}

// ControlString renders the single-line Props argument for pw-cli set-param.
// Q uses three decimals here, unlike the exported file.
func ControlString(filters []eq.Filter) string {
	var parts []string
	for i, f := range filters {
		if !emittable(f) {
			continue
		}
		q, _ := f.Q()
		parts = append(parts, fmt.Sprintf("%d = %.1f:%.1f:%.3f", i, f.FrequencyHz, f.GainDB, q))
	}
	return "{ control = { " + strings.Join(parts, ", ") + " } }"
}

// WriteError reports a config file that could not be written
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// WriteConfig writes the exported config to path
func (o *ConfigOptions) WriteConfig(path string, filters []eq.Filter) error {
	if err := os.WriteFile(path, []byte(o.BuildConfig(filters)), 0644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
