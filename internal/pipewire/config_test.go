package pipewire

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/linuxmatters/pweq/internal/eq"
)

func TestExportConfig(t *testing.T) {
	filters := []eq.Filter{eq.NewPeaking(63, -5, 4), eq.NewPeaking(1250, 2.5, 1.414)}

	want := strings.Join([]string{
		`context.modules = [`,
		`  { name = libpipewire-module-filter-chain`,
		`    args = {`,
		`      node.name = "eq_gui"`,
		`      node.description = "EQ GUI"`,
		`      media.name = "EQ GUI"`,
		`      filter.graph = {`,
		`        nodes = [`,
		`          { type = builtin name = eq0 label = eq control = { 0 = 63.0:-5.0:4.00 } }`,
		`          { type = builtin name = eq1 label = eq control = { 1 = 1250.0:2.5:1.41 } }`,
		`        ]`,
		`      }`,
		`      capture.props = { node.name = "eq_capture" media.class = "Stream/Output/Audio" }`,
		`      playback.props = { node.name = "eq_playback" media.class = "Stream/Input/Audio" }`,
		`    }`,
		`  }`,
		`]`,
	}, "\n")

	if got := ExportConfig(filters); got != want {
		t.Errorf("ExportConfig() =\n%s\nwant\n%s", got, want)
	}
}

func TestConfigKeepsFullSequenceIndex(t *testing.T) {
	filters := []eq.Filter{eq.NewPeaking(50, 1, 1), eq.NewPeaking(100, 2, 1), eq.NewPeaking(200, 3, 1)}
	filters[0].Enabled = false

	cfg := ExportConfig(filters)
	if strings.Contains(cfg, "name = eq0") || strings.Contains(cfg, "{ 0 = ") {
		t.Errorf("disabled band 0 was emitted:\n%s", cfg)
	}
	for _, want := range []string{"{ 1 = 100.0:2.0:1.00 }", "{ 2 = 200.0:3.0:1.00 }"} {
		if !strings.Contains(cfg, want) {
			t.Errorf("config missing %q:\n%s", want, cfg)
		}
	}

	control := ControlString(filters)
	wantControl := "{ control = { 1 = 100.0:2.0:1.000, 2 = 200.0:3.0:1.000 } }"
	if control != wantControl {
		t.Errorf("ControlString() = %q, want %q", control, wantControl)
	}
}

func TestQPrecisionDiffers(t *testing.T) {
	filters := []eq.Filter{eq.NewPeaking(1000, -3.25, 1.2345)}

	if cfg := ExportConfig(filters); !strings.Contains(cfg, "1000.0:-3.2:1.23 }") {
		t.Errorf("exported config does not use 2-decimal Q:\n%s", cfg)
	}
	if control := ControlString(filters); control != "{ control = { 0 = 1000.0:-3.2:1.234 } }" {
		t.Errorf("ControlString() = %q, want 3-decimal Q", control)
	}
}

func TestShelvesAreLeftOut(t *testing.T) {
	filters := []eq.Filter{
		eq.NewShelf(eq.LowShelf, 105, 6),
		eq.NewPeaking(1000, 1, 1),
		eq.NewShelf(eq.HighShelf, 8000, -2),
	}
	filters[2].Enabled = false

	if got := ControlString(filters); got != "{ control = { 1 = 1000.0:1.0:1.000 } }" {
		t.Errorf("ControlString() = %q", got)
	}
	if cfg := ExportConfig(filters); strings.Contains(cfg, "eq0") {
		t.Errorf("shelf emitted:\n%s", cfg)
	}

	got := Unsupported(filters)
	if len(got) != 1 || got[0] != 0 {
		t.Errorf("Unsupported() = %v, want [0]", got)
	}
}

func TestControlStringEmpty(t *testing.T) {
	if got := ControlString(nil); got != "{ control = {  } }" {
		t.Errorf("ControlString(nil) = %q", got)
	}
}

func TestWriteConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultExportPath)

	if err := DefaultConfigOptions().WriteConfig(path, []eq.Filter{eq.Default()}); err != nil {
		t.Fatalf("WriteConfig failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), "0 = 1000.0:0.0:1.00") {
		t.Errorf("unexpected file content:\n%s", data)
	}

	err = DefaultConfigOptions().WriteConfig(filepath.Join(dir, "missing", "x.conf"), nil)
	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Errorf("error = %v, want *WriteError", err)
	}
}
