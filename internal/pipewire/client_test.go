package pipewire

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/linuxmatters/pweq/internal/eq"
)

// fakeRunner answers commands from a table and records every call
type fakeRunner struct {
	outputs map[string][]byte
	errs    map[string]error
	calls   [][]string
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	if err, ok := r.errs[name]; ok {
		return nil, err
	}
	return r.outputs[name], nil
}

func TestApply(t *testing.T) {
	runner := &fakeRunner{outputs: map[string][]byte{"pw-dump": []byte(sampleDump)}}
	client := NewClient(runner)

	filters := []eq.Filter{eq.NewPeaking(100, 3, 1), eq.NewPeaking(200, -1, 2)}
	filters[0].Enabled = false

	if err := client.Apply(context.Background(), filters); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if len(runner.calls) != 2 {
		t.Fatalf("got %d calls, want 2: %v", len(runner.calls), runner.calls)
	}
	want := []string{"pw-cli", "set-param", "49", "Props", "{ control = { 1 = 200.0:-1.0:2.000 } }"}
	got := runner.calls[1]
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("pw-cli call = %q, want %q", got, want)
	}
}

func TestApplyNodeMissing(t *testing.T) {
	runner := &fakeRunner{outputs: map[string][]byte{"pw-dump": []byte(`[]`)}}
	err := NewClient(runner).Apply(context.Background(), []eq.Filter{eq.Default()})

	if !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("error = %v, want ErrNodeNotFound", err)
	}
	if len(runner.calls) != 1 {
		t.Errorf("pw-cli was called after node lookup failed: %v", runner.calls)
	}
}

func TestApplyCommandMissing(t *testing.T) {
	runner := &fakeRunner{errs: map[string]error{"pw-dump": exec.ErrNotFound}}
	err := NewClient(runner).Apply(context.Background(), nil)

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error = %v, want *CommandError", err)
	}
	if cmdErr.Command != "pw-dump" || !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestApplyBadJSON(t *testing.T) {
	runner := &fakeRunner{outputs: map[string][]byte{"pw-dump": []byte("{truncated")}}
	err := NewClient(runner).Apply(context.Background(), nil)

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Errorf("error = %v, want *CommandError", err)
	}
}

func TestApplyCustomCommands(t *testing.T) {
	runner := &fakeRunner{outputs: map[string][]byte{
		"/opt/pw/pw-dump": []byte(`[{"id": 7, "type": "PipeWire:Interface:Node", "info": {"props": {"node.name": "my_eq"}}}]`),
	}}
	client := NewClient(runner)
	client.DumpCommand = "/opt/pw/pw-dump"
	client.CLICommand = "/opt/pw/pw-cli"
	client.NodeName = "my_eq"

	if err := client.Apply(context.Background(), nil); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if runner.calls[1][0] != "/opt/pw/pw-cli" || runner.calls[1][2] != "7" {
		t.Errorf("unexpected call: %v", runner.calls[1])
	}
}

func TestLoad(t *testing.T) {
	runner := &fakeRunner{outputs: map[string][]byte{"pw-dump": []byte(sampleDump)}}
	filters, device, err := NewClient(runner).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(filters) != 3 {
		t.Errorf("got %d filters, want 3", len(filters))
	}
	if device != "EQ GUI" {
		t.Errorf("device = %q", device)
	}
}
