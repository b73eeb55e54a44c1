package pipewire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/linuxmatters/pweq/internal/eq"
)

// ErrNodeNotFound is returned when the playback node is not in the graph
var ErrNodeNotFound = errors.New("filter chain node not found")

// Runner executes an external command and returns its stdout
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

// Run implements Runner. The context is the only bound on how long the
// command may take.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// CommandError reports a failed pw-dump or pw-cli invocation: missing
// binary, non-zero exit, or output that could not be parsed.
type CommandError struct {
	Command string
	Args    []string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	cmd := strings.TrimSpace(e.Command + " " + strings.Join(e.Args, " "))
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", cmd, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", cmd, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Client applies bands to a running filter-chain via the PipeWire CLIs
type Client struct {
	Runner      Runner
	DumpCommand string // graph introspection, prints a JSON array
	CLICommand  string // control push, accepts set-param <id> Props <value>
	NodeName    string // node.name of the filter-chain playback stream
}

// NewClient returns a client using pw-dump, pw-cli and eq_playback
func NewClient(runner Runner) *Client {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Client{
		Runner:      runner,
		DumpCommand: "pw-dump",
		CLICommand:  "pw-cli",
		NodeName:    DefaultPlaybackNode,
	}
}

func (c *Client) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := c.Runner.Run(ctx, name, args...)
	if err != nil {
		cmdErr := &CommandError{Command: name, Args: args, Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.Stderr = strings.TrimSpace(string(exitErr.Stderr))
		}
		return nil, cmdErr
	}
	return out, nil
}

// Dump runs the introspection command and decodes its output
func (c *Client) Dump(ctx context.Context) (Dump, error) {
	out, err := c.run(ctx, c.DumpCommand)
	if err != nil {
		return nil, err
	}

	d, err := ParseDump(out)
	if err != nil {
		return nil, &CommandError{Command: c.DumpCommand, Err: err}
	}
	return d, nil
}

// Load reads the bands of the running filter-chain and the active output
// device name. It seeds the editor.
func (c *Client) Load(ctx context.Context) ([]eq.Filter, string, error) {
	d, err := c.Dump(ctx)
	if err != nil {
		return nil, "", err
	}

	filters, err := d.ActiveFilters()
	if err != nil {
		return nil, d.DeviceName(), &CommandError{Command: c.DumpCommand, Err: err}
	}
	return filters, d.DeviceName(), nil
}

// Apply pushes the enabled peaking bands to the running playback node.
// A failure abandons this attempt only; nothing is retried.
func (c *Client) Apply(ctx context.Context, filters []eq.Filter) error {
	d, err := c.Dump(ctx)
	if err != nil {
		return err
	}

	id, ok := d.FindNode(c.NodeName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, c.NodeName)
	}

	control := ControlString(filters)
	if _, err := c.run(ctx, c.CLICommand, "set-param", strconv.Itoa(id), "Props", control); err != nil {
		return err
	}

	slog.Debug("Filters applied live", "node", c.NodeName, "id", id, "control", control)
	return nil
}
