package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/linuxmatters/pweq/internal/cli"
	"github.com/linuxmatters/pweq/internal/config"
	"github.com/linuxmatters/pweq/internal/logging"
	"github.com/linuxmatters/pweq/internal/pipewire"
)

var (
	version = "0.0.1"
)

// CLI defines the command-line interface
type CLI struct {
	Version bool   `short:"v" help:"Show version information"`
	Config  string `short:"c" type:"path" help:"Path to YAML config file (optional)"`
	Debug   bool   `help:"Write a debug log (log_file in the config)"`

	Edit     EditCmd     `cmd:"" default:"1" help:"Edit filter-chain EQ bands interactively (default)"`
	Convert  ConvertCmd  `cmd:"" help:"Combine left/right REW exports into one REW filter file"`
	Export   ExportCmd   `cmd:"" help:"Write a PipeWire filter-chain config from a REW file or the running graph"`
	Apply    ApplyCmd    `cmd:"" help:"Push the bands of a REW file to the running filter-chain"`
	Response ResponseCmd `cmd:"" help:"Tabulate the combined frequency response of a band list"`
}

// Globals is passed to every command's Run
type Globals struct {
	Config *config.Config
}

// Client returns a PipeWire client for the configured tools and node
func (g *Globals) Client() *pipewire.Client {
	client := pipewire.NewClient(pipewire.ExecRunner{})
	client.DumpCommand = g.Config.DumpCommand
	client.CLICommand = g.Config.CLICommand
	client.NodeName = g.Config.NodeName
	return client
}

// ConfigOptions returns export options whose playback node is the one live
// apply targets
func (g *Globals) ConfigOptions() *pipewire.ConfigOptions {
	opts := pipewire.DefaultConfigOptions()
	opts.PlaybackNodeName = g.Config.NodeName
	return opts
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("pweq"),
		kong.Description("PipeWire filter-chain equaliser and REW converter"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	// Handle version flag
	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	cfg, err := config.Load(cliArgs.Config)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	closeLog, err := logging.Setup(cfg.LogFile, cliArgs.Debug)
	if err != nil {
		cli.PrintWarning(err.Error())
	}

	err = ctx.Run(&Globals{Config: cfg})
	_ = closeLog()
	if err != nil {
		cli.PrintError(fmt.Sprintf("%v", err))
		os.Exit(1)
	}
}
