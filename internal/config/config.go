// Package config loads pweq settings from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// FileName is the config file looked up when no path is given
const FileName = "pweq.yaml"

// MinDebounce is the shortest accepted debounce. A bare number in YAML
// decodes as nanoseconds, so values need a unit such as "250ms".
const MinDebounce = 10 * time.Millisecond

// Config holds runtime settings. Zero-valued fields in the YAML file keep
// their defaults.
type Config struct {
	// External PipeWire tools
	DumpCommand string `yaml:"dump_command,omitempty"`
	CLICommand  string `yaml:"cli_command,omitempty"`

	// NodeName is the filter-chain playback node targeted by live apply
	NodeName string `yaml:"node_name,omitempty"`

	// Debounce is the quiet period after the last edit before live apply
	Debounce time.Duration `yaml:"debounce,omitempty"`

	ExportPath string `yaml:"export_path,omitempty"`
	StatePath  string `yaml:"state_path,omitempty"`
	LogFile    string `yaml:"log_file,omitempty"`

	// SampleRate is used for response curves only
	SampleRate float64 `yaml:"sample_rate,omitempty"`
}

// DefaultConfig returns the built-in settings
func DefaultConfig() *Config {
	return &Config{
		DumpCommand: "pw-dump",
		CLICommand:  "pw-cli",
		NodeName:    "eq_playback",
		Debounce:    time.Second,
		ExportPath:  "exported_eq.conf",
		StatePath:   filepath.Join(os.TempDir(), "pipewire_eq_gui_config.json"),
		LogFile:     "pweq-debug.log",
		SampleRate:  48000,
	}
}

// Validate checks the settings are usable
func (c *Config) Validate() error {
	if c.DumpCommand == "" || c.CLICommand == "" {
		return fmt.Errorf("dump_command and cli_command must be set")
	}
	if c.NodeName == "" {
		return fmt.Errorf("node_name must be set")
	}
	if c.Debounce < MinDebounce {
		return fmt.Errorf("debounce must be at least %s (use a unit, e.g. 250ms), got %s", MinDebounce, c.Debounce)
	}
	if c.SampleRate < 8000 || c.SampleRate > 768000 {
		return fmt.Errorf("sample_rate must be between 8000 and 768000, got %.0f", c.SampleRate)
	}
	return nil
}

// Load reads path over the defaults. With an empty path the working
// directory and ~/.config/pweq are searched; finding nothing is not an
// error. PWEQ_* environment variables override the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		if err := readYamlFile(cfg, path); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	cwd, _ := os.Getwd()
	candidates := []string{filepath.Join(cwd, FileName)}

	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, ".config", "pweq", FileName))
	}

	for _, c := range candidates {
		if fileExists(c) {
			return c
		}
	}
	return ""
}

func readYamlFile(cfg *Config, path string) error {
	path, err := resolveHomeDirPath(path)
	if err != nil {
		return err
	}

	slog.Debug("Reading config", "path", path)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PWEQ_NODE_NAME"); v != "" {
		cfg.NodeName = v
	}
	if v := os.Getenv("PWEQ_DUMP_COMMAND"); v != "" {
		cfg.DumpCommand = v
	}
	if v := os.Getenv("PWEQ_CLI_COMMAND"); v != "" {
		cfg.CLICommand = v
	}
}

func fileExists(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && !stat.IsDir()
}

func resolveHomeDirPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("could not find user home dir: " + err.Error())
	}
	return filepath.Join(homeDir, path[2:]), nil
}
