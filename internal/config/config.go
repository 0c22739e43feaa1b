// Package config loads tower.toml, the per-project defaults for the tower
// CLI. Command-line flags override whatever the file sets.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"tower/internal/trace"
)

// FileName is the configuration file looked up from the working directory.
const FileName = "tower.toml"

// Formats lists the accepted [output].format values.
var Formats = []string{"text", "json", "msgpack", "short"}

type Config struct {
	Resolve ResolveConfig `toml:"resolve"`
	Trace   TraceConfig   `toml:"trace"`
	Output  OutputConfig  `toml:"output"`
}

type ResolveConfig struct {
	// Ordered keeps candidate groups of one step apart when ranking.
	Ordered bool `toml:"ordered"`
	// Jobs bounds parallel queries; 0 means GOMAXPROCS.
	Jobs int `toml:"jobs"`
}

type TraceConfig struct {
	Level    string `toml:"level"`
	Mode     string `toml:"mode"`
	Format   string `toml:"format"`
	Output   string `toml:"output"`
	RingSize int    `toml:"ring_size"`
}

type OutputConfig struct {
	Format         string `toml:"format"`
	Color          string `toml:"color"`
	MaxDiagnostics int    `toml:"max_diagnostics"`
}

// Default returns the configuration used when no tower.toml exists.
func Default() Config {
	return Config{
		Resolve: ResolveConfig{Ordered: true},
		Trace:   TraceConfig{Level: "off", Mode: "stream", Format: "auto", Output: "-", RingSize: 4096},
		Output:  OutputConfig{Format: "text", Color: "auto", MaxDiagnostics: 200},
	}
}

// Find walks up from startDir looking for tower.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load decodes path over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("trace", "output") && strings.TrimSpace(cfg.Trace.Output) == "" {
		return Config{}, fmt.Errorf("%s: [trace].output must not be empty", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover finds and loads tower.toml above startDir. Without a file it
// returns the defaults and an empty path.
func Discover(startDir string) (Config, string, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, "", err
	}
	if !ok {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	return cfg, path, err
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	if c.Resolve.Jobs < 0 {
		return fmt.Errorf("[resolve].jobs must not be negative, got %d", c.Resolve.Jobs)
	}
	if _, err := c.Trace.TracerConfig(); err != nil {
		return err
	}
	if !slices.Contains(Formats, c.Output.Format) {
		return fmt.Errorf("[output].format must be one of %s, got %q", strings.Join(Formats, ", "), c.Output.Format)
	}
	switch c.Output.Color {
	case "auto", "on", "off":
	default:
		return fmt.Errorf("[output].color must be auto, on or off, got %q", c.Output.Color)
	}
	if c.Output.MaxDiagnostics < 0 {
		return fmt.Errorf("[output].max_diagnostics must not be negative, got %d", c.Output.MaxDiagnostics)
	}
	return nil
}

// TracerConfig converts the section into a trace.Config. The output stays a
// path; the caller opens it.
func (c TraceConfig) TracerConfig() (trace.Config, error) {
	level, err := trace.ParseLevel(c.Level)
	if err != nil {
		return trace.Config{}, fmt.Errorf("[trace].level: %w", err)
	}
	mode, err := trace.ParseMode(c.Mode)
	if err != nil {
		return trace.Config{}, fmt.Errorf("[trace].mode: %w", err)
	}
	format, err := trace.ParseFormat(c.Format)
	if err != nil {
		return trace.Config{}, fmt.Errorf("[trace].format: %w", err)
	}
	if c.RingSize <= 0 {
		return trace.Config{}, fmt.Errorf("[trace].ring_size must be positive, got %d", c.RingSize)
	}
	return trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: c.Output,
		RingSize:   c.RingSize,
	}, nil
}
