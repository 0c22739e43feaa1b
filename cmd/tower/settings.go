package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"tower/internal/config"
	"tower/internal/diagfmt"
	"tower/internal/report"
)

// settings is tower.toml merged with the flags the user set explicitly.
type settings struct {
	cfg        config.Config
	configPath string
	useColor   bool
	timings    bool
	pathMode   diagfmt.PathMode
	verbose    bool
}

// loadSettings reads the configuration file, lets changed flags override it
// and validates the result.
func loadSettings(cmd *cobra.Command) (settings, error) {
	flags := cmd.Root().PersistentFlags()

	var (
		s   settings
		err error
	)
	explicit, err := flags.GetString("config")
	if err != nil {
		return s, fmt.Errorf("failed to get config flag: %w", err)
	}
	if explicit != "" {
		s.cfg, err = config.Load(explicit)
		s.configPath = explicit
	} else {
		s.cfg, s.configPath, err = config.Discover(".")
	}
	if err != nil {
		return s, err
	}

	if err := overrideFromFlags(&s.cfg, flags); err != nil {
		return s, err
	}
	if err := s.cfg.Validate(); err != nil {
		return s, fmt.Errorf("invalid settings: %w", err)
	}

	modeName, err := flags.GetString("path-mode")
	if err != nil {
		return s, fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	mode, ok := diagfmt.ParsePathMode(modeName)
	if !ok {
		return s, fmt.Errorf("unknown path mode %q (auto|absolute|relative|basename)", modeName)
	}
	s.pathMode = mode

	if s.timings, err = flags.GetBool("timings"); err != nil {
		return s, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if s.verbose, err = flags.GetBool("verbose"); err != nil {
		return s, fmt.Errorf("failed to get verbose flag: %w", err)
	}

	switch s.cfg.Output.Color {
	case "on":
		s.useColor = true
	case "auto":
		s.useColor = isTerminal(os.Stdout)
	}
	color.NoColor = !s.useColor
	return s, nil
}

// overrideFromFlags copies every changed flag onto cfg.
func overrideFromFlags(cfg *config.Config, flags *pflag.FlagSet) error {
	var err error
	str := func(name string, dst *string) {
		if err == nil && flags.Changed(name) {
			*dst, err = flags.GetString(name)
		}
	}
	num := func(name string, dst *int) {
		if err == nil && flags.Changed(name) {
			*dst, err = flags.GetInt(name)
		}
	}

	str("color", &cfg.Output.Color)
	str("format", &cfg.Output.Format)
	num("max-diagnostics", &cfg.Output.MaxDiagnostics)
	num("jobs", &cfg.Resolve.Jobs)
	str("trace", &cfg.Trace.Output)
	str("trace-level", &cfg.Trace.Level)
	str("trace-mode", &cfg.Trace.Mode)
	str("trace-format", &cfg.Trace.Format)
	num("trace-ring-size", &cfg.Trace.RingSize)
	if err == nil && flags.Changed("unordered") {
		var unordered bool
		unordered, err = flags.GetBool("unordered")
		cfg.Resolve.Ordered = !unordered
	}
	if err != nil {
		return fmt.Errorf("failed to read flags: %w", err)
	}

	// --trace alone turns tracing on
	if flags.Changed("trace") && !flags.Changed("trace-level") && cfg.Trace.Level == "off" {
		cfg.Trace.Level = "phase"
	}
	return nil
}

func (s settings) reportOptions() report.Options {
	return report.Options{
		Format:         s.cfg.Output.Format,
		Color:          s.useColor,
		MaxDiagnostics: s.cfg.Output.MaxDiagnostics,
		PathMode:       s.pathMode,
		Verbose:        s.verbose,
	}
}
