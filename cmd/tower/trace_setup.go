package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tower/internal/config"
	"tower/internal/trace"
)

// setupTracing creates the tracer described by cfg and attaches it to the
// command context. The returned cleanup flushes the tracer; in ring mode it
// dumps the buffered events to stderr when dump is true.
func setupTracing(cmd *cobra.Command, cfg config.TraceConfig) (func(dump bool), error) {
	tcfg, err := cfg.TracerConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid trace settings: %w", err)
	}

	if tcfg.Level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func(bool) {}, nil
	}
	if tcfg.Mode != trace.ModeRing && (tcfg.OutputPath == "" || tcfg.OutputPath == "-") {
		// hide Close so the tracer does not close stderr
		tcfg.Output = struct{ io.Writer }{cmd.ErrOrStderr()}
	}

	tracer, err := trace.New(tcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	cleanup := func(dump bool) {
		if ring, ok := tracer.(*trace.RingTracer); ok && dump {
			format := tcfg.Format
			if format == trace.FormatAuto {
				format = trace.FormatText
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "trace: last events")
			if err := ring.Dump(cmd.ErrOrStderr(), format); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
			}
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}
