package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"tower/internal/config"
	"tower/internal/observ"
	"tower/internal/report"
	"tower/internal/scenario"
	"tower/internal/source"
	"tower/internal/trace"
	"tower/internal/ui"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [flags] <fixture|directory>...",
		Short: "Resolve every query of the given fixtures and print the outcome",
		Long: `Resolve loads TOML or YAML fixtures, builds their scopes and runs each
query through the tower resolver. Directories are searched recursively.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runFixtures(cmd, args)
			return err
		},
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [flags] <fixture|directory>...",
		Short: "Like resolve, but fail when an expectation does not hold",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sum, err := runFixtures(cmd, args)
			if err != nil {
				return err
			}
			if !sum.OK() {
				return fmt.Errorf("check failed: %d failed, %d errors", sum.Failed, sum.Errors)
			}
			return nil
		},
	}
}

// runFixtures resolves every fixture named by args, writes the report to
// stdout and returns the combined summary.
func runFixtures(cmd *cobra.Command, args []string) (report.Summary, error) {
	var sum report.Summary

	s, err := loadSettings(cmd)
	if err != nil {
		return sum, err
	}
	paths, err := collectFixtures(args)
	if err != nil {
		return sum, err
	}
	if len(paths) == 0 {
		return sum, fmt.Errorf("no fixtures found in %s", strings.Join(args, ", "))
	}

	modeName, err := cmd.Root().PersistentFlags().GetString("ui")
	if err != nil {
		return sum, fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(modeName)
	if err != nil {
		return sum, err
	}

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return sum, err
	}
	defer stopProfiling()

	cleanup, err := setupTracing(cmd, s.cfg.Trace)
	if err != nil {
		return sum, err
	}
	ctx := cmd.Context()
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDriver, cmd.Name(), 0)
	ctx = trace.WithSpan(ctx, span)

	fs := source.NewFileSet("")
	resolve := func(notify func(ui.Event)) ([]*report.Run, error) {
		runs := make([]*report.Run, 0, len(paths))
		for _, path := range paths {
			run, err := runFixture(ctx, fs, path, s.cfg.Resolve, notify)
			if err != nil {
				return runs, err
			}
			if !s.timings {
				run.Timings = nil
			}
			runs = append(runs, run)
		}
		return runs, nil
	}

	var runs []*report.Run
	if shouldUseTUI(mode) {
		runs, err = resolveWithUI(ctx, cmd, paths, resolve)
	} else {
		runs, err = resolve(func(ui.Event) {})
	}
	if err != nil {
		span.End("cancelled")
		cleanup(true)
		return sum, err
	}
	for _, run := range runs {
		sum.Add(run.Summary())
	}
	span.End(fmt.Sprintf("%d fixtures", len(runs)))
	cleanup(!sum.OK())

	opts := s.reportOptions()
	bag := report.Collect(runs, opts.MaxDiagnostics)
	if err := report.Write(cmd.OutOrStdout(), runs, bag, fs, opts); err != nil {
		return sum, fmt.Errorf("failed to write report: %w", err)
	}
	return sum, nil
}

// runFixture loads, builds and resolves one fixture. Fixture problems end up
// in the returned run; only cancellation is an error.
func runFixture(ctx context.Context, fs *source.FileSet, path string, cfg config.ResolveConfig, notify func(ui.Event)) (*report.Run, error) {
	timer := observ.NewTimer()
	stage := ui.StageLoad
	begin := func(next ui.Stage, name string) int {
		stage = next
		notify(ui.Event{Fixture: path, Stage: next, Status: ui.StatusWorking})
		return timer.Begin(name)
	}
	failed := func(err error) *report.Run {
		notify(ui.Event{Fixture: path, Stage: stage, Status: ui.StatusError})
		file, ok := fs.Lookup(path)
		if !ok {
			// unreadable file: keep its path for diagnostics
			file = fs.AddVirtual(path, nil)
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		run := report.FailedRun(name, file, err)
		rep := timer.Report()
		run.Timings = &rep
		return run
	}

	phase := begin(ui.StageLoad, "load")
	fx, err := scenario.Load(fs, path)
	timer.End(phase, "")
	if err != nil {
		return failed(err), nil
	}

	phase = begin(ui.StageBuild, "build")
	u, err := scenario.Build(fx)
	timer.End(phase, "")
	if err != nil {
		return failed(err), nil
	}

	phase = begin(ui.StageResolve, "resolve")
	results, err := scenario.RunAll(ctx, u, cfg.Jobs, cfg.Ordered)
	timer.End(phase, fmt.Sprintf("%d queries", len(fx.Queries)))
	if err != nil {
		return nil, err
	}

	notify(ui.Event{Fixture: path, Stage: stage, Status: ui.StatusDone})
	run := report.NewRun(fx, results)
	rep := timer.Report()
	run.Timings = &rep
	return run, nil
}

// collectFixtures expands directories into the fixture files below them.
// Explicit file arguments are kept whatever their extension.
func collectFixtures(args []string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})
	add := func(path string) {
		path = filepath.Clean(path)
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %q: %w", arg, err)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		found, err := listFixtureFiles(arg)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	return files, nil
}

func listFixtureFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != dir && len(name) > 1 && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == config.FileName {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml", ".yaml", ".yml":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
