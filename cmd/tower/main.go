package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tower/internal/version"
)

// newRootCmd builds the command tree with its persistent flags.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tower",
		Short:         "Tower-based name and overload resolution engine",
		Long:          `tower resolves references described in fixture files and reports the winning candidates`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newResolveCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newVersionCmd())

	flags := root.PersistentFlags()
	flags.String("config", "", "path to tower.toml (default: searched upwards from the working directory)")
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.String("format", "text", "output format (text|json|msgpack|short)")
	flags.String("path-mode", "auto", "how file paths are printed (auto|absolute|relative|basename)")
	flags.Int("max-diagnostics", 200, "maximum number of diagnostics to show")
	flags.Int("jobs", 0, "max parallel queries per fixture (0=auto)")
	flags.Bool("unordered", false, "rank candidates of one step together instead of by group")
	flags.Bool("timings", false, "show timing information")
	flags.BoolP("verbose", "v", false, "show informational diagnostics")
	flags.String("trace", "", "trace output file (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	flags.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	flags.Int("trace-ring-size", 4096, "events kept in ring mode")
	flags.String("ui", "off", "progress display on stderr (auto|on|off)")
	flags.String("cpu-profile", "", "write a CPU profile to this file")
	flags.String("mem-profile", "", "write a heap profile to this file")
	flags.String("runtime-trace", "", "write a Go runtime trace to this file")

	return root
}

// main executes the root command and exits with status 1 on any error.
func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		root.PrintErrln("tower:", err)
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
