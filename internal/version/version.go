package version

import (
	"strings"

	"github.com/fatih/color"
)

// Version information for the tower CLI.
// These variables can be overridden at build time via -ldflags.

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Tagline is printed next to the version.
const Tagline = "climb the tower, pick the winner"

// Info is a trimmed snapshot of the build variables.
type Info struct {
	Version    string `json:"version" msgpack:"version"`
	GitCommit  string `json:"git_commit,omitempty" msgpack:"git_commit,omitempty"`
	GitMessage string `json:"git_message,omitempty" msgpack:"git_message,omitempty"`
	BuildDate  string `json:"build_date,omitempty" msgpack:"build_date,omitempty"`
}

// Collect reads the build variables. An empty version becomes "dev".
func Collect() Info {
	v := strings.TrimSpace(Version)
	if v == "" {
		v = "dev"
	}
	return Info{
		Version:    v,
		GitCommit:  strings.TrimSpace(GitCommit),
		GitMessage: strings.TrimSpace(GitMessage),
		BuildDate:  strings.TrimSpace(BuildDate),
	}
}

// Colored renders the major, minor and patch components in distinct colors.
// Anything that does not look like a semantic version is returned as is.
// The result honours color.NoColor.
func Colored(v string) string {
	core, suffix := v, ""
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		core, suffix = v[:i], v[i:]
	}
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return v
	}
	for _, p := range parts {
		if p == "" || strings.Trim(p, "0123456789") != "" {
			return v
		}
	}
	return versionMajorColor.Sprint(parts[0]) + "." +
		versionMinorColor.Sprint(parts[1]) + "." +
		versionPatchColor.Sprint(parts[2]) + suffix
}
