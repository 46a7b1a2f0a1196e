// Package version provides build-time version information for the greeting
// service, injected during the build via ldflags.
package version

import (
	"runtime"
	"time"
)

// Build-time variables set via ldflags. The defaults apply during development
// builds that skip ldflags injection.
var (
	// Version is the current version of the application
	Version = "1.0.0"

	// BuildTime is when the binary was built (RFC3339 format)
	BuildTime = "unknown"

	// GitCommit is the git commit hash
	GitCommit = "unknown"

	// GitBranch is the git branch
	GitBranch = "unknown"
)

// Info contains version and build information.
type Info struct {
	Version   string    `json:"version"`
	BuildTime string    `json:"build_time"`
	GitCommit string    `json:"git_commit"`
	GitBranch string    `json:"git_branch"`
	GoVersion string    `json:"go_version"`
	Platform  string    `json:"platform"`
	BuildDate time.Time `json:"build_date"`
}

// Get returns version and build information.
func Get() Info {
	var buildDate time.Time

	// Parses only for real release builds; "unknown" leaves the zero value.
	if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
		buildDate = t
	}

	return Info{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		BuildDate: buildDate,
	}
}
