// Package version holds build metadata injected with -ldflags, for example
//
//	-X github.com/bissquit/fitgram/internal/version.Version=1.2.0
package version

var (
	// Version is the release version.
	Version = "dev"
	// GitCommit is the commit the binary was built from.
	GitCommit = "unknown"
	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)
