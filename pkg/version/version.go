// Package version exposes the build metadata stamped in via ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Set by the linker at release build time. A plain source build reports
// "dev".
var (
	Version = "dev"
	Commit  = "none"
)

// Info is the resolved build metadata for the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build metadata.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String formats the info for the version command and --version flag.
func (i Info) String() string {
	return fmt.Sprintf("hashback %s (commit %s, %s, %s)",
		i.Version, i.Commit, i.GoVersion, i.Platform)
}
