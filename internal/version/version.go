package version

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build metadata for -version output. When GitSHA was
// not set at link time it falls back to the VCS revision recorded by the
// Go toolchain.
func String(program string) string {
	sha := GitSHA
	if sha == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" && s.Value != "" {
					sha = s.Value
				}
			}
		}
	}
	if len(sha) > 12 {
		sha = sha[:12]
	}
	return fmt.Sprintf("%s %s (%s, built %s)", program, Version, sha, BuildTime)
}
