// Package version provides build version information for the
// application. It is a separate package so both the CLI and future
// callers can read it without import cycles.
package version

// Version is the build version string, set by ldflags during build.
// Format: vX.Y.Z or vX.Y.Z-dev for development builds.
var Version = "v1.0.0-dev"

// BuildTime is the build timestamp, set by ldflags during build.
var BuildTime = "unknown"

// String returns the combined version and build time.
func String() string {
	return Version + " (" + BuildTime + ")"
}
