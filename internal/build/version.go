// Package build carries version metadata stamped at link time, e.g.
//
//	go build -ldflags "-X github.com/rohmanhakim/canonurl/internal/build.Version=1.2.0 \
//	  -X github.com/rohmanhakim/canonurl/internal/build.Commit=$(git rev-parse --short HEAD)" ./cmd/canonurl
package build

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// FullVersion returns the version string with commit hash appended.
// Format: "Version+Commit" (e.g., "1.0.0+abc123")
func FullVersion() string {
	return Version + "+" + Commit
}

// Summary is the line printed by "canonurl version".
func Summary() string {
	return "canonurl " + FullVersion() + " (built " + BuildTime + ")"
}
