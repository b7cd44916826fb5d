// Package buildinfo contains build-time metadata injected at link time,
// separate from user configuration.
package buildinfo

// These are set via -ldflags at build time. The defaults identify a binary
// built without the release tooling.
var (
	version   = "dev"
	buildDate = "unknown"
)

// Version returns the Git version tag from the build.
func Version() string {
	return version
}

// BuildDate returns the time when the binary was built.
func BuildDate() string {
	return buildDate
}
