// ABOUTME: Version constants for the vsslctrl CLI
// ABOUTME: Reported in logs and the TUI header
package version

const (
	// Version is the release version, overridden at build time with
	// -ldflags "-X .../internal/version.Version=v1.2.3".
	Version = "dev"

	// Product is the CLI's display name.
	Product = "vsslctrl"
)
