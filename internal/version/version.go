// Package version provides build and version information.
package version

import "runtime"

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - Horizons ephemeris provider, catalog bundles over HTTP, metrics endpoint
// 0.2.0 - Animated observer transitions, reactive style settings, TUI key bindings
// 0.1.0 - Initial release: azimuthal sky map, star catalog, constellation lines, snapshot mode

// Name is the program name used in headers and logs.
const Name = "ls-skymap"

// UserAgent is sent with outgoing HTTP requests.
func UserAgent() string {
	return Name + "/" + Version + " (" + runtime.GOOS + ")"
}
