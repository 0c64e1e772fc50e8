// Package screen captures a single full-screen frame, falling back across
// several capture mechanisms and remembering the one that worked.
package screen

import "time"

// Capture constants
const (
	// Deadline for backends the Capturer time-boxes (grim, display)
	CaptureTimeout = 2 * time.Second

	// gnome-screenshot bounds its own wait: 20 polls at 100ms
	GnomePollAttempts = 20
	GnomePollInterval = 100 * time.Millisecond

	// Executables
	GrimBinary            = "grim"
	GnomeScreenshotBinary = "gnome-screenshot"

	// Environment markers consulted by the probe
	WaylandDisplayEnv = "WAYLAND_DISPLAY"
	X11DisplayEnv     = "DISPLAY"
)
