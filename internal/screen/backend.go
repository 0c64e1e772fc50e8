package screen

import "context"

// Backend identifies one capture mechanism. The zero value means "none".
type Backend uint8

const (
	// Grim shells out to the wlroots compositor screenshot tool.
	Grim Backend = iota + 1
	// Display grabs the first monitor's framebuffer through kbinani/screenshot.
	Display
	// GnomeScreenshot runs the desktop screenshot utility into a temp file.
	GnomeScreenshot
)

// DefaultOrder is the fallback priority used after the preferred backend.
var DefaultOrder = []Backend{Grim, Display, GnomeScreenshot}

func (b Backend) String() string {
	switch b {
	case Grim:
		return "grim"
	case Display:
		return "display"
	case GnomeScreenshot:
		return "gnome-screenshot"
	default:
		return "none"
	}
}

// Valid reports whether b names a real backend.
func (b Backend) Valid() bool {
	return b >= Grim && b <= GnomeScreenshot
}

// timeBoxed reports whether the Capturer enforces CaptureTimeout on b.
// gnome-screenshot bounds its own wait by polling.
func (b Backend) timeBoxed() bool {
	return b != GnomeScreenshot
}

// Strategy produces one encoded (PNG) screenshot through a single mechanism.
type Strategy interface {
	Backend() Backend
	Capture(ctx context.Context) ([]byte, error)
}

// DefaultStrategies returns the three production backends. tempDir is where
// gnome-screenshot writes its output; empty means os.TempDir().
func DefaultStrategies(tempDir string) []Strategy {
	return []Strategy{
		NewGrimStrategy(GrimBinary),
		NewDisplayStrategy(),
		NewGnomeStrategy(GnomeScreenshotBinary, tempDir),
	}
}
