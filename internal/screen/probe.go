package screen

import (
	"log/slog"
	"os"
	"os/exec"

	"github.com/GriffinCanCode/prinsp/internal/syncx"
)

// ProbeEnv is the environment the probe inspects. Nil fields fall back to
// os.LookupEnv and exec.LookPath.
type ProbeEnv struct {
	LookupEnv func(string) (string, bool)
	LookPath  func(string) (string, error)
}

func (e ProbeEnv) withDefaults() ProbeEnv {
	if e.LookupEnv == nil {
		e.LookupEnv = os.LookupEnv
	}
	if e.LookPath == nil {
		e.LookPath = exec.LookPath
	}
	return e
}

// Guess picks a likely-working backend without capturing anything:
// a Wayland session with grim installed prefers Grim, an X11 session prefers
// Display, anything else has no guess.
func Guess(env ProbeEnv) (Backend, bool) {
	env = env.withDefaults()

	if _, wayland := env.LookupEnv(WaylandDisplayEnv); wayland {
		if _, err := env.LookPath(GrimBinary); err == nil {
			return Grim, true
		}
	}
	if _, x11 := env.LookupEnv(X11DisplayEnv); x11 {
		return Display, true
	}
	return 0, false
}

// Preselect seeds the preferred backend from Guess. It does nothing when a
// preference already exists, so calling it more than once is harmless.
func (c *Capturer) Preselect(env ProbeEnv) {
	if _, ok := c.Preferred(); ok {
		return
	}
	guess, ok := Guess(env)
	if !ok {
		slog.Debug("capture probe found no likely backend, using default order")
		return
	}
	if syncx.CompareAndSet(c.preferred, Backend(0), guess) {
		slog.Debug("capture probe preselected backend", "backend", guess)
	}
}
