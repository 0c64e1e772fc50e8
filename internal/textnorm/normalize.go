// Package textnorm cleans raw OCR output while keeping paragraph breaks.
package textnorm

import "strings"

// Normalize trims every line and collapses runs of whitespace inside it to a
// single space. Runs of blank lines become one blank line; blank lines at the
// start or end are dropped.
func Normalize(raw string) string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	prevBlank := false

	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !prevBlank && len(out) > 0 {
				out = append(out, "")
			}
			prevBlank = true
			continue
		}
		out = append(out, line)
		prevBlank = false
	}

	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
