package ocr

import (
	"strings"

	apperr "github.com/GriffinCanCode/prinsp/internal/errors"
)

// User-facing hints for the two actionable engine failures.
const (
	InstallHint  = "tesseract not found; install it first: sudo apt install tesseract-ocr tesseract-ocr-chi-sim (or your distribution's package names)"
	LanguageHint = "tesseract language data missing: install tesseract-ocr-chi-sim and make sure TESSDATA_PREFIX points at its tessdata directory"
)

// missingLanguage matches what tesseract prints when a traineddata file
// cannot be loaded.
func missingLanguage(msg string) bool {
	return strings.Contains(msg, "Failed loading language") || strings.Contains(msg, "traineddata")
}

// classifyEngineError maps missing language data to LanguageHint and passes
// any other engine message through verbatim.
func classifyEngineError(engine string, err error) error {
	msg := err.Error()
	if missingLanguage(msg) {
		return apperr.New(apperr.CodeOCRLanguageMissing, LanguageHint).
			WithMetadata("engine", engine).
			WithMetadata("engine_error", msg)
	}
	return apperr.Wrap(err, apperr.CodeOCRFailed, "").WithMetadata("engine", engine)
}
