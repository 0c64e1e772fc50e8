// Package ocr drives Tesseract over preprocessed screenshots and normalizes
// what it reads.
package ocr

import (
	"slices"
	"strconv"
	"strings"
)

// Tesseract mode numbers used by DefaultConfig.
const (
	PSMSingleLine = 7 // treat the image as a single text line
	OEMLSTMOnly   = 1 // neural network recognizer only
)

// Variable is one engine-internal setting.
type Variable struct {
	Name  string
	Value string
}

// Config is the fixed engine configuration applied to every recognition.
// Its fields are unexported so a Config cannot change once built.
type Config struct {
	languages   []string
	dpi         int
	pageSegMode int
	engineMode  int
	variables   []Variable
}

// DefaultConfig is tuned for short single-line mixed Chinese/Latin text.
func DefaultConfig() Config {
	return Config{
		languages:   []string{"chi_sim", "eng"},
		dpi:         350, // small captures read better with a high DPI hint
		pageSegMode: PSMSingleLine,
		engineMode:  OEMLSTMOnly,
		variables: []Variable{
			{"preserve_interword_spaces", "1"},
			{"textord_heavy_nr", "0"},
			{"textord_min_linesize", "2.5"},
			{"textord_space_size_is_variable", "1"},
			// no dictionaries: rare characters and symbols survive, no spell-correction
			{"load_system_dawg", "F"},
			{"load_freq_dawg", "F"},
		},
	}
}

func (c Config) Languages() []string { return slices.Clone(c.languages) }
func (c Config) Language() string { return strings.Join(c.languages, "+") }
func (c Config) DPI() int { return c.dpi }
func (c Config) PageSegMode() int { return c.pageSegMode }
func (c Config) EngineMode() int { return c.engineMode }
func (c Config) Variables() []Variable { return slices.Clone(c.variables) }

// Args renders the configuration as tesseract command line options.
func (c Config) Args() []string {
	args := []string{
		"-l", c.Language(),
		"--dpi", strconv.Itoa(c.dpi),
		"--psm", strconv.Itoa(c.pageSegMode),
		"--oem", strconv.Itoa(c.engineMode),
	}
	for _, v := range c.variables {
		args = append(args, "-c", v.Name+"="+v.Value)
	}
	return args
}

// ConfigFile renders the configuration in tesseract config-file syntax. Init
// only settings (engine mode, dictionaries, DPI) can only reach the library
// API this way.
func (c Config) ConfigFile() string {
	var sb strings.Builder
	sb.WriteString("tessedit_ocr_engine_mode " + strconv.Itoa(c.engineMode) + "\n")
	sb.WriteString("user_defined_dpi " + strconv.Itoa(c.dpi) + "\n")
	for _, v := range c.variables {
		sb.WriteString(v.Name + " " + v.Value + "\n")
	}
	return sb.String()
}
