// Package config handles service configuration
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported OCR engines.
const (
	EngineCommand = "cli"
	EngineLibrary = "library"
)

type Config struct {
	HTTPAddr      string        `mapstructure:"http_addr"`
	GRPCAddr      string        `mapstructure:"grpc_addr"`
	LogLevel      string        `mapstructure:"log_level"`
	OCREngine     string        `mapstructure:"ocr_engine"`
	TesseractPath string        `mapstructure:"tesseract_path"`
	HideDelay     time.Duration `mapstructure:"hide_delay"`
	TempDir       string        `mapstructure:"temp_dir"`
	Probe         bool          `mapstructure:"probe"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		HTTPAddr:      ":8000",
		GRPCAddr:      ":50051",
		LogLevel:      "info",
		OCREngine:     EngineCommand,
		TesseractPath: "tesseract",
		HideDelay:     200 * time.Millisecond,
		Probe:         true,
	}
}

// SetDefaults registers defaults on v so env vars and config files can
// override them key by key.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("http_addr", d.HTTPAddr)
	v.SetDefault("grpc_addr", d.GRPCAddr)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("ocr_engine", d.OCREngine)
	v.SetDefault("tesseract_path", d.TesseractPath)
	v.SetDefault("hide_delay", d.HideDelay)
	v.SetDefault("temp_dir", d.TempDir)
	v.SetDefault("probe", d.Probe)
}

// Load reads configuration from defaults, an optional YAML file and the
// environment (HTTP_ADDR, GRPC_ADDR, LOG_LEVEL, OCR_ENGINE, TESSERACT_PATH,
// HIDE_DELAY, TEMP_DIR, PROBE). An empty path searches ./prinsp.yaml and
// $HOME/.config/prinsp/prinsp.yaml; a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("prinsp")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/prinsp")
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	switch c.OCREngine {
	case EngineCommand, EngineLibrary:
	default:
		return fmt.Errorf("invalid ocr_engine %q (want %q or %q)", c.OCREngine, EngineCommand, EngineLibrary)
	}
	if c.HideDelay < 0 {
		return fmt.Errorf("invalid hide_delay %s", c.HideDelay)
	}
	if strings.TrimSpace(c.TesseractPath) == "" {
		return errors.New("tesseract_path must not be empty")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return lvl, nil
}
