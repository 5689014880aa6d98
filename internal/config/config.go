// Package config holds user-editable settings for the pipeline, loaded from
// JSON with environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/S3OPS/autoflight/internal/errs"
	"github.com/S3OPS/autoflight/internal/security"
)

const (
	defaultConfigPath = "~/.config/autoflight/config.json"
	defaultMaxWorkers = 4
)

// Config holds user-editable settings for the pipeline.
type Config struct {
	Performance Performance    `json:"performance"`
	Output      Output         `json:"output"`
	Stitching   Stitching      `json:"stitching"`
	Security    security.Limits `json:"security"`
	Logging     Logging        `json:"logging"`
	Server      Server         `json:"server"`
	Paths       Paths          `json:"paths"`
}

// Performance captures loading execution preferences.
type Performance struct {
	ParallelLoading bool `json:"parallel_loading"`
	MaxWorkers      int  `json:"max_workers"`
}

// Output configures encoders and directory creation.
type Output struct {
	JPEGQuality    int  `json:"jpeg_quality"`    // 1-100
	PNGCompression int  `json:"png_compression"` // 0-9
	CreateDirs     bool `json:"create_dirs"`
}

// Stitching selects the engine profile.
type Stitching struct {
	Mode string `json:"mode"` // "panorama" or "scans"
}

// Logging controls logging verbosity and format.
type Logging struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // text, json
}

// Server configures the HTTP gateway.
type Server struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Paths configures default locations.
type Paths struct {
	DatabasePath string `json:"database_path"`
}

// Load reads configuration from disk, falling back to defaults, then
// applies environment overrides. The config path itself comes from
// AUTOFLIGHT_CONFIG when set.
func Load() (*Config, error) {
	cfg := Default()

	configPath := os.Getenv("AUTOFLIGHT_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	expanded, err := expandUser(configPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(expanded)
	if err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the documented default configuration.
func Default() *Config {
	return &Config{
		Performance: Performance{
			ParallelLoading: true,
			MaxWorkers:      defaultMaxWorkers,
		},
		Output: Output{
			JPEGQuality:    95,
			PNGCompression: 3,
			CreateDirs:     true,
		},
		Stitching: Stitching{
			Mode: "panorama",
		},
		Security: security.DefaultLimits(),
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Server: Server{
			Host: "localhost",
			Port: 8080,
		},
		Paths: Paths{
			DatabasePath: filepath.Join(os.TempDir(), "autoflight.db"),
		},
	}
}

// applyEnv layers environment variable overrides over the loaded values.
func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("AUTOFLIGHT_PARALLEL"); ok {
		c.Performance.ParallelLoading = v == "1"
	}
	if v, ok := os.LookupEnv("AUTOFLIGHT_MAX_WORKERS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Performance.MaxWorkers = n
		}
	}
	if v, ok := os.LookupEnv("AUTOFLIGHT_JPEG_QUALITY"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Output.JPEGQuality = n
		}
	}
	if v, ok := os.LookupEnv("AUTOFLIGHT_MODE"); ok {
		c.Stitching.Mode = v
	}
	if v, ok := os.LookupEnv("AUTOFLIGHT_VERBOSE"); ok && v == "1" {
		c.Logging.Level = "debug"
	}
}

// Validate enforces documented ranges on every numeric knob.
func (c *Config) Validate() error {
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return errs.New(errs.KindValidation, "jpeg_quality must be 1-100, got %d", c.Output.JPEGQuality)
	}
	if c.Output.PNGCompression < 0 || c.Output.PNGCompression > 9 {
		return errs.New(errs.KindValidation, "png_compression must be 0-9, got %d", c.Output.PNGCompression)
	}
	if c.Performance.MaxWorkers < 1 {
		return errs.New(errs.KindValidation, "max_workers must be positive, got %d", c.Performance.MaxWorkers)
	}
	if c.Stitching.Mode != "panorama" && c.Stitching.Mode != "scans" {
		return errs.New(errs.KindValidation, "mode must be 'panorama' or 'scans', got %q", c.Stitching.Mode)
	}
	if err := c.Security.Validate(); err != nil {
		return err
	}
	return nil
}

func expandUser(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[1:]), nil
}
