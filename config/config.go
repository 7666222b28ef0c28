// Package config loads pdfmin settings from the environment.
//
// Variables are prefixed with PDFMIN_. Optional .env files are read
// first with github.com/joho/godotenv; variables already set in the
// environment win over file values.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/tsawler/pdfmin/imagecodec"
)

// Prefix is prepended to every variable name.
const Prefix = "PDFMIN_"

// Config holds the settings of a downscale run.
type Config struct {
	TargetDPI   float64 `env:"TARGET_DPI,required"`
	Verbose     bool    `env:"VERBOSE" envDefault:"false"`
	JPEGImages  bool    `env:"JPG_IMAGES" envDefault:"false"`
	JPEGQuality int     `env:"JPEG_QUALITY" envDefault:"85"`
	Kernel      string  `env:"KERNEL" envDefault:"lanczos"`
	Workers     int     `env:"WORKERS" envDefault:"4"`
	FailFast    bool    `env:"FAIL_FAST" envDefault:"false"`
	LogLevel    string  `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads the given .env files, skipping any that do not exist, then
// parses and validates the process environment.
func Load(files ...string) (Config, error) {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return Config{}, fmt.Errorf("failed to load env files: %w", err)
		}
	}
	return parse(env.Options{Prefix: Prefix})
}

// Parse reads the configuration from environ instead of the process
// environment. Keys carry the PDFMIN_ prefix.
func Parse(environ map[string]string) (Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: environ})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if !(c.TargetDPI > 0) || math.IsInf(c.TargetDPI, 0) {
		errs = append(errs, fmt.Errorf("%sTARGET_DPI must be positive, got %g", Prefix, c.TargetDPI))
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("%sJPEG_QUALITY must be in 1..100, got %d", Prefix, c.JPEGQuality))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("%sWORKERS must be at least 1, got %d", Prefix, c.Workers))
	}
	if _, err := imagecodec.ParseKernel(c.Kernel); err != nil {
		errs = append(errs, fmt.Errorf("%sKERNEL: %w", Prefix, err))
	}
	return errors.Join(errs...)
}
