// Package config loads and validates the optional .boundsgate YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up from the working directory upward.
const FileName = ".boundsgate"

// Default values for harness configuration.
const (
	DefaultTarget      = "memory-safety/build/performance.out"
	DefaultTimeout     = 5 * time.Minute
	DefaultMaxOutput   = 1 << 20 // 1 MB
	DefaultRepetitions = 10
	DefaultThreshold   = 12.0
	DefaultScaleFactor = 10
	DefaultBaselineN   = 1000
	DefaultBaselineM   = 10000
	DefaultSafetyN     = 100
	DefaultSafetyM     = 1000
	DefaultSafetyMode  = "1"
	DefaultDiagnostic  = "Illegal memory access"
)

// Config holds the parsed .boundsgate configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version        int            `yaml:"version"`
	RawTarget      string         `yaml:"target"`      // path to the instrumented executable
	RawTimeout     string         `yaml:"timeout"`     // e.g. "5m", "30s", "0" disables
	RawMaxOutput   int            `yaml:"max_output"`  // bytes
	RawRepetitions int            `yaml:"repetitions"` // trials per benchmark configuration
	RawThreshold   float64        `yaml:"threshold"`   // maximum allowed scaling factor
	RawScaleFactor int            `yaml:"scale_factor"`
	Baseline       BaselineConfig `yaml:"baseline"`
	Safety         SafetyConfig   `yaml:"safety"`
	Steps          []string       `yaml:"steps"` // default: [safety, performance]
	Store          StoreConfig    `yaml:"store"`
}

// BaselineConfig holds the unscaled input sizes for the performance checks.
type BaselineConfig struct {
	N int `yaml:"n"`
	M int `yaml:"m"`
}

// SafetyConfig controls the out-of-bounds detection check.
type SafetyConfig struct {
	N          int    `yaml:"n"`
	M          int    `yaml:"m"`
	Mode       string `yaml:"mode"`       // third positional argument selecting the unsafe path
	Diagnostic string `yaml:"diagnostic"` // substring expected on stderr
}

// StoreConfig selects where run reports are persisted.
type StoreConfig struct {
	Kind string `yaml:"kind"` // disk (default) or sqlite
	Path string `yaml:"path"` // directory for disk, database file for sqlite
}

// DefaultSteps are used when no steps are configured.
var DefaultSteps = []string{"safety", "performance"}

// Target returns the configured target executable or the default.
func (c *Config) Target() string {
	if c.RawTarget != "" {
		return c.RawTarget
	}
	return DefaultTarget
}

// Timeout returns the configured per-invocation timeout or the default.
// An explicit "0" disables the timeout.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d >= 0 {
			return d
		}
	}
	return DefaultTimeout
}

// MaxOutputBytes returns the configured max output size or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// Repetitions returns the configured trial count or the default.
func (c *Config) Repetitions() int {
	if c.RawRepetitions > 0 {
		return c.RawRepetitions
	}
	return DefaultRepetitions
}

// Threshold returns the configured maximum scaling factor or the default.
func (c *Config) Threshold() float64 {
	if c.RawThreshold > 0 {
		return c.RawThreshold
	}
	return DefaultThreshold
}

// ScaleFactor returns the multiplier applied to one input dimension.
func (c *Config) ScaleFactor() int {
	if c.RawScaleFactor > 1 {
		return c.RawScaleFactor
	}
	return DefaultScaleFactor
}

// BaselineSizes returns the baseline (N, M) input sizes.
func (c *Config) BaselineSizes() (n, m int) {
	n, m = c.Baseline.N, c.Baseline.M
	if n <= 0 {
		n = DefaultBaselineN
	}
	if m <= 0 {
		m = DefaultBaselineM
	}
	return n, m
}

// SafetyArgs returns the positional arguments that trigger the unsafe path.
func (c *Config) SafetyArgs() []string {
	n, m, mode := c.Safety.N, c.Safety.M, c.Safety.Mode
	if n <= 0 {
		n = DefaultSafetyN
	}
	if m <= 0 {
		m = DefaultSafetyM
	}
	if mode == "" {
		mode = DefaultSafetyMode
	}
	return []string{fmt.Sprint(n), fmt.Sprint(m), mode}
}

// Diagnostic returns the stderr substring the safety check expects.
func (c *Config) Diagnostic() string {
	if c.Safety.Diagnostic != "" {
		return c.Safety.Diagnostic
	}
	return DefaultDiagnostic
}

// HarnessSteps returns the configured steps, falling back to defaults.
func (c *Config) HarnessSteps() []string {
	if len(c.Steps) > 0 {
		return c.Steps
	}
	return DefaultSteps
}

// Validate reports configuration values that cannot be defaulted away.
func (c *Config) Validate() error {
	if c.RawRepetitions < 0 {
		return fmt.Errorf("repetitions must be positive, got %d", c.RawRepetitions)
	}
	if c.RawThreshold < 0 {
		return fmt.Errorf("threshold must be positive, got %g", c.RawThreshold)
	}
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", c.RawTimeout, err)
		}
		if d < 0 {
			return fmt.Errorf("timeout must not be negative, got %s", c.RawTimeout)
		}
	}
	switch c.Store.Kind {
	case "", "disk", "sqlite":
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}
	return nil
}

// LoadResult holds the parsed config and the directory it was found in.
type LoadResult struct {
	Config *Config
	Root   string // directory containing .boundsgate; falls back to workspace
}

// Load reads the .boundsgate file from workspace or the nearest ancestor
// that has one. If no file exists, a default Config rooted at workspace is
// returned. Relative target paths are resolved against Root by the caller.
func Load(workspace string) (*LoadResult, error) {
	root, err := findConfigRoot(workspace)
	if err != nil {
		return &LoadResult{Config: &Config{}, Root: workspace}, nil
	}

	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", FileName, err)
	}
	return &LoadResult{Config: cfg, Root: root}, nil
}

// findConfigRoot walks upward from dir looking for a directory containing
// the config file.
func findConfigRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s not found", FileName)
		}
		dir = parent
	}
}
