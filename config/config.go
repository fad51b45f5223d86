// Package config provides configuration loading and management for specverify.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/specverify/complexity"
)

// Config represents the complete specverify configuration.
type Config struct {
	Solver Solver `yaml:"solver"`
	Limits Limits `yaml:"limits"`
	Verify Verify `yaml:"verify"`
	NATS   NATS   `yaml:"nats"`
}

// Solver configures the external SMT solver process.
type Solver struct {
	// Binary is the solver executable; resolved via PATH at startup.
	Binary string `yaml:"binary"`
	// Args are base arguments passed on every invocation.
	Args []string `yaml:"args"`
	// MemoryArg is the argv template for the memory cap (e.g. "-memory:%d"
	// for Z3). Empty disables argv-level enforcement; the post-hoc RSS check
	// still applies.
	MemoryArg string `yaml:"memory_arg"`
}

// Duration wraps time.Duration so YAML configs can use "30s" style strings.
type Duration time.Duration

// UnmarshalYAML accepts either a duration string or an integer nanosecond
// count.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value %q", value.Value)
	}
	*d = Duration(n)
	return nil
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Limits selects a complexity preset with optional per-field overrides.
// A zero override keeps the preset's value.
type Limits struct {
	// Preset is strict, default, or permissive.
	Preset string `yaml:"preset"`

	MaxNodes           int      `yaml:"max_nodes"`
	MaxQuantifierDepth int      `yaml:"max_quantifier_depth"`
	MaxUniverseSize    int      `yaml:"max_universe_size"`
	Timeout            Duration `yaml:"timeout"`
	MemoryCapMB        int      `yaml:"memory_cap_mb"`
}

// Verify configures run behavior.
type Verify struct {
	// Concurrency caps the worker pool.
	Concurrency int `yaml:"concurrency"`
	// Strict fails closed on unsupported constructs instead of degrading
	// them to Unknown.
	Strict bool `yaml:"strict"`
	// DecimalAsScaledInt encodes decimals as scale-shifted integers instead
	// of Real with a scale assumption.
	DecimalAsScaledInt bool `yaml:"decimal_as_scaled_int"`
	// UnsatCores enables unsat core extraction on proved goals. Each core
	// probe re-invokes the solver, so runs get slower.
	UnsatCores bool `yaml:"unsat_cores"`
}

// NATS configures report publishing.
type NATS struct {
	// URL is the NATS server URL; empty disables publishing.
	URL string `yaml:"url"`
	// Subject overrides the default report subject.
	Subject string `yaml:"subject"`
}

// ConfigError is a fatal configuration failure, surfaced at startup before
// any goal runs.
type ConfigError struct {
	Field  string
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Detail)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Solver: Solver{
			Binary:    "z3",
			Args:      []string{"-in", "-smt2"},
			MemoryArg: "-memory:%d",
		},
		Limits: Limits{
			Preset: complexity.PresetDefault,
		},
		Verify: Verify{
			Concurrency: 4,
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Solver.Binary == "" {
		return &ConfigError{Field: "solver.binary", Detail: "is required"}
	}
	if _, err := c.ResolveLimits(); err != nil {
		return err
	}
	if c.Verify.Concurrency < 1 {
		return &ConfigError{Field: "verify.concurrency", Detail: fmt.Sprintf("must be at least 1, got %d", c.Verify.Concurrency)}
	}
	return nil
}

// ResolveLimits materializes the complexity limits: preset first, then any
// non-zero overrides, then a final validation so invalid limits fail at
// startup rather than mid-run.
func (c *Config) ResolveLimits() (complexity.Limits, error) {
	limits, err := complexity.PresetLimits(c.Limits.Preset)
	if err != nil {
		return complexity.Limits{}, &ConfigError{Field: "limits.preset", Detail: err.Error()}
	}
	if c.Limits.MaxNodes != 0 {
		limits.MaxNodes = c.Limits.MaxNodes
	}
	if c.Limits.MaxQuantifierDepth != 0 {
		limits.MaxQuantifierDepth = c.Limits.MaxQuantifierDepth
	}
	if c.Limits.MaxUniverseSize != 0 {
		limits.MaxUniverseSize = c.Limits.MaxUniverseSize
	}
	if c.Limits.Timeout != 0 {
		limits.Timeout = time.Duration(c.Limits.Timeout)
	}
	if c.Limits.MemoryCapMB != 0 {
		limits.MemoryCapMB = c.Limits.MemoryCapMB
	}
	if err := limits.Validate(); err != nil {
		return complexity.Limits{}, &ConfigError{Field: "limits", Detail: err.Error()}
	}
	return limits, nil
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Solver.Binary != "" {
		c.Solver.Binary = other.Solver.Binary
	}
	if len(other.Solver.Args) > 0 {
		c.Solver.Args = other.Solver.Args
	}
	if other.Solver.MemoryArg != "" {
		c.Solver.MemoryArg = other.Solver.MemoryArg
	}

	if other.Limits.Preset != "" {
		c.Limits.Preset = other.Limits.Preset
	}
	if other.Limits.MaxNodes != 0 {
		c.Limits.MaxNodes = other.Limits.MaxNodes
	}
	if other.Limits.MaxQuantifierDepth != 0 {
		c.Limits.MaxQuantifierDepth = other.Limits.MaxQuantifierDepth
	}
	if other.Limits.MaxUniverseSize != 0 {
		c.Limits.MaxUniverseSize = other.Limits.MaxUniverseSize
	}
	if other.Limits.Timeout != 0 {
		c.Limits.Timeout = other.Limits.Timeout
	}
	if other.Limits.MemoryCapMB != 0 {
		c.Limits.MemoryCapMB = other.Limits.MemoryCapMB
	}

	if other.Verify.Concurrency != 0 {
		c.Verify.Concurrency = other.Verify.Concurrency
	}
	if other.Verify.Strict {
		c.Verify.Strict = true
	}
	if other.Verify.DecimalAsScaledInt {
		c.Verify.DecimalAsScaledInt = true
	}
	if other.Verify.UnsatCores {
		c.Verify.UnsatCores = true
	}

	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Subject != "" {
		c.NATS.Subject = other.NATS.Subject
	}
}
