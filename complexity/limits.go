// Package complexity provides the pre-flight gate: static cost estimation of
// verification goals against configured limits, deciding whether a goal may
// reach the solver at all and how long it may run.
package complexity

import (
	"fmt"
	"time"
)

// Limits bounds what a single goal may cost. Every bound must be positive
// and finite; there is no "unlimited" sentinel in production mode, because
// uncontrolled SMT queries can hang or exhaust memory on pathological
// specifications.
type Limits struct {
	// MaxNodes caps the estimated formula node count after quantifier
	// expansion.
	MaxNodes int `yaml:"max_nodes"`

	// MaxQuantifierDepth caps quantifier nesting. Goals beyond it are
	// skipped before solving rather than attempted and timed out.
	MaxQuantifierDepth int `yaml:"max_quantifier_depth"`

	// MaxUniverseSize caps the size of any entity universe a bounded
	// quantifier expands over.
	MaxUniverseSize int `yaml:"max_universe_size"`

	// Timeout is the wall-clock budget for one solver invocation.
	Timeout time.Duration `yaml:"timeout"`

	// MemoryCapMB bounds the solver process's memory, enforced by the
	// runner where the platform supports it.
	MemoryCapMB int `yaml:"memory_cap_mb"`
}

// Preset names accepted by the configuration surface.
const (
	PresetStrict     = "strict"
	PresetDefault    = "default"
	PresetPermissive = "permissive"
)

// StrictLimits is the preset for latency-sensitive callers (editor tooling).
func StrictLimits() Limits {
	return Limits{
		MaxNodes:           2_000,
		MaxQuantifierDepth: 2,
		MaxUniverseSize:    25,
		Timeout:            2 * time.Second,
		MemoryCapMB:        256,
	}
}

// DefaultLimits is the general-purpose preset.
func DefaultLimits() Limits {
	return Limits{
		MaxNodes:           50_000,
		MaxQuantifierDepth: 4,
		MaxUniverseSize:    200,
		Timeout:            30 * time.Second,
		MemoryCapMB:        1024,
	}
}

// PermissiveLimits is the preset for offline/CI runs that prefer answers
// over latency.
func PermissiveLimits() Limits {
	return Limits{
		MaxNodes:           500_000,
		MaxQuantifierDepth: 8,
		MaxUniverseSize:    2_000,
		Timeout:            5 * time.Minute,
		MemoryCapMB:        4096,
	}
}

// PresetLimits returns the named preset.
func PresetLimits(name string) (Limits, error) {
	switch name {
	case PresetStrict:
		return StrictLimits(), nil
	case PresetDefault, "":
		return DefaultLimits(), nil
	case PresetPermissive:
		return PermissiveLimits(), nil
	default:
		return Limits{}, fmt.Errorf("unknown limits preset %q", name)
	}
}

// Validate checks that every bound is a positive finite value.
func (l Limits) Validate() error {
	if l.MaxNodes <= 0 {
		return fmt.Errorf("max_nodes must be positive, got %d", l.MaxNodes)
	}
	if l.MaxQuantifierDepth <= 0 {
		return fmt.Errorf("max_quantifier_depth must be positive, got %d", l.MaxQuantifierDepth)
	}
	if l.MaxUniverseSize <= 0 {
		return fmt.Errorf("max_universe_size must be positive, got %d", l.MaxUniverseSize)
	}
	if l.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", l.Timeout)
	}
	if l.MemoryCapMB <= 0 {
		return fmt.Errorf("memory_cap_mb must be positive, got %d", l.MemoryCapMB)
	}
	return nil
}
