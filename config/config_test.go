package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/c360studio/specverify/complexity"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Solver.Binary != "z3" {
		t.Errorf("expected default solver z3, got %s", cfg.Solver.Binary)
	}
	if cfg.Limits.Preset != complexity.PresetDefault {
		t.Errorf("expected default limits preset, got %s", cfg.Limits.Preset)
	}
	if cfg.Verify.Concurrency != 4 {
		t.Errorf("expected default concurrency 4, got %d", cfg.Verify.Concurrency)
	}
	if cfg.NATS.URL != "" {
		t.Errorf("expected publishing disabled by default, got %s", cfg.NATS.URL)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing solver binary",
			modify:  func(c *Config) { c.Solver.Binary = "" },
			wantErr: true,
		},
		{
			name:    "unknown preset",
			modify:  func(c *Config) { c.Limits.Preset = "lenient" },
			wantErr: true,
		},
		{
			name:    "negative timeout override",
			modify:  func(c *Config) { c.Limits.Timeout = Duration(-time.Second) },
			wantErr: true,
		},
		{
			name:    "zero concurrency",
			modify:  func(c *Config) { c.Verify.Concurrency = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveLimitsOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits.Preset = complexity.PresetStrict
	cfg.Limits.MaxNodes = 123
	cfg.Limits.Timeout = Duration(7 * time.Second)

	limits, err := cfg.ResolveLimits()
	if err != nil {
		t.Fatalf("ResolveLimits() error = %v", err)
	}
	if limits.MaxNodes != 123 {
		t.Errorf("expected max_nodes override 123, got %d", limits.MaxNodes)
	}
	if limits.Timeout != 7*time.Second {
		t.Errorf("expected timeout override 7s, got %s", limits.Timeout)
	}
	// Untouched fields keep the preset's values.
	strict := complexity.StrictLimits()
	if limits.MaxQuantifierDepth != strict.MaxQuantifierDepth {
		t.Errorf("expected preset quantifier depth %d, got %d", strict.MaxQuantifierDepth, limits.MaxQuantifierDepth)
	}
	if limits.MemoryCapMB != strict.MemoryCapMB {
		t.Errorf("expected preset memory cap %d, got %d", strict.MemoryCapMB, limits.MemoryCapMB)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
solver:
  binary: "cvc5"
  args: ["--lang=smt2"]
limits:
  preset: "permissive"
  timeout: 90s
verify:
  concurrency: 8
  strict: true
nats:
  url: "nats://localhost:4222"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Solver.Binary != "cvc5" {
		t.Errorf("expected solver cvc5, got %s", cfg.Solver.Binary)
	}
	if len(cfg.Solver.Args) != 1 || cfg.Solver.Args[0] != "--lang=smt2" {
		t.Errorf("unexpected solver args %v", cfg.Solver.Args)
	}
	if cfg.Limits.Preset != complexity.PresetPermissive {
		t.Errorf("expected permissive preset, got %s", cfg.Limits.Preset)
	}
	if time.Duration(cfg.Limits.Timeout) != 90*time.Second {
		t.Errorf("expected 90s timeout, got %s", time.Duration(cfg.Limits.Timeout))
	}
	if !cfg.Verify.Strict {
		t.Error("expected strict mode")
	}
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("unexpected NATS URL %s", cfg.NATS.URL)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	other := &Config{}
	other.Solver.Binary = "cvc5"
	other.Limits.Preset = complexity.PresetStrict
	other.Verify.Strict = true
	other.NATS.URL = "nats://example:4222"

	base.Merge(other)

	if base.Solver.Binary != "cvc5" {
		t.Errorf("expected merged solver cvc5, got %s", base.Solver.Binary)
	}
	// Zero values in other must not clobber base.
	if len(base.Solver.Args) == 0 {
		t.Error("expected base solver args preserved")
	}
	if base.Verify.Concurrency != 4 {
		t.Errorf("expected base concurrency preserved, got %d", base.Verify.Concurrency)
	}
	if base.Limits.Preset != complexity.PresetStrict {
		t.Errorf("expected merged preset strict, got %s", base.Limits.Preset)
	}
	if !base.Verify.Strict {
		t.Error("expected strict merged in")
	}

	base.Merge(nil) // must not panic
}

func TestSaveAndReload(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Solver.Binary = "cvc5"
	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if loaded.Solver.Binary != "cvc5" {
		t.Errorf("expected round-tripped solver cvc5, got %s", loaded.Solver.Binary)
	}
}
