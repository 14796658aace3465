// Package config holds sys2kernel's Session configuration: the
// recognised option keys from spec §6, loaded from YAML with
// environment-variable overrides and sane defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"sys2kernel/internal/hdc"
	"sys2kernel/internal/reasoner"
)

// Config holds every option a Session construction recognises.
type Config struct {
	// Geometry is the HDC vector width; 0 selects the strategy's own
	// default (dense-binary 2048, sparse-polynomial 4, metric-affine 32).
	Geometry int `yaml:"geometry"`

	// HdcStrategy names which Strategy backs the Vocabulary.
	HdcStrategy string `yaml:"hdc_strategy"`

	// ReasoningPriority selects symbolic or HDC-similarity candidate
	// ordering in the Reasoner.
	ReasoningPriority string `yaml:"reasoning_priority"`

	// MaxReasonerIterations bounds one prove/query call's search budget.
	MaxReasonerIterations int `yaml:"max_reasoner_iterations"`

	// ProofMaxDepth bounds proof step nesting and contradiction's
	// bounded Implies-closure walk.
	ProofMaxDepth int `yaml:"proof_max_depth"`

	// ProofValidationEnabled re-checks every proof step against the
	// live store before returning a "proven" verdict.
	ProofValidationEnabled bool `yaml:"proof_validation_enabled"`

	// ClosedWorldAssumption enables CWA for Not(P) when P is provably
	// absent.
	ClosedWorldAssumption bool `yaml:"closed_world_assumption"`

	// TimeoutMs is the per-call reasoning deadline; 0 means no deadline.
	TimeoutMs int `yaml:"timeout_ms"`

	// TheoryDir, if set, is preloaded at Session construction: every
	// *.sys2 file in the directory except index.sys2, in lexicographic
	// order. A file whose first non-blank line is "// mandatory" aborts
	// construction on load failure instead of only warning (spec §6).
	TheoryDir string `yaml:"theory_dir"`

	Logging LoggingConfig   `yaml:"logging"`
	Limits  ReasoningLimits `yaml:"limits"`
}

// DefaultConfig returns spec §6's documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Geometry:               0,
		HdcStrategy:            "dense-binary",
		ReasoningPriority:      "symbolicPriority",
		MaxReasonerIterations:  reasoner.DefaultMaxIterations,
		ProofMaxDepth:          64,
		ProofValidationEnabled: true, // spec §4.10: "default on in test mode"
		ClosedWorldAssumption:  false,
		TimeoutMs:              0,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Limits: ReasoningLimits{
			MaxFactsInKernel: 1000000,
		},
	}
}

// Load reads a YAML config file, falling back to DefaultConfig when the
// file does not exist. Environment overrides are applied either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config back out as YAML.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SYS2KERNEL_HDC_STRATEGY"); v != "" {
		c.HdcStrategy = v
	}
	if v := os.Getenv("SYS2KERNEL_REASONING_PRIORITY"); v != "" {
		c.ReasoningPriority = v
	}
	if v := os.Getenv("SYS2KERNEL_CLOSED_WORLD"); v == "true" {
		c.ClosedWorldAssumption = true
	}
	if v := os.Getenv("SYS2KERNEL_THEORY_DIR"); v != "" {
		c.TheoryDir = v
	}
}

// Validate rejects configurations the rest of the package cannot act on.
func (c *Config) Validate() error {
	switch c.HdcStrategy {
	case "dense-binary", "sparse-polynomial", "metric-affine":
	default:
		return fmt.Errorf("invalid hdc_strategy: %s", c.HdcStrategy)
	}
	switch c.ReasoningPriority {
	case "symbolicPriority", "holographicPriority":
	default:
		return fmt.Errorf("invalid reasoning_priority: %s", c.ReasoningPriority)
	}
	if c.MaxReasonerIterations <= 0 {
		return fmt.Errorf("max_reasoner_iterations must be positive")
	}
	if c.ProofMaxDepth <= 0 {
		return fmt.Errorf("proof_max_depth must be positive")
	}
	return c.ValidateLimits()
}

// ReasonerConfig translates this Config into a reasoner.Config.
func (c *Config) ReasonerConfig() reasoner.Config {
	priority := reasoner.SymbolicPriority
	if c.ReasoningPriority == "holographicPriority" {
		priority = reasoner.HolographicPriority
	}
	return reasoner.Config{
		MaxIterations:          c.MaxReasonerIterations,
		Priority:               priority,
		ClosedWorldAssumption:  c.ClosedWorldAssumption,
		ProofMaxDepth:          c.ProofMaxDepth,
		ProofValidationEnabled: c.ProofValidationEnabled,
	}
}

// Strategy builds the hdc.Strategy this config names.
func (c *Config) Strategy() hdc.Strategy {
	return hdc.New(c.HdcStrategy, c.Geometry)
}

// Timeout returns TimeoutMs as a duration, 0 meaning no deadline.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}
