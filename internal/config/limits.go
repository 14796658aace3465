package config

import "fmt"

// ReasoningLimits bounds resource growth within one Session, the
// allocation ceilings spec §5's "resource discipline" names.
type ReasoningLimits struct {
	// MaxFactsInKernel caps the store's live fact count; FactStore
	// rejects a commit that would push past it (store.FactStore.SetMaxFacts).
	MaxFactsInKernel int `yaml:"max_facts_in_kernel"`
}

// ValidateLimits checks the configured limits are usable.
func (c *Config) ValidateLimits() error {
	if c.Limits.MaxFactsInKernel < 1000 {
		return fmt.Errorf("max_facts_in_kernel must be >= 1000")
	}
	return nil
}
