// Package proof records the Reasoner's derivation trail as a directed
// acyclic graph of steps (spec §4.7), grounded on the teacher's
// internal/mangle/proof_tree.go DerivationNode/DerivationTrace shape:
// each node names a fact, a step kind, and its premises (here SubSteps).
package proof

import (
	"strings"

	"sys2kernel/internal/model"
)

// StepKind enumerates the derivation shapes spec §4.7 names.
type StepKind int

const (
	FactInKB StepKind = iota
	TransitiveHop
	InheritanceHop
	RuleApplication
	AndAll
	OrBranch
	NotBlocked
	CWA
	Timeout
)

func (k StepKind) String() string {
	switch k {
	case TransitiveHop:
		return "TransitiveHop"
	case InheritanceHop:
		return "InheritanceHop"
	case RuleApplication:
		return "RuleApplication"
	case AndAll:
		return "AndAll"
	case OrBranch:
		return "OrBranch"
	case NotBlocked:
		return "NotBlocked"
	case CWA:
		return "CWA"
	case Timeout:
		return "Timeout"
	default:
		return "FactInKB"
	}
}

// Step is one node of the proof DAG.
type Step struct {
	Kind     StepKind
	Fact     model.FactID // 0 if the step has no backing fact (CWA, Timeout)
	Sentence string       // human-readable gloss, rendered verbatim by Render
	SubSteps []*Step
}

// Builder accumulates Steps under spec §4.7's depth cap and cycle guard.
type Builder struct {
	maxDepth int
}

// DefaultMaxDepth is spec §4.7's proofMaxDepth default.
const DefaultMaxDepth = 64

// NewBuilder constructs a Builder. depth <= 0 selects DefaultMaxDepth.
func NewBuilder(depth int) *Builder {
	if depth <= 0 {
		depth = DefaultMaxDepth
	}
	return &Builder{maxDepth: depth}
}

// ErrTooDeep/ErrCycle are returned by Step construction helpers below.
type buildError string

func (e buildError) Error() string { return string(e) }

const (
	ErrTooDeep buildError = "proof step exceeds proofMaxDepth"
	ErrCycle   buildError = "proof step repeats within its own path"
)

// New constructs a Step at the given path depth, rejecting a path that
// is too deep or that revisits a fact already on the current path
// (spec §4.7: "no node appears twice in one proof path").
func (b *Builder) New(kind StepKind, fact model.FactID, sentence string, path []model.FactID, subSteps ...*Step) (*Step, error) {
	if len(path) > b.maxDepth {
		return nil, ErrTooDeep
	}
	if fact != 0 {
		for _, seen := range path {
			if seen == fact {
				return nil, ErrCycle
			}
		}
	}
	return &Step{Kind: kind, Fact: fact, Sentence: sentence, SubSteps: subSteps}, nil
}

// Render flattens the proof into spec §4.7's stable textual shape: one
// sentence per step, pre-order, joined with ". ".
func Render(steps []*Step) string {
	var sb strings.Builder
	var walk func(*Step)
	first := true
	walk = func(s *Step) {
		if s == nil {
			return
		}
		if s.Sentence != "" {
			if !first {
				sb.WriteString(". ")
			}
			sb.WriteString(s.Sentence)
			first = false
		}
		for _, child := range s.SubSteps {
			walk(child)
		}
	}
	for _, s := range steps {
		walk(s)
	}
	return sb.String()
}

// Validator re-evaluates each step against the store; ValidateFunc is
// supplied by the reasoner (which knows how to re-check a FactInKB,
// TransitiveHop, etc. against the live store) to avoid proof importing
// store or reasoner.
type ValidateFunc func(*Step) bool

// Validate walks the whole proof and reports whether every step
// re-validates, implementing spec §4.7's proofValidationEnabled pass.
func Validate(steps []*Step, fn ValidateFunc) bool {
	for _, s := range steps {
		if s == nil {
			continue
		}
		if !fn(s) {
			return false
		}
		if !Validate(s.SubSteps, fn) {
			return false
		}
	}
	return true
}
