package reasoner

import (
	"time"

	"go.uber.org/zap"

	"sys2kernel/internal/model"
	"sys2kernel/internal/proof"
	"sys2kernel/internal/store"
	"sys2kernel/internal/vocabulary"
)

// Priority selects whether symbolic unification or HDC similarity ranks
// candidate symbols first when a goal step has more than one
// unifying candidate (spec §4.6 "Reasoning priority").
type Priority int

const (
	SymbolicPriority Priority = iota
	HolographicPriority
)

// Tag operator names theories declare to mark a relation's properties
// (spec §3: "__TransitiveRelation, __SymmetricRelation,
// __InheritableProperty"). Declared as an ordinary triple, e.g.
// `__TransitiveRelation isA isA`; only Arg1 is consulted.
const (
	TagTransitiveRelation = "__TransitiveRelation"
	TagSymmetricRelation  = "__SymmetricRelation"
	TagInheritableProperty = "__InheritableProperty"
)

// DefaultMaxIterations is spec §4.6's maxReasonerIterations default.
const DefaultMaxIterations = 1000

// Config configures one Reasoner instance. Session derives this from
// its own Config (spec §6 "Configuration keys").
type Config struct {
	MaxIterations          int
	Priority               Priority
	ClosedWorldAssumption  bool
	ProofMaxDepth          int
	ProofValidationEnabled bool
}

// DefaultConfig returns spec §6's documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxIterations:          DefaultMaxIterations,
		Priority:               SymbolicPriority,
		ClosedWorldAssumption:  false,
		ProofMaxDepth:          proof.DefaultMaxDepth,
		ProofValidationEnabled: false,
	}
}

// Stats are the session-visible reasoning counters (spec §4.10).
type Stats struct {
	KBScans            int
	SimilarityChecks   int
	RuleFirings        int
	UnificationAttempts int
}

// Verdict is the outcome of one Prove call (spec §4.6/§4.10).
type Verdict struct {
	Proven        bool
	Unknown       bool
	TimedOut      bool
	ProofInvalid  bool
	Steps         []*proof.Step
	FailureTrace  string
	Bindings      map[vocabulary.ID]vocabulary.ID // goal-side variable -> resolved value
}

// Reasoner evaluates goal expressions against a FactStore.
type Reasoner struct {
	store   *store.FactStore
	vocab   *vocabulary.Vocabulary
	builder *proof.Builder
	cfg     Config
	logger  *zap.Logger
	stats   Stats
}

// New constructs a Reasoner bound to one FactStore/Vocabulary pair —
// the same pair a Session owns for its whole lifetime.
func New(s *store.FactStore, cfg Config, logger *zap.Logger) *Reasoner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reasoner{
		store:   s,
		vocab:   s.Vocabulary(),
		builder: proof.NewBuilder(cfg.ProofMaxDepth),
		cfg:     cfg,
		logger:  logger,
	}
}

// Stats returns the cumulative reasoning counters for this Reasoner's
// whole lifetime (spec §4.10 — Session surfaces these, it does not
// reset them between calls).
func (r *Reasoner) Stats() Stats { return r.stats }

// search is per-call mutable state threaded through the recursive
// solve functions in goal.go.
type search struct {
	iterLeft      int
	deadline      time.Time
	renameCounter int
}

func (s *search) expired() bool {
	return !s.deadline.IsZero() && time.Now().After(s.deadline)
}

func (s *search) consumeIteration() bool {
	if s.iterLeft <= 0 {
		return false
	}
	s.iterLeft--
	return true
}

// Prove evaluates goal and returns a single verdict (spec §4.6's
// "prove" contract: proven/not-proven/timeout, with a proof artifact).
// timeoutMs <= 0 means no deadline.
func (r *Reasoner) Prove(goal model.Expression, timeoutMs int) Verdict {
	sr := &search{iterLeft: r.cfg.MaxIterations}
	if timeoutMs > 0 {
		sr.deadline = time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	}
	bindings := NewBindings(r.vocab)
	ok, steps, timedOut := r.solve(goal, bindings, nil, sr)
	v := Verdict{Proven: ok, TimedOut: timedOut, Steps: steps}
	if timedOut {
		v.Unknown = true
	}
	if r.cfg.ProofValidationEnabled && ok {
		if !proof.Validate(steps, r.validateStep) {
			v.ProofInvalid = true
			v.Proven = false
		}
	}
	v.Bindings = snapshotGoalBindings(goal, bindings)
	return v
}

// snapshotGoalBindings resolves every Variable-kind symbol referenced
// directly in goal, giving the caller a witness for Exists-shaped goals
// without exposing the whole union-find.
func snapshotGoalBindings(goal model.Expression, bindings *Bindings) map[vocabulary.ID]vocabulary.ID {
	out := map[vocabulary.ID]vocabulary.ID{}
	var walk func(model.Expression)
	walk = func(e model.Expression) {
		if e.Kind == model.ExprTriple {
			for _, a := range []model.Arg{e.Triple.Arg1, e.Triple.Arg2} {
				if a.Kind == model.ArgSymbol && bindings.isVariable(a.Symbol) {
					out[a.Symbol] = bindings.Resolve(a.Symbol)
				}
			}
			return
		}
		if e.Compound == nil {
			return
		}
		for _, c := range e.Compound.Args {
			walk(c)
		}
	}
	walk(goal)
	return out
}

// validateStep re-checks one proof step against the live store (spec
// §4.7 proofValidationEnabled walker).
func (r *Reasoner) validateStep(s *proof.Step) bool {
	switch s.Kind {
	case proof.CWA, proof.Timeout, proof.AndAll, proof.OrBranch, proof.NotBlocked:
		return true
	default:
		if s.Fact == 0 {
			return true
		}
		f, ok := r.store.Get(s.Fact)
		return ok && f != nil
	}
}

// QueryResult is one binding produced by Query.
type QueryResult struct {
	Bindings map[vocabulary.ID]vocabulary.ID
	Steps    []*proof.Step
}

// DefaultMaxResults is used when maxResults <= 0 is passed to Query
// ("bounded by maxResults (default unbounded)" — unbounded here means
// generous rather than literally infinite, to keep one call bounded).
const DefaultMaxResults = 100000

// Query enumerates bindings for goal (spec §4.6 "Exists"/§4.10 lazy
// result stream), ascending by the head match's fact ID as facts are
// discovered. maxResults <= 0 means spec's documented "unbounded".
func (r *Reasoner) Query(goal model.Expression, maxResults int, timeoutMs int) []QueryResult {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	sr := &search{iterLeft: r.cfg.MaxIterations}
	if timeoutMs > 0 {
		sr.deadline = time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	}
	var results []QueryResult
	r.enumerate(goal, NewBindings(r.vocab), nil, sr, func(b *Bindings, steps []*proof.Step) bool {
		results = append(results, QueryResult{Bindings: snapshotGoalBindings(goal, b), Steps: steps})
		return len(results) < maxResults
	})
	return results
}
