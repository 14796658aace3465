// Package contradiction implements the ContradictionDetector (spec
// §4.5): same-args opposition, mutual exclusion, bounded-depth inherited
// contradiction through declared Implies rules, and explicit negation.
// It depends on internal/store, not the other way around — FactStore
// only sees the store.ContradictionChecker interface, so the detector
// can wrap a store without the store depending back on the detector.
package contradiction

import (
	"go.uber.org/zap"

	"sys2kernel/internal/model"
	"sys2kernel/internal/store"
	"sys2kernel/internal/vocabulary"
)

// Reserved operator names theories use to declare contradiction rules.
const (
	OpContradictsSameArgs = "contradictsSameArgs"
	OpMutuallyExclusive   = "mutuallyExclusive"
)

// DefaultClosureDepth bounds how many Implies hops check 3 walks before
// giving up (spec §4.5: "bounded to a configurable depth, default 8").
const DefaultClosureDepth = 8

// Detector implements store.ContradictionChecker.
type Detector struct {
	logger       *zap.Logger
	closureDepth int
}

// New constructs a Detector. depth <= 0 selects DefaultClosureDepth.
func New(logger *zap.Logger, depth int) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if depth <= 0 {
		depth = DefaultClosureDepth
	}
	return &Detector{logger: logger, closureDepth: depth}
}

// Check implements store.ContradictionChecker.
func (d *Detector) Check(s *store.FactStore, tx *store.Tx, candidate *model.Fact) store.ContradictionResult {
	if candidate.Expr.Kind != model.ExprTriple {
		return store.ContradictionResult{Ok: true}
	}
	return d.checkTriple(s, candidate.Expr.Triple, candidate.Polarity, nil, d.closureDepth)
}

// checkTriple runs checks 1, 2, and 4 against t/polarity, then — budget
// permitting — check 3's Implies closure. path records the chain of
// facts walked so far, surfaced in DerivedPath for display.
func (d *Detector) checkTriple(s *store.FactStore, t model.Triple, polarity bool, path []model.FactID, budget int) store.ContradictionResult {
	if res := d.checkExplicitNegation(s, t, polarity); !res.Ok {
		res.DerivedPath = path
		return res
	}
	if res := d.checkSameArgsOpposition(s, t, polarity); !res.Ok {
		res.DerivedPath = path
		return res
	}
	if res := d.checkMutualExclusion(s, t, polarity); !res.Ok {
		res.DerivedPath = path
		return res
	}
	if budget <= 0 || !polarity {
		// Negative facts are not closed under Implies: only a positive
		// fact "happening" can trigger a rule's consequent.
		return store.ContradictionResult{Ok: true}
	}
	return d.checkInheritedContradiction(s, t, path, budget)
}

// checkExplicitNegation implements spec §4.5 rule 4: Not(P) in the
// store and a new P contradict, symmetrically.
func (d *Detector) checkExplicitNegation(s *store.FactStore, t model.Triple, polarity bool) store.ContradictionResult {
	for _, f := range s.Facts(matchTriple(t)) {
		if f.Expr.Kind != model.ExprTriple {
			continue
		}
		if f.Polarity != polarity {
			return store.ContradictionResult{
				Ok:     false,
				Reason: "explicit negation: the knowledge base already has the opposite polarity for this fact",
				Cause:  f.ID,
			}
		}
	}
	return store.ContradictionResult{Ok: true}
}

// checkSameArgsOpposition implements spec §4.5 rule 1.
func (d *Detector) checkSameArgsOpposition(s *store.FactStore, t model.Triple, polarity bool) store.ContradictionResult {
	if !polarity {
		return store.ContradictionResult{Ok: true}
	}
	vocab := s.Vocabulary()
	for _, partner := range declaredPairs(s, vocab, OpContradictsSameArgs, t.Operator) {
		for _, f := range s.Facts(store.Pattern{Operator: partner, HasOperator: true, Arg1: argSymbol(t.Arg1), HasArg1: t.Arg1.Kind == model.ArgSymbol, Arg2: argSymbol(t.Arg2), HasArg2: t.Arg2.Kind == model.ArgSymbol}) {
			if !f.Polarity {
				continue
			}
			return store.ContradictionResult{
				Ok:     false,
				Reason: "same-args opposition: " + symbolName(vocab, t.Operator) + " and " + symbolName(vocab, partner) + " cannot both hold for these arguments",
				Cause:  f.ID,
			}
		}
	}
	return store.ContradictionResult{Ok: true}
}

// checkMutualExclusion implements spec §4.5 rule 2. `mutuallyExclusive
// R V1 V2` means R(x,V1) and R(x,V2) cannot coexist; candidates and
// stored facts are already alias-canonicalised by the store before this
// runs, so the check itself needs no extra alias lookup.
func (d *Detector) checkMutualExclusion(s *store.FactStore, t model.Triple, polarity bool) store.ContradictionResult {
	if !polarity || t.Arg1.Kind != model.ArgSymbol || t.Arg2.Kind != model.ArgSymbol {
		return store.ContradictionResult{Ok: true}
	}
	vocab := s.Vocabulary()
	for _, other := range mutuallyExclusiveValues(s, vocab, t.Operator, t.Arg2.Symbol) {
		for _, f := range s.Facts(store.Pattern{
			Operator: t.Operator, HasOperator: true,
			Arg1: t.Arg1.Symbol, HasArg1: true,
			Arg2: other, HasArg2: true,
		}) {
			if !f.Polarity {
				continue
			}
			return store.ContradictionResult{
				Ok:     false,
				Reason: "mutual exclusion: " + symbolName(vocab, t.Operator) + " cannot hold two mutually exclusive values for the same subject",
				Cause:  f.ID,
			}
		}
	}
	return store.ContradictionResult{Ok: true}
}

// checkInheritedContradiction implements spec §4.5 rule 3: close t
// under declared Implies facts up to `budget` hops, re-running checks 1
// and 2 on each derived consequent. Rule 5 (exception escape hatch)
// skips a derived consequent that an explicit (non-derived) Not already
// covers.
func (d *Detector) checkInheritedContradiction(s *store.FactStore, t model.Triple, path []model.FactID, budget int) store.ContradictionResult {
	vocab := s.Vocabulary()
	for _, rule := range s.CompoundFacts() {
		if rule.Expr.Kind != model.ExprCompound || rule.Expr.Compound.Form != model.FormImplies {
			continue
		}
		ant := rule.Expr.Compound.Antecedent()
		if ant.Kind != model.ExprTriple {
			continue
		}
		bindings, ok := bindTriple(vocab, ant.Triple, t)
		if !ok {
			continue
		}
		cons := rule.Expr.Compound.Consequent()
		for _, derived := range model.FlattenConsequent(cons) {
			if derived.Kind != model.ExprTriple {
				continue
			}
			dt := substituteTriple(derived.Triple, bindings)
			if d.hasExplicitException(s, dt) {
				continue
			}
			nextPath := append(append([]model.FactID(nil), path...), rule.ID)
			if res := d.checkTriple(s, dt, true, nextPath, budget-1); !res.Ok {
				return res
			}
		}
	}
	return store.ContradictionResult{Ok: true}
}

// bindTriple attempts a one-directional ground match: every Variable-
// kind symbol in ant binds to the corresponding symbol in t; every
// Constant/Operator slot must match exactly. Used only to walk declared
// Implies rules while closing a candidate fact — the full unifier with
// occurs-check-disabled union-find lives in internal/reasoner.
func bindTriple(vocab *vocabulary.Vocabulary, ant, t model.Triple) (map[vocabulary.ID]vocabulary.ID, bool) {
	if ant.Operator != t.Operator {
		return nil, false
	}
	bindings := map[vocabulary.ID]vocabulary.ID{}
	if !bindArg(vocab, ant.Arg1, t.Arg1, bindings) {
		return nil, false
	}
	if !bindArg(vocab, ant.Arg2, t.Arg2, bindings) {
		return nil, false
	}
	return bindings, true
}

func bindArg(vocab *vocabulary.Vocabulary, antArg, tArg model.Arg, bindings map[vocabulary.ID]vocabulary.ID) bool {
	if antArg.Kind != model.ArgSymbol || tArg.Kind != model.ArgSymbol {
		return antArg.Kind == tArg.Kind && argEqual(antArg, tArg)
	}
	if sym, ok := vocab.Get(antArg.Symbol); ok && sym.Kind == vocabulary.Variable {
		if bound, seen := bindings[antArg.Symbol]; seen {
			return bound == tArg.Symbol
		}
		bindings[antArg.Symbol] = tArg.Symbol
		return true
	}
	return antArg.Symbol == tArg.Symbol
}

func substituteTriple(t model.Triple, bindings map[vocabulary.ID]vocabulary.ID) model.Triple {
	return model.Triple{
		Operator: t.Operator,
		Arg1:     substituteArg(t.Arg1, bindings),
		Arg2:     substituteArg(t.Arg2, bindings),
	}
}

func substituteArg(a model.Arg, bindings map[vocabulary.ID]vocabulary.ID) model.Arg {
	if a.Kind == model.ArgSymbol {
		if bound, ok := bindings[a.Symbol]; ok {
			return model.SymbolArg(bound)
		}
	}
	return a
}

// hasExplicitException implements spec §4.5 rule 5: an explicit
// Not(P) — one with no RuleChain, i.e. asserted directly rather than
// derived — blocks rule 3 from treating P as contradictory via
// inheritance.
func (d *Detector) hasExplicitException(s *store.FactStore, t model.Triple) bool {
	for _, f := range s.Facts(matchTriple(t)) {
		if !f.Polarity && len(f.RuleChain) == 0 {
			return true
		}
	}
	return false
}

func matchTriple(t model.Triple) store.Pattern {
	p := store.Pattern{Operator: t.Operator, HasOperator: true}
	if t.Arg1.Kind == model.ArgSymbol {
		p.Arg1, p.HasArg1 = t.Arg1.Symbol, true
	}
	if t.Arg2.Kind == model.ArgSymbol {
		p.Arg2, p.HasArg2 = t.Arg2.Symbol, true
	}
	return p
}

func argSymbol(a model.Arg) vocabulary.ID {
	if a.Kind == model.ArgSymbol {
		return a.Symbol
	}
	return 0
}

// declaredPairs returns every operator R' such that `contradictsSameArgs
// op R'` or `contradictsSameArgs R' op` has been declared — the
// declaration is symmetric per spec §4.5 rule 1.
func declaredPairs(s *store.FactStore, vocab *vocabulary.Vocabulary, declOp string, op vocabulary.ID) []vocabulary.ID {
	declID, ok := vocab.Lookup(declOp)
	if !ok {
		return nil
	}
	var out []vocabulary.ID
	for _, f := range s.Facts(store.Pattern{Operator: declID.ID, HasOperator: true}) {
		if f.Expr.Kind != model.ExprTriple {
			continue
		}
		a1, a2 := f.Expr.Triple.Arg1, f.Expr.Triple.Arg2
		if a1.Kind != model.ArgSymbol || a2.Kind != model.ArgSymbol {
			continue
		}
		switch op {
		case a1.Symbol:
			out = append(out, a2.Symbol)
		case a2.Symbol:
			out = append(out, a1.Symbol)
		}
	}
	return out
}

// mutuallyExclusiveValues returns every value V' such that
// `mutuallyExclusive op value V'` or `mutuallyExclusive op V' value` has
// been declared.
func mutuallyExclusiveValues(s *store.FactStore, vocab *vocabulary.Vocabulary, op, value vocabulary.ID) []vocabulary.ID {
	declID, ok := vocab.Lookup(OpMutuallyExclusive)
	if !ok {
		return nil
	}
	var out []vocabulary.ID
	for _, f := range s.Facts(store.Pattern{Operator: declID.ID, HasOperator: true, Arg1: op, HasArg1: true}) {
		if f.Expr.Kind != model.ExprTriple {
			continue
		}
		a2 := f.Expr.Triple.Arg2
		if a2.Kind != model.ArgSymbol {
			continue
		}
		if a2.Symbol == value {
			continue
		}
		out = append(out, a2.Symbol)
	}
	return out
}

func symbolName(vocab *vocabulary.Vocabulary, id vocabulary.ID) string {
	if sym, ok := vocab.Get(id); ok {
		return sym.Name
	}
	return "?"
}

func argEqual(a, b model.Arg) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == model.ArgSymbol {
		return a.Symbol == b.Symbol
	}
	return a.CompoundID == b.CompoundID
}
