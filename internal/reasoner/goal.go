package reasoner

import (
	"sort"

	"sys2kernel/internal/hdc"
	"sys2kernel/internal/model"
	"sys2kernel/internal/proof"
	"sys2kernel/internal/store"
	"sys2kernel/internal/vocabulary"
)

// hdcVector is a local alias kept short for the candidate-ranking
// helpers below, which construct and compare whole-triple vectors.
type hdcVector = hdc.Vector

// solve proves one goal expression under bindings, threading path for
// the proof builder's cycle guard. It returns the first successful
// derivation, matching Prove's single-witness contract.
func (r *Reasoner) solve(goal model.Expression, bindings *Bindings, path []model.FactID, sr *search) (bool, []*proof.Step, bool) {
	if sr.expired() {
		step, _ := r.builder.New(proof.Timeout, 0, "the reasoning budget expired before this goal could be settled", path)
		return false, stepsOf(step), true
	}
	if !sr.consumeIteration() {
		step, _ := r.builder.New(proof.Timeout, 0, "the reasoner's iteration budget was exhausted", path)
		return false, stepsOf(step), true
	}

	switch {
	case goal.Kind == model.ExprTriple:
		return r.solveTriple(goal.Triple, bindings, path, sr)
	case goal.Compound.Form == model.FormNot:
		return r.solveNot(goal.Compound.Operand(), bindings, path, sr)
	case goal.Compound.Form == model.FormAnd:
		return r.solveAnd(goal.Compound.Args, bindings, path, sr)
	case goal.Compound.Form == model.FormOr:
		return r.solveOr(goal.Compound.Args, bindings, path, sr)
	default:
		// Implies is a rule, not a provable goal in its own right.
		return false, nil, false
	}
}

func stepsOf(s *proof.Step) []*proof.Step {
	if s == nil {
		return nil
	}
	return []*proof.Step{s}
}

// solveAnd proves every conjunct left to right, threading bindings
// through so a later conjunct can see an earlier conjunct's variables.
func (r *Reasoner) solveAnd(args []model.Expression, bindings *Bindings, path []model.FactID, sr *search) (bool, []*proof.Step, bool) {
	var subs []*proof.Step
	for _, arg := range args {
		ok, steps, timedOut := r.solve(arg, bindings, path, sr)
		if timedOut {
			return false, steps, true
		}
		if !ok {
			return false, nil, false
		}
		subs = append(subs, steps...)
	}
	step, err := r.builder.New(proof.AndAll, 0, "every conjunct of the conjunction holds", path, subs...)
	if err != nil {
		return false, nil, false
	}
	return true, stepsOf(step), false
}

// solveOr proves the first branch that succeeds, leaving bindings made
// by a failed branch undone (each branch gets its own cloned Bindings).
func (r *Reasoner) solveOr(args []model.Expression, bindings *Bindings, path []model.FactID, sr *search) (bool, []*proof.Step, bool) {
	for _, arg := range args {
		branch := bindings.Clone()
		ok, steps, timedOut := r.solve(arg, branch, path, sr)
		if timedOut {
			return false, steps, true
		}
		if ok {
			*bindings = *branch
			step, err := r.builder.New(proof.OrBranch, 0, "one disjunct of the disjunction holds", path, steps...)
			if err != nil {
				return false, nil, false
			}
			return true, stepsOf(step), false
		}
	}
	return false, nil, false
}

// solveNot implements CWA-gated negation (spec §4.6): Not(P) succeeds
// when P cannot be proven. Under the closed world assumption this is a
// definite success; otherwise it is merely "not currently provable",
// which Prove still reports as proven but the Step kind records the
// distinction for callers that inspect the proof.
func (r *Reasoner) solveNot(operand model.Expression, bindings *Bindings, path []model.FactID, sr *search) (bool, []*proof.Step, bool) {
	inner := bindings.Clone()
	ok, _, timedOut := r.solve(operand, inner, path, sr)
	if timedOut {
		step, _ := r.builder.New(proof.Timeout, 0, "timed out while checking the negated goal", path)
		return false, stepsOf(step), true
	}
	if ok {
		return false, nil, false
	}
	kind := proof.NotBlocked
	sentence := "the negated goal could not be proven, so its negation holds"
	if r.cfg.ClosedWorldAssumption {
		kind = proof.CWA
		sentence = "the negated goal is absent from the knowledge base under the closed-world assumption"
	}
	step, err := r.builder.New(kind, 0, sentence, path)
	if err != nil {
		return false, nil, false
	}
	return true, stepsOf(step), false
}

// solveTriple dispatches a ground-or-variable triple goal through every
// derivation source spec §4.6 names: exact match, transitive closure,
// symmetric lookup, inheritance, and modus ponens. It returns on the
// first source that yields a witness.
func (r *Reasoner) solveTriple(goal model.Triple, bindings *Bindings, path []model.FactID, sr *search) (bool, []*proof.Step, bool) {
	if ok, steps, timedOut := r.matchExact(goal, bindings, path); ok || timedOut {
		return ok, steps, timedOut
	}
	if r.hasTag(TagTransitiveRelation, goal.Operator) {
		if ok, steps, timedOut := r.matchTransitive(goal, bindings, path, sr, map[vocabulary.ID]bool{}); ok || timedOut {
			return ok, steps, timedOut
		}
	}
	if r.hasTag(TagSymmetricRelation, goal.Operator) {
		if ok, steps, timedOut := r.matchSymmetric(goal, bindings, path); ok || timedOut {
			return ok, steps, timedOut
		}
	}
	if r.hasTag(TagInheritableProperty, goal.Operator) {
		if ok, steps, timedOut := r.matchInheritance(goal, bindings, path, sr, map[vocabulary.ID]bool{}); ok || timedOut {
			return ok, steps, timedOut
		}
	}
	if ok, steps, timedOut := r.matchModusPonens(goal, bindings, path, sr); ok || timedOut {
		return ok, steps, timedOut
	}
	if r.cfg.ClosedWorldAssumption {
		step, err := r.builder.New(proof.CWA, 0, "the goal is absent from the knowledge base under the closed-world assumption", path)
		if err == nil {
			return true, stepsOf(step), false
		}
	}
	return false, nil, false
}

// hasTag reports whether __TagName op has been declared.
func (r *Reasoner) hasTag(tag string, op vocabulary.ID) bool {
	tagID, ok := r.vocab.Lookup(tag)
	if !ok {
		return false
	}
	r.stats.KBScans++
	facts := r.store.Facts(store.Pattern{Operator: tagID.ID, HasOperator: true, Arg1: op, HasArg1: true})
	return len(facts) > 0
}

// patternFromTriple builds a store.Pattern for t under the current
// bindings, leaving a slot unbound (matches anything) only when it is
// still a free variable.
func patternFromTriple(bindings *Bindings, t model.Triple) store.Pattern {
	p := store.Pattern{Operator: bindings.Resolve(t.Operator), HasOperator: true}
	if !isUnboundVarArg(bindings, t.Arg1) {
		p.Arg1, p.HasArg1 = substituteArg(bindings, t.Arg1).Symbol, t.Arg1.Kind == model.ArgSymbol
	}
	if !isUnboundVarArg(bindings, t.Arg2) {
		p.Arg2, p.HasArg2 = substituteArg(bindings, t.Arg2).Symbol, t.Arg2.Kind == model.ArgSymbol
	}
	return p
}

// lookupDirect matches goal against the store once, unifying each
// candidate's ground triple and returning the first witness. matchExact
// and matchSymmetric share this; only the triple shape and the
// resulting sentence differ.
func (r *Reasoner) lookupDirect(goal model.Triple, bindings *Bindings, path []model.FactID, sentence string) (bool, []*proof.Step, bool) {
	r.stats.KBScans++
	for _, f := range r.orderCandidates(bindings, goal, r.store.Facts(patternFromTriple(bindings, goal))) {
		if f.Expr.Kind != model.ExprTriple || !f.Polarity {
			continue
		}
		branch := bindings.Clone()
		r.stats.UnificationAttempts++
		if !unifyTriple(branch, goal, f.Expr.Triple) {
			continue
		}
		step, err := r.builder.New(proof.FactInKB, f.ID, sentence, path)
		if err != nil {
			continue
		}
		*bindings = *branch
		return true, stepsOf(step), false
	}
	return false, nil, false
}

// matchExact looks the goal up directly against the store, unifying
// each candidate's ground triple against the (possibly variable) goal.
func (r *Reasoner) matchExact(goal model.Triple, bindings *Bindings, path []model.FactID) (bool, []*proof.Step, bool) {
	return r.lookupDirect(goal, bindings, path, "the fact is already in the knowledge base")
}

// orderCandidates sorts facts under HolographicPriority by decreasing
// HDC similarity between the goal's bound arguments and each
// candidate's, falling back to the store's ascending FactID order
// under SymbolicPriority (spec §4.6 "reasoningPriority").
func (r *Reasoner) orderCandidates(bindings *Bindings, goal model.Triple, facts []*model.Fact) []*model.Fact {
	if r.cfg.Priority != HolographicPriority || len(facts) < 2 {
		return facts
	}
	goalVec := r.goalVector(bindings, goal)
	strategy := r.vocab.Strategy()
	scored := make([]*model.Fact, len(facts))
	copy(scored, facts)
	sim := make(map[model.FactID]float64, len(facts))
	for _, f := range scored {
		if f.Expr.Kind != model.ExprTriple {
			continue
		}
		r.stats.SimilarityChecks++
		sim[f.ID] = strategy.Similarity(goalVec, r.tripleVector(f.Expr.Triple))
	}
	sort.SliceStable(scored, func(i, j int) bool { return sim[scored[i].ID] > sim[scored[j].ID] })
	return scored
}

// goalVector/tripleVector bundle a triple's three symbol vectors into
// one comparison vector, used only to rank otherwise-tied candidates.
func (r *Reasoner) goalVector(bindings *Bindings, t model.Triple) hdcVector {
	return r.tripleVectorResolved(bindings, t)
}

func (r *Reasoner) tripleVector(t model.Triple) hdcVector {
	return r.vocab.Strategy().Bundle(r.vocab.Vector(t.Operator), r.symbolVec(t.Arg1), r.symbolVec(t.Arg2))
}

func (r *Reasoner) tripleVectorResolved(bindings *Bindings, t model.Triple) hdcVector {
	return r.vocab.Strategy().Bundle(
		r.vocab.Vector(bindings.Resolve(t.Operator)),
		r.symbolVecResolved(bindings, t.Arg1),
		r.symbolVecResolved(bindings, t.Arg2),
	)
}

func (r *Reasoner) symbolVec(a model.Arg) hdcVector {
	if a.Kind != model.ArgSymbol {
		return r.vocab.Strategy().Bundle()
	}
	return r.vocab.Vector(a.Symbol)
}

func (r *Reasoner) symbolVecResolved(bindings *Bindings, a model.Arg) hdcVector {
	if a.Kind != model.ArgSymbol {
		return r.vocab.Strategy().Bundle()
	}
	return r.vocab.Vector(bindings.Resolve(a.Symbol))
}
