package reasoner

import (
	"sys2kernel/internal/model"
	"sys2kernel/internal/proof"
	"sys2kernel/internal/vocabulary"
)

// yieldFunc receives one witness binding; returning false stops the
// enumeration early (maxResults reached, or the caller lost interest).
type yieldFunc func(*Bindings, []*proof.Step) bool

// enumerate is Query's workhorse: unlike solve, it visits every
// witness of goal rather than stopping at the first. It covers the
// shapes a bound query actually needs — ground/variable triples,
// And (cartesian product of each conjunct's witnesses), Or (each
// branch in turn), and Not (a single CWA-style witness when the
// operand has none). Implies is a rule definition, not a query target,
// matching solve's dispatch.
func (r *Reasoner) enumerate(goal model.Expression, bindings *Bindings, path []model.FactID, sr *search, yield yieldFunc) bool {
	if sr.expired() {
		return true
	}
	switch {
	case goal.Kind == model.ExprTriple:
		return r.enumerateTriple(goal.Triple, bindings, path, sr, yield)
	case goal.Compound.Form == model.FormAnd:
		return r.enumerateAnd(goal.Compound.Args, bindings, path, sr, yield)
	case goal.Compound.Form == model.FormOr:
		for _, arg := range goal.Compound.Args {
			if !r.enumerate(arg, bindings.Clone(), path, sr, yield) {
				return false
			}
		}
		return true
	case goal.Compound.Form == model.FormNot:
		ok, _, _ := r.solve(goal.Compound.Operand(), bindings.Clone(), path, sr)
		if ok {
			return true
		}
		return yield(bindings, nil)
	default:
		return true
	}
}

func (r *Reasoner) enumerateAnd(args []model.Expression, bindings *Bindings, path []model.FactID, sr *search, yield yieldFunc) bool {
	if len(args) == 0 {
		return yield(bindings, nil)
	}
	head, rest := args[0], args[1:]
	keepGoing := true
	r.enumerate(head, bindings, path, sr, func(b *Bindings, steps []*proof.Step) bool {
		keepGoing = r.enumerateAnd(rest, b, path, sr, func(b2 *Bindings, restSteps []*proof.Step) bool {
			return yield(b2, append(append([]*proof.Step(nil), steps...), restSteps...))
		})
		return keepGoing
	})
	return keepGoing
}

// enumerateTriple is matchExact's multi-witness counterpart: every
// matching, unifiable fact is offered to yield, in ascending FactID
// order (spec §4.4's deterministic iteration guarantee), in addition to
// whatever a declared transitive/symmetric/inheritance/rule closure
// produces via the same single-witness machinery solve already has —
// a query over a derived (non-stored) relation still finds its first
// witness, it just won't enumerate every derivation path for it.
func (r *Reasoner) enumerateTriple(goal model.Triple, bindings *Bindings, path []model.FactID, sr *search, yield yieldFunc) bool {
	r.stats.KBScans++
	for _, f := range r.store.Facts(patternFromTriple(bindings, goal)) {
		if f.Expr.Kind != model.ExprTriple || !f.Polarity {
			continue
		}
		branch := bindings.Clone()
		r.stats.UnificationAttempts++
		if !unifyTriple(branch, goal, f.Expr.Triple) {
			continue
		}
		step, err := r.builder.New(proof.FactInKB, f.ID, "the fact is already in the knowledge base", path)
		if err != nil {
			continue
		}
		if !yield(branch, stepsOf(step)) {
			return false
		}
	}
	derivedOK, derivedSteps, _ := r.solveDerivedOnly(goal, bindings.Clone(), path, sr)
	if derivedOK {
		return yield(bindings, derivedSteps)
	}
	return true
}

// solveDerivedOnly runs the same transitive/symmetric/inheritance/rule
// sources solveTriple does, skipping the direct KB lookup (already
// covered, exhaustively, by enumerateTriple's caller).
func (r *Reasoner) solveDerivedOnly(goal model.Triple, bindings *Bindings, path []model.FactID, sr *search) (bool, []*proof.Step, bool) {
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
	return r.matchModusPonens(goal, bindings, path, sr)
}
