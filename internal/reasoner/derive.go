package reasoner

import (
	"sys2kernel/internal/model"
	"sys2kernel/internal/proof"
	"sys2kernel/internal/store"
	"sys2kernel/internal/vocabulary"
)

// matchSymmetric tries the reverse triple: a relation tagged
// __SymmetricRelation lets op(B,A) in the store prove op(A,B).
func (r *Reasoner) matchSymmetric(goal model.Triple, bindings *Bindings, path []model.FactID) (bool, []*proof.Step, bool) {
	swapped := model.Triple{Operator: goal.Operator, Arg1: goal.Arg2, Arg2: goal.Arg1}
	return r.lookupDirect(swapped, bindings, path, "the relation is declared symmetric, and its reverse is in the knowledge base")
}

// matchTransitive closes a __TransitiveRelation-tagged operator over
// direct hops until it reaches the goal's other end. One of Arg1/Arg2
// must already be ground; the search walks outward from that end.
func (r *Reasoner) matchTransitive(goal model.Triple, bindings *Bindings, path []model.FactID, sr *search, visited map[vocabulary.ID]bool) (bool, []*proof.Step, bool) {
	op := bindings.Resolve(goal.Operator)
	switch {
	case !isUnboundVarArg(bindings, goal.Arg1):
		start := substituteArg(bindings, goal.Arg1).Symbol
		return r.transitiveWalk(op, start, goal.Arg2, bindings, path, sr, visited, false)
	case !isUnboundVarArg(bindings, goal.Arg2):
		start := substituteArg(bindings, goal.Arg2).Symbol
		return r.transitiveWalk(op, start, goal.Arg1, bindings, path, sr, visited, true)
	default:
		return false, nil, false
	}
}

// transitiveWalk performs a depth-first search for a chain of op-hops
// from start to target, in the direction fixed by reverse (false walks
// Arg1->Arg2 edges forward, true walks them backward from Arg2).
func (r *Reasoner) transitiveWalk(op, start vocabulary.ID, target model.Arg, bindings *Bindings, path []model.FactID, sr *search, visited map[vocabulary.ID]bool, reverse bool) (bool, []*proof.Step, bool) {
	if visited[start] {
		return false, nil, false
	}
	visited[start] = true
	if sr.expired() {
		step, _ := r.builder.New(proof.Timeout, 0, "timed out walking the transitive closure", path)
		return false, stepsOf(step), true
	}
	r.stats.KBScans++
	p := store.Pattern{Operator: op, HasOperator: true}
	if reverse {
		p.Arg2, p.HasArg2 = start, true
	} else {
		p.Arg1, p.HasArg1 = start, true
	}
	for _, f := range r.store.Facts(p) {
		if !f.Polarity || f.Expr.Kind != model.ExprTriple {
			continue
		}
		var next model.Arg
		if reverse {
			next = f.Expr.Triple.Arg1
		} else {
			next = f.Expr.Triple.Arg2
		}
		if next.Kind != model.ArgSymbol {
			continue
		}

		branch := bindings.Clone()
		r.stats.UnificationAttempts++
		if unifyArg(branch, target, next) {
			step, err := r.builder.New(proof.FactInKB, f.ID, "a direct hop closes the transitive relation", path)
			if err == nil {
				*bindings = *branch
				return true, stepsOf(step), false
			}
		}

		branch2 := bindings.Clone()
		ok, steps, timedOut := r.transitiveWalk(op, next.Symbol, target, branch2, path, sr, visited, reverse)
		if timedOut {
			return false, steps, true
		}
		if !ok {
			continue
		}
		hop, err := r.builder.New(proof.TransitiveHop, f.ID, "one more hop extends the transitive chain", path, steps...)
		if err != nil {
			continue
		}
		*bindings = *branch2
		return true, stepsOf(hop), false
	}
	return false, nil, false
}

// matchInheritance climbs the isA chain from the goal's subject looking
// for the same property declared on an ancestor (spec §4.6's
// __InheritableProperty rule), honoring the same explicit-Not exception
// escape hatch contradiction detection uses for its rule 5.
func (r *Reasoner) matchInheritance(goal model.Triple, bindings *Bindings, path []model.FactID, sr *search, visited map[vocabulary.ID]bool) (bool, []*proof.Step, bool) {
	if goal.Arg1.Kind != model.ArgSymbol {
		return false, nil, false
	}
	isAID, ok := r.vocab.Lookup("isA")
	if !ok {
		return false, nil, false
	}
	subject := substituteArg(bindings, goal.Arg1).Symbol
	ok, steps, timedOut := r.inheritWalk(isAID.ID, subject, goal, bindings, path, sr, visited)
	if timedOut || !ok {
		return ok, steps, timedOut
	}
	if r.hasExplicitException(model.Triple{Operator: goal.Operator, Arg1: model.SymbolArg(subject), Arg2: substituteArg(bindings, goal.Arg2)}) {
		return false, nil, false
	}
	return true, steps, false
}

func (r *Reasoner) inheritWalk(isAOp, subject vocabulary.ID, goal model.Triple, bindings *Bindings, path []model.FactID, sr *search, visited map[vocabulary.ID]bool) (bool, []*proof.Step, bool) {
	if visited[subject] {
		return false, nil, false
	}
	visited[subject] = true
	if sr.expired() {
		step, _ := r.builder.New(proof.Timeout, 0, "timed out walking the inheritance chain", path)
		return false, stepsOf(step), true
	}
	r.stats.KBScans++
	parents := r.store.Facts(store.Pattern{Operator: isAOp, HasOperator: true, Arg1: subject, HasArg1: true})
	for _, pf := range parents {
		if !pf.Polarity || pf.Expr.Kind != model.ExprTriple {
			continue
		}
		parentArg := pf.Expr.Triple.Arg2
		if parentArg.Kind != model.ArgSymbol {
			continue
		}

		directGoal := model.Triple{Operator: goal.Operator, Arg1: parentArg, Arg2: goal.Arg2}
		branch := bindings.Clone()
		if ok, steps, timedOut := r.matchExact(directGoal, branch, path); timedOut {
			return false, steps, true
		} else if ok {
			hop, err := r.builder.New(proof.InheritanceHop, pf.ID, "the property is inherited down the isA chain from an ancestor", path, steps...)
			if err == nil {
				*bindings = *branch
				return true, stepsOf(hop), false
			}
		}

		branch2 := bindings.Clone()
		ok, steps, timedOut := r.inheritWalk(isAOp, parentArg.Symbol, goal, branch2, path, sr, visited)
		if timedOut {
			return false, steps, true
		}
		if !ok {
			continue
		}
		hop, err := r.builder.New(proof.InheritanceHop, pf.ID, "the property is inherited down the isA chain", path, steps...)
		if err != nil {
			continue
		}
		*bindings = *branch2
		return true, stepsOf(hop), false
	}
	return false, nil, false
}

// hasExplicitException reports whether t has an explicit (not
// rule-derived) negative fact in the store, blocking inheritance or
// rule-based derivation of t for this specific subject.
func (r *Reasoner) hasExplicitException(t model.Triple) bool {
	p := store.Pattern{Operator: t.Operator, HasOperator: true}
	if t.Arg1.Kind == model.ArgSymbol {
		p.Arg1, p.HasArg1 = t.Arg1.Symbol, true
	}
	if t.Arg2.Kind == model.ArgSymbol {
		p.Arg2, p.HasArg2 = t.Arg2.Symbol, true
	}
	r.stats.KBScans++
	for _, f := range r.store.Facts(p) {
		if !f.Polarity && len(f.RuleChain) == 0 {
			return true
		}
	}
	return false
}

// matchModusPonens tries every Implies rule in the store, unifying the
// goal against each (possibly And/Or-shaped) consequent leaf and
// proving the antecedent under the resulting bindings.
func (r *Reasoner) matchModusPonens(goal model.Triple, bindings *Bindings, path []model.FactID, sr *search) (bool, []*proof.Step, bool) {
	r.stats.KBScans++
	for _, rule := range r.store.CompoundFacts() {
		if rule.Expr.Kind != model.ExprCompound || rule.Expr.Compound.Form != model.FormImplies {
			continue
		}
		sr.renameCounter++
		fire := sr.renameCounter
		ant, cons := renameRulePair(r.vocab, rule.ID, fire, rule.Expr.Compound.Antecedent(), rule.Expr.Compound.Consequent())

		for _, leaf := range model.FlattenConsequent(cons) {
			if leaf.Kind != model.ExprTriple {
				continue
			}
			branch := bindings.Clone()
			r.stats.UnificationAttempts++
			if !unifyTriple(branch, goal, leaf.Triple) {
				continue
			}
			nextPath := append(append([]model.FactID(nil), path...), rule.ID)
			r.stats.RuleFirings++
			ok, steps, timedOut := r.solve(ant, branch, nextPath, sr)
			if timedOut {
				return false, steps, true
			}
			if !ok {
				continue
			}
			step, err := r.builder.New(proof.RuleApplication, rule.ID, "the rule's antecedent holds, so its consequent follows", path, steps...)
			if err != nil {
				continue
			}
			*bindings = *branch
			return true, stepsOf(step), false
		}
	}
	return false, nil, false
}
