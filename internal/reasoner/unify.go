package reasoner

import "sys2kernel/internal/model"

// unifyArg unifies a goal-side argument against a candidate-side
// (store) argument under bindings. Compound-valued args unify only by
// identical CompoundID — the nested expression itself is unified
// separately when a caller needs to recurse into it.
func unifyArg(bindings *Bindings, goalArg, candArg model.Arg) bool {
	if goalArg.Kind != candArg.Kind {
		return false
	}
	if goalArg.Kind == model.ArgCompound {
		return goalArg.CompoundID == candArg.CompoundID
	}
	return bindings.Bind(goalArg.Symbol, candArg.Symbol)
}

// unifyTriple unifies a goal triple against a candidate (fully ground,
// store-resident) triple.
func unifyTriple(bindings *Bindings, goal, cand model.Triple) bool {
	if !bindings.Bind(goal.Operator, cand.Operator) {
		return false
	}
	if !unifyArg(bindings, goal.Arg1, cand.Arg1) {
		return false
	}
	return unifyArg(bindings, goal.Arg2, cand.Arg2)
}

// substituteArg resolves a symbol-valued arg through bindings; compound
// args pass through unchanged (compounds are substituted recursively by
// substituteExpr).
func substituteArg(bindings *Bindings, a model.Arg) model.Arg {
	if a.Kind != model.ArgSymbol {
		return a
	}
	return model.SymbolArg(bindings.Resolve(a.Symbol))
}

func substituteTriple(bindings *Bindings, t model.Triple) model.Triple {
	return model.Triple{
		Operator: bindings.Resolve(t.Operator),
		Arg1:     substituteArg(bindings, t.Arg1),
		Arg2:     substituteArg(bindings, t.Arg2),
	}
}

// substituteExpr applies the current bindings throughout an expression,
// used to ground a rule consequent before it is proven or asserted.
func substituteExpr(bindings *Bindings, e model.Expression) model.Expression {
	if e.Kind == model.ExprTriple {
		return model.TripleExpr(substituteTriple(bindings, e.Triple))
	}
	if e.Compound == nil {
		return e
	}
	children := make([]model.Expression, len(e.Compound.Args))
	for i, c := range e.Compound.Args {
		children[i] = substituteExpr(bindings, c)
	}
	return model.CompoundExpr(&model.Compound{ID: e.Compound.ID, Form: e.Compound.Form, Args: children})
}

func isUnboundVarArg(bindings *Bindings, a model.Arg) bool {
	return a.Kind == model.ArgSymbol && bindings.isVariable(bindings.Resolve(a.Symbol))
}
