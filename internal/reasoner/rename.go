package reasoner

import (
	"fmt"
	"strings"

	"sys2kernel/internal/model"
	"sys2kernel/internal/vocabulary"
)

// renameRulePair gives every Variable-kind symbol across a rule's
// antecedent and consequent a fresh name scoped to this one rule
// firing, sharing a single mapping so a variable that links the two
// (e.g. ?x appearing in both) stays linked after renaming. Standard
// "rename apart" from logic-programming backward chaining — without it
// ?x in a recursive rule would alias across separate firings through
// the shared Bindings union-find.
func renameRulePair(vocab *vocabulary.Vocabulary, ruleID model.FactID, fireCount int, ant, cons model.Expression) (model.Expression, model.Expression) {
	mapping := map[vocabulary.ID]vocabulary.ID{}
	return renameExpr(vocab, ruleID, fireCount, ant, mapping), renameExpr(vocab, ruleID, fireCount, cons, mapping)
}

func renameExpr(vocab *vocabulary.Vocabulary, ruleID model.FactID, fireCount int, e model.Expression, mapping map[vocabulary.ID]vocabulary.ID) model.Expression {
	if e.Kind == model.ExprTriple {
		return model.TripleExpr(model.Triple{
			Operator: renameSym(vocab, ruleID, fireCount, e.Triple.Operator, mapping),
			Arg1:     renameArgSym(vocab, ruleID, fireCount, e.Triple.Arg1, mapping),
			Arg2:     renameArgSym(vocab, ruleID, fireCount, e.Triple.Arg2, mapping),
		})
	}
	if e.Compound == nil {
		return e
	}
	children := make([]model.Expression, len(e.Compound.Args))
	for i, c := range e.Compound.Args {
		children[i] = renameExpr(vocab, ruleID, fireCount, c, mapping)
	}
	return model.CompoundExpr(&model.Compound{ID: e.Compound.ID, Form: e.Compound.Form, Args: children})
}

func renameArgSym(vocab *vocabulary.Vocabulary, ruleID model.FactID, fireCount int, a model.Arg, mapping map[vocabulary.ID]vocabulary.ID) model.Arg {
	if a.Kind != model.ArgSymbol {
		return a
	}
	return model.SymbolArg(renameSym(vocab, ruleID, fireCount, a.Symbol, mapping))
}

func renameSym(vocab *vocabulary.Vocabulary, ruleID model.FactID, fireCount int, id vocabulary.ID, mapping map[vocabulary.ID]vocabulary.ID) vocabulary.ID {
	sym, ok := vocab.Get(id)
	if !ok || sym.Kind != vocabulary.Variable {
		return id
	}
	if fresh, seen := mapping[id]; seen {
		return fresh
	}
	fresh := vocab.GetOrCreate(fmt.Sprintf("?__rule%d_%d_%s", ruleID, fireCount, strings.TrimPrefix(sym.Name, "?")))
	mapping[id] = fresh
	return fresh
}
