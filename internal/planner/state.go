package planner

import (
	"fmt"
	"sort"
	"strings"

	"sys2kernel/internal/model"
	"sys2kernel/internal/store"
	"sys2kernel/internal/vocabulary"
)

// literalSet is a STRIPS world state: an unordered set of ground
// triples, each either present or absent (negation-as-failure).
type literalSet map[model.Triple]bool

func newLiteralSet(lits []model.Triple) literalSet {
	s := make(literalSet, len(lits))
	for _, l := range lits {
		s[l] = true
	}
	return s
}

func cloneLiteralSet(s literalSet) literalSet {
	out := make(literalSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

type searchNode struct {
	state literalSet
	path  []Step
}

// canonicalKey produces a deterministic dedup key for a state,
// independent of map iteration order.
func canonicalKey(s literalSet) string {
	lits := make([]model.Triple, 0, len(s))
	for t := range s {
		lits = append(lits, t)
	}
	sort.Slice(lits, func(i, j int) bool { return lessTriple(lits[i], lits[j]) })
	var b strings.Builder
	for _, t := range lits {
		fmt.Fprintf(&b, "%d:%d/%d/%d:%d/%d/%d;", t.Operator, t.Arg1.Kind, t.Arg1.Symbol, t.Arg1.CompoundID, t.Arg2.Kind, t.Arg2.Symbol, t.Arg2.CompoundID)
	}
	return b.String()
}

func lessTriple(a, b model.Triple) bool {
	if a.Operator != b.Operator {
		return a.Operator < b.Operator
	}
	if a.Arg1 != b.Arg1 {
		return lessArg(a.Arg1, b.Arg1)
	}
	return lessArg(a.Arg2, b.Arg2)
}

func lessArg(a, b model.Arg) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Symbol != b.Symbol {
		return a.Symbol < b.Symbol
	}
	return a.CompoundID < b.CompoundID
}

func requiresSatisfied(s literalSet, requires []model.Triple) bool {
	for _, r := range requires {
		if !s[r] {
			return false
		}
	}
	return true
}

func subsumes(s, goal literalSet) bool {
	for g := range goal {
		if !s[g] {
			return false
		}
	}
	return true
}

func applyAction(s literalSet, a Action) literalSet {
	next := cloneLiteralSet(s)
	for _, p := range a.Prevents {
		delete(next, p)
	}
	for _, c := range a.Causes {
		next[c] = true
	}
	return next
}

// isSafe applies spec §4.8's co-location safety check: for every
// conflictOp(x,y) pair both located (via locationOp) at the same place
// in the candidate state, the state is discarded unless guard is also
// located there. The check is skipped entirely when any of the three
// symbols is unset.
func isSafe(s *store.FactStore, candidate literalSet, conflictOp, locationOp, guard vocabulary.ID) bool {
	if conflictOp == 0 || locationOp == 0 || guard == 0 {
		return true
	}
	for _, cf := range s.Facts(store.Pattern{Operator: conflictOp, HasOperator: true}) {
		if !cf.Polarity || cf.Expr.Kind != model.ExprTriple {
			continue
		}
		x, y := cf.Expr.Triple.Arg1, cf.Expr.Triple.Arg2
		if x.Kind != model.ArgSymbol || y.Kind != model.ArgSymbol {
			continue
		}
		locX, okX := locationOf(candidate, locationOp, x.Symbol)
		locY, okY := locationOf(candidate, locationOp, y.Symbol)
		if !okX || !okY || locX != locY {
			continue
		}
		guardLoc, okG := locationOf(candidate, locationOp, guard)
		if !okG || guardLoc != locX {
			return false
		}
	}
	return true
}

func locationOf(s literalSet, locationOp, subject vocabulary.ID) (vocabulary.ID, bool) {
	for t := range s {
		if t.Operator == locationOp && t.Arg1.Kind == model.ArgSymbol && t.Arg1.Symbol == subject && t.Arg2.Kind == model.ArgSymbol {
			return t.Arg2.Symbol, true
		}
	}
	return 0, false
}
