package store

import (
	"sys2kernel/internal/model"
	"sys2kernel/internal/vocabulary"
)

// Pattern selects live triple facts by operator and/or argument symbol.
// A field left with its Has* flag false means "match anything in that
// slot" — the matcher falls back to the cheapest available index given
// which fields are ground, and only scans every live fact when the
// operator itself is unbound.
type Pattern struct {
	Operator    vocabulary.ID
	Arg1        vocabulary.ID
	Arg2        vocabulary.ID
	HasOperator bool
	HasArg1     bool
	HasArg2     bool
}

// Facts returns the live facts matching pattern, in ascending FactID
// order (spec §4.4's deterministic iteration guarantee).
func (s *FactStore) Facts(p Pattern) []*model.Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := s.candidateIDsLocked(p)
	out := make([]*model.Fact, 0, len(candidates))
	for _, id := range sortedFactIDs(candidates) {
		f := s.facts[id]
		if f == nil || f.Expr.Kind != model.ExprTriple {
			continue
		}
		if matchesLocked(f.Expr.Triple, p) {
			out = append(out, f)
		}
	}
	return out
}

// CompoundFacts returns every live fact whose top-level expression is a
// compound (And/Or/Not/Implies) — rule storage for the reasoner.
func (s *FactStore) CompoundFacts() []*model.Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := sortedFactIDs(s.byOperator[compoundOperatorKey])
	out := make([]*model.Fact, 0, len(ids))
	for _, id := range ids {
		if f := s.facts[id]; f != nil {
			out = append(out, f)
		}
	}
	return out
}

func (s *FactStore) candidateIDsLocked(p Pattern) []model.FactID {
	switch {
	case p.HasOperator && p.HasArg1:
		return s.byOpArg1[opArgKey{op: p.Operator, arg: p.Arg1}]
	case p.HasOperator && p.HasArg2:
		return s.byOpArg2[opArgKey{op: p.Operator, arg: p.Arg2}]
	case p.HasOperator:
		return s.byOperator[p.Operator]
	default:
		all := make([]model.FactID, 0, len(s.facts))
		for id := range s.facts {
			all = append(all, id)
		}
		return all
	}
}

func matchesLocked(t model.Triple, p Pattern) bool {
	if p.HasOperator && t.Operator != p.Operator {
		return false
	}
	if p.HasArg1 && (t.Arg1.Kind != model.ArgSymbol || t.Arg1.Symbol != p.Arg1) {
		return false
	}
	if p.HasArg2 && (t.Arg2.Kind != model.ArgSymbol || t.Arg2.Symbol != p.Arg2) {
		return false
	}
	return true
}
