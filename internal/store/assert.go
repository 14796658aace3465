package store

import (
	"go.uber.org/zap"

	"sys2kernel/internal/model"
	"sys2kernel/internal/vocabulary"
)

// insertLocked assigns a FactID (if unset), registers the fingerprint
// and optional @name, and indexes the fact. Caller holds s.mu.
func (s *FactStore) insertLocked(f *model.Fact) {
	if f.ID == 0 {
		f.ID = s.nextFact
		s.nextFact++
	}
	s.facts[f.ID] = f
	s.fp[f.Fingerprint] = f.ID
	if f.Name != "" && !model.IsEphemeral(f.Name) {
		s.names[f.Name] = f.ID
	}
	s.indexLocked(f.ID, f)
	s.logger.Debug("fact asserted", zap.Uint64("fact_id", uint64(f.ID)), zap.Int("line", f.Line))
}

// indexLocked populates byOperator/byOpArg1/byOpArg2 for one fact.
// Compound-rooted facts (And/Or/Not/Implies) are only indexed by a
// synthetic operator bucket; reasoner rule matching walks those
// separately via Facts(pattern) with PatternAnyOperator.
func (s *FactStore) indexLocked(id model.FactID, f *model.Fact) {
	if f.Expr.Kind != model.ExprTriple {
		s.byOperator[compoundOperatorKey] = append(s.byOperator[compoundOperatorKey], id)
		return
	}
	t := f.Expr.Triple
	s.byOperator[t.Operator] = append(s.byOperator[t.Operator], id)
	if t.Arg1.Kind == model.ArgSymbol {
		s.byOpArg1[opArgKey{op: t.Operator, arg: t.Arg1.Symbol}] = append(s.byOpArg1[opArgKey{op: t.Operator, arg: t.Arg1.Symbol}], id)
	}
	if t.Arg2.Kind == model.ArgSymbol {
		s.byOpArg2[opArgKey{op: t.Operator, arg: t.Arg2.Symbol}] = append(s.byOpArg2[opArgKey{op: t.Operator, arg: t.Arg2.Symbol}], id)
	}
}

// compoundOperatorKey buckets every compound-rooted fact together;
// vocabulary.ID 0 is never assigned to a real symbol (IDs start at 1).
const compoundOperatorKey vocabulary.ID = 0

// removeLocked deletes a live fact and its index/name/fingerprint
// entries. The FactID itself is never reused.
func (s *FactStore) removeLocked(id model.FactID) {
	f, ok := s.facts[id]
	if !ok {
		return
	}
	delete(s.facts, id)
	if s.fp[f.Fingerprint] == id {
		delete(s.fp, f.Fingerprint)
	}
	if f.Name != "" {
		if s.names[f.Name] == id {
			delete(s.names, f.Name)
		}
	}
	s.unindexLocked(id, f)
}

func (s *FactStore) unindexLocked(id model.FactID, f *model.Fact) {
	if f.Expr.Kind != model.ExprTriple {
		s.byOperator[compoundOperatorKey] = removeID(s.byOperator[compoundOperatorKey], id)
		return
	}
	t := f.Expr.Triple
	s.byOperator[t.Operator] = removeID(s.byOperator[t.Operator], id)
	if t.Arg1.Kind == model.ArgSymbol {
		k := opArgKey{op: t.Operator, arg: t.Arg1.Symbol}
		s.byOpArg1[k] = removeID(s.byOpArg1[k], id)
	}
	if t.Arg2.Kind == model.ArgSymbol {
		k := opArgKey{op: t.Operator, arg: t.Arg2.Symbol}
		s.byOpArg2[k] = removeID(s.byOpArg2[k], id)
	}
}

func removeID(ids []model.FactID, target model.FactID) []model.FactID {
	for i, id := range ids {
		if id == target {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
