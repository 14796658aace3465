// Package store implements the canonical fact store: transactional
// assert/retract, alias/synonym canonicalisation, and the (operator,
// arg1)/(operator, arg2)/(operator) lookup indices spec §4.4 specifies.
//
// Adapted from the teacher's internal/store/local_core.go transaction
// and stats idiom (mutex-guarded struct, StartTimer-style logging,
// CosineSimilarity helper), with the SQLite-backed persistence layer
// replaced entirely by an in-memory store: spec §1 Non-goals rule out
// disk persistence for this core.
package store

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"sys2kernel/internal/model"
	"sys2kernel/internal/vocabulary"
)

// ContradictionResult is returned by a ContradictionChecker for one
// candidate fact.
type ContradictionResult struct {
	Ok          bool
	Reason      string
	Cause       model.FactID
	DerivedPath []model.FactID
}

func okResult() ContradictionResult { return ContradictionResult{Ok: true} }

// ContradictionChecker is implemented by internal/contradiction.Detector.
// FactStore depends only on this interface, not on the contradiction
// package, to avoid an import cycle (the detector needs to query the
// store).
type ContradictionChecker interface {
	Check(s *FactStore, tx *Tx, candidate *model.Fact) ContradictionResult
}

type noopChecker struct{}

func (noopChecker) Check(*FactStore, *Tx, *model.Fact) ContradictionResult { return okResult() }

// FactStore is the canonical triple/compound store for one Session.
type FactStore struct {
	mu     sync.RWMutex
	vocab  *vocabulary.Vocabulary
	logger *zap.Logger

	facts     map[model.FactID]*model.Fact
	names     map[string]model.FactID // persistent @name -> FactID
	fp        map[uint64]model.FactID // fingerprint -> FactID, duplicate detection
	nextFact  model.FactID
	nextComp  model.CompoundID

	byOperator map[vocabulary.ID][]model.FactID
	byOpArg1   map[opArgKey][]model.FactID
	byOpArg2   map[opArgKey][]model.FactID

	aliases *aliasTable

	checker  ContradictionChecker
	maxFacts int // 0 means unbounded
}

type opArgKey struct {
	op  vocabulary.ID
	arg vocabulary.ID
}

// New constructs an empty FactStore.
func New(vocab *vocabulary.Vocabulary, logger *zap.Logger) *FactStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FactStore{
		vocab:      vocab,
		logger:     logger,
		facts:      make(map[model.FactID]*model.Fact),
		names:      make(map[string]model.FactID),
		fp:         make(map[uint64]model.FactID),
		nextFact:   1,
		nextComp:   1,
		byOperator: make(map[vocabulary.ID][]model.FactID),
		byOpArg1:   make(map[opArgKey][]model.FactID),
		byOpArg2:   make(map[opArgKey][]model.FactID),
		aliases:    newAliasTable(),
		checker:    noopChecker{},
	}
}

// SetChecker installs the contradiction detector. Done post-construction
// to break the store<->contradiction import cycle.
func (s *FactStore) SetChecker(c ContradictionChecker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checker = c
}

// SetMaxFacts installs the live-fact ceiling spec §5's resource
// discipline names (config.Config.Limits.MaxFactsInKernel). A
// non-positive n leaves the store unbounded.
func (s *FactStore) SetMaxFacts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxFacts = n
}

// Vocabulary exposes the backing Vocabulary for packages (reasoner,
// contradiction) that need to intern or classify symbols while matching.
func (s *FactStore) Vocabulary() *vocabulary.Vocabulary { return s.vocab }

// Get resolves a FactID to its Fact. The returned pointer must be
// treated as read-only outside of FactStore.
func (s *FactStore) Get(id model.FactID) (*model.Fact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.facts[id]
	return f, ok
}

// GetByName resolves a persistent @name binding to its Fact.
func (s *FactStore) GetByName(name string) (*model.Fact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.names[name]
	if !ok {
		return nil, false
	}
	f := s.facts[id]
	return f, f != nil
}

// Stats is returned by FactStore.Stats().
type Stats struct {
	LiveFacts        int
	SymbolCount      int
	OperatorHistogram map[string]int
}

// Stats returns live fact count, symbol count, and a per-operator
// histogram (spec §4.4).
func (s *FactStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hist := make(map[string]int, len(s.byOperator))
	for op, ids := range s.byOperator {
		sym, ok := s.vocab.Get(op)
		name := "?"
		if ok {
			name = sym.Name
		}
		hist[name] = len(ids)
	}
	return Stats{
		LiveFacts:         len(s.facts),
		SymbolCount:       s.vocab.Count(),
		OperatorHistogram: hist,
	}
}

// sortedFactIDs returns ids in ascending order, giving FactStore its
// deterministic iteration guarantee (spec §4.4/§5).
func sortedFactIDs(ids []model.FactID) []model.FactID {
	out := make([]model.FactID, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
