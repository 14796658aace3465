package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sys2kernel/internal/hdc"
	"sys2kernel/internal/model"
	"sys2kernel/internal/vocabulary"
)

func newTestStore(t *testing.T) (*FactStore, *vocabulary.Vocabulary) {
	t.Helper()
	vocab := vocabulary.New(hdc.New("dense-binary", 256), nil)
	return New(vocab, nil), vocab
}

func triple(vocab *vocabulary.Vocabulary, op, a1, a2 string) model.Triple {
	return model.Triple{
		Operator: vocab.GetOrCreate(op),
		Arg1:     model.SymbolArg(vocab.GetOrCreate(a1)),
		Arg2:     model.SymbolArg(vocab.GetOrCreate(a2)),
	}
}

func TestAssertAndQueryByOperator(t *testing.T) {
	s, vocab := newTestStore(t)
	tx := s.Begin()
	tx.Assert(&model.Fact{Expr: model.TripleExpr(triple(vocab, "isA", "Dog", "Mammal")), Line: 1})
	require.NoError(t, tx.Commit())

	results := s.Facts(Pattern{Operator: vocab.GetOrCreate("isA"), HasOperator: true})
	require.Len(t, results, 1)
	assert.Equal(t, model.FactID(1), results[0].ID)
}

func TestCommitRollsBackOnContradiction(t *testing.T) {
	s, vocab := newTestStore(t)
	s.SetChecker(rejectAllChecker{})

	tx := s.Begin()
	tx.Assert(&model.Fact{Expr: model.TripleExpr(triple(vocab, "isA", "Dog", "Mammal")), Line: 1})
	err := tx.Commit()
	require.Error(t, err)

	results := s.Facts(Pattern{})
	assert.Len(t, results, 0)
}

type rejectAllChecker struct{}

func (rejectAllChecker) Check(*FactStore, *Tx, *model.Fact) ContradictionResult {
	return ContradictionResult{Ok: false, Reason: "rejected for test"}
}

func TestDuplicateAssertionIsIdempotent(t *testing.T) {
	s, vocab := newTestStore(t)

	tx := s.Begin()
	tx.Assert(&model.Fact{Expr: model.TripleExpr(triple(vocab, "isA", "Dog", "Mammal")), Line: 1})
	require.NoError(t, tx.Commit())

	tx2 := s.Begin()
	tx2.Assert(&model.Fact{Expr: model.TripleExpr(triple(vocab, "isA", "Dog", "Mammal")), Line: 2})
	require.NoError(t, tx2.Commit())

	assert.Equal(t, 1, s.Stats().LiveFacts)
}

func TestMaxFactsRejectsOverCapacity(t *testing.T) {
	s, vocab := newTestStore(t)
	s.SetMaxFacts(2)

	tx := s.Begin()
	tx.Assert(&model.Fact{Expr: model.TripleExpr(triple(vocab, "isA", "Dog", "Mammal")), Line: 1})
	require.NoError(t, tx.Commit())

	tx2 := s.Begin()
	tx2.Assert(&model.Fact{Expr: model.TripleExpr(triple(vocab, "isA", "Cat", "Mammal")), Line: 2})
	require.NoError(t, tx2.Commit())

	tx3 := s.Begin()
	tx3.Assert(&model.Fact{Expr: model.TripleExpr(triple(vocab, "isA", "Bird", "Animal")), Line: 3})
	err := tx3.Commit()
	require.Error(t, err)

	assert.Equal(t, 2, s.Stats().LiveFacts, "the rejected fact must not have been inserted")

	// Re-asserting an already-live fact is still idempotent at capacity —
	// the cap only blocks genuinely new facts.
	tx4 := s.Begin()
	tx4.Assert(&model.Fact{Expr: model.TripleExpr(triple(vocab, "isA", "Dog", "Mammal")), Line: 4})
	require.NoError(t, tx4.Commit())
	assert.Equal(t, 2, s.Stats().LiveFacts)
}

func TestRetractRemovesFact(t *testing.T) {
	s, vocab := newTestStore(t)
	tx := s.Begin()
	tx.Assert(&model.Fact{Expr: model.TripleExpr(triple(vocab, "isA", "Dog", "Mammal")), Line: 1})
	require.NoError(t, tx.Commit())

	ids := make([]model.FactID, 0)
	for _, f := range s.Facts(Pattern{}) {
		ids = append(ids, f.ID)
	}
	tx2 := s.Begin()
	tx2.Retract(ids)
	require.NoError(t, tx2.Commit())

	assert.Equal(t, 0, s.Stats().LiveFacts)
}

func TestAliasRewritesOnAssert(t *testing.T) {
	s, vocab := newTestStore(t)

	tx := s.Begin()
	tx.Alias("Canine", "Dog")
	tx.Assert(&model.Fact{Expr: model.TripleExpr(triple(vocab, "isA", "Canine", "Mammal")), Line: 1})
	require.NoError(t, tx.Commit())

	results := s.Facts(Pattern{
		Operator: vocab.GetOrCreate("isA"), HasOperator: true,
		Arg1: vocab.GetOrCreate("Dog"), HasArg1: true,
	})
	require.Len(t, results, 1)
}

func TestAliasCycleRejected(t *testing.T) {
	s, _ := newTestStore(t)

	tx := s.Begin()
	tx.Alias("A", "B")
	tx.Alias("B", "C")
	tx.Alias("C", "A")
	err := tx.Commit()
	require.Error(t, err)
}

func TestSynonymUnifiesBothDirections(t *testing.T) {
	s, vocab := newTestStore(t)

	tx := s.Begin()
	tx.Synonym("Baz", "Qux")
	tx.Assert(&model.Fact{Expr: model.TripleExpr(triple(vocab, "isA", "Baz", "Thing")), Line: 1})
	require.NoError(t, tx.Commit())

	tx2 := s.Begin()
	tx2.Assert(&model.Fact{Expr: model.TripleExpr(triple(vocab, "isA", "Qux", "Thing")), Line: 2})
	require.NoError(t, tx2.Commit())

	// Both names canonicalise to the same representative, so the second
	// assertion is a duplicate of the first.
	assert.Equal(t, 1, s.Stats().LiveFacts)
}

func TestAbortLeavesStoreUntouched(t *testing.T) {
	s, vocab := newTestStore(t)
	tx := s.Begin()
	tx.Assert(&model.Fact{Expr: model.TripleExpr(triple(vocab, "isA", "Dog", "Mammal")), Line: 1})
	tx.Abort()

	assert.Equal(t, 0, s.Stats().LiveFacts)
}

func TestNamedFactLookup(t *testing.T) {
	s, vocab := newTestStore(t)
	tx := s.Begin()
	tx.Assert(&model.Fact{Expr: model.TripleExpr(triple(vocab, "isA", "Dog", "Mammal")), Name: "a", Line: 1})
	require.NoError(t, tx.Commit())

	f, ok := s.GetByName("a")
	require.True(t, ok)
	assert.Equal(t, model.FactID(1), f.ID)
}
