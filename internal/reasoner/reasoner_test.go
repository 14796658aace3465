package reasoner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sys2kernel/internal/hdc"
	"sys2kernel/internal/model"
	"sys2kernel/internal/store"
	"sys2kernel/internal/vocabulary"
)

func newTestFixture(t *testing.T) (*store.FactStore, *vocabulary.Vocabulary) {
	t.Helper()
	vocab := vocabulary.New(hdc.New("dense-binary", 256), nil)
	s := store.New(vocab, nil)
	return s, vocab
}

func assertTriple(t *testing.T, s *store.FactStore, vocab *vocabulary.Vocabulary, op, a1, a2 string, polarity bool) {
	t.Helper()
	tr := model.Triple{
		Operator: vocab.GetOrCreate(op),
		Arg1:     model.SymbolArg(vocab.GetOrCreate(a1)),
		Arg2:     model.SymbolArg(vocab.GetOrCreate(a2)),
	}
	tx := s.Begin()
	tx.Assert(&model.Fact{Expr: model.TripleExpr(tr), Polarity: polarity})
	require.NoError(t, tx.Commit())
}

func assertRule(t *testing.T, s *store.FactStore, ant, cons model.Expression) {
	t.Helper()
	rule := &model.Compound{Form: model.FormImplies, Args: []model.Expression{ant, cons}}
	tx := s.Begin()
	tx.Assert(&model.Fact{Expr: model.CompoundExpr(rule), Polarity: true})
	require.NoError(t, tx.Commit())
}

func triple(vocab *vocabulary.Vocabulary, op, a1, a2 string) model.Triple {
	return model.Triple{
		Operator: vocab.GetOrCreate(op),
		Arg1:     model.SymbolArg(vocab.GetOrCreate(a1)),
		Arg2:     model.SymbolArg(vocab.GetOrCreate(a2)),
	}
}

func TestTransitiveIsAChain(t *testing.T) {
	s, vocab := newTestFixture(t)
	assertTriple(t, s, vocab, "__TransitiveRelation", "isA", "isA", true)
	assertTriple(t, s, vocab, "isA", "Dog", "Mammal", true)
	assertTriple(t, s, vocab, "isA", "Mammal", "Animal", true)

	r := New(s, DefaultConfig(), nil)
	v := r.Prove(model.TripleExpr(triple(vocab, "isA", "Dog", "Animal")), 0)
	assert.True(t, v.Proven)
	require.NotEmpty(t, v.Steps)
}

func TestGroundRuleDoesNotLeakAcrossEntities(t *testing.T) {
	s, vocab := newTestFixture(t)
	assertTriple(t, s, vocab, "hasTemp", "Ice", "cold", true)
	assertRule(t, s,
		model.TripleExpr(triple(vocab, "hasTemp", "Ice", "cold")),
		model.TripleExpr(triple(vocab, "frozen", "Ice", "yes")),
	)
	assertTriple(t, s, vocab, "hasTemp", "Water", "cold", true)

	r := New(s, DefaultConfig(), nil)

	iceVerdict := r.Prove(model.TripleExpr(triple(vocab, "frozen", "Ice", "yes")), 0)
	assert.True(t, iceVerdict.Proven)

	waterVerdict := r.Prove(model.TripleExpr(triple(vocab, "frozen", "Water", "yes")), 0)
	assert.False(t, waterVerdict.Proven, "a ground rule tied to Ice must not fire for Water")
}

func TestCompoundConsequentProvesEachConjunct(t *testing.T) {
	s, vocab := newTestFixture(t)
	varX := vocab.GetOrCreate("?x")
	ant := model.TripleExpr(model.Triple{
		Operator: vocab.GetOrCreate("isA"),
		Arg1:     model.SymbolArg(varX),
		Arg2:     model.SymbolArg(vocab.GetOrCreate("Wumpus")),
	})
	cons := model.CompoundExpr(&model.Compound{
		Form: model.FormAnd,
		Args: []model.Expression{
			model.TripleExpr(model.Triple{
				Operator: vocab.GetOrCreate("isA"),
				Arg1:     model.SymbolArg(varX),
				Arg2:     model.SymbolArg(vocab.GetOrCreate("Zumpus")),
			}),
			model.TripleExpr(model.Triple{
				Operator: vocab.GetOrCreate("hasProperty"),
				Arg1:     model.SymbolArg(varX),
				Arg2:     model.SymbolArg(vocab.GetOrCreate("loud")),
			}),
		},
	})
	assertRule(t, s, ant, cons)
	assertTriple(t, s, vocab, "isA", "Tom", "Wumpus", true)

	r := New(s, DefaultConfig(), nil)

	zumpusVerdict := r.Prove(model.TripleExpr(triple(vocab, "isA", "Tom", "Zumpus")), 0)
	assert.True(t, zumpusVerdict.Proven)

	loudVerdict := r.Prove(model.TripleExpr(triple(vocab, "hasProperty", "Tom", "loud")), 0)
	assert.True(t, loudVerdict.Proven)
}

func TestOrConsequentProvesEitherDisjunct(t *testing.T) {
	s, vocab := newTestFixture(t)
	varX := vocab.GetOrCreate("?x")
	ant := model.TripleExpr(model.Triple{
		Operator: vocab.GetOrCreate("isA"),
		Arg1:     model.SymbolArg(varX),
		Arg2:     model.SymbolArg(vocab.GetOrCreate("Bird")),
	})
	cons := model.CompoundExpr(&model.Compound{
		Form: model.FormOr,
		Args: []model.Expression{
			model.TripleExpr(model.Triple{
				Operator: vocab.GetOrCreate("canDo"),
				Arg1:     model.SymbolArg(varX),
				Arg2:     model.SymbolArg(vocab.GetOrCreate("fly")),
			}),
			model.TripleExpr(model.Triple{
				Operator: vocab.GetOrCreate("canDo"),
				Arg1:     model.SymbolArg(varX),
				Arg2:     model.SymbolArg(vocab.GetOrCreate("swim")),
			}),
		},
	})
	assertRule(t, s, ant, cons)
	assertTriple(t, s, vocab, "isA", "Penguin", "Bird", true)

	r := New(s, DefaultConfig(), nil)

	// Neither disjunct is otherwise in the knowledge base; the rule's
	// Or-shaped consequent must license either one as its own goal.
	flyVerdict := r.Prove(model.TripleExpr(triple(vocab, "canDo", "Penguin", "fly")), 0)
	assert.True(t, flyVerdict.Proven)

	swimVerdict := r.Prove(model.TripleExpr(triple(vocab, "canDo", "Penguin", "swim")), 0)
	assert.True(t, swimVerdict.Proven)

	// A disjunct about an entity the antecedent never bound must not
	// incidentally unify through the rule.
	owlVerdict := r.Prove(model.TripleExpr(triple(vocab, "canDo", "Owl", "fly")), 0)
	assert.False(t, owlVerdict.Proven)
}

func TestClosedWorldAssumptionTogglesUnprovenGoals(t *testing.T) {
	s, vocab := newTestFixture(t)
	assertTriple(t, s, vocab, "isA", "Dog", "Mammal", true)
	goal := model.TripleExpr(triple(vocab, "isA", "Dog", "Reptile"))

	open := New(s, DefaultConfig(), nil)
	assert.False(t, open.Prove(goal, 0).Proven)

	cwaCfg := DefaultConfig()
	cwaCfg.ClosedWorldAssumption = true
	closed := New(s, cwaCfg, nil)
	closedVerdict := closed.Prove(goal, 0)
	assert.True(t, closedVerdict.Proven)
	require.Len(t, closedVerdict.Steps, 1)
	assert.Equal(t, "CWA", closedVerdict.Steps[0].Kind.String())
}

func TestSymmetricRelationProvesReverse(t *testing.T) {
	s, vocab := newTestFixture(t)
	assertTriple(t, s, vocab, "__SymmetricRelation", "adjacentTo", "adjacentTo", true)
	assertTriple(t, s, vocab, "adjacentTo", "RoomA", "RoomB", true)

	r := New(s, DefaultConfig(), nil)
	v := r.Prove(model.TripleExpr(triple(vocab, "adjacentTo", "RoomB", "RoomA")), 0)
	assert.True(t, v.Proven)
}

func TestNotSucceedsWhenOperandUnprovable(t *testing.T) {
	s, vocab := newTestFixture(t)
	assertTriple(t, s, vocab, "isA", "Dog", "Mammal", true)

	r := New(s, DefaultConfig(), nil)
	not := model.CompoundExpr(&model.Compound{
		Form: model.FormNot,
		Args: []model.Expression{model.TripleExpr(triple(vocab, "isA", "Dog", "Reptile"))},
	})
	v := r.Prove(not, 0)
	assert.True(t, v.Proven)
}

func TestQueryEnumeratesEveryMatchingFact(t *testing.T) {
	s, vocab := newTestFixture(t)
	assertTriple(t, s, vocab, "isA", "Dog", "Mammal", true)
	assertTriple(t, s, vocab, "isA", "Cat", "Mammal", true)
	assertTriple(t, s, vocab, "isA", "Sparrow", "Bird", true)

	r := New(s, DefaultConfig(), nil)
	goal := model.TripleExpr(model.Triple{
		Operator: vocab.GetOrCreate("isA"),
		Arg1:     model.SymbolArg(vocab.GetOrCreate("?x")),
		Arg2:     model.SymbolArg(vocab.GetOrCreate("Mammal")),
	})
	results := r.Query(goal, 0, 0)
	assert.Len(t, results, 2)
}
