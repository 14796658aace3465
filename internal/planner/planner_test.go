package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sys2kernel/internal/dsl"
	"sys2kernel/internal/hdc"
	"sys2kernel/internal/model"
	"sys2kernel/internal/store"
	"sys2kernel/internal/vocabulary"
)

func newTestFixture(t *testing.T) (*store.FactStore, *vocabulary.Vocabulary) {
	t.Helper()
	vocab := vocabulary.New(hdc.New("dense-binary", 256), nil)
	return store.New(vocab, nil), vocab
}

func assertNamed(t *testing.T, s *store.FactStore, name string, tr model.Triple, polarity bool) {
	t.Helper()
	tx := s.Begin()
	tx.Assert(&model.Fact{Name: name, Expr: model.TripleExpr(tr), Polarity: polarity})
	require.NoError(t, tx.Commit())
}

func assertPlain(t *testing.T, s *store.FactStore, tr model.Triple, polarity bool) {
	t.Helper()
	tx := s.Begin()
	tx.Assert(&model.Fact{Expr: model.TripleExpr(tr), Polarity: polarity})
	require.NoError(t, tx.Commit())
}

func tr(vocab *vocabulary.Vocabulary, op, a1, a2 string) model.Triple {
	return model.Triple{
		Operator: vocab.GetOrCreate(op),
		Arg1:     model.SymbolArg(vocab.GetOrCreate(a1)),
		Arg2:     model.SymbolArg(vocab.GetOrCreate(a2)),
	}
}

// A one-hop "move the key from RoomA to RoomB" domain: a single action
// moveKey requires atLoc(Key,RoomA), causes atLoc(Key,RoomB), and
// prevents atLoc(Key,RoomA).
func TestPlanFindsSingleActionPlan(t *testing.T) {
	s, vocab := newTestFixture(t)

	startLit := tr(vocab, "atLoc", "Key", "RoomA")
	goalLit := tr(vocab, "atLoc", "Key", "RoomB")
	assertNamed(t, s, "start1", startLit, true)
	assertNamed(t, s, "goal1", goalLit, true)

	assertPlain(t, s, tr(vocab, "requires", "moveKey", "start1"), true)
	assertPlain(t, s, tr(vocab, "causes", "moveKey", "goal1"), true)
	assertPlain(t, s, tr(vocab, "prevents", "moveKey", "start1"), true)

	p := New(nil)
	result := p.Plan(s, vocab, []dsl.SolveParam{
		{Key: "start", Value: "$start1"},
		{Key: "goal", Value: "$goal1"},
	})

	require.True(t, result.Solved)
	require.Len(t, result.Steps, 1)
	moveKeyID := vocab.GetOrCreate("moveKey")
	assert.Equal(t, moveKeyID, result.Steps[0].Action)
	assert.NotEmpty(t, result.PlanID)
}

func TestPlanFailsWhenDepthExceeded(t *testing.T) {
	s, vocab := newTestFixture(t)

	assertNamed(t, s, "start1", tr(vocab, "atLoc", "Key", "RoomA"), true)
	assertNamed(t, s, "goal1", tr(vocab, "atLoc", "Key", "RoomZ"), true)

	// A single hop action that never reaches RoomZ.
	assertPlain(t, s, tr(vocab, "requires", "moveKey", "start1"), true)
	assertPlain(t, s, tr(vocab, "causes", "moveKey", "goal1nonexistent"), true) // unresolvable ref, action contributes nothing

	p := New(nil)
	result := p.Plan(s, vocab, []dsl.SolveParam{
		{Key: "start", Value: "$start1"},
		{Key: "goal", Value: "$goal1"},
		{Key: "maxDepth", Value: "2"},
	})

	assert.False(t, result.Solved)
	assert.NotEmpty(t, result.Trace)
}

func TestPlanDiscardsUnsafeCoLocatedConflict(t *testing.T) {
	s, vocab := newTestFixture(t)

	assertNamed(t, s, "start1", tr(vocab, "atLoc", "Robot", "Dock"), true)
	assertNamed(t, s, "goal1", tr(vocab, "atLoc", "Robot", "Bay"), true)
	assertPlain(t, s, tr(vocab, "requires", "moveRobot", "start1"), true)
	assertPlain(t, s, tr(vocab, "causes", "moveRobot", "goal1"), true)
	assertPlain(t, s, tr(vocab, "prevents", "moveRobot", "start1"), true)

	// Rival occupies Bay already, conflicts with Robot, and no guard is present at Bay.
	assertPlain(t, s, tr(vocab, "atLoc", "Rival", "Bay"), true)
	assertPlain(t, s, tr(vocab, "conflicts", "Robot", "Rival"), true)

	p := New(nil)
	result := p.Plan(s, vocab, []dsl.SolveParam{
		{Key: "start", Value: "$start1"},
		{Key: "goal", Value: "$goal1"},
		{Key: "guard", Value: "Warden"},
		{Key: "conflictOp", Value: "conflicts"},
		{Key: "locationOp", Value: "atLoc"},
	})

	assert.False(t, result.Solved)
}

// TestRiverCrossingEmitsSevenStepPlan is spec §8 scenario 4: the
// classic farmer/wolf/goat/cabbage river crossing. Wolf and Goat must
// never be left together without the Farmer, nor Goat and Cabbage;
// the shortest safe plan from all-Left to all-Right is seven actions.
func TestRiverCrossingEmitsSevenStepPlan(t *testing.T) {
	s, vocab := newTestFixture(t)

	// Each (entity, side) position is asserted exactly once, under one
	// canonical name, and every requires/causes triple below references
	// that same name — a fact's fingerprint (its expression + polarity,
	// not its name) dedups idempotently on re-assertion, so a name
	// attached to a second, later assertion of the same triple would
	// silently be dropped.
	locName := func(entity, side string) string { return "atLoc_" + entity + "_" + side }
	for _, who := range []string{"Farmer", "Wolf", "Goat", "Cabbage"} {
		assertNamed(t, s, locName(who, "Left"), tr(vocab, "atLoc", who, "Left"), true)
	}

	// One action per (cargo, direction) pair: the farmer always moves,
	// optionally ferrying one of Wolf/Goat/Cabbage alongside.
	type crossing struct {
		action   string
		cargo    string
		from, to string
	}
	crossings := []crossing{
		{"farmerAloneLR", "", "Left", "Right"},
		{"farmerAloneRL", "", "Right", "Left"},
		{"farmerWolfLR", "Wolf", "Left", "Right"},
		{"farmerWolfRL", "Wolf", "Right", "Left"},
		{"farmerGoatLR", "Goat", "Left", "Right"},
		{"farmerGoatRL", "Goat", "Right", "Left"},
		{"farmerCabbageLR", "Cabbage", "Left", "Right"},
		{"farmerCabbageRL", "Cabbage", "Right", "Left"},
	}
	for _, c := range crossings {
		assertNamed(t, s, locName("Farmer", c.from), tr(vocab, "atLoc", "Farmer", c.from), true)
		assertNamed(t, s, locName("Farmer", c.to), tr(vocab, "atLoc", "Farmer", c.to), true)
		assertPlain(t, s, tr(vocab, "requires", c.action, locName("Farmer", c.from)), true)
		assertPlain(t, s, tr(vocab, "causes", c.action, locName("Farmer", c.to)), true)
		assertPlain(t, s, tr(vocab, "prevents", c.action, locName("Farmer", c.from)), true)
		if c.cargo != "" {
			assertNamed(t, s, locName(c.cargo, c.from), tr(vocab, "atLoc", c.cargo, c.from), true)
			assertNamed(t, s, locName(c.cargo, c.to), tr(vocab, "atLoc", c.cargo, c.to), true)
			assertPlain(t, s, tr(vocab, "requires", c.action, locName(c.cargo, c.from)), true)
			assertPlain(t, s, tr(vocab, "causes", c.action, locName(c.cargo, c.to)), true)
			assertPlain(t, s, tr(vocab, "prevents", c.action, locName(c.cargo, c.from)), true)
		}
	}

	assertPlain(t, s, tr(vocab, "conflicts", "Wolf", "Goat"), true)
	assertPlain(t, s, tr(vocab, "conflicts", "Goat", "Cabbage"), true)

	p := New(nil)
	result := p.Plan(s, vocab, []dsl.SolveParam{
		{Key: "start", Value: "$" + locName("Farmer", "Left")},
		{Key: "start", Value: "$" + locName("Wolf", "Left")},
		{Key: "start", Value: "$" + locName("Goat", "Left")},
		{Key: "start", Value: "$" + locName("Cabbage", "Left")},
		{Key: "goal", Value: "$" + locName("Farmer", "Right")},
		{Key: "goal", Value: "$" + locName("Wolf", "Right")},
		{Key: "goal", Value: "$" + locName("Goat", "Right")},
		{Key: "goal", Value: "$" + locName("Cabbage", "Right")},
		{Key: "guard", Value: "Farmer"},
		{Key: "conflictOp", Value: "conflicts"},
		{Key: "locationOp", Value: "atLoc"},
	})

	require.True(t, result.Solved, result.Trace)
	require.Len(t, result.Steps, 7, "the classic puzzle's shortest safe plan is seven crossings")

	steps := make([]vocabulary.ID, len(result.Steps))
	for i, st := range result.Steps {
		steps[i] = st.Action
	}
	ok := p.Verify(s, vocab, result.Starts, result.Goals, steps)
	assert.True(t, ok, "the emitted plan must re-simulate cleanly from start to goal")
}

func TestVerifyReplaysPlan(t *testing.T) {
	s, vocab := newTestFixture(t)
	assertNamed(t, s, "start1", tr(vocab, "atLoc", "Key", "RoomA"), true)
	assertNamed(t, s, "goal1", tr(vocab, "atLoc", "Key", "RoomB"), true)
	assertPlain(t, s, tr(vocab, "requires", "moveKey", "start1"), true)
	assertPlain(t, s, tr(vocab, "causes", "moveKey", "goal1"), true)
	assertPlain(t, s, tr(vocab, "prevents", "moveKey", "start1"), true)

	p := New(nil)
	moveKeyID := vocab.GetOrCreate("moveKey")
	ok := p.Verify(s, vocab,
		[]model.Triple{tr(vocab, "atLoc", "Key", "RoomA")},
		[]model.Triple{tr(vocab, "atLoc", "Key", "RoomB")},
		[]vocabulary.ID{moveKeyID},
	)
	assert.True(t, ok)
}
