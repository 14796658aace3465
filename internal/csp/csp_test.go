package csp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sys2kernel/internal/dsl"
	"sys2kernel/internal/hdc"
	"sys2kernel/internal/vocabulary"
)

func newTestVocab() *vocabulary.Vocabulary {
	return vocabulary.New(hdc.New("dense-binary", 256), nil)
}

// Two-region map coloring with two colors: A and B must differ; no
// solution exists since both share the only two colors and are linked
// by notEqual plus a second variable C constrained equal to A.
func TestSolveMapColoringFindsSolutions(t *testing.T) {
	vocab := newTestVocab()
	params := []dsl.SolveParam{
		{Key: "domain", Value: "RegionA Red"},
		{Key: "domain", Value: "RegionA Blue"},
		{Key: "domain", Value: "RegionB Red"},
		{Key: "domain", Value: "RegionB Blue"},
		{Key: "constraint", Value: "notEqual RegionA RegionB"},
	}
	problem := BuildProblem(vocab, params)
	require.Len(t, problem.Variables, 2)

	s := New(nil)
	result := s.Solve(problem)

	require.NotEmpty(t, result.Solutions)
	redID := vocab.GetOrCreate("Red")
	blueID := vocab.GetOrCreate("Blue")
	regionA := vocab.GetOrCreate("RegionA")
	regionB := vocab.GetOrCreate("RegionB")
	for _, sol := range result.Solutions {
		assert.NotEqual(t, sol.Bindings[regionA], sol.Bindings[regionB])
		assert.Contains(t, []vocabulary.ID{redID, blueID}, sol.Bindings[regionA])
	}
}

func TestSolveUnsatisfiableReportsTrace(t *testing.T) {
	vocab := newTestVocab()
	params := []dsl.SolveParam{
		{Key: "domain", Value: "X Red"},
		{Key: "domain", Value: "Y Red"},
		{Key: "constraint", Value: "notEqual X Y"},
	}
	problem := BuildProblem(vocab, params)

	s := New(nil)
	result := s.Solve(problem)

	assert.Empty(t, result.Solutions)
	assert.NotEmpty(t, result.Trace)
}

func TestSolveEqualConstraintLinksValues(t *testing.T) {
	vocab := newTestVocab()
	params := []dsl.SolveParam{
		{Key: "domain", Value: "X Red"},
		{Key: "domain", Value: "X Blue"},
		{Key: "domain", Value: "Y Red"},
		{Key: "domain", Value: "Y Blue"},
		{Key: "constraint", Value: "equal X Y"},
		{Key: "maxSolutions", Value: "10"},
	}
	problem := BuildProblem(vocab, params)

	s := New(nil)
	result := s.Solve(problem)

	require.NotEmpty(t, result.Solutions)
	x := vocab.GetOrCreate("X")
	y := vocab.GetOrCreate("Y")
	for _, sol := range result.Solutions {
		assert.Equal(t, sol.Bindings[x], sol.Bindings[y])
	}
}
