package proof

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sys2kernel/internal/model"
)

func TestRenderJoinsSentencesWithPeriodSpace(t *testing.T) {
	b := NewBuilder(0)
	leaf, err := b.New(FactInKB, 1, "Dog isA Mammal is in the knowledge base", nil)
	require.NoError(t, err)
	root, err := b.New(TransitiveHop, 2, "Dog isA Animal via one transitive hop", nil, leaf)
	require.NoError(t, err)

	got := Render([]*Step{root})
	assert.Equal(t, "Dog isA Animal via one transitive hop. Dog isA Mammal is in the knowledge base", got)
}

func TestNewRejectsCycleWithinPath(t *testing.T) {
	b := NewBuilder(0)
	_, err := b.New(FactInKB, 5, "x", []model.FactID{5})
	require.Error(t, err)
}

func TestNewRejectsPathDeeperThanMax(t *testing.T) {
	b := NewBuilder(2)
	path := []model.FactID{1, 2, 3}
	_, err := b.New(FactInKB, 99, "x", path)
	require.Error(t, err)
}

func TestValidateFailsWhenAnyStepFails(t *testing.T) {
	b := NewBuilder(0)
	leaf, err := b.New(FactInKB, 1, "leaf", nil)
	require.NoError(t, err)
	root, err := b.New(RuleApplication, 2, "root", nil, leaf)
	require.NoError(t, err)

	ok := Validate([]*Step{root}, func(s *Step) bool { return s.Fact != 1 })
	assert.False(t, ok)

	ok = Validate([]*Step{root}, func(*Step) bool { return true })
	assert.True(t, ok)
}
