package hdc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allStrategies(t *testing.T) map[string]Strategy {
	t.Helper()
	return map[string]Strategy{
		"dense-binary":      New("dense-binary", 1024),
		"sparse-polynomial": New("sparse-polynomial", 8),
		"metric-affine":     New("metric-affine", 32),
	}
}

func TestSymbolVectorDeterministic(t *testing.T) {
	for name, s := range allStrategies(t) {
		t.Run(name, func(t *testing.T) {
			a := s.SymbolVector(42)
			b := s.SymbolVector(42)
			assert.Equal(t, 1.0, round(s.Similarity(a, b)), "same id must yield identical vector")
		})
	}
}

func TestSymbolVectorDistinctIDsDiffer(t *testing.T) {
	for name, s := range allStrategies(t) {
		t.Run(name, func(t *testing.T) {
			a := s.SymbolVector(1)
			b := s.SymbolVector(2)
			assert.NotEqual(t, 1.0, round(s.Similarity(a, b)))
		})
	}
}

func TestBindUnbindRoundTrip(t *testing.T) {
	for name, s := range allStrategies(t) {
		t.Run(name, func(t *testing.T) {
			a := s.SymbolVector(10)
			b := s.SymbolVector(20)
			bound := s.Bind(a, b)
			recovered := s.Unbind(bound, a)
			sim := s.Similarity(recovered, b)
			require.GreaterOrEqual(t, sim, 0.5, "unbind(bind(a,b),a) must stay similar to b")
		})
	}
}

func TestBundlePreservesSimilarityToInputs(t *testing.T) {
	for name, s := range allStrategies(t) {
		t.Run(name, func(t *testing.T) {
			a := s.SymbolVector(1)
			b := s.SymbolVector(2)
			c := s.SymbolVector(3)
			bundle := s.Bundle(a, b, c)
			for _, v := range []Vector{a, b, c} {
				assert.Greater(t, s.Similarity(bundle, v), 0.0)
			}
		})
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	for name, s := range allStrategies(t) {
		t.Run(name, func(t *testing.T) {
			a := s.SymbolVector(5)
			b := s.SymbolVector(6)
			assert.InDelta(t, s.Similarity(a, b), s.Similarity(b, a), 1e-9)
		})
	}
}

func TestSimilarityBounded(t *testing.T) {
	for name, s := range allStrategies(t) {
		t.Run(name, func(t *testing.T) {
			a := s.SymbolVector(7)
			b := s.SymbolVector(8)
			sim := s.Similarity(a, b)
			assert.LessOrEqual(t, sim, 1.0)
			assert.GreaterOrEqual(t, sim, -1.0)
			assert.False(t, sim != sim, "similarity must never be NaN")
		})
	}
}

func round(f float64) float64 {
	if f > 0.999999 {
		return 1.0
	}
	return f
}
