package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVector(t *testing.T) {
	t.Run("unit length", func(t *testing.T) {
		v := NormalizeVector([]float32{3, 4})
		var mag float64
		for _, x := range v {
			mag += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(mag), 1e-6)
	})

	t.Run("empty vector unchanged", func(t *testing.T) {
		assert.Empty(t, NormalizeVector(nil))
	})

	t.Run("zero vector stays zero", func(t *testing.T) {
		v := NormalizeVector([]float32{0, 0, 0})
		assert.Equal(t, []float32{0, 0, 0}, v)
	})
}

func TestVectorSimilarity(t *testing.T) {
	t.Run("identical direction is one", func(t *testing.T) {
		assert.InDelta(t, 1.0, VectorSimilarity([]float32{1, 0}, []float32{1, 0}), 1e-6)
	})

	t.Run("orthogonal is zero", func(t *testing.T) {
		assert.Zero(t, VectorSimilarity([]float32{1, 0}, []float32{0, 1}))
	})

	t.Run("opposed clamps to zero", func(t *testing.T) {
		assert.Zero(t, VectorSimilarity([]float32{1, 0}, []float32{-1, 0}))
	})

	t.Run("absent embedding is zero for any query", func(t *testing.T) {
		assert.Zero(t, VectorSimilarity([]float32{1, 0}, nil))
		assert.Zero(t, VectorSimilarity(nil, []float32{1, 0}))
	})
}
