package core

import "math"

// NormalizeVector normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var magnitude float32
	for _, val := range v {
		magnitude += val * val
	}
	magnitude = float32(math.Sqrt(float64(magnitude)))

	// Can't normalize zero vector
	if magnitude == 0 {
		result := make([]float32, len(v))
		return result
	}

	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}

// VectorSimilarity computes the semantic closeness of two unit vectors as the
// dot product (cosine similarity), clamped to [0, 1]: 1.0 means identical
// direction, 0 means orthogonal or opposed. An empty vector on either side
// (an absent embedding) resolves to 0 rather than an error; missing data is
// a valid state, not a fault.
func VectorSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var sum float32
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}

	if sum < 0 {
		return 0
	}
	if sum > 1 {
		return 1
	}
	return sum
}
