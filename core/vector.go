package core

import "math"

// NormalizeVector scales v to unit length, returning a new slice. A zero or
// empty vector has no direction and comes back as all zeros. The squared
// sum is accumulated in float64 to avoid drift on long vectors.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	out := make([]float32, len(v))
	norm := math.Sqrt(sum)
	if norm == 0 {
		return out
	}

	inv := float32(1 / norm)
	for i, x := range v {
		out[i] = x * inv
	}
	return out
}
