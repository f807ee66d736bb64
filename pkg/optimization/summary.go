// Package optimization provides shared data structures for bounded numeric searches.
package optimization

import "math"

// Summary captures the outcome of a single bounded search.
type Summary struct {
	Target     string   `json:"target"`
	Field      string   `json:"field"`
	Original   float64  `json:"original"`
	Value      float64  `json:"value"`
	Lower      float64  `json:"lower"`
	Upper      float64  `json:"upper"`
	Residual   float64  `json:"residual"`
	Iterations int      `json:"iterations"`
	Converged  bool     `json:"converged"`
	Notes      []string `json:"notes,omitempty"`
}

// Bisect searches [lower, upper] for a root of f, assuming f is
// non-increasing. It runs exactly iterations steps unless |f(mid)| falls
// within tolerance, in which case mid is returned immediately. Without an
// early hit the midpoint of the final bracket is returned.
func Bisect(f func(float64) float64, lower, upper float64, iterations int, tolerance float64) Summary {
	s := Summary{Lower: lower, Upper: upper}
	low, high := lower, upper

	for i := 0; i < iterations; i++ {
		mid := (low + high) / 2
		residual := f(mid)
		s.Iterations = i + 1
		s.Residual = residual

		if math.Abs(residual) < tolerance {
			s.Value = mid
			s.Converged = true
			return s
		}
		if residual > 0 {
			low = mid
		} else {
			high = mid
		}
	}

	s.Value = (low + high) / 2
	return s
}
