package ams

import (
	"fmt"
	"math"
)

// Dimensions returns the number of counters per estimator (width, s1) and the number of
// estimators (depth, s2) needed to estimate the k-th frequency moment of a stream over a
// universe of n items within relative error lambda with probability at least 1-epsilon.
//
//   - width = ceil(8 * k * n^(1-1/k) / lambda^2)
//   - depth = ceil(2 * ln(1/epsilon))
//
// Both are at least 1.
func Dimensions(k, n int, lambda, epsilon float64) (width, depth int, err error) {
	switch {
	case k < 1:
		return 0, 0, fmt.Errorf("%w: moment order k=%d must be at least 1", ErrInvalidParameter, k)
	case n < 1:
		return 0, 0, fmt.Errorf("%w: universe size n=%d must be at least 1", ErrInvalidParameter, n)
	case !(lambda > 0) || math.IsInf(lambda, 1):
		return 0, 0, fmt.Errorf("%w: lambda=%v must be a positive number", ErrInvalidParameter, lambda)
	case !(epsilon > 0 && epsilon < 1):
		return 0, 0, fmt.Errorf("%w: epsilon=%v must be in (0, 1)", ErrInvalidParameter, epsilon)
	}

	w := math.Ceil(8 * float64(k) * math.Pow(float64(n), 1-1/float64(k)) / (lambda * lambda))
	d := math.Ceil(2 * math.Log(1/epsilon))

	if w > math.MaxInt32 || w*max(d, 1) > math.MaxInt32 {
		return 0, 0, fmt.Errorf("%w: %v x %v counters is too large", ErrInvalidParameter, w, d)
	}

	return max(1, int(w)), max(1, int(d)), nil
}
