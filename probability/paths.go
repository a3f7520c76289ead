package probability

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// EvenPaths rounds n up to the next even count so every path has its
// antithetic partner.
func EvenPaths(n int) int {
	if n < 2 {
		return 2
	}
	return n + n%2
}

// AntitheticPaths simulates geometric Brownian motion on a uniform grid. Row 2i
// follows s0·exp(drift·t + vol·W_t) and row 2i+1 the same draws with W negated;
// drift and vol are per step, W is the cumulative sum of standard normals.
// Column 0 holds s0, so the matrix is EvenPaths(numPaths)×(steps+1).
func AntitheticPaths(rng *rand.Rand, s0, drift, vol float64, steps, numPaths int) *mat.Dense {
	n := EvenPaths(numPaths)
	paths := mat.NewDense(n, steps+1, nil)
	up := make([]float64, steps+1)
	down := make([]float64, steps+1)
	for p := 0; p < n; p += 2 {
		up[0], down[0] = s0, s0
		var w float64
		for t := 1; t <= steps; t++ {
			w += rng.NormFloat64()
			base := drift * float64(t)
			up[t] = s0 * math.Exp(base+vol*w)
			down[t] = s0 * math.Exp(base-vol*w)
		}
		paths.SetRow(p, up)
		paths.SetRow(p+1, down)
	}
	return paths
}
