package numerics

import "math"

// GaverStehfest inverts a Laplace-Carson transform g(λ) = λ·F̂(λ) at time t.
// The Gaver functionals at λ = k·ln2/t, k = 1..2n, are reduced by the
// Euler-type recursion and combined with Salzer weights of order n.
func GaverStehfest(g func(lambda float64) float64, t float64, n int) float64 {
	if n < 1 || t <= 0 {
		return math.NaN()
	}
	a := math.Ln2 / t
	m := 2 * n

	vals := make([]float64, m+1)
	for k := 1; k <= m; k++ {
		vals[k-1] = g(a * float64(k))
	}
	next := make([]float64, m)
	gav := make([]float64, n)
	for j := 1; j <= n; j++ {
		fj := float64(j)
		for i := j; i <= m-j; i++ {
			fi := float64(i)
			next[i-1] = (1+fi/fj)*vals[i-1] - fi/fj*vals[i]
		}
		copy(vals[j-1:m-j], next[j-1:m-j])
		gav[j-1] = next[j-1]
	}

	var sum float64
	for k := 1; k <= n; k++ {
		sum += SalzerWeight(k, n) * gav[k-1]
	}
	return sum
}

// SalzerWeight is (-1)^(n-k)·k^n / (k!(n-k)!), the weight of the k-th term in
// an order-n extrapolation to 1/k → 0.
func SalzerWeight(k, n int) float64 {
	lk, _ := math.Lgamma(float64(k + 1))
	lnk, _ := math.Lgamma(float64(n - k + 1))
	w := math.Exp(float64(n)*math.Log(float64(k)) - lk - lnk)
	if (n-k)%2 == 1 {
		w = -w
	}
	return w
}
