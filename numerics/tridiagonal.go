package numerics

import (
	"fmt"
	"math"
)

// Tridiagonal holds an n×n tridiagonal matrix. Lower[0] and Upper[n-1] are unused.
type Tridiagonal struct {
	Lower []float64
	Diag  []float64
	Upper []float64

	cp []float64
	dp []float64
}

func NewTridiagonal(n int) *Tridiagonal {
	return &Tridiagonal{
		Lower: make([]float64, n),
		Diag:  make([]float64, n),
		Upper: make([]float64, n),
		cp:    make([]float64, n),
		dp:    make([]float64, n),
	}
}

func (t *Tridiagonal) Size() int {
	return len(t.Diag)
}

// Solve runs the Thomas algorithm on t·x = rhs and writes x into dst, allocating
// it when dst is nil. The scratch buffers are reused across calls, so a single
// Tridiagonal must not be solved from several goroutines at once.
func (t *Tridiagonal) Solve(dst, rhs []float64) ([]float64, error) {
	n := len(t.Diag)
	if len(rhs) != n || len(t.Lower) != n || len(t.Upper) != n {
		return nil, fmt.Errorf("tridiagonal: dimension mismatch: n=%d rhs=%d", n, len(rhs))
	}
	if n == 0 {
		return dst[:0], nil
	}
	if dst == nil {
		dst = make([]float64, n)
	}
	if len(t.cp) != n {
		t.cp = make([]float64, n)
		t.dp = make([]float64, n)
	}

	piv := t.Diag[0]
	if isSingularPivot(piv, t.Diag[0], t.Upper[0]) {
		return nil, fmt.Errorf("%w: zero pivot at row 0", ErrSingularSystem)
	}
	t.cp[0] = t.Upper[0] / piv
	t.dp[0] = rhs[0] / piv
	for i := 1; i < n; i++ {
		piv = t.Diag[i] - t.Lower[i]*t.cp[i-1]
		if isSingularPivot(piv, t.Diag[i], t.Lower[i]) {
			return nil, fmt.Errorf("%w: zero pivot at row %d", ErrSingularSystem, i)
		}
		if i < n-1 {
			t.cp[i] = t.Upper[i] / piv
		}
		t.dp[i] = (rhs[i] - t.Lower[i]*t.dp[i-1]) / piv
	}

	dst[n-1] = t.dp[n-1]
	for i := n - 2; i >= 0; i-- {
		dst[i] = t.dp[i] - t.cp[i]*dst[i+1]
	}
	return dst, nil
}

func isSingularPivot(piv, diag, off float64) bool {
	scale := math.Abs(diag) + math.Abs(off)
	if scale == 0 {
		return true
	}
	return math.Abs(piv) <= 1e-14*scale || math.IsNaN(piv)
}
