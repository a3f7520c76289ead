package numerics

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Basis selects the polynomial family used by FitLeastSquares.
type Basis int

const (
	// Hermite uses physicists' Hermite polynomials H_0..H_deg.
	Hermite Basis = iota
	// Power uses the monomials 1, z, ..., z^deg.
	Power
)

func (b Basis) String() string {
	switch b {
	case Hermite:
		return "hermite"
	case Power:
		return "power"
	default:
		return fmt.Sprintf("Basis(%d)", int(b))
	}
}

// Fit is a least-squares polynomial in the scaled variable z, where the
// sample range [lo, hi] of x is mapped onto [-1, 1].
type Fit struct {
	Basis  Basis
	Degree int
	Coef   []float64

	lo, hi float64
	row    []float64
}

// FitLeastSquares regresses y on the basis functions of x. The design matrix is
// solved by QR through mat.VecDense.SolveVec.
func FitLeastSquares(basis Basis, degree int, x, y []float64) (*Fit, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("fit: x has %d points, y has %d", len(x), len(y))
	}
	if degree < 0 {
		return nil, fmt.Errorf("fit: negative degree %d", degree)
	}
	m := degree + 1
	if len(x) < m {
		return nil, fmt.Errorf("%w: %d points for degree %d", ErrTooFewPoints, len(x), degree)
	}

	fit := &Fit{
		Basis:  basis,
		Degree: degree,
		lo:     floats.Min(x),
		hi:     floats.Max(x),
		row:    make([]float64, m),
	}
	if fit.hi-fit.lo <= 1e-12*(1+abs(fit.hi)) {
		// all abscissae coincide; only the mean is identifiable
		fit.Coef = make([]float64, m)
		fit.Coef[0] = floats.Sum(y) / float64(len(y))
		return fit, nil
	}

	data := make([]float64, len(x)*m)
	for i, xi := range x {
		fit.basisRow(data[i*m:(i+1)*m], fit.scale(xi))
	}
	a := mat.NewDense(len(x), m, data)
	b := mat.NewVecDense(len(y), y)

	var coef mat.VecDense
	if err := coef.SolveVec(a, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("fit: %w", err)
		}
		// ill-conditioned: the solution is still the least-squares estimate
	}
	fit.Coef = make([]float64, m)
	for i := range fit.Coef {
		fit.Coef[i] = coef.AtVec(i)
	}
	return fit, nil
}

// Predict evaluates the fitted polynomial at x.
func (f *Fit) Predict(x float64) float64 {
	if f.hi-f.lo <= 1e-12*(1+abs(f.hi)) {
		return f.Coef[0]
	}
	f.basisRow(f.row, f.scale(x))
	return floats.Dot(f.row, f.Coef)
}

// PredictVec evaluates the fit at every xs and writes into dst.
func (f *Fit) PredictVec(dst, xs []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(xs))
	}
	for i, x := range xs {
		dst[i] = f.Predict(x)
	}
	return dst
}

func (f *Fit) scale(x float64) float64 {
	return 2*(x-f.lo)/(f.hi-f.lo) - 1
}

func (f *Fit) basisRow(dst []float64, z float64) {
	dst[0] = 1
	if len(dst) == 1 {
		return
	}
	switch f.Basis {
	case Hermite:
		dst[1] = 2 * z
		for k := 1; k+1 < len(dst); k++ {
			dst[k+1] = 2*z*dst[k] - 2*float64(k)*dst[k-1]
		}
	default:
		for k := 1; k < len(dst); k++ {
			dst[k] = dst[k-1] * z
		}
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
