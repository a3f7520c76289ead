package numerics

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestFitLeastSquaresExactPolynomial(t *testing.T) {
	x := floats.Span(make([]float64, 25), 80, 120)
	y := make([]float64, len(x))
	poly := func(v float64) float64 { return 3 - 0.5*v + 0.01*v*v - 2e-5*v*v*v }
	for i, v := range x {
		y[i] = poly(v)
	}
	for _, basis := range []Basis{Power, Hermite} {
		for _, deg := range []int{3, 4} {
			fit, err := FitLeastSquares(basis, deg, x, y)
			if err != nil {
				t.Fatalf("%v degree %d: %v", basis, deg, err)
			}
			for _, v := range []float64{80, 93.3, 101, 119.9} {
				if got := fit.Predict(v); !scalar.EqualWithinAbs(got, poly(v), 1e-8) {
					t.Errorf("%v degree %d at %v: got %v, want %v", basis, deg, v, got, poly(v))
				}
			}
		}
	}
}

func TestFitLeastSquaresNoisyLine(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{1, 2, 2, 4}
	fit, err := FitLeastSquares(Power, 1, x, y)
	if err != nil {
		t.Fatal(err)
	}
	// ordinary least squares line: y = 0.9 + 0.9x
	got := fit.PredictVec(nil, []float64{0, 3})
	if !scalar.EqualWithinAbs(got[0], 0.9, 1e-12) || !scalar.EqualWithinAbs(got[1], 3.6, 1e-12) {
		t.Errorf("line = %v, want [0.9 3.6]", got)
	}
}

func TestFitLeastSquaresDegenerate(t *testing.T) {
	fit, err := FitLeastSquares(Hermite, 4, []float64{5, 5, 5, 5, 5, 5}, []float64{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatal(err)
	}
	if got := fit.Predict(7); got != 3.5 {
		t.Errorf("degenerate fit = %v, want the mean 3.5", got)
	}

	_, err = FitLeastSquares(Power, 3, []float64{1, 2, 3}, []float64{1, 2, 3})
	if !errors.Is(err, ErrTooFewPoints) {
		t.Fatalf("expected ErrTooFewPoints, got %v", err)
	}
}
