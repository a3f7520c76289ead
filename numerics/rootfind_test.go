package numerics

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestBrent(t *testing.T) {
	tests := []struct {
		name   string
		f      func(float64) float64
		lo, hi float64
		want   float64
	}{
		{"sqrt2", func(x float64) float64 { return x*x - 2 }, 0, 2, math.Sqrt2},
		{"cos fixed point", func(x float64) float64 { return math.Cos(x) - x }, 0, 1, 0.7390851332151607},
		{"cubic", func(x float64) float64 { return (x - 1) * (x - 1) * (x - 1) }, -2, 3, 1},
		{"root at end", func(x float64) float64 { return x - 5 }, 5, 9, 5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Brent(tc.f, tc.lo, tc.hi, 1e-12, 200)
			if err != nil {
				t.Fatalf("brent: %v", err)
			}
			if !scalar.EqualWithinAbs(got, tc.want, 1e-9) {
				t.Errorf("root = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBrentNoSignChange(t *testing.T) {
	_, err := Brent(func(x float64) float64 { return x*x + 1 }, -1, 1, 0, 0)
	if !errors.Is(err, ErrNonConvergence) {
		t.Fatalf("expected ErrNonConvergence, got %v", err)
	}
}

func TestBrentIterationCap(t *testing.T) {
	_, err := Brent(func(x float64) float64 { return math.Cbrt(x - 0.3) }, -10, 10, 1e-15, 2)
	if !errors.Is(err, ErrNonConvergence) {
		t.Fatalf("expected ErrNonConvergence, got %v", err)
	}
}

func TestExpandBracket(t *testing.T) {
	lo, hi, err := ExpandBracket(func(x float64) float64 { return x - 1.35 }, 1, 0.1, 9)
	if err != nil {
		t.Fatalf("bracket: %v", err)
	}
	if !scalar.EqualWithinAbs(lo, 0.6, 1e-12) || !scalar.EqualWithinAbs(hi, 1.4, 1e-12) {
		t.Errorf("bracket = [%v, %v], want [0.6, 1.4]", lo, hi)
	}

	_, _, err = ExpandBracket(func(x float64) float64 { return x + 5 }, 1, 0.1, 9)
	if !errors.Is(err, ErrNonConvergence) {
		t.Fatalf("expected ErrNonConvergence on exhaustion, got %v", err)
	}

	_, _, err = ExpandBracket(func(float64) float64 { return math.NaN() }, 1, 0.1, 9)
	if !errors.Is(err, ErrNonConvergence) {
		t.Fatalf("expected ErrNonConvergence for NaN objective, got %v", err)
	}
}
