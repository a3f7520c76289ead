package pricers

import (
	"errors"
	"math"
	"testing"

	"github.com/bcdannyboy/installment/models"
	"github.com/bcdannyboy/installment/numerics"
)

func testLSMC() *LSMC {
	l := NewLSMC()
	l.StepsPerYear = 50
	l.Seed = 42
	return l
}

func TestLSMCSeedReproducible(t *testing.T) {
	o := must(t)(models.NewAmerican(95, 100, 0.05, 0.04, 0.2, 1, models.Put))
	l := testLSMC()
	a, err := l.Price(o)
	if err != nil {
		t.Fatal(err)
	}
	b, err := l.Price(o)
	if err != nil {
		t.Fatal(err)
	}
	if a.Price != b.Price || a.StdErr != b.StdErr {
		t.Fatalf("same seed gave %v and %v", a.Price, b.Price)
	}

	l.Seed = 7
	c, err := l.Price(o)
	if err != nil {
		t.Fatal(err)
	}
	if c.Price == a.Price {
		t.Errorf("different seeds gave the same price %v", c.Price)
	}
}

func TestLSMCEuropeanReduction(t *testing.T) {
	l := testLSMC()
	for _, phi := range []float64{models.Call, models.Put} {
		for _, tc := range europeanCases {
			o := must(t)(models.NewVanilla(tc.S, 100, tc.r, tc.d, 0.2, 1, phi))
			res, err := l.Price(o)
			if err != nil {
				t.Fatal(err)
			}
			if !(res.StdErr > 0) {
				t.Fatalf("%v: standard error %v", o, res.StdErr)
			}
			want := models.EuropeanValue(o)
			if diff := math.Abs(res.Price - want); diff > 4*res.StdErr {
				t.Errorf("%v: got %.4f ± %.4f, want %.4f", o, res.Price, res.StdErr, want)
			}
		}
	}
}

func TestLSMCAgainstBinomial(t *testing.T) {
	tests := []struct {
		name string
		o    models.Option
		want float64
		tol  float64
	}{
		{
			name: "american put",
			o:    must(t)(models.NewAmerican(95, 100, 0.05, 0.04, 0.2, 1, models.Put)),
			want: 9.7545,
			tol:  0.2,
		},
		{
			name: "installment call",
			o:    must(t)(models.NewContinuousInstallment(96, 100, 0.05, 0.04, 0.2, 1, 3, models.Call)),
			want: 3.6515,
			tol:  0.35,
		},
		{
			name: "american installment call",
			o:    must(t)(models.NewAmericanContinuousInstallment(96, 100, 0.05, 0.04, 0.2, 1, 3, models.Call)),
			want: 3.8382,
			tol:  0.35,
		},
		{
			name: "bermuda put",
			o:    must(t)(models.NewBermuda(95, 0.02, 0.01, 0.2, []float64{0.5, 1}, []float64{100, 100}, models.Put)),
			want: 9.8587,
			tol:  0.3,
		},
	}
	l := testLSMC()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := l.Price(tc.o)
			if err != nil {
				t.Fatal(err)
			}
			checkAbs(t, tc.name, res.Price, tc.want, tc.tol)
			if len(res.Times) != l.StepsPerYear+1 {
				t.Errorf("got %d times", len(res.Times))
			}
		})
	}
}

func TestLSMCBoundaries(t *testing.T) {
	l := testLSMC()
	o := must(t)(models.NewAmericanContinuousInstallment(96, 100, 0.05, 0.04, 0.2, 1, 3, models.Call))
	res, err := l.Price(o)
	if err != nil {
		t.Fatal(err)
	}
	n := l.StepsPerYear + 1
	if len(res.ExerciseBoundary) != n || len(res.StopBoundary) != n {
		t.Fatalf("boundaries have %d and %d levels, want %d", len(res.ExerciseBoundary), len(res.StopBoundary), n)
	}
	if res.ExerciseBoundary[n-1] != 100 || res.StopBoundary[n-1] != 100 {
		t.Errorf("terminal boundary values %v, %v", res.ExerciseBoundary[n-1], res.StopBoundary[n-1])
	}
	for i, s := range res.StopBoundary[1 : n-1] {
		if s > 100 {
			t.Errorf("call stopped above the strike at level %d: %v", i+1, s)
		}
	}
}

func TestLSMCPowerBasis(t *testing.T) {
	l := testLSMC()
	l.Basis = numerics.Power
	o := must(t)(models.NewAmerican(95, 100, 0.05, 0.04, 0.2, 1, models.Put))
	res, err := l.Price(o)
	if err != nil {
		t.Fatal(err)
	}
	checkAbs(t, "power basis", res.Price, 9.7545, 0.2)
}

func TestLSMCErrors(t *testing.T) {
	inst := must(t)(models.NewDiscreteInstallment(95, 0.02, 0.01, 0.2, []float64{0.5, 1}, []float64{5, 100}, models.Call))
	if _, err := testLSMC().Price(inst); !errors.Is(err, models.ErrWrongKind) {
		t.Errorf("discrete installment: got %v, want ErrWrongKind", err)
	}
	o := must(t)(models.NewVanilla(100, 100, 0.05, 0, 0.2, 1, models.Put))
	if _, err := (&LSMC{NumPaths: 1, StepsPerYear: 10}).Price(o); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("one path: got %v", err)
	}
	if _, err := (&LSMC{NumPaths: 100, StepsPerYear: 0}).Price(o); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("no steps: got %v", err)
	}
}

func TestLSMCSharedExerciseStep(t *testing.T) {
	l := testLSMC()
	l.StepsPerYear = 10
	split := must(t)(models.NewBermuda(100, 0.05, 0.04, 0.2, []float64{0.1, 0.12, 1}, []float64{110, 100, 100}, models.Put))
	best := must(t)(models.NewBermuda(100, 0.05, 0.04, 0.2, []float64{0.1, 1}, []float64{110, 100}, models.Put))
	a, err := l.Price(split)
	if err != nil {
		t.Fatal(err)
	}
	b, err := l.Price(best)
	if err != nil {
		t.Fatal(err)
	}
	if a.Price != b.Price {
		t.Errorf("shared step priced %v, best strike alone %v", a.Price, b.Price)
	}
}

func TestLSMCExerciseAtStart(t *testing.T) {
	// the first date rounds onto step 0
	o := must(t)(models.NewBermuda(60, 0.05, 0, 0.2, []float64{0.005, 1}, []float64{100, 100}, models.Put))
	res, err := testLSMC().Price(o)
	if err != nil {
		t.Fatal(err)
	}
	if res.Price != 40 || res.StdErr != 0 {
		t.Errorf("got %v ± %v, want immediate exercise 40", res.Price, res.StdErr)
	}
	if res.ExerciseBoundary[0] != 60 {
		t.Errorf("boundary at start %v", res.ExerciseBoundary[0])
	}
}
