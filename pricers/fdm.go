package pricers

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/bcdannyboy/installment/models"
	"github.com/bcdannyboy/installment/numerics"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

// FDM solves the Black-Scholes PDE backward in time with the fully implicit
// scheme on S ∈ [0, SpotMultiple·max(S, K)], projecting onto the exercise
// payoff and clamping at zero where the holder stops paying.
type FDM struct {
	SpaceSteps       int
	TimeStepsPerYear int
	SpotMultiple     float64
	Logger           *slog.Logger
}

func NewFDM() *FDM {
	return &FDM{
		SpaceSteps:       1000,
		TimeStepsPerYear: 1600,
		SpotMultiple:     3,
	}
}

func (f *FDM) validate() error {
	switch {
	case f.SpaceSteps < 3:
		return fmt.Errorf("%w: fdm needs at least 3 space steps, got %d", ErrInvalidConfig, f.SpaceSteps)
	case f.TimeStepsPerYear < 1:
		return fmt.Errorf("%w: fdm time steps per year %d", ErrInvalidConfig, f.TimeStepsPerYear)
	case !(f.SpotMultiple > 1):
		return fmt.Errorf("%w: fdm spot multiple %g must exceed 1", ErrInvalidConfig, f.SpotMultiple)
	}
	return nil
}

func (f *FDM) Price(o models.Option) (Result, error) {
	if err := f.validate(); err != nil {
		return Result{}, err
	}
	log := loggerOrDefault(f.Logger)

	K := o.Strike()
	T := o.Maturity()
	M := f.SpaceSteps
	N := int(float64(f.TimeStepsPerYear) * T)
	if N < 1 {
		N = 1
	}
	sMax := f.SpotMultiple * math.Max(o.S, K)
	dS := sMax / float64(M)
	dt := T / float64(N)
	qdt := o.InstallmentRate() * dt
	r, d, vol2 := o.R, o.D, o.Vola*o.Vola

	log.Debug("fdm grid", "option", o, "space", M, "time", N, "smax", sMax)

	S := floats.Span(make([]float64, M+1), 0, sMax)
	pay := o.PayoffVec(nil, S)
	V := append([]float64(nil), pay...)

	tri := numerics.NewTridiagonal(M - 1)
	for j := 1; j < M; j++ {
		fj := float64(j)
		tri.Lower[j-1] = (-0.5*vol2*fj*fj + (r-d)*fj/2) * dt
		tri.Diag[j-1] = 1 + vol2*fj*fj*dt + r*dt
		tri.Upper[j-1] = (-0.5*vol2*fj*fj - (r-d)*fj/2) * dt
	}
	aFirst, cLast := tri.Lower[0], tri.Upper[M-2]

	lo, hi := 0.0, sMax
	if o.Phi == models.Put {
		lo, hi = K, 0
	}

	events := scheduleSteps(o, N)
	var exercise, stop *boundary
	if o.IsAmerican() || o.Kind == models.Bermuda {
		exercise = newBoundary(N+1, K, exerciseHighest(o))
	}
	if o.HasInstallments() {
		stop = newBoundary(N+1, K, stopHighest(o))
	}

	rhs := make([]float64, M-1)
	x := make([]float64, M-1)
	var err error
	for n := N - 1; n >= 0; n-- {
		for j := 1; j < M; j++ {
			rhs[j-1] = V[j] - qdt
		}
		rhs[0] -= aFirst * lo
		rhs[M-2] -= cLast * hi
		if x, err = tri.Solve(x, rhs); err != nil {
			return Result{}, fmt.Errorf("fdm step %d: %w", n, err)
		}
		V[0], V[M] = lo, hi
		copy(V[1:M], x)

		var event float64
		dates, isEvent := events[n]
		if isEvent {
			event = eventAmount(o, dates)
		}
		switch {
		case o.IsAmerican():
			project(V, S, pay, exercise, n)
		case o.Kind == models.Bermuda && isEvent:
			strike := event
			for j := 1; j < M; j++ {
				if ex := o.Phi * (S[j] - strike); ex > 0 && V[j] <= ex {
					V[j] = ex
					exercise.mark(n, S[j])
				}
			}
		case o.Kind == models.DiscreteInstallment && isEvent:
			floats.AddConst(-event, V[1:M])
		}
		if exercise != nil {
			exercise.close(n)
		}

		if stop != nil && (o.Kind != models.DiscreteInstallment || isEvent) {
			for j := range V {
				if V[j] < 0 {
					V[j] = 0
					stop.mark(n, S[j])
				}
			}
		}
		if stop != nil {
			stop.close(n)
		}
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(S, V); err != nil {
		return Result{}, fmt.Errorf("fdm interpolation: %w", err)
	}
	res := Result{
		Price: pl.Predict(o.S),
		Times: timeGrid(T, N),
	}
	j := int(math.Round(o.S / dS))
	if j < 1 {
		j = 1
	} else if j > M-1 {
		j = M - 1
	}
	res.Delta = (V[j+1] - V[j-1]) / (2 * dS)
	res.Gamma = (V[j+1] - 2*V[j] + V[j-1]) / (dS * dS)
	if exercise != nil {
		res.ExerciseBoundary = exercise.values
	}
	if stop != nil {
		res.StopBoundary = stop.values
	}
	return res, nil
}

// project replaces continuation values below a positive payoff by the payoff.
func project(V, S, pay []float64, exercise *boundary, level int) {
	for j := 1; j < len(V)-1; j++ {
		if pay[j] > 0 && V[j] <= pay[j] {
			V[j] = pay[j]
			exercise.mark(level, S[j])
		}
	}
}
