package pricers

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/bcdannyboy/installment/models"
	"github.com/bcdannyboy/installment/numerics"
	"github.com/bcdannyboy/installment/probability"
	"golang.org/x/exp/rand"
)

// LSMC is the Longstaff-Schwartz least-squares Monte Carlo engine. Every call
// to Price draws from a fresh generator seeded with Seed.
type LSMC struct {
	NumPaths     int
	StepsPerYear int
	Basis        numerics.Basis
	// ExerciseDegree and StopDegree default to the basis' degree when zero:
	// 4 and 4 for Hermite, 2 and 3 for Power.
	ExerciseDegree int
	StopDegree     int
	Seed           uint64
	Logger         *slog.Logger
}

func NewLSMC() *LSMC {
	return &LSMC{
		NumPaths:     10000,
		StepsPerYear: 320,
		Basis:        numerics.Hermite,
		Seed:         1,
	}
}

func (l *LSMC) degrees() (int, int) {
	ex, st := l.ExerciseDegree, l.StopDegree
	if ex <= 0 {
		ex = 4
		if l.Basis == numerics.Power {
			ex = 2
		}
	}
	if st <= 0 {
		st = 4
		if l.Basis == numerics.Power {
			st = 3
		}
	}
	return ex, st
}

func (l *LSMC) Price(o models.Option) (Result, error) {
	if o.Kind == models.DiscreteInstallment {
		return Result{}, fmt.Errorf("%w: lsmc does not price %v options", models.ErrWrongKind, o.Kind)
	}
	if l.NumPaths < 2 || l.StepsPerYear < 1 {
		return Result{}, fmt.Errorf("%w: lsmc paths %d, steps per year %d", ErrInvalidConfig, l.NumPaths, l.StepsPerYear)
	}
	log := loggerOrDefault(l.Logger)

	T := o.Maturity()
	K := o.Strike()
	N := int(float64(l.StepsPerYear) * T)
	if N < 1 {
		N = 1
	}
	dt := T / float64(N)
	q := o.InstallmentRate()
	exDeg, stopDeg := l.degrees()

	rng := rand.New(rand.NewSource(l.Seed))
	paths := probability.AntitheticPaths(rng, o.S, (o.R-o.D-0.5*o.Vola*o.Vola)*dt, o.Vola*math.Sqrt(dt), N, l.NumPaths)
	raw := paths.RawMatrix()
	numPaths := raw.Rows
	at := func(i, t int) float64 { return raw.Data[i*raw.Stride+t] }

	log.Debug("lsmc simulation", "option", o, "paths", numPaths, "steps", N, "basis", l.Basis)

	// net present value at step t of the cash flow cf realized k steps later
	netValue := func(cf float64, k int) float64 {
		span := float64(k) * dt
		return math.Exp(-o.R*span)*cf - models.PeriodInstallment(q, o.R, span)
	}

	cf := make([]float64, numPaths)
	tau := make([]int, numPaths)
	for i := range cf {
		cf[i] = o.Payoff(at(i, N))
		tau[i] = N
	}

	events := scheduleSteps(o, N)
	var exercise, stop *boundary
	if o.IsAmerican() || o.Kind == models.Bermuda {
		exercise = newBoundary(N+1, K, exerciseHighest(o))
	}
	if o.HasInstallments() {
		stop = newBoundary(N+1, K, stopHighest(o))
	}

	var xs, ys []float64
	var idx []int
	for t := N - 1; t >= 1; t-- {
		strike, canExercise := K, o.IsAmerican()
		if dates, ok := events[t]; ok && o.Kind == models.Bermuda {
			strike, canExercise = eventAmount(o, dates), true
		}

		if canExercise {
			xs, ys, idx = xs[:0], ys[:0], idx[:0]
			for i := 0; i < numPaths; i++ {
				if s := at(i, t); o.Phi*(s-strike) > 0 {
					xs = append(xs, s)
					ys = append(ys, netValue(cf[i], tau[i]-t))
					idx = append(idx, i)
				}
			}
			fit, err := l.fit(exDeg, xs, ys)
			if err != nil {
				return Result{}, err
			}
			if fit != nil {
				for k, i := range idx {
					if ex := o.Phi * (xs[k] - strike); ex > fit.Predict(xs[k]) {
						cf[i], tau[i] = ex, t
						exercise.mark(t, xs[k])
					}
				}
			} else {
				log.Debug("lsmc exercise regression skipped", "step", t, "points", len(xs))
			}
		}
		if exercise != nil {
			exercise.close(t)
		}

		if stop != nil {
			xs, ys, idx = xs[:0], ys[:0], idx[:0]
			for i := 0; i < numPaths; i++ {
				if s := at(i, t); o.Phi*(s-K) <= 0 {
					xs = append(xs, s)
					ys = append(ys, netValue(cf[i], tau[i]-t))
					idx = append(idx, i)
				}
			}
			fit, err := l.fit(stopDeg, xs, ys)
			if err != nil {
				return Result{}, err
			}
			if fit != nil {
				for k, i := range idx {
					if fit.Predict(xs[k]) < 0 {
						cf[i], tau[i] = 0, t
						stop.mark(t, xs[k])
					}
				}
			} else {
				log.Debug("lsmc stop regression skipped", "step", t, "points", len(xs))
			}
			stop.close(t)
		}
	}
	if exercise != nil {
		exercise.close(0)
	}
	if stop != nil {
		stop.close(0)
	}

	values := make([]float64, numPaths)
	for i := range values {
		values[i] = netValue(cf[i], tau[i])
	}
	est := probability.PairEstimate(values)

	res := Result{Price: est.Mean, StdErr: est.StdErr, Times: timeGrid(T, N)}
	switch {
	case o.IsAmerican():
		res.Price = math.Max(res.Price, o.Payoff(o.S))
	case o.HasInstallments():
		res.Price = math.Max(res.Price, 0)
	}
	// all paths share the spot at t = 0, so a date there is decided exactly
	if dates, ok := events[0]; ok && o.Kind == models.Bermuda {
		strike := eventAmount(o, dates)
		if ex := o.Phi * (o.S - strike); ex > 0 && ex >= res.Price {
			res.Price, res.StdErr = ex, 0
			if exercise != nil {
				exercise.values[0] = o.S
			}
		}
	}
	if exercise != nil {
		res.ExerciseBoundary = exercise.values
	}
	if stop != nil {
		res.StopBoundary = stop.values
	}
	return res, nil
}

// fit regresses ys on xs. A nil fit without error means too few points.
func (l *LSMC) fit(degree int, xs, ys []float64) (*numerics.Fit, error) {
	if len(xs) < degree+2 {
		return nil, nil
	}
	fit, err := numerics.FitLeastSquares(l.Basis, degree, xs, ys)
	if errors.Is(err, numerics.ErrTooFewPoints) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lsmc regression: %w", err)
	}
	return fit, nil
}
