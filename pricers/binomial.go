package pricers

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/bcdannyboy/installment/models"
)

// Adjustment selects how the tree factors absorb the drift.
type Adjustment int

const (
	// AdjustRMinusD scales both factors by e^{(r-d)Δt}.
	AdjustRMinusD Adjustment = iota
	// AdjustMinusD scales both factors by e^{-dΔt} and leaves e^{rΔt} in p.
	AdjustMinusD
	// AdjustNone is the plain Cox-Ross-Rubinstein tree.
	AdjustNone
)

func (a Adjustment) String() string {
	switch a {
	case AdjustRMinusD:
		return "r-d"
	case AdjustMinusD:
		return "-d"
	case AdjustNone:
		return "none"
	default:
		return fmt.Sprintf("Adjustment(%d)", int(a))
	}
}

// Binomial prices by backward induction on a recombining multiplicative tree.
type Binomial struct {
	NumSteps   int
	Adjustment Adjustment
	Logger     *slog.Logger
}

func NewBinomial() *Binomial {
	return &Binomial{NumSteps: 1000, Adjustment: AdjustRMinusD}
}

// factors returns the up and down multipliers and the up probability.
func (b *Binomial) factors(o models.Option, dt float64) (float64, float64, float64, error) {
	up := math.Exp(o.Vola * math.Sqrt(dt))
	down := 1 / up
	var p float64
	switch b.Adjustment {
	case AdjustRMinusD:
		a := math.Exp((o.R - o.D) * dt)
		up, down = up*a, down*a
		p = (a - down) / (up - down)
	case AdjustMinusD:
		a := math.Exp(-o.D * dt)
		up, down = up*a, down*a
		p = (a*math.Exp(o.R*dt) - down) / (up - down)
	case AdjustNone:
		p = (math.Exp((o.R-o.D)*dt) - down) / (up - down)
	default:
		return 0, 0, 0, fmt.Errorf("%w: unknown adjustment %v", ErrInvalidConfig, b.Adjustment)
	}
	if !(p > 0 && p < 1) {
		return 0, 0, 0, fmt.Errorf("%w: p=%g with %d steps (%v)", ErrUnstableLattice, p, b.NumSteps, b.Adjustment)
	}
	return up, down, p, nil
}

func (b *Binomial) Price(o models.Option) (Result, error) {
	if b.NumSteps < 1 {
		return Result{}, fmt.Errorf("%w: binomial steps %d", ErrInvalidConfig, b.NumSteps)
	}
	N := b.NumSteps
	T := o.Maturity()
	K := o.Strike()
	dt := T / float64(N)
	up, down, p, err := b.factors(o, dt)
	if err != nil {
		return Result{}, err
	}
	loggerOrDefault(b.Logger).Debug("binomial tree", "option", o, "steps", N, "p", p, "adjustment", b.Adjustment)

	disc := math.Exp(-o.R * dt)
	qi := models.PeriodInstallment(o.InstallmentRate(), o.R, dt)
	lnU, lnD := math.Log(up), math.Log(down)
	spot := func(step, i int) float64 {
		return o.S * math.Exp(float64(step-i)*lnU+float64(i)*lnD)
	}

	V := make([]float64, N+1)
	for i := range V {
		V[i] = o.Payoff(spot(N, i))
	}

	events := scheduleSteps(o, N)
	var exercise, stop *boundary
	if o.IsAmerican() || o.Kind == models.Bermuda {
		exercise = newBoundary(N+1, K, exerciseHighest(o))
	}
	if o.HasInstallments() {
		stop = newBoundary(N+1, K, stopHighest(o))
	}

	var level1, level2 [3]float64
	for step := N - 1; step >= 0; step-- {
		var event float64
		dates, isEvent := events[step]
		if isEvent {
			event = eventAmount(o, dates)
		}
		for i := 0; i <= step; i++ {
			v := disc*(p*V[i]+(1-p)*V[i+1]) - qi
			s := spot(step, i)

			strike, canExercise := K, o.IsAmerican()
			if o.Kind == models.Bermuda && isEvent {
				strike, canExercise = event, true
			}
			if canExercise {
				if ex := o.Phi * (s - strike); ex > 0 && v <= ex {
					v = ex
					exercise.mark(step, s)
				}
			}
			if o.Kind == models.DiscreteInstallment && isEvent {
				v -= event
			}
			if stop != nil && v < 0 {
				v = 0
				stop.mark(step, s)
			}
			V[i] = v
		}
		if exercise != nil {
			exercise.close(step)
		}
		if stop != nil {
			stop.close(step)
		}
		switch step {
		case 2:
			copy(level2[:], V[:3])
		case 1:
			copy(level1[:2], V[:2])
		}
	}

	res := Result{Price: V[0], Times: timeGrid(T, N)}
	if N >= 2 {
		s1u, s1d := spot(1, 0), spot(1, 1)
		res.Delta = (level1[0] - level1[1]) / (s1u - s1d)
		s2 := [3]float64{spot(2, 0), spot(2, 1), spot(2, 2)}
		du := (level2[0] - level2[1]) / (s2[0] - s2[1])
		dd := (level2[1] - level2[2]) / (s2[1] - s2[2])
		res.Gamma = (du - dd) / ((s2[0] - s2[2]) / 2)
	}
	if exercise != nil {
		res.ExerciseBoundary = exercise.values
	}
	if stop != nil {
		res.StopBoundary = stop.values
	}
	return res, nil
}
