package pricers

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/bcdannyboy/installment/models"
	"github.com/bcdannyboy/installment/numerics"
	"gonum.org/v1/gonum/mat"
)

// Discrete prices discretely scheduled installment calls and Bermuda puts as
// compound options: every term is a multivariate normal probability over the
// remaining dates, and the critical prices are recovered backward, date by
// date, by root finding.
type Discrete struct {
	// BracketStep is the relative widening of the root bracket per expansion.
	BracketStep float64
	// BracketSteps caps the number of bracket expansions.
	BracketSteps int
	XTol         float64
	MaxIter      int
	// AssetLegByDate discounts the Bermuda put's asset leg to each exercise
	// date instead of to the last one. The two agree without dividends; with
	// a dividend yield only the dated leg matches the lattice engines.
	AssetLegByDate bool
	// MVN overrides the multivariate normal CDF; nil uses numerics.MVNCDF.
	MVN    numerics.MVN
	Logger *slog.Logger
}

func NewDiscrete() *Discrete {
	return &Discrete{
		BracketStep:  0.1,
		BracketSteps: 9,
		XTol:         numerics.DefaultXTol,
		MaxIter:      numerics.DefaultMaxIter,
	}
}

func (p *Discrete) cdf(r mat.Symmetric, b []float64) (float64, error) {
	if p.MVN != nil {
		return p.MVN.CDF(r, b)
	}
	return numerics.MVNCDF(r, b)
}

func (p *Discrete) Price(o models.Option) (Result, error) {
	switch {
	case o.Kind == models.DiscreteInstallment && o.Phi == models.Call:
	case o.Kind == models.Bermuda && o.Phi == models.Put:
	default:
		return Result{}, fmt.Errorf("%w: discrete pricer handles installment calls and bermuda puts, got %v", models.ErrWrongKind, o)
	}
	if p.BracketSteps < 1 || !(p.BracketStep > 0) {
		return Result{}, fmt.Errorf("%w: bracket step %g × %d", ErrInvalidConfig, p.BracketStep, p.BracketSteps)
	}
	log := loggerOrDefault(p.Logger)

	stops, err := p.Boundary(o)
	if err != nil {
		return Result{}, err
	}
	price, err := p.value(o, o.S, 0, o.Dates, o.Amounts, stops)
	if err != nil {
		return Result{}, err
	}
	log.Debug("discrete price", "option", o, "price", price, "boundary", stops)

	res := Result{Price: price, Times: append([]float64(nil), o.Dates...)}
	if o.Kind == models.Bermuda {
		res.ExerciseBoundary = stops
	} else {
		res.StopBoundary = stops
	}
	return res, nil
}

// Boundary recovers the critical price at every date, last to first. At date
// k the contract on the remaining dates is worth exactly the amount due
// (installment call) or the exercise value (Bermuda put).
func (p *Discrete) Boundary(o models.Option) ([]float64, error) {
	n := len(o.Dates)
	stops := make([]float64, n)
	stops[n-1] = o.Amounts[n-1]
	log := loggerOrDefault(p.Logger)

	for k := n - 2; k >= 0; k-- {
		tk, due := o.Dates[k], o.Amounts[k]
		dates, amounts, later := o.Dates[k+1:], o.Amounts[k+1:], stops[k+1:]

		var evalErr error
		f := func(x float64) float64 {
			v, err := p.value(o, x, tk, dates, amounts, later)
			if err != nil {
				evalErr = err
				return math.NaN()
			}
			if o.Kind == models.Bermuda {
				return v - due + x
			}
			return v - due
		}

		guess := stops[k+1]
		lo, hi, err := numerics.ExpandBracket(f, guess, p.BracketStep, p.BracketSteps)
		if evalErr != nil {
			return nil, evalErr
		}
		if err != nil {
			return nil, fmt.Errorf("boundary at t=%g: %w", tk, err)
		}
		log.Debug("discrete bracket", "date", tk, "lo", lo, "hi", hi)

		root, err := numerics.Brent(f, lo, hi, p.XTol, p.MaxIter)
		if evalErr != nil {
			return nil, evalErr
		}
		if err != nil {
			return nil, fmt.Errorf("boundary at t=%g: %w", tk, err)
		}
		stops[k] = root
	}
	return stops, nil
}

// value is the time-tk worth at spot x of the contract restricted to dates.
func (p *Discrete) value(o models.Option, x, tk float64, dates, amounts, stops []float64) (float64, error) {
	n := len(dates)
	dPlus := make([]float64, n)
	dMinus := make([]float64, n)
	for i, t := range dates {
		tau := t - tk
		dPlus[i] = models.D1(x, stops[i], o.R, o.D, o.Vola, tau)
		dMinus[i] = models.D2FromD1(dPlus[i], o.Vola, tau)
	}

	bermuda := o.Kind == models.Bermuda
	byDate := bermuda && p.AssetLegByDate
	var val float64
	if !byDate {
		full, err := p.cdf(brownianCorrelation(dates, false), dPlus)
		if err != nil {
			return 0, err
		}
		val = x * math.Exp(-o.D*(dates[n-1]-tk)) * full
		if bermuda {
			val -= x * math.Exp(-o.D*(dates[n-1]-tk))
		}
	}

	limits := make([]float64, n)
	for i := 0; i < n; i++ {
		r := brownianCorrelation(dates[:i+1], bermuda)
		prob, err := p.cdf(r, flipLast(limits[:i+1], dMinus, bermuda))
		if err != nil {
			return 0, err
		}
		term := math.Exp(-o.R*(dates[i]-tk)) * amounts[i] * prob
		if bermuda {
			val += term
		} else {
			val -= term
		}
		if byDate {
			asset, err := p.cdf(r, flipLast(limits[:i+1], dPlus, true))
			if err != nil {
				return 0, err
			}
			val -= x * math.Exp(-o.D*(dates[i]-tk)) * asset
		}
	}
	return val, nil
}

// flipLast copies the leading len(dst) entries of src into dst, negating the
// last one when flip is set.
func flipLast(dst, src []float64, flip bool) []float64 {
	copy(dst, src[:len(dst)])
	if flip {
		dst[len(dst)-1] = -dst[len(dst)-1]
	}
	return dst
}

// brownianCorrelation is corr(W_{t_i}, W_{t_j}) = sqrt(min/max); twisting flips
// the sign of the last row and column off the diagonal.
func brownianCorrelation(dates []float64, twist bool) *mat.SymDense {
	n := len(dates)
	r := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := math.Sqrt(dates[i] / dates[j])
			if twist && j == n-1 && i != j {
				v = -v
			}
			r.SetSym(i, j, v)
		}
	}
	return r
}
