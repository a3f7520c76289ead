package pricers

import (
	"fmt"
	"log/slog"

	"github.com/bcdannyboy/installment/models"
	"github.com/bcdannyboy/installment/numerics"
)

// ExtrapolationMethod selects how the discrete prices are carried to the
// continuous limit.
type ExtrapolationMethod int

const (
	// ExtrapolatePoly fits a least-squares cubic in 1/k and evaluates it at 0.
	ExtrapolatePoly ExtrapolationMethod = iota
	// ExtrapolateRichardson combines the prices with Salzer weights.
	ExtrapolateRichardson
)

func (m ExtrapolationMethod) String() string {
	switch m {
	case ExtrapolatePoly:
		return "poly"
	case ExtrapolateRichardson:
		return "richardson"
	default:
		return fmt.Sprintf("ExtrapolationMethod(%d)", int(m))
	}
}

// Extrapolation prices a continuous-installment call from the same contract
// paid in k = 1..Intervals equal installments, k = 1 being the European call.
type Extrapolation struct {
	Intervals int
	Method    ExtrapolationMethod
	Discrete  *Discrete
	Logger    *slog.Logger
}

func NewExtrapolation() *Extrapolation {
	return &Extrapolation{
		Intervals: 5,
		Method:    ExtrapolatePoly,
		Discrete:  NewDiscrete(),
	}
}

func (e *Extrapolation) Price(o models.Option) (Result, error) {
	if o.Kind != models.ContinuousInstallment || o.Phi != models.Call {
		return Result{}, fmt.Errorf("%w: extrapolation prices continuous-installment calls, got %v", models.ErrWrongKind, o)
	}
	if e.Intervals < 2 {
		return Result{}, fmt.Errorf("%w: extrapolation needs at least 2 intervals, got %d", ErrInvalidConfig, e.Intervals)
	}
	disc := e.Discrete
	if disc == nil {
		disc = NewDiscrete()
	}

	n := e.Intervals
	inv := make([]float64, n)
	prices := make([]float64, n)
	inv[0], prices[0] = 1, models.EuropeanValue(o)
	var last Result
	for k := 2; k <= n; k++ {
		d, err := models.ContinuousToDiscrete(o, k)
		if err != nil {
			return Result{}, err
		}
		if last, err = disc.Price(d); err != nil {
			return Result{}, fmt.Errorf("extrapolation with %d installments: %w", k, err)
		}
		inv[k-1], prices[k-1] = 1/float64(k), last.Price
	}

	var price float64
	switch e.Method {
	case ExtrapolatePoly:
		degree := 3
		if n-1 < degree {
			degree = n - 1
		}
		fit, err := numerics.FitLeastSquares(numerics.Power, degree, inv, prices)
		if err != nil {
			return Result{}, fmt.Errorf("extrapolation fit: %w", err)
		}
		price = fit.Predict(0)
	case ExtrapolateRichardson:
		for k := 1; k <= n; k++ {
			price += numerics.SalzerWeight(k, n) * prices[k-1]
		}
	default:
		return Result{}, fmt.Errorf("%w: unknown extrapolation method %v", ErrInvalidConfig, e.Method)
	}
	loggerOrDefault(e.Logger).Debug("extrapolation", "option", o, "method", e.Method, "prices", prices, "price", price)

	return Result{
		Price:        price,
		Times:        last.Times,
		StopBoundary: last.StopBoundary,
	}, nil
}
