package pricers

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/bcdannyboy/installment/models"
	"github.com/bcdannyboy/installment/numerics"
)

// BaroneAdesiWhaley is the quadratic approximation of the American premium.
// It is fast and accurate to about a percent, which makes it a cheap sanity
// check for the lattice and grid engines.
type BaroneAdesiWhaley struct {
	Logger *slog.Logger
}

func NewBaroneAdesiWhaley() *BaroneAdesiWhaley {
	return &BaroneAdesiWhaley{}
}

func (b *BaroneAdesiWhaley) Price(o models.Option) (Result, error) {
	switch o.Kind {
	case models.Vanilla:
		return Result{Price: models.EuropeanValue(o)}, nil
	case models.American:
	default:
		return Result{}, fmt.Errorf("%w: quadratic approximation prices american options, got %v", models.ErrWrongKind, o.Kind)
	}

	K, T, r, d, vol := o.K, o.T, o.R, o.D, o.Vola
	european := models.EuropeanValue(o)
	// early exercise is never optimal for calls without dividends or puts
	// without positive rates
	if (o.Phi == models.Call && d <= 0) || (o.Phi == models.Put && r <= 0) {
		return Result{Price: european}, nil
	}

	vol2 := vol * vol
	nn := 2 * (r - d) / vol2
	mk := 2 / (vol2 * T)
	if r != 0 {
		mk = 2 * r / vol2 / -math.Expm1(-r*T)
	}
	root := math.Sqrt((nn-1)*(nn-1) + 4*mk)
	divDisc := math.Exp(-d * T)

	var (
		critical float64
		err      error
	)
	if o.Phi == models.Put {
		q1 := 0.5 * (-(nn - 1) - root)
		f := func(x float64) float64 {
			d1 := models.D1(x, K, r, d, vol, T)
			return K - x - models.PutValue(x, K, r, d, vol, T) + (1-divDisc*numerics.NormCDF(-d1))*x/q1
		}
		critical, err = numerics.Brent(f, 1e-6*K, K, numerics.DefaultXTol, numerics.DefaultMaxIter)
		if err != nil {
			return Result{}, fmt.Errorf("critical put price: %w", err)
		}
		if o.S <= critical {
			return b.result(o, K-o.S, critical), nil
		}
		d1 := models.D1(critical, K, r, d, vol, T)
		a1 := -critical / q1 * (1 - divDisc*numerics.NormCDF(-d1))
		return b.result(o, european+a1*math.Pow(o.S/critical, q1), critical), nil
	}

	q2 := 0.5 * (-(nn - 1) + root)
	f := func(x float64) float64 {
		d1 := models.D1(x, K, r, d, vol, T)
		return x - K - models.CallValue(x, K, r, d, vol, T) - (1-divDisc*numerics.NormCDF(d1))*x/q2
	}
	hi := 2 * K
	for i := 0; f(hi) < 0 && i < 20; i++ {
		hi *= 2
	}
	critical, err = numerics.Brent(f, K, hi, numerics.DefaultXTol, numerics.DefaultMaxIter)
	if err != nil {
		return Result{}, fmt.Errorf("critical call price: %w", err)
	}
	if o.S >= critical {
		return b.result(o, o.S-K, critical), nil
	}
	d1 := models.D1(critical, K, r, d, vol, T)
	a2 := critical / q2 * (1 - divDisc*numerics.NormCDF(d1))
	return b.result(o, european+a2*math.Pow(o.S/critical, q2), critical), nil
}

func (b *BaroneAdesiWhaley) result(o models.Option, price, critical float64) Result {
	loggerOrDefault(b.Logger).Debug("quadratic approximation", "option", o, "critical", critical, "price", price)
	return Result{
		Price:            price,
		Times:            []float64{0, o.T},
		ExerciseBoundary: []float64{critical, o.K},
	}
}
