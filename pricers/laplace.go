package pricers

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/bcdannyboy/installment/models"
	"github.com/bcdannyboy/installment/numerics"
)

// Laplace prices continuous-installment options from the closed-form Laplace
// transform of the value in time to maturity (Kimura), inverted numerically
// with the Gaver-Stehfest algorithm.
type Laplace struct {
	// Terms is the Gaver-Stehfest order; each inversion costs 2·Terms
	// transform evaluations.
	Terms int
	// BoundaryPoints is the number of intervals of the reported stop boundary.
	BoundaryPoints int
	Logger         *slog.Logger
}

func NewLaplace() *Laplace {
	return &Laplace{Terms: 7, BoundaryPoints: 20}
}

func (l *Laplace) Price(o models.Option) (Result, error) {
	if o.Kind != models.ContinuousInstallment && o.Kind != models.Vanilla {
		return Result{}, fmt.Errorf("%w: laplace pricer handles continuous installments, got %v", models.ErrWrongKind, o.Kind)
	}
	if l.Terms < 1 || l.BoundaryPoints < 1 {
		return Result{}, fmt.Errorf("%w: laplace terms %d, boundary points %d", ErrInvalidConfig, l.Terms, l.BoundaryPoints)
	}
	if o.Kind == models.Vanilla || o.Q == 0 {
		return Result{Price: l.VanillaValue(o)}, nil
	}

	tr := newTransform(o)
	price := numerics.GaverStehfest(tr.value, o.T, l.Terms)
	res := Result{
		Price:        price,
		Times:        timeGrid(o.T, l.BoundaryPoints),
		StopBoundary: make([]float64, l.BoundaryPoints+1),
	}
	for i, t := range res.Times[:l.BoundaryPoints] {
		res.StopBoundary[i] = l.StopBoundaryAt(o, o.T-t)
	}
	res.StopBoundary[l.BoundaryPoints] = o.K
	loggerOrDefault(l.Logger).Debug("laplace price", "option", o, "price", price, "terms", l.Terms)
	return res, nil
}

// StopBoundaryAt inverts the transformed stop boundary at time to maturity tau.
func (l *Laplace) StopBoundaryAt(o models.Option, tau float64) float64 {
	return numerics.GaverStehfest(newTransform(o).stop, tau, l.Terms)
}

// VanillaValue inverts the transform of the European value; it reproduces
// models.EuropeanValue up to the inversion error.
func (l *Laplace) VanillaValue(o models.Option) float64 {
	return numerics.GaverStehfest(newTransform(o).vanilla, o.Maturity(), l.Terms)
}

// transform holds the Laplace-Carson transforms (λ times the ordinary
// transform) of the contract's value and stop boundary.
type transform struct {
	o models.Option
	k float64
}

func newTransform(o models.Option) transform {
	return transform{o: o, k: o.Strike()}
}

// roots returns θ0 > 0 > θ1 of ½σ²θ² + (r−d−½σ²)θ − (λ+r) = 0.
func (t transform) roots(lambda float64) (float64, float64) {
	a := 0.5 * t.o.Vola * t.o.Vola
	b := t.o.R - t.o.D - a
	c := -(lambda + t.o.R)
	disc := math.Sqrt(b*b - 4*a*c)
	return (-b + disc) / (2 * a), (-b - disc) / (2 * a)
}

func (t transform) stop(lambda float64) float64 {
	o := t.o
	th0, th1 := t.roots(lambda)
	num := 2 * (lambda + o.D) * o.Q
	if o.Phi == models.Call {
		return math.Pow(num/(lambda*(1-th1)*t.k*o.Vola*o.Vola), 1/th0) * t.k
	}
	return math.Pow(num/(lambda*(th0-1)*t.k*o.Vola*o.Vola), 1/th1) * t.k
}

func (t transform) vanilla(lambda float64) float64 {
	o := t.o
	th := [2]float64{}
	th[0], th[1] = t.roots(lambda)
	xi := func(i int) float64 {
		v := t.k * lambda / (th[0] - th[1]) / (lambda + o.D)
		v *= 1 - (o.R-o.D)/(lambda+o.R)*th[1-i]
		return v * math.Pow(o.S/t.k, th[i])
	}
	fwd := o.Phi * (lambda*o.S/(lambda+o.D) - lambda*t.k/(lambda+o.R))
	below := o.S < t.k
	switch {
	case o.Phi == models.Call && below:
		return xi(0)
	case o.Phi == models.Call:
		return xi(1) + fwd
	case below:
		return xi(0) + fwd
	default:
		return xi(1)
	}
}

func (t transform) value(lambda float64) float64 {
	o := t.o
	s := t.stop(lambda)
	if !(o.Phi*o.S > o.Phi*s) {
		return 0
	}
	v := t.vanilla(lambda)
	if o.Q == 0 {
		return v
	}
	th0, th1 := t.roots(lambda)
	v -= o.Q / (lambda + o.R)
	if o.Phi == models.Call {
		v += o.Q * th0 * math.Pow(o.S/s, th1) / (lambda + o.R) / (th0 - th1)
	} else {
		v -= o.Q * th1 * math.Pow(o.S/s, th0) / (lambda + o.R) / (th0 - th1)
	}
	return v
}
