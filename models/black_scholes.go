package models

import (
	"fmt"
	"math"

	"github.com/bcdannyboy/installment/numerics"
)

const (
	maxIterations = 100
	epsilon       = 1e-8
)

// BSMResult holds a Black-Scholes-Merton value and its sensitivities.
type BSMResult struct {
	Price float64
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
}

func D1(S, K, r, d, vola, tau float64) float64 {
	return (math.Log(S/K) + (r-d+0.5*vola*vola)*tau) / (vola * math.Sqrt(tau))
}

func D2FromD1(d1, vola, tau float64) float64 {
	return d1 - vola*math.Sqrt(tau)
}

func D2(S, K, r, d, vola, tau float64) float64 {
	return D2FromD1(D1(S, K, r, d, vola, tau), vola, tau)
}

// Value is the European price φSe^{-dτ}Φ(φd1) − φKe^{-rτ}Φ(φd2). It is not
// defined for τ = 0.
func Value(S, K, r, d, vola, tau, phi float64) float64 {
	d1 := D1(S, K, r, d, vola, tau)
	d2 := D2FromD1(d1, vola, tau)
	return phi*S*math.Exp(-d*tau)*numerics.NormCDF(phi*d1) - phi*K*math.Exp(-r*tau)*numerics.NormCDF(phi*d2)
}

func CallValue(S, K, r, d, vola, tau float64) float64 {
	return Value(S, K, r, d, vola, tau, Call)
}

func PutValue(S, K, r, d, vola, tau float64) float64 {
	return Value(S, K, r, d, vola, tau, Put)
}

// EuropeanValue prices the European contract with o's spot, strike and maturity.
func EuropeanValue(o Option) float64 {
	return Value(o.S, o.Strike(), o.R, o.D, o.Vola, o.Maturity(), o.Phi)
}

func Greeks(S, K, r, d, vola, tau, phi float64) BSMResult {
	sqrtT := math.Sqrt(tau)
	d1 := D1(S, K, r, d, vola, tau)
	d2 := D2FromD1(d1, vola, tau)
	divDisc := math.Exp(-d * tau)
	disc := math.Exp(-r * tau)
	pdf := numerics.NormPDF(d1)

	nd1 := numerics.NormCDF(phi * d1)
	nd2 := numerics.NormCDF(phi * d2)

	return BSMResult{
		Price: phi*S*divDisc*nd1 - phi*K*disc*nd2,
		Delta: phi * divDisc * nd1,
		Gamma: divDisc * pdf / (S * vola * sqrtT),
		Theta: -S*divDisc*pdf*vola/(2*sqrtT) - phi*r*K*disc*nd2 + phi*d*S*divDisc*nd1,
		Vega:  S * divDisc * pdf * sqrtT,
		Rho:   phi * K * tau * disc * nd2,
	}
}

// ImpliedVolatility inverts Value for σ by Newton's method started at 0.5.
func ImpliedVolatility(target, S, K, r, d, tau, phi float64) (float64, error) {
	lower := math.Max(phi*(S*math.Exp(-d*tau)-K*math.Exp(-r*tau)), 0)
	upper := S * math.Exp(-d*tau)
	if phi == Put {
		upper = K * math.Exp(-r*tau)
	}
	if !(target > lower) || !(target < upper) {
		return math.NaN(), fmt.Errorf("%w: price %g outside no-arbitrage bounds (%g, %g)", numerics.ErrNonConvergence, target, lower, upper)
	}

	sigma := 0.5
	for i := 0; i < maxIterations; i++ {
		g := Greeks(S, K, r, d, sigma, tau, phi)
		diff := g.Price - target
		if math.Abs(diff) < epsilon {
			return sigma, nil
		}
		if g.Vega < 1e-12 {
			break
		}
		next := sigma - diff/g.Vega
		if next <= 0 {
			next = sigma / 2
		}
		sigma = next
	}
	return math.NaN(), fmt.Errorf("%w: implied volatility for price %g", numerics.ErrNonConvergence, target)
}
