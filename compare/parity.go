package compare

import (
	"fmt"
	"math"

	"github.com/bcdannyboy/installment/models"
	"github.com/bcdannyboy/installment/pricers"
)

// ParityCheck is the outcome of pricing an installment call and its companion
// put with one engine.
type ParityCheck struct {
	Engine   string  `json:"engine"`
	Call     float64 `json:"call"`
	Put      float64 `json:"put"`
	Paid     float64 `json:"paid"`
	Residual float64 `json:"residual"`
}

// InstallmentsPaid is the present value of everything the holder of the
// installment call pays when never stopping, strike included.
func InstallmentsPaid(call models.Option) float64 {
	if call.Kind == models.DiscreteInstallment {
		var pv float64
		for i, t := range call.Dates {
			pv += call.Amounts[i] * math.Exp(-call.R*t)
		}
		return pv
	}
	return call.K*math.Exp(-call.R*call.T) + models.PeriodInstallment(call.Q, call.R, call.T)
}

// Parity is put + S·e^{−dT} − call − paid for the installment call o.
func Parity(callPrice, putPrice float64, o models.Option) float64 {
	return putPrice + o.S*math.Exp(-o.D*o.Maturity()) - callPrice - InstallmentsPaid(o)
}

// Companion returns the put tied to the installment call by parity. A
// discrete schedule maps to the Bermuda put struck at the present value of
// the installments still due; a continuous rate maps to the American put,
// for which the identity is exact when q = rK and d = 0.
func Companion(call models.Option) (models.Option, error) {
	if call.Phi != models.Call {
		return models.Option{}, fmt.Errorf("%w: companion of %v", models.ErrWrongKind, call)
	}
	switch call.Kind {
	case models.DiscreteInstallment:
		n := len(call.Dates)
		strikes := make([]float64, n)
		strikes[n-1] = call.Amounts[n-1]
		for i := n - 2; i >= 0; i-- {
			strikes[i] = call.Amounts[i] + strikes[i+1]*math.Exp(-call.R*(call.Dates[i+1]-call.Dates[i]))
		}
		return models.NewBermuda(call.S, call.R, call.D, call.Vola, call.Dates, strikes, models.Put)
	case models.ContinuousInstallment:
		return models.NewAmerican(call.S, call.K, call.R, call.D, call.Vola, call.T, models.Put)
	}
	return models.Option{}, fmt.Errorf("%w: companion of %v", models.ErrWrongKind, call)
}

// InterestCall is the installment call paying interest on the strike at n
// equally spaced dates and the strike itself at maturity.
func InterestCall(S, K, r, d, vola, T float64, n int) (models.Option, error) {
	if n < 1 {
		return models.Option{}, fmt.Errorf("%w: %d installments", models.ErrInvalidContract, n)
	}
	dt := T / float64(n)
	dates := make([]float64, n)
	amounts := make([]float64, n)
	for i := range dates {
		dates[i] = dt * float64(i+1)
		amounts[i] = K * -math.Expm1(-r*dt)
	}
	dates[n-1], amounts[n-1] = T, K
	return models.NewDiscreteInstallment(S, r, d, vola, dates, amounts, models.Call)
}

// CheckParity prices the installment call and its companion put with p.
func CheckParity(name string, p pricers.Pricer, call models.Option) (ParityCheck, error) {
	put, err := Companion(call)
	if err != nil {
		return ParityCheck{}, err
	}
	c, err := p.Price(call)
	if err != nil {
		return ParityCheck{}, fmt.Errorf("%s call: %w", name, err)
	}
	pp, err := p.Price(put)
	if err != nil {
		return ParityCheck{}, fmt.Errorf("%s put: %w", name, err)
	}
	return ParityCheck{
		Engine:   name,
		Call:     c.Price,
		Put:      pp.Price,
		Paid:     InstallmentsPaid(call),
		Residual: Parity(c.Price, pp.Price, call),
	}, nil
}
