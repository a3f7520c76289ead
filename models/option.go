package models

import (
	"fmt"
	"math"
	"strings"
)

// Kind tags the contract variant carried by an Option.
type Kind int

const (
	Vanilla Kind = iota
	American
	ContinuousInstallment
	AmericanContinuousInstallment
	DiscreteInstallment
	Bermuda
)

func (k Kind) String() string {
	switch k {
	case Vanilla:
		return "vanilla"
	case American:
		return "american"
	case ContinuousInstallment:
		return "continuous-installment"
	case AmericanContinuousInstallment:
		return "american-continuous-installment"
	case DiscreteInstallment:
		return "discrete-installment"
	case Bermuda:
		return "bermuda"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Option signs.
const (
	Call = 1.0
	Put  = -1.0
)

// Option describes the economics of a contract under Black-Scholes. Single-strike
// kinds use K and T; DiscreteInstallment and Bermuda use Dates and Amounts,
// where the last amount is the strike paid at exercise. Q is the continuous
// installment rate per unit time.
type Option struct {
	Kind Kind

	S    float64
	R    float64
	D    float64
	Vola float64
	Phi  float64

	K float64
	T float64
	Q float64

	Dates   []float64
	Amounts []float64
}

func NewVanilla(S, K, r, d, vola, T, phi float64) (Option, error) {
	return newSingle(Vanilla, S, K, r, d, vola, T, 0, phi)
}

func NewAmerican(S, K, r, d, vola, T, phi float64) (Option, error) {
	return newSingle(American, S, K, r, d, vola, T, 0, phi)
}

func NewContinuousInstallment(S, K, r, d, vola, T, q, phi float64) (Option, error) {
	return newSingle(ContinuousInstallment, S, K, r, d, vola, T, q, phi)
}

func NewAmericanContinuousInstallment(S, K, r, d, vola, T, q, phi float64) (Option, error) {
	return newSingle(AmericanContinuousInstallment, S, K, r, d, vola, T, q, phi)
}

// NewDiscreteInstallment builds a contract paying installments[i] at dates[i];
// the final amount is the strike.
func NewDiscreteInstallment(S, r, d, vola float64, dates, installments []float64, phi float64) (Option, error) {
	return newScheduled(DiscreteInstallment, S, r, d, vola, dates, installments, phi)
}

// NewBermuda builds a contract exercisable at dates[i] for strikes[i].
func NewBermuda(S, r, d, vola float64, dates, strikes []float64, phi float64) (Option, error) {
	return newScheduled(Bermuda, S, r, d, vola, dates, strikes, phi)
}

// FlatSchedule returns n copies of v.
func FlatSchedule(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func newSingle(kind Kind, S, K, r, d, vola, T, q, phi float64) (Option, error) {
	if err := validateMarket(S, r, d, vola, phi); err != nil {
		return Option{}, err
	}
	switch {
	case !(K > 0) || math.IsInf(K, 0):
		return Option{}, fmt.Errorf("%w: strike %g must be positive", ErrInvalidContract, K)
	case !(T > 0) || math.IsInf(T, 0):
		return Option{}, fmt.Errorf("%w: maturity %g must be positive", ErrInvalidContract, T)
	case !(q >= 0) || math.IsInf(q, 0):
		return Option{}, fmt.Errorf("%w: installment rate %g must be non-negative", ErrInvalidContract, q)
	}
	return Option{Kind: kind, S: S, R: r, D: d, Vola: vola, Phi: phi, K: K, T: T, Q: q}, nil
}

func newScheduled(kind Kind, S, r, d, vola float64, dates, amounts []float64, phi float64) (Option, error) {
	if err := validateMarket(S, r, d, vola, phi); err != nil {
		return Option{}, err
	}
	if len(dates) == 0 {
		return Option{}, fmt.Errorf("%w: empty schedule", ErrInvalidContract)
	}
	if len(dates) != len(amounts) {
		return Option{}, fmt.Errorf("%w: %d dates but %d amounts", ErrInvalidContract, len(dates), len(amounts))
	}
	prev := 0.0
	for i, t := range dates {
		if !(t > prev) || math.IsInf(t, 0) {
			return Option{}, fmt.Errorf("%w: date %d (%g) must be positive and after %g", ErrInvalidContract, i, t, prev)
		}
		prev = t
	}
	for i, a := range amounts {
		if !(a >= 0) || math.IsInf(a, 0) {
			return Option{}, fmt.Errorf("%w: amount %d (%g) must be non-negative", ErrInvalidContract, i, a)
		}
	}
	if !(amounts[len(amounts)-1] > 0) {
		return Option{}, fmt.Errorf("%w: final strike must be positive", ErrInvalidContract)
	}

	o := Option{Kind: kind, S: S, R: r, D: d, Vola: vola, Phi: phi}
	o.Dates = append([]float64(nil), dates...)
	o.Amounts = append([]float64(nil), amounts...)
	return o, nil
}

func validateMarket(S, r, d, vola, phi float64) error {
	switch {
	case !(S > 0) || math.IsInf(S, 0):
		return fmt.Errorf("%w: spot %g must be positive", ErrInvalidContract, S)
	case !(vola > 0) || math.IsInf(vola, 0):
		return fmt.Errorf("%w: volatility %g must be positive", ErrInvalidContract, vola)
	case math.IsNaN(r) || math.IsInf(r, 0):
		return fmt.Errorf("%w: rate %g", ErrInvalidContract, r)
	case math.IsNaN(d) || math.IsInf(d, 0):
		return fmt.Errorf("%w: dividend yield %g", ErrInvalidContract, d)
	case phi != Call && phi != Put:
		return fmt.Errorf("%w: sign %g must be +1 or -1", ErrInvalidContract, phi)
	}
	return nil
}

// Strike is K, or the last scheduled amount.
func (o Option) Strike() float64 {
	if o.IsScheduled() {
		return o.Amounts[len(o.Amounts)-1]
	}
	return o.K
}

// Maturity is T, or the last scheduled date.
func (o Option) Maturity() float64 {
	if o.IsScheduled() {
		return o.Dates[len(o.Dates)-1]
	}
	return o.T
}

// InstallmentRate is the continuous rate q, zero for kinds without one.
func (o Option) InstallmentRate() float64 {
	if o.Kind == ContinuousInstallment || o.Kind == AmericanContinuousInstallment {
		return o.Q
	}
	return 0
}

func (o Option) IsAmerican() bool {
	return o.Kind == American || o.Kind == AmericanContinuousInstallment
}

func (o Option) HasInstallments() bool {
	switch o.Kind {
	case ContinuousInstallment, AmericanContinuousInstallment, DiscreteInstallment:
		return true
	}
	return false
}

func (o Option) IsScheduled() bool {
	return o.Kind == DiscreteInstallment || o.Kind == Bermuda
}

// WithSpot returns a copy of o priced at spot x. Schedules are shared.
func (o Option) WithSpot(x float64) Option {
	o.S = x
	return o
}

// Payoff is max(φ(x − strike), 0).
func (o Option) Payoff(x float64) float64 {
	return math.Max(o.Phi*(x-o.Strike()), 0)
}

// PayoffVec writes Payoff(xs[i]) into dst, allocating it when nil.
func (o Option) PayoffVec(dst, xs []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(xs))
	}
	k := o.Strike()
	for i, x := range xs {
		dst[i] = math.Max(o.Phi*(x-k), 0)
	}
	return dst
}

// PeriodInstallment is the amount equivalent to paying rate q continuously
// over dt, discounted to the start of the period.
func PeriodInstallment(q, r, dt float64) float64 {
	if r == 0 {
		return q * dt
	}
	return q * -math.Expm1(-r*dt) / r
}

// ContinuousToDiscrete resamples a continuous-installment option onto n equally
// spaced payment dates. The last payment is the strike.
func ContinuousToDiscrete(o Option, n int) (Option, error) {
	if o.Kind != ContinuousInstallment {
		return Option{}, fmt.Errorf("%w: cannot discretize a %v option", ErrWrongKind, o.Kind)
	}
	if n < 1 {
		return Option{}, fmt.Errorf("%w: %d installments", ErrInvalidContract, n)
	}
	dt := o.T / float64(n)
	dates := make([]float64, n)
	amounts := make([]float64, n)
	q := PeriodInstallment(o.Q, o.R, dt)
	for i := range dates {
		dates[i] = dt * float64(i+1)
		amounts[i] = q
	}
	dates[n-1] = o.T
	amounts[n-1] = o.K
	return NewDiscreteInstallment(o.S, o.R, o.D, o.Vola, dates, amounts, o.Phi)
}

func (o Option) String() string {
	side := "call"
	if o.Phi == Put {
		side = "put"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%v %s(S=%g, r=%g, d=%g, vola=%g", o.Kind, side, o.S, o.R, o.D, o.Vola)
	if o.IsScheduled() {
		fmt.Fprintf(&b, ", t=%v, K=%v)", o.Dates, o.Amounts)
		return b.String()
	}
	fmt.Fprintf(&b, ", K=%g, T=%g", o.K, o.T)
	if o.HasInstallments() {
		fmt.Fprintf(&b, ", q=%g", o.Q)
	}
	b.WriteString(")")
	return b.String()
}
