package numerics

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/mat"
)

// ErrNotBrownian is returned by BrownianChain for correlation matrices that do
// not describe signed observations of one Brownian motion.
var ErrNotBrownian = errors.New("correlation is not a Brownian observation chain")

// MVN evaluates P(X_1 ≤ b_1, ..., X_n ≤ b_n) for a standard normal vector X with
// correlation matrix r.
type MVN interface {
	CDF(r mat.Symmetric, b []float64) (float64, error)
}

var (
	defaultChain = NewBrownianChain()
	defaultGenz  = NewGenz()
)

// MVNCDF dispatches on the dimension: the univariate and bivariate cases are
// evaluated in closed form, higher dimensions go through the Brownian chain
// integrator and fall back to Genz's lattice rule for general matrices.
func MVNCDF(r mat.Symmetric, b []float64) (float64, error) {
	if err := checkDims(r, b); err != nil {
		return 0, err
	}
	switch len(b) {
	case 1:
		return NormCDF(b[0]), nil
	case 2:
		return BivariateNormalCDF(b[0], b[1], r.At(0, 1)), nil
	}
	p, err := defaultChain.CDF(r, b)
	if errors.Is(err, ErrNotBrownian) {
		return defaultGenz.CDF(r, b)
	}
	return p, err
}

func checkDims(r mat.Symmetric, b []float64) error {
	if len(b) == 0 {
		return errors.New("mvn: empty limit vector")
	}
	if n := r.SymmetricDim(); n != len(b) {
		return fmt.Errorf("mvn: %d×%d correlation for %d limits", n, n, len(b))
	}
	return nil
}

// BrownianChain integrates the normal CDF exactly (up to quadrature error) when
// r[i][j] = ε_i ε_j sqrt(s_min/s_max) for increasing observation times s and
// signs ε. The event ε_i X_i ≤ b_i becomes a one-sided constraint on the path
// W at time s_i, and the density of W is propagated date by date with
// Gauss-Legendre panels.
type BrownianChain struct {
	// PanelPoints is the Gauss-Legendre order per panel.
	PanelPoints int
	// PanelWidth is the panel width in units of the smallest time-step deviation.
	PanelWidth float64
	// Span truncates the state space at ±Span standard deviations.
	Span float64
	// Tol is the admissible deviation from the chain structure.
	Tol float64
	// MaxNodes bounds the quadrature grid; larger problems report ErrNotBrownian.
	MaxNodes int
}

func NewBrownianChain() BrownianChain {
	return BrownianChain{
		PanelPoints: 6,
		PanelWidth:  0.5,
		Span:        8,
		Tol:         1e-10,
		MaxNodes:    4096,
	}
}

func (c BrownianChain) CDF(r mat.Symmetric, b []float64) (float64, error) {
	if err := checkDims(r, b); err != nil {
		return 0, err
	}
	n := len(b)
	s, sign, ok := chainTimes(r, c.Tol)
	if !ok {
		return 0, ErrNotBrownian
	}
	if n == 1 {
		return NormCDF(b[0]), nil
	}

	// constraint W(s_i) ≤ lim_i when upper[i], W(s_i) ≥ lim_i otherwise
	lim := make([]float64, n)
	upper := make([]bool, n)
	step := make([]float64, n)
	minStep := math.Inf(1)
	for i := range b {
		lim[i] = sign[i] * b[i] * math.Sqrt(s[i])
		upper[i] = sign[i] > 0
		step[i] = s[i]
		if i > 0 {
			step[i] = s[i] - s[i-1]
		}
		minStep = math.Min(minStep, step[i])
	}
	h := c.PanelWidth * math.Sqrt(minStep)

	region := func(i int) (float64, float64) {
		w := c.Span * math.Sqrt(s[i])
		lo, hi := -w, w
		if upper[i] {
			hi = math.Min(hi, lim[i])
		} else {
			lo = math.Max(lo, lim[i])
		}
		return lo, hi
	}

	lo, hi := region(0)
	if !(lo < hi) {
		return 0, nil
	}
	xs, ws, err := c.nodes(lo, hi, h)
	if err != nil {
		return 0, err
	}
	dens := make([]float64, len(xs))
	for j, x := range xs {
		dens[j] = gaussian(x, step[0]) * ws[j]
	}

	for i := 1; i < n-1; i++ {
		lo, hi = region(i)
		if !(lo < hi) {
			return 0, nil
		}
		ys, vs, err := c.nodes(lo, hi, h)
		if err != nil {
			return 0, err
		}
		next := make([]float64, len(ys))
		for k, y := range ys {
			var acc float64
			for j, x := range xs {
				acc += dens[j] * gaussian(y-x, step[i])
			}
			next[k] = acc * vs[k]
		}
		xs, dens = ys, next
	}

	sd := math.Sqrt(step[n-1])
	var p float64
	for j, x := range xs {
		tail := NormCDF((lim[n-1] - x) / sd)
		if !upper[n-1] {
			tail = NormCDF((x - lim[n-1]) / sd)
		}
		p += dens[j] * tail
	}
	return clamp01(p), nil
}

// nodes lays composite Gauss-Legendre panels of width at most h over [lo, hi].
func (c BrownianChain) nodes(lo, hi, h float64) ([]float64, []float64, error) {
	panels := int(math.Ceil((hi - lo) / h))
	if panels < 1 {
		panels = 1
	}
	if panels*c.PanelPoints > c.MaxNodes {
		return nil, nil, fmt.Errorf("%w: %d quadrature nodes", ErrNotBrownian, panels*c.PanelPoints)
	}
	width := (hi - lo) / float64(panels)
	xs := make([]float64, panels*c.PanelPoints)
	ws := make([]float64, panels*c.PanelPoints)
	for p := 0; p < panels; p++ {
		a := lo + float64(p)*width
		off := p * c.PanelPoints
		quad.Legendre{}.FixedLocations(xs[off:off+c.PanelPoints], ws[off:off+c.PanelPoints], a, a+width)
	}
	return xs, ws, nil
}

// chainTimes recovers the observation times (scaled so the last is 1) and the
// signs from the last column of r and checks every entry against them.
func chainTimes(r mat.Symmetric, tol float64) ([]float64, []float64, bool) {
	n := r.SymmetricDim()
	if math.Abs(r.At(n-1, n-1)-1) > tol {
		return nil, nil, false
	}
	s := make([]float64, n)
	sign := make([]float64, n)
	for i := 0; i < n; i++ {
		v := r.At(i, n-1)
		s[i] = v * v
		sign[i] = 1
		if v < 0 {
			sign[i] = -1
		}
		if s[i] <= 0 || (i > 0 && s[i] <= s[i-1]) {
			return nil, nil, false
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			want := sign[i] * sign[j] * math.Sqrt(s[j]/s[i])
			if math.Abs(r.At(i, j)-want) > tol {
				return nil, nil, false
			}
		}
	}
	return s, sign, true
}

func gaussian(x, variance float64) float64 {
	return math.Exp(-x*x/(2*variance)) / math.Sqrt(2*math.Pi*variance)
}

// Genz is the randomized Richtmyer lattice rule over Genz's sequential
// conditioning transform. It is deterministic for a fixed Seed.
type Genz struct {
	Points int
	Shifts int
	Seed   uint64
}

func NewGenz() Genz {
	return Genz{Points: 2000, Shifts: 12, Seed: 1}
}

func (g Genz) CDF(r mat.Symmetric, b []float64) (float64, error) {
	if err := checkDims(r, b); err != nil {
		return 0, err
	}
	n := len(b)
	var chol mat.Cholesky
	if ok := chol.Factorize(r); !ok {
		return 0, ErrNotPositiveDefinite
	}
	var l mat.TriDense
	chol.LTo(&l)
	if n == 1 {
		return NormCDF(b[0] / l.At(0, 0)), nil
	}

	roots := make([]float64, n-1)
	for i, p := range primes(n - 1) {
		roots[i] = math.Sqrt(float64(p))
	}
	rng := rand.New(rand.NewSource(g.Seed))
	shift := make([]float64, n-1)
	y := make([]float64, n-1)
	e1 := NormCDF(b[0] / l.At(0, 0))

	var total float64
	for s := 0; s < g.Shifts; s++ {
		for i := range shift {
			shift[i] = rng.Float64()
		}
		var acc float64
		for k := 1; k <= g.Points; k++ {
			e, f := e1, e1
			for i := 1; i < n; i++ {
				u := float64(k)*roots[i-1] + shift[i-1]
				u -= math.Floor(u)
				u = math.Abs(2*u - 1)
				y[i-1] = NormQuantile(math.Min(math.Max(u*e, 1e-300), 1-1e-16))
				var dot float64
				for j := 0; j < i; j++ {
					dot += l.At(i, j) * y[j]
				}
				e = NormCDF((b[i] - dot) / l.At(i, i))
				f *= e
			}
			acc += f
		}
		total += acc / float64(g.Points)
	}
	return clamp01(total / float64(g.Shifts)), nil
}

func primes(n int) []int {
	out := make([]int, 0, n)
	for c := 2; len(out) < n; c++ {
		prime := true
		for _, p := range out {
			if p*p > c {
				break
			}
			if c%p == 0 {
				prime = false
				break
			}
		}
		if prime {
			out = append(out, c)
		}
	}
	return out
}
