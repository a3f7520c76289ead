package numerics

import (
	"fmt"
	"math"
)

const (
	DefaultXTol    = 1e-12
	DefaultMaxIter = 100

	relTol = 4 * 2.220446049250313e-16
)

// ExpandBracket searches for a sign change of f on [(1-a)g, (1+a)g] with
// a = step, 2·step, ..., maxSteps·step around the guess g.
func ExpandBracket(f func(float64) float64, guess, step float64, maxSteps int) (float64, float64, error) {
	if step <= 0 || maxSteps < 1 {
		return 0, 0, fmt.Errorf("bracket: invalid step %g / budget %d", step, maxSteps)
	}
	for k := 1; k <= maxSteps; k++ {
		a := step * float64(k)
		lo, hi := (1-a)*guess, (1+a)*guess
		flo, fhi := f(lo), f(hi)
		if math.IsNaN(flo) || math.IsNaN(fhi) {
			return 0, 0, fmt.Errorf("%w: objective is NaN on [%g, %g]", ErrNonConvergence, lo, hi)
		}
		if flo*fhi <= 0 {
			return lo, hi, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: no sign change within ±%.0f%% of %g", ErrNonConvergence, 100*step*float64(maxSteps), guess)
}

// Brent finds a root of f in [xa, xb] with Brent's method. f(xa) and f(xb)
// must differ in sign.
func Brent(f func(float64) float64, xa, xb, xtol float64, maxIter int) (float64, error) {
	if xtol <= 0 {
		xtol = DefaultXTol
	}
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}

	xpre, xcur := xa, xb
	fpre, fcur := f(xpre), f(xcur)
	if math.IsNaN(fpre) || math.IsNaN(fcur) {
		return math.NaN(), fmt.Errorf("%w: objective is NaN at bracket ends", ErrNonConvergence)
	}
	if fpre == 0 {
		return xpre, nil
	}
	if fcur == 0 {
		return xcur, nil
	}
	if math.Signbit(fpre) == math.Signbit(fcur) {
		return math.NaN(), fmt.Errorf("%w: f(%g)=%g and f(%g)=%g have the same sign", ErrNonConvergence, xa, fpre, xb, fcur)
	}

	var xblk, fblk, spre, scur float64
	for i := 0; i < maxIter; i++ {
		if fpre != 0 && fcur != 0 && math.Signbit(fpre) != math.Signbit(fcur) {
			xblk, fblk = xpre, fpre
			spre = xcur - xpre
			scur = spre
		}
		if math.Abs(fblk) < math.Abs(fcur) {
			xpre, xcur, xblk = xcur, xblk, xcur
			fpre, fcur, fblk = fcur, fblk, fcur
		}

		delta := (xtol + relTol*math.Abs(xcur)) / 2
		sbis := (xblk - xcur) / 2
		if fcur == 0 || math.Abs(sbis) < delta {
			return xcur, nil
		}

		if math.Abs(spre) > delta && math.Abs(fcur) < math.Abs(fpre) {
			var stry float64
			if xpre == xblk {
				// secant
				stry = -fcur * (xcur - xpre) / (fcur - fpre)
			} else {
				// inverse quadratic
				dpre := (fpre - fcur) / (xpre - xcur)
				dblk := (fblk - fcur) / (xblk - xcur)
				stry = -fcur * (fblk*dblk - fpre*dpre) / (dblk * dpre * (fblk - fpre))
			}
			if 2*math.Abs(stry) < math.Min(math.Abs(spre), 3*math.Abs(sbis)-delta) {
				spre, scur = scur, stry
			} else {
				spre, scur = sbis, sbis
			}
		} else {
			spre, scur = sbis, sbis
		}

		xpre, fpre = xcur, fcur
		if math.Abs(scur) > delta {
			xcur += scur
		} else if sbis > 0 {
			xcur += delta
		} else {
			xcur -= delta
		}
		fcur = f(xcur)
		if math.IsNaN(fcur) {
			return math.NaN(), fmt.Errorf("%w: objective is NaN at %g", ErrNonConvergence, xcur)
		}
	}
	return xcur, fmt.Errorf("%w: brent did not converge in %d iterations", ErrNonConvergence, maxIter)
}
