package numerics

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// NormCDF is the standard normal distribution function.
func NormCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormPDF is the standard normal density.
func NormPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}

// NormQuantile is the inverse of NormCDF.
func NormQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// Gauss-Legendre half-rules (weights, abscissae) for the bivariate integrand.
var bvnRules = [3]struct{ w, x []float64 }{
	{
		w: []float64{0.1713244923791705, 0.3607615730481384, 0.4679139345726904},
		x: []float64{0.9324695142031522, 0.6612093864662647, 0.2386191860831970},
	},
	{
		w: []float64{0.04717533638651177, 0.1069393259953183, 0.1600783285433464,
			0.2031674267230659, 0.2334925365383547, 0.2491470458134029},
		x: []float64{0.9815606342467191, 0.9041172563704750, 0.7699026741943050,
			0.5873179542866171, 0.3678314989981802, 0.1252334085114692},
	},
	{
		w: []float64{0.01761400713915212, 0.04060142980038694, 0.06267204833410906,
			0.08327674157670475, 0.1019301198172404, 0.1181945319615184,
			0.1316886384491766, 0.1420961093183821, 0.1491729864726037,
			0.1527533871307259},
		x: []float64{0.9931285991850949, 0.9639719272779138, 0.9122344282513259,
			0.8391169718222188, 0.7463319064601508, 0.6360536807265150,
			0.5108670019508271, 0.3737060887154196, 0.2277858511416451,
			0.07652652113349733},
	},
}

// BivariateNormalCDF returns P(X ≤ h, Y ≤ k) for standard normals with
// correlation rho, following Genz's refinement of the Drezner-Wesolowsky method.
func BivariateNormalCDF(h, k, rho float64) float64 {
	switch {
	case math.IsInf(h, -1) || math.IsInf(k, -1):
		return 0
	case math.IsInf(h, 1):
		return NormCDF(k)
	case math.IsInf(k, 1):
		return NormCDF(h)
	case rho >= 1:
		return NormCDF(math.Min(h, k))
	case rho <= -1:
		return math.Max(0, NormCDF(h)-NormCDF(-k))
	}
	return bvnUpper(-h, -k, rho)
}

// bvnUpper is P(X > h, Y > k).
func bvnUpper(h, k, r float64) float64 {
	rule := bvnRules[2]
	switch {
	case math.Abs(r) < 0.3:
		rule = bvnRules[0]
	case math.Abs(r) < 0.75:
		rule = bvnRules[1]
	}
	hk := h * k
	bvn := 0.0

	if math.Abs(r) < 0.925 {
		hs := (h*h + k*k) / 2
		asr := math.Asin(r)
		for i := range rule.x {
			for _, s := range [2]float64{-1, 1} {
				sn := math.Sin(asr * (1 + s*rule.x[i]) / 2)
				bvn += rule.w[i] * math.Exp((sn*hk-hs)/(1-sn*sn))
			}
		}
		return clamp01(bvn*asr/(4*math.Pi) + NormCDF(-h)*NormCDF(-k))
	}

	if r < 0 {
		k = -k
		hk = -hk
	}
	if math.Abs(r) < 1 {
		as := (1 - r) * (1 + r)
		a := math.Sqrt(as)
		bs := (h - k) * (h - k)
		c := (4 - hk) / 8
		d := (12 - hk) / 16
		asr := -(bs/as + hk) / 2
		if asr > -100 {
			bvn = a * math.Exp(asr) * (1 - c*(bs-as)*(1-d*bs/5)/3 + c*d*as*as/5)
		}
		if -hk < 100 {
			b := math.Sqrt(bs)
			bvn -= math.Exp(-hk/2) * math.Sqrt(2*math.Pi) * NormCDF(-b/a) * b * (1 - c*bs*(1-d*bs/5)/3)
		}
		a /= 2
		for i := range rule.x {
			for _, s := range [2]float64{-1, 1} {
				xs := a * (s*rule.x[i] + 1)
				xs *= xs
				rs := math.Sqrt(1 - xs)
				asr = -(bs/xs + hk) / 2
				if asr > -100 {
					bvn += a * rule.w[i] * math.Exp(asr) *
						(math.Exp(-hk*(1-rs)/(2*(1+rs)))/rs - (1 + c*xs*(1+d*xs)))
				}
			}
		}
		bvn = -bvn / (2 * math.Pi)
	}
	switch {
	case r > 0:
		bvn += NormCDF(-math.Max(h, k))
	case h >= k:
		bvn = -bvn
	default:
		var l float64
		if h < 0 {
			l = NormCDF(k) - NormCDF(h)
		} else {
			l = NormCDF(-h) - NormCDF(-k)
		}
		bvn = l - bvn
	}
	return clamp01(bvn)
}

func clamp01(p float64) float64 {
	return math.Max(0, math.Min(1, p))
}
