package probability

import (
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Estimate is the sample mean of discounted payoffs and its standard error.
type Estimate struct {
	Mean   float64
	StdErr float64
	N      int
}

// PairEstimate averages antithetic pairs (values[2i], values[2i+1]) before
// computing the standard error, since the two halves of a pair are not
// independent. Odd-length input is treated as independent samples.
func PairEstimate(values []float64) Estimate {
	if len(values) == 0 {
		return Estimate{}
	}
	samples := values
	if len(values)%2 == 0 {
		samples = make([]float64, len(values)/2)
		for i := range samples {
			samples[i] = 0.5 * (values[2*i] + values[2*i+1])
		}
	}
	mean, std := stat.MeanStdDev(samples, nil)
	if len(samples) < 2 {
		std = 0
	}
	return Estimate{
		Mean:   mean,
		StdErr: stat.StdErr(std, float64(len(samples))),
		N:      len(samples),
	}
}

// Interval returns the two-sided normal confidence interval at the given level.
func (e Estimate) Interval(level float64) (float64, float64) {
	z := distuv.UnitNormal.Quantile(0.5 + level/2)
	return e.Mean - z*e.StdErr, e.Mean + z*e.StdErr
}
