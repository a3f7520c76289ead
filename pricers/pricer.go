package pricers

import (
	"errors"
	"log/slog"
	"math"

	"github.com/bcdannyboy/installment/models"
	"gonum.org/v1/gonum/floats"
)

var (
	// ErrInvalidConfig is returned for tunables outside their admissible range.
	ErrInvalidConfig = errors.New("invalid pricer configuration")

	// ErrUnstableLattice is returned when the risk-neutral probability of the
	// binomial tree leaves (0, 1).
	ErrUnstableLattice = errors.New("unstable binomial lattice")
)

// Result is a price together with the free boundaries found on the way. The
// boundaries are ordered by calendar time and aligned with Times; a nil slice
// means the contract has no such boundary.
type Result struct {
	Price            float64
	StopBoundary     []float64
	ExerciseBoundary []float64
	Times            []float64

	// StdErr is the Monte Carlo standard error; zero for deterministic engines.
	StdErr float64
	Delta  float64
	Gamma  float64
}

// Pricer is implemented by every engine.
type Pricer interface {
	Price(o models.Option) (Result, error)
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// boundary records one critical price per time level. Within a level the
// extremal event price wins (the highest when highest is set); a level without
// events carries the value of the level after it.
type boundary struct {
	values  []float64
	highest bool
	seen    bool
}

func newBoundary(levels int, terminal float64, highest bool) *boundary {
	b := &boundary{values: make([]float64, levels), highest: highest}
	b.values[levels-1] = terminal
	return b
}

func (b *boundary) mark(level int, x float64) {
	switch {
	case !b.seen:
		b.values[level] = x
		b.seen = true
	case b.highest:
		b.values[level] = math.Max(b.values[level], x)
	default:
		b.values[level] = math.Min(b.values[level], x)
	}
}

func (b *boundary) close(level int) {
	if !b.seen {
		b.values[level] = b.values[level+1]
	}
	b.seen = false
}

// exerciseHighest and stopHighest give the direction of the extremal rule:
// puts are exercised below the boundary and calls above it, installment calls
// are abandoned below the stop boundary and puts above it.
func exerciseHighest(o models.Option) bool { return o.Phi == models.Put }

func stopHighest(o models.Option) bool { return o.Phi == models.Call }

// scheduleSteps maps every date but the last onto the nearest of steps uniform
// time steps over the maturity. The returned map is keyed by step; dates that
// round to the same step share it.
func scheduleSteps(o models.Option, steps int) map[int][]int {
	if !o.IsScheduled() {
		return nil
	}
	dt := o.Maturity() / float64(steps)
	events := make(map[int][]int, len(o.Dates)-1)
	for i := 0; i < len(o.Dates)-1; i++ {
		n := int(math.Round(o.Dates[i] / dt))
		if n >= steps {
			n = steps - 1
		}
		events[n] = append(events[n], i)
	}
	return events
}

// eventAmount is the total installment due on a step, or for a Bermuda option
// the strike of the most valuable exercise among the dates sharing it.
func eventAmount(o models.Option, dates []int) float64 {
	if o.Kind != models.Bermuda {
		var sum float64
		for _, i := range dates {
			sum += o.Amounts[i]
		}
		return sum
	}
	best := o.Amounts[dates[0]]
	for _, i := range dates[1:] {
		if k := o.Amounts[i]; o.Phi*k < o.Phi*best {
			best = k
		}
	}
	return best
}

func timeGrid(T float64, steps int) []float64 {
	return floats.Span(make([]float64, steps+1), 0, T)
}
