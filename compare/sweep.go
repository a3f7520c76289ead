package compare

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/bcdannyboy/installment/models"
	"github.com/bcdannyboy/installment/pricers"
	mpb "github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
	"golang.org/x/sync/errgroup"
)

// Engine is a named pricer taking part in a sweep.
type Engine struct {
	Name   string
	Pricer pricers.Pricer
}

// Quote is one engine's answer for one option. Err is set when the engine
// failed; Skipped when it does not price the option's kind at all.
type Quote struct {
	Engine   string
	Price    float64
	StdErr   float64
	Elapsed  time.Duration
	Skipped  bool
	Err      error
	Boundary []float64
}

// Row holds every engine's quote for one option, in engine order.
type Row struct {
	Option models.Option
	Quotes []Quote
}

// Sweeper prices a set of options with a set of engines concurrently.
type Sweeper struct {
	Workers int
	// Progress receives the progress bar; nil disables it.
	Progress io.Writer
	Logger   *slog.Logger
}

func NewSweeper(cfg Config, progress io.Writer) *Sweeper {
	s := &Sweeper{Workers: cfg.Workers}
	if cfg.Progress {
		s.Progress = progress
	}
	return s
}

// Sweep is NewSweeper(cfg, nil).Run.
func Sweep(ctx context.Context, cfg Config, engines []Engine, options []models.Option) ([]Row, error) {
	return NewSweeper(cfg, nil).Run(ctx, engines, options)
}

// Run prices every option with every engine. Engine failures are recorded in
// the quotes; only cancellation of ctx aborts the sweep.
func (s *Sweeper) Run(ctx context.Context, engines []Engine, options []models.Option) ([]Row, error) {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	workers := s.Workers
	if workers < 1 {
		workers = logicalCPUs()
	}

	rows := make([]Row, len(options))
	for i, o := range options {
		rows[i] = Row{Option: o, Quotes: make([]Quote, len(engines))}
	}
	total := len(options) * len(engines)
	if total == 0 {
		return rows, nil
	}

	var (
		p   *mpb.Progress
		bar *mpb.Bar
	)
	if s.Progress != nil {
		p = mpb.NewWithContext(ctx, mpb.WithWidth(64), mpb.WithOutput(s.Progress))
		bar = p.AddBar(int64(total),
			mpb.PrependDecorators(
				decor.Name("Pricing"),
				decor.Percentage(decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.CountersNoUnit("(%d / %d)", decor.WCSyncSpace),
			),
		)
	}

	log.Info("sweep started", "options", len(options), "engines", len(engines), "workers", workers)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range options {
		for j := range engines {
			i, j := i, j
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				rows[i].Quotes[j] = quote(engines[j], options[i])
				if q := rows[i].Quotes[j]; q.Err != nil {
					log.Debug("engine failed", "engine", q.Engine, "option", options[i], "err", q.Err)
				}
				if bar != nil {
					bar.Increment()
				}
				return nil
			})
		}
	}
	err := g.Wait()
	if p != nil {
		if err != nil {
			bar.Abort(false)
		}
		p.Wait()
	}
	if err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}

	log.Info("sweep finished", "elapsed", time.Since(start))
	return rows, nil
}

func quote(e Engine, o models.Option) Quote {
	q := Quote{Engine: e.Name}
	start := time.Now()
	res, err := e.Pricer.Price(o)
	q.Elapsed = time.Since(start)
	switch {
	case errors.Is(err, models.ErrWrongKind):
		q.Skipped = true
	case err != nil:
		q.Err = err
	default:
		q.Price, q.StdErr = res.Price, res.StdErr
		if res.StopBoundary != nil {
			q.Boundary = res.StopBoundary
		} else {
			q.Boundary = res.ExerciseBoundary
		}
	}
	return q
}

// Priced returns the quotes that produced a price.
func (r Row) Priced() []Quote {
	var out []Quote
	for _, q := range r.Quotes {
		if !q.Skipped && q.Err == nil {
			out = append(out, q)
		}
	}
	return out
}

// Agreement is the spread (max − min) of the priced quotes relative to their
// mean; zero with fewer than two quotes.
func Agreement(r Row) float64 {
	priced := r.Priced()
	if len(priced) < 2 {
		return 0
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	var sum float64
	for _, q := range priced {
		lo = math.Min(lo, q.Price)
		hi = math.Max(hi, q.Price)
		sum += q.Price
	}
	mean := sum / float64(len(priced))
	if mean == 0 {
		return hi - lo
	}
	return (hi - lo) / math.Abs(mean)
}
