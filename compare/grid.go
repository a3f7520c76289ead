package compare

import (
	"fmt"

	"github.com/bcdannyboy/installment/models"
	"github.com/bcdannyboy/installment/pricers"
)

// Grid builds the continuous-installment calls for every (spot, rate) pair
// of cfg, spots varying slowest.
func Grid(cfg Config) ([]models.Option, error) {
	options := make([]models.Option, 0, len(cfg.Spots)*len(cfg.Rates))
	for _, S := range cfg.Spots {
		for _, q := range cfg.Rates {
			o, err := models.NewContinuousInstallment(S, cfg.Strike, cfg.Rate, cfg.Dividend, cfg.Vola, cfg.Maturity, q, models.Call)
			if err != nil {
				return nil, fmt.Errorf("grid S=%g q=%g: %w", S, q, err)
			}
			options = append(options, o)
		}
	}
	return options, nil
}

// DefaultEngines is the engine set compared on continuous installments.
func DefaultEngines(cfg Config) []Engine {
	lsmc := pricers.NewLSMC()
	lsmc.NumPaths = cfg.Paths
	lsmc.Seed = cfg.Seed
	return []Engine{
		{Name: "fdm", Pricer: pricers.NewFDM()},
		{Name: "binomial", Pricer: pricers.NewBinomial()},
		{Name: "lsmc", Pricer: lsmc},
		{Name: "laplace", Pricer: pricers.NewLaplace()},
		{Name: "extrapolation", Pricer: pricers.NewExtrapolation()},
	}
}
