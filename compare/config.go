package compare

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shirou/gopsutil/cpu"
)

// Environment variables read by LoadConfig. Lists are comma separated.
const (
	EnvSpots    = "INSTALLMENT_SPOTS"
	EnvRates    = "INSTALLMENT_RATES"
	EnvStrike   = "INSTALLMENT_STRIKE"
	EnvRate     = "INSTALLMENT_RISK_FREE"
	EnvDividend = "INSTALLMENT_DIVIDEND"
	EnvVola     = "INSTALLMENT_VOLA"
	EnvMaturity = "INSTALLMENT_MATURITY"
	EnvSeed     = "INSTALLMENT_SEED"
	EnvPaths    = "INSTALLMENT_PATHS"
	EnvWorkers  = "INSTALLMENT_WORKERS"
	EnvReport   = "INSTALLMENT_REPORT"
	EnvProgress = "INSTALLMENT_PROGRESS"

	EnvHistory     = "INSTALLMENT_HISTORY"
	EnvEstimator   = "INSTALLMENT_VOLA_ESTIMATOR"
	EnvHistoryDays = "INSTALLMENT_HISTORY_DAYS"
)

// Config describes one comparison run over a grid of spots and installment
// rates for a single contract family.
type Config struct {
	Spots    []float64 `json:"spots"`
	Rates    []float64 `json:"installment_rates"`
	Strike   float64   `json:"strike"`
	Rate     float64   `json:"risk_free"`
	Dividend float64   `json:"dividend"`
	Vola     float64   `json:"vola"`
	Maturity float64   `json:"maturity"`

	Seed    uint64 `json:"seed"`
	Paths   int    `json:"paths"`
	Workers int    `json:"workers"`

	// History, when set, is a quote history file whose estimated
	// volatility replaces Vola.
	History     string `json:"history,omitempty"`
	Estimator   string `json:"estimator,omitempty"`
	HistoryDays int    `json:"history_days,omitempty"`

	Report   string `json:"-"`
	Progress bool   `json:"-"`
}

// DefaultConfig is the Ciurlia grid: K = 100, r = 5%, d = 4%, σ = 20%, T = 1.
func DefaultConfig() Config {
	return Config{
		Spots:    []float64{96, 100, 104},
		Rates:    []float64{1, 3, 8},
		Strike:   100,
		Rate:     0.05,
		Dividend: 0.04,
		Vola:     0.2,
		Maturity: 1,
		Seed:     1,
		Paths:    10000,
		Workers:  logicalCPUs(),
		Report:   "installment_report.json",
		Progress: true,
	}
}

// LoadConfig loads the given dotenv files (.env when none are given) and
// overlays INSTALLMENT_* variables on DefaultConfig. Missing files are ignored.
func LoadConfig(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading env files: %w", err)
	}

	cfg := DefaultConfig()
	var err error
	set := func(e error) {
		if err == nil {
			err = e
		}
	}
	set(floatList(EnvSpots, &cfg.Spots))
	set(floatList(EnvRates, &cfg.Rates))
	set(floatVar(EnvStrike, &cfg.Strike))
	set(floatVar(EnvRate, &cfg.Rate))
	set(floatVar(EnvDividend, &cfg.Dividend))
	set(floatVar(EnvVola, &cfg.Vola))
	set(floatVar(EnvMaturity, &cfg.Maturity))
	set(intVar(EnvPaths, &cfg.Paths))
	set(intVar(EnvWorkers, &cfg.Workers))
	if v, ok := os.LookupEnv(EnvSeed); ok {
		seed, perr := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if perr != nil {
			set(fmt.Errorf("%s: %w", EnvSeed, perr))
		}
		cfg.Seed = seed
	}
	if v, ok := os.LookupEnv(EnvReport); ok {
		cfg.Report = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(EnvProgress); ok {
		p, perr := strconv.ParseBool(strings.TrimSpace(v))
		if perr != nil {
			set(fmt.Errorf("%s: %w", EnvProgress, perr))
		}
		cfg.Progress = p
	}
	if v, ok := os.LookupEnv(EnvHistory); ok {
		cfg.History = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(EnvEstimator); ok {
		cfg.Estimator = strings.TrimSpace(v)
	}
	set(intVar(EnvHistoryDays, &cfg.HistoryDays))
	if err != nil {
		return Config{}, err
	}
	if cfg.History != "" {
		bars, err := LoadHistory(cfg.History)
		if err != nil {
			return Config{}, err
		}
		if cfg.Vola, err = EstimateVola(cfg.Estimator, bars, cfg.HistoryDays); err != nil {
			return Config{}, fmt.Errorf("%s: %w", cfg.History, err)
		}
	}
	return cfg, cfg.Validate()
}

// Validate checks the grid and the run parameters; contract level checks are
// left to the option constructors.
func (c Config) Validate() error {
	switch {
	case len(c.Spots) == 0:
		return fmt.Errorf("config: no spots")
	case len(c.Rates) == 0:
		return fmt.Errorf("config: no installment rates")
	case c.Vola <= 0:
		return fmt.Errorf("config: volatility %v", c.Vola)
	case c.Paths < 2:
		return fmt.Errorf("config: %d monte carlo paths", c.Paths)
	case c.Workers < 1:
		return fmt.Errorf("config: %d workers", c.Workers)
	}
	return nil
}

func logicalCPUs() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

func floatVar(key string, dst *float64) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func intVar(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func floatList(key string, dst *[]float64) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	var out []float64
	for _, field := range strings.Split(v, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		out = append(out, f)
	}
	*dst = out
	return nil
}
