package compare

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/xhhuango/json"
	"gonum.org/v1/gonum/stat"
)

// TradingDays annualizes daily volatility estimates.
const TradingDays = 252

// Volatility estimators accepted by EstimateVola.
const (
	EstimatorGarmanKlass  = "garman-klass"
	EstimatorParkinson    = "parkinson"
	EstimatorCloseToClose = "close"
)

// ErrShortHistory is returned when a history holds too few usable bars.
var ErrShortHistory = errors.New("price history too short")

// Bar is one daily OHLC record.
type Bar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int     `json:"volume"`
}

// QuoteHistory is the {"history": {"day": [...]}} document returned by
// brokerage history endpoints.
type QuoteHistory struct {
	History struct {
		Day []Bar `json:"day"`
	} `json:"history"`
}

// ReadHistory decodes a quote history and keeps the bars with positive prices.
func ReadHistory(r io.Reader) ([]Bar, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	var h QuoteHistory
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("decoding history: %w", err)
	}
	bars := h.History.Day[:0]
	for _, b := range h.History.Day {
		if b.Open > 0 && b.High > 0 && b.Low > 0 && b.Close > 0 && b.High >= b.Low {
			bars = append(bars, b)
		}
	}
	return bars, nil
}

// LoadHistory reads a quote history file.
func LoadHistory(path string) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadHistory(f)
}

// GarmanKlass is the annualized Garman–Klass estimate over the last days bars,
// or over all of them when days <= 0.
func GarmanKlass(bars []Bar, days int) (float64, error) {
	bars, err := window(bars, days, 1)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, b := range bars {
		hl := math.Log(b.High / b.Low)
		co := math.Log(b.Close / b.Open)
		sum += 0.5*hl*hl - (2*math.Ln2-1)*co*co
	}
	return math.Sqrt(sum / float64(len(bars)) * TradingDays), nil
}

// Parkinson is the annualized high-low range estimate.
func Parkinson(bars []Bar, days int) (float64, error) {
	bars, err := window(bars, days, 1)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, b := range bars {
		hl := math.Log(b.High / b.Low)
		sum += hl * hl
	}
	return math.Sqrt(sum / (4 * float64(len(bars)) * math.Ln2) * TradingDays), nil
}

// CloseToClose is the annualized sample deviation of daily log returns.
func CloseToClose(bars []Bar, days int) (float64, error) {
	bars, err := window(bars, days, 3)
	if err != nil {
		return 0, err
	}
	returns := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		returns[i-1] = math.Log(bars[i].Close / bars[i-1].Close)
	}
	return stat.StdDev(returns, nil) * math.Sqrt(TradingDays), nil
}

// EstimateVola dispatches on the estimator name; the empty name selects
// Garman–Klass.
func EstimateVola(estimator string, bars []Bar, days int) (float64, error) {
	switch estimator {
	case "", EstimatorGarmanKlass:
		return GarmanKlass(bars, days)
	case EstimatorParkinson:
		return Parkinson(bars, days)
	case EstimatorCloseToClose:
		return CloseToClose(bars, days)
	}
	return 0, fmt.Errorf("unknown volatility estimator %q", estimator)
}

func window(bars []Bar, days, least int) ([]Bar, error) {
	if days > 0 && days < len(bars) {
		bars = bars[len(bars)-days:]
	}
	if len(bars) < least {
		return nil, fmt.Errorf("%w: %d bars", ErrShortHistory, len(bars))
	}
	return bars, nil
}
