package compare

import (
	"fmt"
	"io"
	"time"

	"github.com/xhhuango/json"
)

type Report struct {
	Generated time.Time     `json:"generated"`
	Config    Config        `json:"config"`
	Engines   []string      `json:"engines"`
	Rows      []ReportRow   `json:"rows"`
	Parity    []ParityCheck `json:"parity,omitempty"`
}

type ReportRow struct {
	Option    string        `json:"option"`
	Spot      float64       `json:"spot"`
	Rate      float64       `json:"installment_rate"`
	Quotes    []ReportQuote `json:"quotes"`
	Agreement float64       `json:"agreement"`
}

type ReportQuote struct {
	Engine    string  `json:"engine"`
	Price     float64 `json:"price"`
	StdErr    float64 `json:"std_err,omitempty"`
	ElapsedMS float64 `json:"elapsed_ms"`
	Skipped   bool    `json:"skipped,omitempty"`
	Error     string  `json:"error,omitempty"`
	// Stop is the critical price at t = 0 when the engine reports a boundary.
	Stop float64 `json:"stop,omitempty"`
}

// NewReport flattens sweep rows into their JSON form.
func NewReport(cfg Config, engines []Engine, rows []Row, parity []ParityCheck) Report {
	r := Report{
		Generated: time.Now().UTC(),
		Config:    cfg,
		Rows:      make([]ReportRow, len(rows)),
		Parity:    parity,
	}
	for _, e := range engines {
		r.Engines = append(r.Engines, e.Name)
	}
	for i, row := range rows {
		rr := ReportRow{
			Option:    row.Option.String(),
			Spot:      row.Option.S,
			Rate:      row.Option.InstallmentRate(),
			Quotes:    make([]ReportQuote, len(row.Quotes)),
			Agreement: Agreement(row),
		}
		for j, q := range row.Quotes {
			rq := ReportQuote{
				Engine:    q.Engine,
				Price:     q.Price,
				StdErr:    q.StdErr,
				ElapsedMS: float64(q.Elapsed) / float64(time.Millisecond),
				Skipped:   q.Skipped,
			}
			if q.Err != nil {
				rq.Error = q.Err.Error()
			}
			if len(q.Boundary) > 0 {
				rq.Stop = q.Boundary[0]
			}
			rr.Quotes[j] = rq
		}
		r.Rows[i] = rr
	}
	return r
}

// WriteReport writes r as indented JSON.
func WriteReport(w io.Writer, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling report: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// ReadReport decodes a report written by WriteReport.
func ReadReport(rd io.Reader) (Report, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return Report{}, fmt.Errorf("reading report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("decoding report: %w", err)
	}
	return r, nil
}
