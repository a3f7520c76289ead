package compare

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bcdannyboy/installment/models"
)

func TestReportRoundTrip(t *testing.T) {
	o, err := models.NewContinuousInstallment(100, 100, 0.05, 0.04, 0.2, 1, 3, models.Call)
	if err != nil {
		t.Fatal(err)
	}
	engines := []Engine{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	rows := []Row{{
		Option: o,
		Quotes: []Quote{
			{Engine: "a", Price: 5.5, Elapsed: 3 * time.Millisecond, Boundary: []float64{88, 100}},
			{Engine: "b", Price: 5.6, StdErr: 0.1},
			{Engine: "c", Err: errors.New("no convergence")},
		},
	}}
	parity := []ParityCheck{{Engine: "a", Call: 5.5, Put: 7, Paid: 100, Residual: 1e-4}}

	var buf bytes.Buffer
	if err := WriteReport(&buf, NewReport(DefaultConfig(), engines, rows, parity)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"installment_rate": 3`) {
		t.Errorf("report lacks the installment rate:\n%s", buf.String())
	}

	got, err := ReadReport(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Engines) != 3 || len(got.Rows) != 1 || len(got.Parity) != 1 {
		t.Fatalf("got %+v", got)
	}
	row := got.Rows[0]
	if row.Spot != 100 || row.Rate != 3 {
		t.Errorf("row %+v", row)
	}
	if q := row.Quotes[0]; q.Stop != 88 || q.ElapsedMS != 3 {
		t.Errorf("quote a %+v", q)
	}
	if q := row.Quotes[2]; q.Error != "no convergence" {
		t.Errorf("quote c %+v", q)
	}
	if row.Agreement <= 0 {
		t.Errorf("agreement %v", row.Agreement)
	}
	if got.Config.Strike != 100 || got.Config.Report != "" {
		t.Errorf("config %+v", got.Config)
	}
}

func TestReadReportInvalid(t *testing.T) {
	if _, err := ReadReport(strings.NewReader("{")); err == nil {
		t.Error("truncated report accepted")
	}
}
