package compare

import (
	"errors"
	"math"
	"testing"

	"github.com/bcdannyboy/installment/models"
	"github.com/bcdannyboy/installment/pricers"
	"gonum.org/v1/gonum/floats/scalar"
)

func interestSchedule(t *testing.T, S, r, K float64, n int) models.Option {
	t.Helper()
	o, err := InterestCall(S, K, r, 0, 0.2, 1, n)
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func TestCompanionDiscrete(t *testing.T) {
	call := interestSchedule(t, 105, 0.02, 100, 4)
	put, err := Companion(call)
	if err != nil {
		t.Fatal(err)
	}
	if put.Kind != models.Bermuda || put.Phi != models.Put {
		t.Fatalf("companion %v", put)
	}
	// paying interest on the strike keeps the remaining obligation at K, so
	// everything paid is worth K one period from now
	for i, k := range put.Amounts {
		if !scalar.EqualWithinAbs(k, 100, 1e-10) {
			t.Errorf("strike %d = %v", i, k)
		}
	}
	if want := 100 * math.Exp(-0.02*0.25); !scalar.EqualWithinAbs(InstallmentsPaid(call), want, 1e-10) {
		t.Errorf("paid %v, want %v", InstallmentsPaid(call), want)
	}
}

func TestCompanionContinuous(t *testing.T) {
	call, err := models.NewContinuousInstallment(105, 100, 0.02, 0, 0.2, 1, 2, models.Call)
	if err != nil {
		t.Fatal(err)
	}
	put, err := Companion(call)
	if err != nil {
		t.Fatal(err)
	}
	if put.Kind != models.American || put.K != 100 || put.Phi != models.Put {
		t.Errorf("companion %v", put)
	}
	// q = rK pays exactly the strike in present value
	if !scalar.EqualWithinAbs(InstallmentsPaid(call), 100, 1e-12) {
		t.Errorf("paid %v, want 100", InstallmentsPaid(call))
	}

	vanilla, err := models.NewVanilla(105, 100, 0.02, 0, 0.2, 1, models.Call)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Companion(vanilla); !errors.Is(err, models.ErrWrongKind) {
		t.Errorf("vanilla: got %v", err)
	}
}

func TestParityDiscrete(t *testing.T) {
	for _, n := range []int{2, 4} {
		call := interestSchedule(t, 105, 0.02, 100, n)
		check, err := CheckParity("discrete", pricers.NewDiscrete(), call)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(check.Residual) > 2e-3 {
			t.Errorf("%d dates: residual %v (call %v, put %v)", n, check.Residual, check.Call, check.Put)
		}
	}
}

func TestParityLattices(t *testing.T) {
	call := interestSchedule(t, 105, 0.02, 100, 4)
	for _, e := range []Engine{
		{Name: "fdm", Pricer: pricers.NewFDM()},
		{Name: "binomial", Pricer: pricers.NewBinomial()},
	} {
		check, err := CheckParity(e.Name, e.Pricer, call)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(check.Residual) > 5e-3*check.Call {
			t.Errorf("%s: residual %v (call %v, put %v)", e.Name, check.Residual, check.Call, check.Put)
		}
	}

	continuous, err := models.NewContinuousInstallment(105, 100, 0.02, 0, 0.2, 1, 2, models.Call)
	if err != nil {
		t.Fatal(err)
	}
	check, err := CheckParity("fdm", pricers.NewFDM(), continuous)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(check.Residual) > 5e-3*check.Call {
		t.Errorf("continuous: residual %v (call %v, put %v)", check.Residual, check.Call, check.Put)
	}
}

func TestParityEngineError(t *testing.T) {
	call := interestSchedule(t, 105, 0.02, 100, 2)
	if _, err := CheckParity("laplace", pricers.NewLaplace(), call); !errors.Is(err, models.ErrWrongKind) {
		t.Errorf("got %v, want ErrWrongKind", err)
	}
}

func TestParityFormula(t *testing.T) {
	call := interestSchedule(t, 105, 0.02, 100, 2)
	// put + S − call − paid with no dividends
	got := Parity(10, 4, call)
	want := 4 + 105 - 10 - InstallmentsPaid(call)
	if !scalar.EqualWithinAbs(got, want, 1e-12) {
		t.Errorf("got %v, want %v", got, want)
	}
}
