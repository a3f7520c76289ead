package pricers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bcdannyboy/installment/models"
)

func TestBaroneAdesiWhaley(t *testing.T) {
	b := NewBaroneAdesiWhaley()
	for _, side := range []struct {
		phi   float64
		cases []referenceCase
	}{{models.Put, americanPuts}, {models.Call, americanCalls}} {
		for _, tc := range side.cases {
			name := fmt.Sprintf("phi=%v S=%v r=%v d=%v", side.phi, tc.S, tc.r, tc.d)
			o := must(t)(models.NewAmerican(tc.S, 100, tc.r, tc.d, 0.2, 1, side.phi))
			res, err := b.Price(o)
			if err != nil {
				t.Fatalf("%s: %v", name, err)
			}
			checkRel(t, name, res.Price, tc.want, 2.5e-2)
			if eur := models.EuropeanValue(o); res.Price < eur-1e-12 {
				t.Errorf("%s: %v below the european value %v", name, res.Price, eur)
			}
		}
	}
}

func TestBaroneAdesiWhaleyCriticalPrice(t *testing.T) {
	b := NewBaroneAdesiWhaley()
	put := must(t)(models.NewAmerican(95, 100, 0.05, 0.04, 0.2, 1, models.Put))
	res, err := b.Price(put)
	if err != nil {
		t.Fatal(err)
	}
	critical := res.ExerciseBoundary[0]
	if critical <= 0 || critical >= 100 {
		t.Fatalf("put critical price %v", critical)
	}
	// below the critical price the put is worth its intrinsic value
	deep, err := b.Price(put.WithSpot(critical * 0.9))
	if err != nil {
		t.Fatal(err)
	}
	checkAbs(t, "deep put", deep.Price, 100-critical*0.9, 1e-12)

	call := must(t)(models.NewAmerican(105, 100, 0.05, 0.04, 0.2, 1, models.Call))
	res, err = b.Price(call)
	if err != nil {
		t.Fatal(err)
	}
	if res.ExerciseBoundary[0] <= 100 {
		t.Errorf("call critical price %v", res.ExerciseBoundary[0])
	}
}

func TestBaroneAdesiWhaleyEuropeanCases(t *testing.T) {
	b := NewBaroneAdesiWhaley()
	// no early exercise premium for calls without dividends
	call := must(t)(models.NewAmerican(105, 100, 0.05, 0, 0.2, 1, models.Call))
	res, err := b.Price(call)
	if err != nil {
		t.Fatal(err)
	}
	checkAbs(t, "call without dividends", res.Price, models.EuropeanValue(call), 1e-12)

	vanilla := must(t)(models.NewVanilla(95, 100, 0.05, 0.04, 0.2, 1, models.Put))
	res, err = b.Price(vanilla)
	if err != nil {
		t.Fatal(err)
	}
	checkAbs(t, "vanilla", res.Price, models.EuropeanValue(vanilla), 1e-12)

	inst := must(t)(models.NewContinuousInstallment(95, 100, 0.05, 0.04, 0.2, 1, 2, models.Call))
	if _, err := b.Price(inst); !errors.Is(err, models.ErrWrongKind) {
		t.Errorf("installment: got %v, want ErrWrongKind", err)
	}
}
