package growth_test

import (
	"errors"
	"math"
	"testing"

	"github.com/SimonSchneider/tmval/internal/growth"
	"github.com/SimonSchneider/tmval/internal/rate"
)

func TestTieredBalance(t *testing.T) {
	tb := Must(growth.NewTieredBalance([]float64{0, 1000, 5000}, []float64{0.01, 0.02, 0.03}))
	first := math.Log(2) / math.Log(1.01)
	second := first + math.Log(5)/math.Log(1.02)

	jumps := tb.JumpTimes(500)
	if len(jumps) != 2 || math.Abs(jumps[0]-first) > 1e-9 || math.Abs(jumps[1]-second) > 1e-9 {
		t.Fatalf("JumpTimes(500) = %v, want [%v %v]", jumps, first, second)
	}
	tests := []struct {
		name string
		k, t float64
		want float64
	}{
		{"first tier", 500, 10, 500 * math.Pow(1.01, 10)},
		{"second tier", 500, 100, 1000 * math.Pow(1.02, 100-first)},
		{"top tier", 500, 200, 5000 * math.Pow(1.03, 200-second)},
		{"start mid tier", 2000, 1, 2040},
		{"start top tier", 6000, 2, 6000 * 1.03 * 1.03},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tb.Amount(tt.k, tt.t); math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Amount(%v, %v) = %v, want %v", tt.k, tt.t, got, tt.want)
			}
		})
	}

	low := Must(growth.NewTieredBalance([]float64{100, 1000}, []float64{0.01, 0.02}))
	if got := low.Amount(50, 1); math.Abs(got-50.5) > 1e-9 {
		t.Errorf("below lowest tier Amount() = %v, want 50.5", got)
	}

	if _, err := growth.NewTieredBalance([]float64{0, 10}, []float64{0.01}); !errors.Is(err, rate.ErrValidation) {
		t.Errorf("mismatched tiers err = %v", err)
	}
	if _, err := growth.NewTieredBalance([]float64{10, 0}, []float64{0.01, 0.02}); !errors.Is(err, rate.ErrValidation) {
		t.Errorf("unsorted tiers err = %v", err)
	}
}

func TestTieredTime(t *testing.T) {
	tt := Must(growth.NewTieredTime([]float64{0, 1, 3}, []rate.Rate{
		rate.Effective(0.05),
		rate.Effective(0.06),
		rate.Nominal(0.07, 1),
	}))
	if got, want := tt.Amount(1, 5), 1.05*1.06*1.06*1.07*1.07; math.Abs(got-want) > 1e-12 {
		t.Errorf("Amount(1, 5) = %v, want %v", got, want)
	}
	if got, want := tt.Amount(100, 0.5), 100*math.Pow(1.05, 0.5); math.Abs(got-want) > 1e-12 {
		t.Errorf("Amount(100, 0.5) = %v, want %v", got, want)
	}
	if got := tt.Amount(7, 0); got != 7 {
		t.Errorf("Amount(7, 0) = %v", got)
	}
	if r := tt.Rates()[2]; r.Pattern != rate.EffectiveInterest {
		t.Errorf("rates are not standardized: %v", r)
	}
	if _, err := growth.NewTieredTime([]float64{1, 2}, []rate.Rate{rate.Effective(0.05), rate.Effective(0.06)}); !errors.Is(err, rate.ErrValidation) {
		t.Errorf("tiers not starting at 0 err = %v", err)
	}
}

func TestSimpleLoan(t *testing.T) {
	loan := Must(growth.NewSimpleLoan(1000, 0.5, nil, ptr(0.04)))
	if loan.DiscountAmount != 40 || loan.AmountAvailable() != 960 {
		t.Errorf("loan = %+v", loan)
	}
	if math.Abs(loan.DiscountRate()-0.04) > 1e-12 {
		t.Errorf("DiscountRate() = %v", loan.DiscountRate())
	}
	if got := loan.Amount(960, 0.5); math.Abs(got-1000) > 1e-9 {
		t.Errorf("Amount at maturity = %v", got)
	}
	if got := loan.Amount(960, 0.25); !math.IsNaN(got) {
		t.Errorf("Amount between dates = %v, want NaN", got)
	}
	if _, err := growth.NewSimpleLoan(1000, 1, ptr(40.0), ptr(0.04)); !errors.Is(err, rate.ErrValidation) {
		t.Errorf("both discounts err = %v", err)
	}
	if _, err := growth.NewSimpleLoan(1000, 1, nil, nil); !errors.Is(err, rate.ErrValidation) {
		t.Errorf("no discount err = %v", err)
	}
}

func TestSolvers(t *testing.T) {
	tests := []struct {
		name string
		got  func() (float64, error)
		want float64
	}{
		{"compound rate", func() (float64, error) { return growth.CompoundRate(100, 121, 2) }, 0.1},
		{"compound time", func() (float64, error) { return growth.CompoundTime(100, 121, 0.1) }, 2},
		{"simple rate", func() (float64, error) { return growth.SimpleRate(100, 110, 2) }, 0.05},
		{"simple time", func() (float64, error) { return growth.SimpleTime(100, 130, 0.1) }, 3},
		{"simple discount time", func() (float64, error) { return growth.SimpleDiscountTime(90, 100, 0.05) }, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.got()
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
	if got := growth.CompoundFutureValue(100, 0.1, 2); math.Abs(got-121) > 1e-9 {
		t.Errorf("CompoundFutureValue() = %v", got)
	}
	if got := growth.CompoundPresentValue(121, 0.1, 2); math.Abs(got-100) > 1e-9 {
		t.Errorf("CompoundPresentValue() = %v", got)
	}
	if got := growth.SimplePresentValue(130, 0.1, 3); math.Abs(got-100) > 1e-9 {
		t.Errorf("SimplePresentValue() = %v", got)
	}
	if _, err := growth.CompoundTime(100, 200, 0); !errors.Is(err, growth.ErrUndefined) {
		t.Errorf("zero rate err = %v", err)
	}
	if _, err := growth.CompoundTime(200, 100, 0.05); !errors.Is(err, growth.ErrUndefined) {
		t.Errorf("shrinking at positive rate err = %v", err)
	}
}

func TestIYM(t *testing.T) {
	tbl := growth.IYMTable{
		2000: {0.06, 0.065, 0.07},
		2001: {0.05, 0.055, 0.062},
		2002: {0.04, 0.045, 0.058},
		2003: {0.03, 0.035, 0.054},
	}
	reads := []struct {
		year, duration int
		want           float64
	}{
		{2000, 0, 0.06},
		{2000, 1, 0.065},
		{2000, 2, 0.058},
		{2000, 3, 0.054},
		{2002, 1, 0.045},
	}
	for _, r := range reads {
		got, err := growth.ReadIYM(tbl, r.year, r.duration)
		if err != nil {
			t.Fatalf("ReadIYM(%d, %d): %v", r.year, r.duration, err)
		}
		if got.Magnitude != r.want {
			t.Errorf("ReadIYM(%d, %d) = %v, want %v", r.year, r.duration, got.Magnitude, r.want)
		}
	}
	if _, err := growth.ReadIYM(tbl, 2000, 4); !errors.Is(err, rate.ErrValidation) {
		t.Errorf("ReadIYM past table err = %v", err)
	}

	law := Must(growth.TieredTimeFromIYM(tbl, 2000))
	if got := law.Tiers(); len(got) != 4 {
		t.Fatalf("Tiers() = %v", got)
	}
	if got, want := law.Amount(1, 4), 1.06*1.065*1.058*1.054; math.Abs(got-want) > 1e-12 {
		t.Errorf("Amount(1, 4) = %v, want %v", got, want)
	}
	if got := Must(growth.TieredTimeFromIYM(tbl, 2003)).Tiers(); len(got) != 2 {
		t.Errorf("last year Tiers() = %v", got)
	}
}
