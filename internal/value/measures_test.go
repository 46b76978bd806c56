package value_test

import (
	"errors"
	"math"
	"testing"

	"github.com/SimonSchneider/tmval/internal/rate"
	"github.com/SimonSchneider/tmval/internal/value"
)

func TestDurations(t *testing.T) {
	zero := value.Must(value.New([]float64{100}, []float64{5}, value.WithRate(rate.Effective(0.05))))
	mac, err := zero.MacaulayDuration()
	if err != nil || math.Abs(mac-5) > 1e-12 {
		t.Errorf("MacaulayDuration() = %v, %v", mac, err)
	}
	mod, err := zero.ModifiedDuration()
	if err != nil || math.Abs(mod-5/1.05) > 1e-5 {
		t.Errorf("ModifiedDuration() = %v, %v", mod, err)
	}
	conv, err := zero.Convexity()
	if err != nil || math.Abs(conv-30/(1.05*1.05)) > 1e-3 {
		t.Errorf("Convexity() = %v, %v", conv, err)
	}

	coupons := value.Must(value.New([]float64{10, 10, 110}, []float64{1, 2, 3}, value.WithRate(rate.Effective(0.1))))
	want := (10/1.1*1 + 10/1.21*2 + 110/1.331*3) / 100
	if got, err := coupons.MacaulayDuration(); err != nil || math.Abs(got-want) > 1e-9 {
		t.Errorf("coupon MacaulayDuration() = %v, want %v", got, want)
	}
	if got, err := coupons.ModifiedDuration(); err != nil || math.Abs(got-want/1.1) > 1e-5 {
		t.Errorf("coupon ModifiedDuration() = %v, want %v", got, want/1.1)
	}

	simple := value.Must(value.New([]float64{100}, []float64{5}, value.WithRate(rate.Simple(0.05))))
	if _, err := simple.ModifiedDuration(); !errors.Is(err, rate.ErrValidation) {
		t.Errorf("ModifiedDuration() on simple law err = %v", err)
	}
}

func TestTimeWeightedYield(t *testing.T) {
	cf := value.Must(value.New([]float64{100, 20}, []float64{0, 0.5}))
	got, err := cf.TimeWeightedYield([]float64{0, 0.5, 1}, []float64{100, 110, 143}, false)
	if err != nil {
		t.Fatal(err)
	}
	if want := 1.1*1.1 - 1; math.Abs(got.Magnitude-want) > 1e-12 || got.Interval != 1 {
		t.Errorf("TimeWeightedYield() = %v, want %v", got, want)
	}

	got, err = cf.TimeWeightedYield([]float64{0, 2}, []float64{100, 121}, true)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got.Magnitude-0.1) > 1e-12 || got.Interval != 1 {
		t.Errorf("annual TimeWeightedYield() = %v", got)
	}

	if _, err := cf.TimeWeightedYield([]float64{0}, []float64{100}, false); !errors.Is(err, rate.ErrValidation) {
		t.Errorf("single balance err = %v", err)
	}
}

func TestDollarWeightedYield(t *testing.T) {
	cf := value.Must(value.New([]float64{100, 20, -130}, []float64{0, 0.5, 1}))
	got, err := cf.DollarWeightedYield(false)
	if err != nil {
		t.Fatal(err)
	}
	if want := 10.0 / 110; math.Abs(got.Magnitude-want) > 1e-12 {
		t.Errorf("DollarWeightedYield() = %v, want %v", got.Magnitude, want)
	}

	two := value.Must(value.New([]float64{100, -121}, []float64{0, 2}))
	got, err = two.DollarWeightedYield(true)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got.Magnitude-0.1) > 1e-12 {
		t.Errorf("annual DollarWeightedYield() = %v", got.Magnitude)
	}

	if _, err := value.Must(value.New([]float64{100}, []float64{0})).DollarWeightedYield(false); !errors.Is(err, rate.ErrValidation) {
		t.Errorf("single payment err = %v", err)
	}
}
