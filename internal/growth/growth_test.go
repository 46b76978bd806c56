package growth_test

import (
	"errors"
	"math"
	"testing"

	"github.com/SimonSchneider/tmval/internal/growth"
	"github.com/SimonSchneider/tmval/internal/rate"
)

func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// steppedCompound credits simple interest inside each year and compounds at
// year end, so it is level without being compound.
func steppedCompound(t float64) float64 {
	whole, frac := math.Modf(t)
	return math.Pow(1.05, whole) * (1 + 0.05*frac)
}

func TestAccumulation_Flags(t *testing.T) {
	tests := []struct {
		name            string
		law             growth.Law
		compound, level bool
	}{
		{"compound", growth.Compound(0.05), true, true},
		{"simple", growth.Simple(0.05), false, false},
		{"callable compound", growth.Func(func(k, t float64) float64 { return k * math.Pow(1.07, t) }), true, true},
		{"scaled compound", growth.AccumulationFunc(func(t float64) float64 { return 2 * math.Pow(1.07, t) }), true, true},
		{"stepped", growth.AccumulationFunc(steppedCompound), false, true},
		{"quadratic", growth.AccumulationFunc(func(t float64) float64 { return 1 + 0.01*t*t }), false, false},
		{"tiered time", Must(growth.NewTieredTime([]float64{0, 5}, []rate.Rate{rate.Effective(0.03), rate.Effective(0.04)})), false, false},
		{"one tier", Must(growth.NewTieredTime([]float64{0}, []rate.Rate{rate.Effective(0.05)})), true, true},
		{"rate change after equal tiers", Must(growth.NewTieredTime([]float64{0, 2, 5}, []rate.Rate{rate.Effective(0.05), rate.Effective(0.05), rate.Nominal(0.12, 12)})), false, false},
		{"equal compound tiers", Must(growth.NewTieredTime([]float64{0, 3}, []rate.Rate{rate.Nominal(0.12, 12), rate.Effective(math.Pow(1.01, 12) - 1)})), true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := growth.New(tt.law)
			if err != nil {
				t.Fatal(err)
			}
			if acc.IsCompound() != tt.compound {
				t.Errorf("IsCompound() = %v, want %v", acc.IsCompound(), tt.compound)
			}
			if acc.IsLevel() != tt.level {
				t.Errorf("IsLevel() = %v, want %v", acc.IsLevel(), tt.level)
			}
			if acc.IsCompound() && !acc.IsLevel() {
				t.Error("compound law reported as not level")
			}
		})
	}
}

func TestAccumulation_OneTierRate(t *testing.T) {
	acc := Must(growth.New(Must(growth.NewTieredTime([]float64{0}, []rate.Rate{rate.Effective(0.05)}))))
	r, ok := acc.Rate()
	if !ok || math.Abs(r.Magnitude-0.05) > 1e-12 {
		t.Errorf("Rate() = %v, %v, want 5%%", r, ok)
	}
}

func TestAccumulation_Rate(t *testing.T) {
	acc := Must(growth.New(growth.AccumulationFunc(func(t float64) float64 { return math.Pow(1.07, t) })))
	r, ok := acc.Rate()
	if !ok || math.Abs(r.Magnitude-0.07) > 1e-12 {
		t.Errorf("Rate() = %v, %v", r, ok)
	}
	if _, ok := growth.FromRate(rate.Simple(0.05)).Rate(); ok {
		t.Error("simple law should not report a compound rate")
	}
}

func TestNew_Invalid(t *testing.T) {
	if _, err := growth.New(nil); !errors.Is(err, rate.ErrValidation) {
		t.Errorf("New(nil) err = %v", err)
	}
	var f growth.Func
	if _, err := growth.New(f); !errors.Is(err, rate.ErrValidation) {
		t.Errorf("New(nil func) err = %v", err)
	}
	zero := growth.AccumulationFunc(func(t float64) float64 { return t })
	if _, err := growth.New(zero); !errors.Is(err, rate.ErrValidation) {
		t.Errorf("New(zero at origin) err = %v", err)
	}
}

func TestAccumulation_Multiplicative(t *testing.T) {
	laws := map[string]growth.Law{
		"compound":     growth.Compound(0.04),
		"from nominal": growth.LawFromRate(rate.Nominal(0.06, 12)),
		"scaled":       growth.AccumulationFunc(func(t float64) float64 { return 2 * math.Pow(1.03, t) }),
	}
	for name, law := range laws {
		acc := Must(growth.New(law))
		for _, m := range []float64{0, 0.5, 1, 3.25} {
			for _, n := range []float64{1, 2.5, 10} {
				got := acc.Value(m + n)
				want := acc.Value(m) * acc.Value(n) / acc.Value(0)
				if math.Abs(got-want) > 1e-9*want {
					t.Errorf("%s: value(%v+%v) = %v, want %v", name, m, n, got, want)
				}
			}
		}
	}
}

func TestAccumulation_Rates(t *testing.T) {
	compound := growth.FromRate(rate.Effective(0.05))
	simple := growth.FromRate(rate.Simple(0.1))
	tests := []struct {
		name     string
		got      func() (rate.Rate, error)
		want     float64
		pattern  rate.Pattern
		interval float64
	}{
		{"unit effective", func() (rate.Rate, error) { return compound.EffectiveRate(0, 1) }, 0.05, rate.EffectiveInterest, 1},
		{"two year effective", func() (rate.Rate, error) { return compound.EffectiveRate(2, 4) }, 1.05*1.05 - 1, rate.EffectiveInterest, 2},
		{"unit discount", func() (rate.Rate, error) { return compound.DiscountRate(0, 1) }, 0.05 / 1.05, rate.EffectiveDiscount, 1},
		{"simple third year", func() (rate.Rate, error) { return simple.EffectiveRateAt(3) }, 0.1 / 1.2, rate.EffectiveInterest, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.got()
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got.Magnitude-tt.want) > 1e-12 {
				t.Errorf("magnitude = %v, want %v", got.Magnitude, tt.want)
			}
			if got.Pattern != tt.pattern || got.Interval != tt.interval {
				t.Errorf("got %v, want %s over %v", got, tt.pattern, tt.interval)
			}
		})
	}
	if _, err := compound.EffectiveRate(2, 2); !errors.Is(err, rate.ErrValidation) {
		t.Errorf("empty interval err = %v", err)
	}
}

func TestAccumulation_ValueHelpers(t *testing.T) {
	acc := growth.FromRate(rate.Effective(0.1))
	if got := acc.PresentValue(121, 2); math.Abs(got-100) > 1e-9 {
		t.Errorf("PresentValue() = %v", got)
	}
	if got := acc.FuturePrincipal(121, 1, 2); math.Abs(got-110) > 1e-9 {
		t.Errorf("FuturePrincipal() = %v", got)
	}
	got, err := acc.InterestEarned(100, 1, 2)
	if err != nil || math.Abs(got-11) > 1e-9 {
		t.Errorf("InterestEarned() = %v, %v", got, err)
	}
	if got := acc.Force(3); math.Abs(got-math.Log(1.1)) > 1e-12 {
		t.Errorf("Force() = %v", got)
	}
	if got := growth.FromRate(rate.Simple(0.1)).Force(2); math.Abs(got-0.1/1.2) > 1e-6 {
		t.Errorf("simple Force() = %v", got)
	}
}

func TestAccumulation_SolveTime(t *testing.T) {
	loan := Must(growth.NewSimpleLoan(100, 1, ptr(5.0), nil))
	tests := []struct {
		name    string
		law     growth.Law
		pv, fv  float64
		want    float64
		wantErr error
	}{
		{"compound doubling", growth.Compound(0.05), 100, 200, math.Log(2) / math.Log(1.05), nil},
		{"simple", growth.Simple(0.1), 100, 150, 5, nil},
		{"simple discount", growth.SimpleLaw{Rate: 0.05, Discount: true}, 95, 100, 1, nil},
		{"numeric", growth.AccumulationFunc(func(t float64) float64 { return 1 + 0.01*t*t }), 1, 1.25, 5, nil},
		{"loan maturity", loan, 95, 100, 1, nil},
		{"loan off schedule", loan, 95, 120, 0, growth.ErrUndefined},
		{"non-positive", growth.Compound(0.05), 0, 100, 0, rate.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Must(growth.New(tt.law)).SolveTime(tt.pv, tt.fv)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("SolveTime() err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > 1e-7 {
				t.Errorf("SolveTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}
