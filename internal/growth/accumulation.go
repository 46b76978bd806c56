package growth

import (
	"fmt"
	"math"

	"github.com/SimonSchneider/tmval/internal/rate"
	"github.com/SimonSchneider/tmval/internal/solve"
	"gonum.org/v1/gonum/floats/scalar"
)

const (
	compoundSamples = 10
	levelSamples    = 100
	sampleTolerance = 1e-5
)

// Accumulation wraps a Law and classifies it once at construction. Callers
// use IsCompound and IsLevel to decide whether closed-form pricing applies.
type Accumulation struct {
	law      Law
	compound bool
	level    bool
	rate     float64
}

// New validates law and samples it to derive its compound and level flags.
func New(law Law) (*Accumulation, error) {
	if law == nil {
		return nil, fmt.Errorf("%w: growth law is required", rate.ErrValidation)
	}
	if f, ok := law.(Func); ok && f == nil {
		return nil, fmt.Errorf("%w: growth function is nil", rate.ErrValidation)
	}
	if f, ok := law.(AccumulationFunc); ok && f == nil {
		return nil, fmt.Errorf("%w: accumulation function is nil", rate.ErrValidation)
	}
	a := &Accumulation{law: law}
	switch l := law.(type) {
	case CompoundLaw:
		a.compound, a.level, a.rate = true, true, l.Rate
	case SimpleLaw, *TieredBalance, SimpleLoan:
	default:
		if v := a.Value(0); math.IsNaN(v) || math.IsInf(v, 0) || v == 0 {
			return nil, fmt.Errorf("%w: growth law must have a finite, non-zero value at t=0, got %g", rate.ErrValidation, v)
		}
		a.level = a.sampleLevel()
		a.compound = a.level && a.sampleCompound()
		if a.compound {
			a.rate = a.Value(1)/a.Value(0) - 1
		}
	}
	return a, nil
}

func Must(a *Accumulation, err error) *Accumulation {
	if err != nil {
		panic(err)
	}
	return a
}

// FromRate builds the accumulation implied by r.
func FromRate(r rate.Rate) *Accumulation {
	return Must(New(LawFromRate(r)))
}

func (a *Accumulation) Law() Law {
	return a.law
}

// IsCompound reports whether the law is k(1+i)^t for a single i.
func (a *Accumulation) IsCompound() bool {
	return a.compound
}

// IsLevel reports whether the effective rate is the same over every unit
// period. Compound laws are always level.
func (a *Accumulation) IsLevel() bool {
	return a.level
}

// Rate returns the annual effective interest rate of a compound law.
func (a *Accumulation) Rate() (rate.Rate, bool) {
	if !a.compound {
		return rate.Rate{}, false
	}
	return rate.Effective(a.rate), true
}

// Value is the accumulated value at time t of a unit invested at 0.
func (a *Accumulation) Value(t float64) float64 {
	return a.law.Amount(1, t)
}

func (a *Accumulation) Amount(k, t float64) float64 {
	return a.law.Amount(k, t)
}

func (a *Accumulation) DiscountFactor(t float64) float64 {
	return 1 / a.Value(t)
}

// PresentValue discounts fv due at time t back to time 0.
func (a *Accumulation) PresentValue(fv, t float64) float64 {
	return fv / a.Value(t)
}

// FuturePrincipal is the amount needed at t1 to grow to fv at t2.
func (a *Accumulation) FuturePrincipal(fv, t1, t2 float64) float64 {
	return fv * a.DiscountFactor(t2) * a.Value(t1)
}

func (a *Accumulation) InterestEarned(k, t1, t2 float64) (float64, error) {
	if t2 < t1 || t1 < 0 {
		return 0, fmt.Errorf("%w: need 0 <= t1 <= t2, got t1=%g t2=%g", rate.ErrValidation, t1, t2)
	}
	return a.Amount(k, t2) - a.Amount(k, t1), nil
}

// EffectiveRate is the effective interest rate earned over [t1, t2].
func (a *Accumulation) EffectiveRate(t1, t2 float64) (rate.Rate, error) {
	if t2 <= t1 {
		return rate.Rate{}, fmt.Errorf("%w: empty interval [%g, %g]", rate.ErrValidation, t1, t2)
	}
	v1 := a.Value(t1)
	return rate.New((a.Value(t2)-v1)/v1, rate.EffectiveInterest, rate.WithInterval(t2-t1))
}

// EffectiveRateAt is the effective rate over the n-th unit period.
func (a *Accumulation) EffectiveRateAt(n float64) (rate.Rate, error) {
	return a.EffectiveRate(n-1, n)
}

// DiscountRate is the effective discount rate over [t1, t2].
func (a *Accumulation) DiscountRate(t1, t2 float64) (rate.Rate, error) {
	if t2 <= t1 {
		return rate.Rate{}, fmt.Errorf("%w: empty interval [%g, %g]", rate.ErrValidation, t1, t2)
	}
	v2 := a.Value(t2)
	return rate.New((v2-a.Value(t1))/v2, rate.EffectiveDiscount, rate.WithInterval(t2-t1))
}

// Force is the force of interest at time t.
func (a *Accumulation) Force(t float64) float64 {
	if a.compound {
		return math.Log1p(a.rate)
	}
	return solve.Derivative(a.Value, t) / a.Value(t)
}

// SolveTime returns how long it takes pv to grow to fv.
func (a *Accumulation) SolveTime(pv, fv float64) (float64, error) {
	if pv <= 0 || fv <= 0 {
		return 0, fmt.Errorf("%w: present and future value must be positive", rate.ErrValidation)
	}
	switch l := a.law.(type) {
	case SimpleLaw:
		if l.Discount {
			return SimpleDiscountTime(pv, fv, l.Rate)
		}
		return SimpleTime(pv, fv, l.Rate)
	case SimpleLoan:
		if math.Abs(a.Value(l.Term)-fv/pv) < 1e-12 {
			return l.Term, nil
		}
		return 0, fmt.Errorf("%w: simple loan only grows between origination and maturity", ErrUndefined)
	}
	if a.compound {
		return CompoundTime(pv, fv, a.rate)
	}
	target := fv / pv
	v0 := a.Value(0)
	t, err := solve.Secant(func(t float64) float64 { return a.Value(t)/v0 - target }, 10, nil)
	if err != nil {
		return 0, fmt.Errorf("solving time for %g -> %g: %w", pv, fv, err)
	}
	return t, nil
}

func (a *Accumulation) unitRates(n int) []float64 {
	out := make([]float64, n)
	for x := range n {
		t := float64(x)
		out[x] = a.Value(t+1)/a.Value(t) - 1
	}
	return out
}

func (a *Accumulation) sampleLevel() bool {
	rates := a.unitRates(levelSamples)
	for _, r := range rates {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return false
		}
		if !scalar.EqualWithinAbsOrRel(r, rates[0], sampleTolerance, sampleTolerance) {
			return false
		}
	}
	return true
}

// sampleCompound also probes fractional times, which separates k(1+i)^t
// from laws that only match it at whole periods.
func (a *Accumulation) sampleCompound() bool {
	v0 := a.Value(0)
	i := a.Value(1)/v0 - 1
	for x := range compoundSamples {
		for _, frac := range []float64{0.25, 0.5, 0.875} {
			t := float64(x) + frac
			want := math.Pow(1+i, t)
			if !scalar.EqualWithinAbsOrRel(a.Value(t)/v0, want, sampleTolerance, sampleTolerance) {
				return false
			}
		}
	}
	return true
}
