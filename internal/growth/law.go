package growth

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/SimonSchneider/tmval/internal/rate"
)

// ErrUndefined is returned when a law has no value at the requested time.
var ErrUndefined = errors.New("growth law undefined")

// Law is an amount function: the value at time t (in years) of principal k
// invested at time 0.
type Law interface {
	Amount(k, t float64) float64
}

// Func adapts an arbitrary caller-supplied amount function.
type Func func(k, t float64) float64

func (f Func) Amount(k, t float64) float64 {
	return f(k, t)
}

// AccumulationFunc adapts a unit-principal accumulation function; principal
// scales it linearly.
type AccumulationFunc func(t float64) float64

func (f AccumulationFunc) Amount(k, t float64) float64 {
	return k * f(t)
}

type CompoundLaw struct {
	Rate float64 // annual effective
}

func Compound(i float64) CompoundLaw {
	return CompoundLaw{Rate: i}
}

func (l CompoundLaw) Amount(k, t float64) float64 {
	return k * math.Pow(1+l.Rate, t)
}

type SimpleLaw struct {
	Rate     float64 // annual
	Discount bool
}

func Simple(s float64) SimpleLaw {
	return SimpleLaw{Rate: s}
}

func (l SimpleLaw) Amount(k, t float64) float64 {
	if l.Discount {
		return k / (1 - l.Rate*t)
	}
	return k * (1 + l.Rate*t)
}

// LawFromRate returns the law implied by r: compound for compound patterns,
// simple interest or simple discount otherwise.
func LawFromRate(r rate.Rate) Law {
	std := r.Standardize()
	switch std.Pattern {
	case rate.SimpleInterest:
		return SimpleLaw{Rate: std.Magnitude}
	case rate.SimpleDiscount:
		return SimpleLaw{Rate: std.Magnitude, Discount: true}
	}
	return CompoundLaw{Rate: std.Magnitude}
}

// TieredBalance credits a rate that depends on the current balance. Tiers
// are the lower balance bounds of each rate, ascending.
type TieredBalance struct {
	tiers []float64
	rates []float64
}

func NewTieredBalance(tiers, rates []float64) (*TieredBalance, error) {
	if err := checkTiers(tiers, len(rates)); err != nil {
		return nil, err
	}
	return &TieredBalance{tiers: append([]float64(nil), tiers...), rates: append([]float64(nil), rates...)}, nil
}

// JumpTimes returns the times at which a balance starting at k and left to
// grow crosses into each higher tier.
func (l *TieredBalance) JumpTimes(k float64) []float64 {
	first := l.firstJump(k)
	var (
		times []float64
		t     float64
		pv    = k
	)
	for j := first; j < len(l.tiers); j++ {
		dt, err := CompoundTime(pv, l.tiers[j], l.rates[j-1])
		if err != nil {
			dt = math.Inf(1)
		}
		t += dt
		times = append(times, t)
		pv = l.tiers[j]
	}
	return times
}

func (l *TieredBalance) Amount(k, t float64) float64 {
	first := l.firstJump(k)
	idx, from, base := first-1, 0.0, k
	for j, jt := range l.JumpTimes(k) {
		if jt > t {
			break
		}
		idx, from, base = first+j, jt, l.tiers[first+j]
	}
	return base * math.Pow(1+l.rates[idx], t-from)
}

// firstJump is the index of the first tier above k. Balances below the
// lowest tier earn the lowest rate.
func (l *TieredBalance) firstJump(k float64) int {
	return max(sort.Search(len(l.tiers), func(i int) bool { return l.tiers[i] > k }), 1)
}

// TieredTime credits a rate that depends on the time elapsed since the
// deposit. Tiers are the start times of each rate, ascending from 0.
type TieredTime struct {
	tiers []float64
	rates []rate.Rate
}

func NewTieredTime(tiers []float64, rates []rate.Rate) (*TieredTime, error) {
	if err := checkTiers(tiers, len(rates)); err != nil {
		return nil, err
	}
	if tiers[0] != 0 {
		return nil, fmt.Errorf("%w: first time tier must start at 0, got %g", rate.ErrValidation, tiers[0])
	}
	std := make([]rate.Rate, len(rates))
	for i, r := range rates {
		std[i] = r.Standardize()
	}
	return &TieredTime{tiers: append([]float64(nil), tiers...), rates: std}, nil
}

func (l *TieredTime) Tiers() []float64 {
	return append([]float64(nil), l.tiers...)
}

func (l *TieredTime) Rates() []rate.Rate {
	return append([]rate.Rate(nil), l.rates...)
}

func (l *TieredTime) Amount(k, t float64) float64 {
	bal := k
	for j, start := range l.tiers {
		if start >= t {
			break
		}
		end := t
		if j+1 < len(l.tiers) && l.tiers[j+1] < t {
			end = l.tiers[j+1]
		}
		bal = l.rates[j].Accumulate(bal, end-start)
	}
	return bal
}

// SimpleLoan is a lump sum lent at a discount and repaid in full at Term.
// It only has a value at origination and maturity.
type SimpleLoan struct {
	Principal      float64
	Term           float64
	DiscountAmount float64
}

// NewSimpleLoan takes either a discount amount or a discount rate, not both.
func NewSimpleLoan(principal, term float64, discountAmount, discountRate *float64) (SimpleLoan, error) {
	switch {
	case discountAmount != nil && discountRate != nil:
		return SimpleLoan{}, fmt.Errorf("%w: supply a discount amount or a discount rate, not both", rate.ErrValidation)
	case discountAmount != nil:
		return SimpleLoan{Principal: principal, Term: term, DiscountAmount: *discountAmount}, nil
	case discountRate != nil:
		return SimpleLoan{Principal: principal, Term: term, DiscountAmount: principal * *discountRate}, nil
	}
	return SimpleLoan{}, fmt.Errorf("%w: supply either a discount amount or a discount rate", rate.ErrValidation)
}

func (l SimpleLoan) DiscountRate() float64 {
	return l.DiscountAmount / l.Principal
}

func (l SimpleLoan) AmountAvailable() float64 {
	return l.Principal - l.DiscountAmount
}

// Amount treats k as the sum advanced at origination, which grows to
// k·Principal/AmountAvailable at maturity. It is NaN at any other time.
func (l SimpleLoan) Amount(k, t float64) float64 {
	switch t {
	case 0:
		return k
	case l.Term:
		return k * l.Principal / l.AmountAvailable()
	}
	return math.NaN()
}

func checkTiers(tiers []float64, nRates int) error {
	if len(tiers) == 0 {
		return fmt.Errorf("%w: at least one tier is required", rate.ErrValidation)
	}
	if len(tiers) != nRates {
		return fmt.Errorf("%w: %d tiers but %d rates", rate.ErrValidation, len(tiers), nRates)
	}
	if !sort.Float64sAreSorted(tiers) {
		return fmt.Errorf("%w: tiers must be ascending", rate.ErrValidation)
	}
	return nil
}
