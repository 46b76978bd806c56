package annuity

import (
	"fmt"
	"math"
	"slices"

	"github.com/SimonSchneider/tmval/internal/growth"
	"github.com/SimonSchneider/tmval/internal/rate"
	"github.com/SimonSchneider/tmval/internal/solve"
	"github.com/SimonSchneider/tmval/internal/value"
	"github.com/shopspring/decimal"
)

// Installments is a level deposit with an adjusted last one.
type Installments struct {
	Amount float64
	Last   float64
}

// LoanAmount is the principal that payments described by opts repay, plus
// a down payment.
func LoanAmount(acc *growth.Accumulation, down float64, opts ...Option) (float64, error) {
	a, err := New(acc, opts...)
	if err != nil {
		return 0, err
	}
	pv, err := a.PresentValue()
	if err != nil {
		return 0, err
	}
	return pv + down, nil
}

// LoanPayment finds the first payment of the schedule described by opts
// that repays loan, and returns the schedule. With cents, the payment is
// rounded up to the cent and the last payment is reduced by the
// accumulated overpayment.
func LoanPayment(acc *growth.Accumulation, loan float64, cents bool, opts ...Option) (*value.CashFlow, error) {
	amount, err := solveAmount(acc, loan, opts, (*Annuity).PresentValue)
	if err != nil {
		return nil, err
	}
	if cents {
		amount = decimal.NewFromFloat(amount).RoundUp(2).InexactFloat64()
	}
	a, err := New(acc, append(slices.Clone(opts), WithAmount(amount))...)
	if err != nil {
		return nil, err
	}
	flows, err := a.CashFlow()
	if err != nil {
		return nil, err
	}
	if !cents {
		return flows, nil
	}
	amounts, times := flows.Amounts(), flows.Times()
	for k, v := range amounts {
		amounts[k] = toCents(v)
	}
	rounded, err := value.New(amounts, times, value.WithGrowth(acc))
	if err != nil {
		return nil, err
	}
	pv, err := rounded.NPV()
	if err != nil {
		return nil, err
	}
	last := len(amounts) - 1
	amounts[last] = toCents(amounts[last] - (pv-loan)*acc.Value(times[last])/acc.Value(0))
	return value.New(amounts, times, value.WithGrowth(acc))
}

// SavingsPayment is the level deposit that accumulates to target. With
// cents, deposits are rounded up to the cent and the last one absorbs the
// excess.
func SavingsPayment(acc *growth.Accumulation, target float64, cents bool, opts ...Option) (Installments, error) {
	amount, err := solveAmount(acc, target, opts, (*Annuity).AccumulatedValue)
	if err != nil {
		return Installments{}, err
	}
	if !cents {
		return Installments{Amount: amount, Last: amount}, nil
	}
	rounded := decimal.NewFromFloat(amount).RoundUp(2).InexactFloat64()
	a, err := New(acc, append(slices.Clone(opts), WithAmount(rounded))...)
	if err != nil {
		return Installments{}, err
	}
	av, err := a.AccumulatedValue()
	if err != nil {
		return Installments{}, err
	}
	flows, err := a.CashFlow()
	if err != nil {
		return Installments{}, err
	}
	times := flows.Times()
	end := a.term + a.deferral
	excess := (av - target) * acc.Value(times[len(times)-1]) / acc.Value(end)
	return Installments{Amount: rounded, Last: toCents(rounded - excess)}, nil
}

// solveAmount finds the first payment that makes measure equal target.
// Values are affine in the first payment, so two evaluations suffice.
func solveAmount(acc *growth.Accumulation, target float64, opts []Option, measure func(*Annuity) (float64, error)) (float64, error) {
	at := func(amount float64) (float64, error) {
		a, err := New(acc, append(slices.Clone(opts), WithAmount(amount))...)
		if err != nil {
			return 0, err
		}
		return measure(a)
	}
	base, err := at(0)
	if err != nil {
		return 0, err
	}
	unit, err := at(1)
	if err != nil {
		return 0, err
	}
	if unit == base {
		return 0, fmt.Errorf("%w: payments have no value", ErrArithmetic)
	}
	return (target - base) / (unit - base), nil
}

func toCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// PaymentsToReach is the number of level deposits of payment, every
// period, needed to accumulate at least target.
func PaymentsToReach(acc *growth.Accumulation, payment, target, period float64) (int, error) {
	if payment <= 0 || target <= 0 || period <= 0 {
		return 0, fmt.Errorf("%w: payment, target and period must be positive", rate.ErrValidation)
	}
	if !acc.IsLevel() {
		return 0, fmt.Errorf("%w: counting payments needs a level growth law", rate.ErrValidation)
	}
	i := acc.Value(period)/acc.Value(0) - 1
	n := target / payment
	if i != 0 {
		n = math.Log1p(target/payment*i) / math.Log1p(i)
	}
	if whole, f := splitCount(n); f == 0 {
		return whole, nil
	}
	return int(math.Ceil(n)), nil
}

// RetrospectiveBalance is the loan balance at t: the loan accumulated less
// the payments made by t, accumulated.
func RetrospectiveBalance(acc *growth.Accumulation, loan, payment, period, t float64) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("%w: period must be positive", rate.ErrValidation)
	}
	cf := value.Must(value.New([]float64{loan}, []float64{0}, value.WithGrowth(acc)))
	var amounts, times []float64
	for k := 1; float64(k)*period <= t+intTolerance; k++ {
		amounts = append(amounts, -payment)
		times = append(times, float64(k)*period)
	}
	if err := cf.Append(amounts, times); err != nil {
		return 0, err
	}
	bal, err := cf.EquatedValue(t)
	if err != nil {
		return 0, err
	}
	return math.Max(bal, 0), nil
}

// ProspectiveBalance is the loan balance at t: the value of the payments
// still to come after t. A non-zero final replaces the last payment.
func ProspectiveBalance(acc *growth.Accumulation, payment, period, term, t, final float64) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("%w: period must be positive", rate.ErrValidation)
	}
	var amounts, times []float64
	n, _ := splitCount(term / period)
	for k := 1; k <= n; k++ {
		due := float64(k) * period
		if due <= t+intTolerance {
			continue
		}
		amt := payment
		if k == n && final != 0 {
			amt = final
		}
		amounts = append(amounts, amt)
		times = append(times, due)
	}
	cf, err := value.New(amounts, times, value.WithGrowth(acc))
	if err != nil {
		return 0, err
	}
	return cf.EquatedValue(t)
}

// PerpetuityRate is the annual effective rate at which a perpetuity paying
// amount every period is worth pv.
func PerpetuityRate(amount, pv, period float64, timing Timing) (rate.Rate, error) {
	if pv <= 0 || period <= 0 {
		return rate.Rate{}, fmt.Errorf("%w: present value and period must be positive", rate.ErrValidation)
	}
	pattern := rate.EffectiveInterest
	if timing == Due {
		pattern = rate.EffectiveDiscount
	}
	r, err := rate.New(amount/pv, pattern, rate.WithInterval(period))
	if err != nil {
		return rate.Rate{}, err
	}
	return r.Convert(rate.EffectiveInterest, rate.WithInterval(1))
}

// PerpetuityPayment is the payment every period that a perpetuity worth pv
// makes at rate r.
func PerpetuityPayment(r rate.Rate, pv, period float64, timing Timing) (float64, error) {
	pattern := rate.EffectiveInterest
	if timing == Due {
		pattern = rate.EffectiveDiscount
	}
	per, err := r.Convert(pattern, rate.WithInterval(period))
	if err != nil {
		return 0, err
	}
	return per.Magnitude * pv, nil
}

// SolveRateForMultiple finds the rate j, effective per period, at which
// level deposits every period accumulate by t2 to multiple times what they
// had accumulated by t1. x0 seeds the search; 0 means 5%.
func SolveRateForMultiple(t1, t2, period, multiple, x0 float64) (rate.Rate, error) {
	if period <= 0 || t1 <= 0 || t2 <= t1 || multiple <= 0 {
		return rate.Rate{}, fmt.Errorf("%w: need 0 < t1 < t2, a positive period and a positive multiple", rate.ErrValidation)
	}
	if x0 == 0 {
		x0 = 0.05
	}
	n1, n2 := t1/period, t2/period
	j, err := solve.Secant(func(j float64) float64 {
		return sAngle(j, n2) - multiple*sAngle(j, n1)
	}, x0, nil)
	if err != nil {
		return rate.Rate{}, fmt.Errorf("solving for %g-fold growth: %w", multiple, err)
	}
	return rate.New(j, rate.EffectiveInterest, rate.WithInterval(period))
}
