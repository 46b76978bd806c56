package value

import (
	"fmt"
	"math"

	"github.com/SimonSchneider/tmval/internal/rate"
	"github.com/SimonSchneider/tmval/internal/solve"
)

// MacaulayDuration is the present-value weighted mean payment time.
func (cf *CashFlow) MacaulayDuration() (float64, error) {
	acc, err := cf.accumulation()
	if err != nil {
		return 0, err
	}
	var pv, weighted float64
	for i, t := range cf.times {
		v := acc.PresentValue(cf.amounts[i], t)
		pv += v
		weighted += v * t
	}
	return weighted / pv, nil
}

// ModifiedDuration is -P'(i)/P(i), the relative price sensitivity to the
// annual effective rate of a compound growth law.
func (cf *CashFlow) ModifiedDuration() (float64, error) {
	i, err := cf.compoundRate()
	if err != nil {
		return 0, err
	}
	return -solve.Derivative(cf.priceAt, i) / cf.priceAt(i), nil
}

// Convexity is P''(i)/P(i).
func (cf *CashFlow) Convexity() (float64, error) {
	i, err := cf.compoundRate()
	if err != nil {
		return 0, err
	}
	return solve.SecondDerivative(cf.priceAt, i) / cf.priceAt(i), nil
}

func (cf *CashFlow) compoundRate() (float64, error) {
	acc, err := cf.accumulation()
	if err != nil {
		return 0, err
	}
	r, ok := acc.Rate()
	if !ok {
		return 0, fmt.Errorf("%w: rate sensitivity needs a compound growth law", rate.ErrValidation)
	}
	return r.Magnitude, nil
}

func (cf *CashFlow) priceAt(i float64) float64 {
	var pv float64
	for k, t := range cf.times {
		pv += cf.amounts[k] * math.Pow(1+i, -t)
	}
	return pv
}

// TimeWeightedYield chains the growth between observed fund balances. The
// balance at each observation excludes payments made at that time; those
// are added before the next period starts, except at time 0 where the
// opening balance already holds them. The result is effective over the
// whole observation window, or annual if asked.
func (cf *CashFlow) TimeWeightedYield(balanceTimes, balances []float64, annual bool) (rate.Rate, error) {
	if len(balanceTimes) != len(balances) || len(balances) < 2 {
		return rate.Rate{}, fmt.Errorf("%w: need at least two matching balance times and balances", rate.ErrValidation)
	}
	contributions := make(map[float64]float64, cf.Len())
	for _, f := range cf.Grouped() {
		contributions[f.Time] = f.Amount
	}
	growthFactor := 1.0
	for k := 1; k < len(balances); k++ {
		start := balances[k-1]
		if prior := balanceTimes[k-1]; prior != 0 {
			start += contributions[prior]
		}
		if start == 0 {
			return rate.Rate{}, fmt.Errorf("%w: zero balance at %g", rate.ErrValidation, balanceTimes[k-1])
		}
		growthFactor *= balances[k] / start
	}
	return yieldOver(growthFactor-1, balanceTimes[len(balanceTimes)-1]-balanceTimes[0], annual)
}

// DollarWeightedYield approximates the yield with simple interest. The
// first payment is the opening deposit, the last is the closing
// withdrawal (negative), and everything between is a contribution.
func (cf *CashFlow) DollarWeightedYield(annual bool) (rate.Rate, error) {
	flows := cf.Grouped()
	if len(flows) < 2 {
		return rate.Rate{}, fmt.Errorf("%w: need an opening deposit and a closing withdrawal", rate.ErrValidation)
	}
	first, last := flows[0], flows[len(flows)-1]
	window := last.Time - first.Time
	if window <= 0 {
		return rate.Rate{}, fmt.Errorf("%w: withdrawal must come after the deposit", rate.ErrValidation)
	}
	a, b := first.Amount, -last.Amount
	var c, weighted float64
	for _, f := range flows[1 : len(flows)-1] {
		c += f.Amount
		weighted += f.Amount * (1 - (f.Time-first.Time)/window)
	}
	interest := b - a - c
	return yieldOver(interest/(a+weighted), window, annual)
}

func yieldOver(j, interval float64, annual bool) (rate.Rate, error) {
	r, err := rate.New(j, rate.EffectiveInterest, rate.WithInterval(interval))
	if err != nil {
		return rate.Rate{}, err
	}
	if !annual {
		return r, nil
	}
	return r.Convert(rate.EffectiveInterest, rate.WithInterval(1))
}
