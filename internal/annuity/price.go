package annuity

import (
	"fmt"
	"math"

	"github.com/SimonSchneider/tmval/internal/growth"
	"github.com/SimonSchneider/tmval/internal/rate"
	"github.com/SimonSchneider/tmval/internal/solve"
	"gonum.org/v1/gonum/floats/scalar"
)

// rateTolerance is how close i and g must be to use the limiting branch of
// the geometric closed form.
const rateTolerance = 1e-10

// PresentValue values the annuity at time 0. Level, geometric and
// arithmetic schedules under a compound law use closed forms, time-tiered
// perpetuities are summed tier by tier, and everything else is discounted
// payment by payment.
func (a *Annuity) PresentValue() (float64, error) {
	switch a.horizon {
	case Continuous:
		return a.continuousPV()
	case Perpetual:
		return a.perpetuityPV()
	}
	if !a.closedForm() {
		return a.flows.NPV()
	}
	i := a.acc.Value(a.period)/a.acc.Value(0) - 1
	pv := a.annuityImmediate(i)
	if a.timing == Due {
		pv *= 1 + i
	}
	return pv * a.acc.PresentValue(1, a.deferral), nil
}

// AccumulatedValue values the annuity at the end of its term, deferral
// included. Interest reinvested at a second law is accounted for when one
// was given.
func (a *Annuity) AccumulatedValue() (float64, error) {
	end := a.term + a.deferral
	switch a.horizon {
	case Perpetual:
		return 0, fmt.Errorf("%w: a perpetuity has no accumulated value", rate.ErrValidation)
	case Continuous:
		return a.continuousAV(end)
	}
	if a.reinvest != nil {
		return a.reinvestedAV()
	}
	if !a.closedForm() {
		return a.flows.EquatedValue(end)
	}
	i := a.acc.Value(a.period)/a.acc.Value(0) - 1
	n := a.count
	var av float64
	if a.ratio == 0 {
		s := sAngle(i, n)
		av = a.amount * s
		if a.step != 0 {
			av += a.arithmeticAV(i, n, s)
		}
	} else {
		av = a.annuityImmediate(i) * math.Pow(1+i, n)
	}
	if a.timing == Due {
		av *= 1 + i
	}
	return av, nil
}

// closedForm reports whether the discrete schedule can be priced without
// visiting each payment.
func (a *Annuity) closedForm() bool {
	return a.acc.IsCompound() && !a.hasFinal && (!a.custom || a.level) && (a.step == 0 || a.stepEvery == 0)
}

// annuityImmediate is the value one period before the first payment.
func (a *Annuity) annuityImmediate(i float64) float64 {
	n := a.count
	var pv float64
	if scalar.EqualWithinAbs(i, a.ratio, rateTolerance) {
		pv = n * a.amount / (1 + i)
	} else {
		pv = a.amount * (1 - math.Pow((1+a.ratio)/(1+i), n)) / (i - a.ratio)
	}
	if a.step == 0 {
		return pv
	}
	if i == 0 {
		return pv + a.step*n*(n-1)/2
	}
	an := (1 - math.Pow(1+i, -n)) / i
	return pv + a.step/i*(an-n*math.Pow(1+i, -n))
}

func (a *Annuity) arithmeticAV(i, n, s float64) float64 {
	if i == 0 {
		return a.step * n * (n - 1) / 2
	}
	return a.step / i * (s - n)
}

func (a *Annuity) perpetuityPV() (float64, error) {
	if tt, ok := a.acc.Law().(*growth.TieredTime); ok {
		return a.tieredPerpetuityPV(tt)
	}
	if !a.acc.IsCompound() {
		return 0, fmt.Errorf("%w: perpetuities need a compound or time-tiered growth law", rate.ErrValidation)
	}
	i := a.acc.Value(a.period)/a.acc.Value(0) - 1
	if i-a.ratio <= rateTolerance {
		return 0, fmt.Errorf("%w: payments grow at %g, not slower than the rate %g", ErrArithmetic, a.ratio, i)
	}
	pv := a.amount / (i - a.ratio)
	if a.step != 0 {
		if i <= 0 {
			return 0, fmt.Errorf("%w: increasing perpetuity at a non-positive rate", ErrArithmetic)
		}
		m := 1.0
		if a.stepEvery != 0 {
			m = a.stepEvery / a.period
			if math.Abs(m-math.Round(m)) > intTolerance*math.Max(1, m) {
				return 0, fmt.Errorf("%w: step interval %g is not a whole number of periods %g", rate.ErrValidation, a.stepEvery, a.period)
			}
			m = math.Round(m)
		}
		// a level perpetuity of step starts after every m payments
		pv += a.step / (i * (math.Pow(1+i, m) - 1))
	}
	if a.timing == Due {
		pv *= 1 + i
	}
	return pv * a.acc.PresentValue(1, a.deferral), nil
}

// tieredPerpetuityPV walks the tiers from the first payment, summing the
// geometric run of payments inside each tier and carrying the discount
// factor and payment amount into the next. Tier boundaries must fall on
// payment dates.
func (a *Annuity) tieredPerpetuityPV(tt *growth.TieredTime) (float64, error) {
	if a.step != 0 {
		return 0, fmt.Errorf("%w: arithmetic perpetuities need a compound growth law", rate.ErrValidation)
	}
	tiers, rates := tt.Tiers(), tt.Rates()
	t := a.deferral + a.period*a.timing.offset()
	df := a.acc.PresentValue(1, t)
	amt := a.amount
	pv := amt * df
	for j := range tiers {
		if j+1 < len(tiers) && tiers[j+1] <= t {
			continue
		}
		v := math.Pow(1+rates[j].Magnitude, -a.period)
		q := (1 + a.ratio) * v
		if j+1 == len(tiers) {
			if q >= 1-rateTolerance {
				return 0, fmt.Errorf("%w: payments grow at %g, not slower than the last tier rate", ErrArithmetic, a.ratio)
			}
			return pv + amt*df*q/(1-q), nil
		}
		steps := (tiers[j+1] - t) / a.period
		m := math.Round(steps)
		if math.Abs(steps-m) > intTolerance*math.Max(1, steps) {
			return 0, fmt.Errorf("%w: tier boundary %g is not a payment date", rate.ErrValidation, tiers[j+1])
		}
		if q == 1 {
			pv += amt * df * m
		} else {
			pv += amt * df * q * (1 - math.Pow(q, m)) / (1 - q)
		}
		amt *= math.Pow(1+a.ratio, m)
		df *= math.Pow(v, m)
		t = tiers[j+1]
	}
	return pv, nil
}

// payRate is the continuous payment rate per year at time t after the
// deferral.
func (a *Annuity) payRate(t float64) float64 {
	if a.rateFunc != nil {
		return a.rateFunc(t)
	}
	if a.stepEvery != 0 {
		return a.amount + a.step*math.Floor(t/a.stepEvery+intTolerance)
	}
	return a.amount + a.step*t
}

func (a *Annuity) continuousPV() (float64, error) {
	n := a.term
	if a.rateFunc == nil && (a.step == 0 || a.stepEvery == 0) {
		if r, ok := a.acc.Rate(); ok {
			delta := math.Log1p(r.Magnitude)
			var pv float64
			if delta == 0 {
				pv = a.amount*n + a.step*n*n/2
			} else {
				abar := (1 - math.Exp(-delta*n)) / delta
				pv = a.amount*abar + a.step*(abar-n*math.Exp(-delta*n))/delta
			}
			return pv * a.acc.PresentValue(1, a.deferral), nil
		}
	}
	pv := solve.Integrate(func(t float64) float64 {
		return a.payRate(t) * a.acc.PresentValue(1, a.deferral+t)
	}, 0, n)
	return pv, nil
}

func (a *Annuity) continuousAV(end float64) (float64, error) {
	n := a.term
	if a.rateFunc == nil && (a.step == 0 || a.stepEvery == 0) {
		if r, ok := a.acc.Rate(); ok {
			delta := math.Log1p(r.Magnitude)
			if delta == 0 {
				return a.amount*n + a.step*n*n/2, nil
			}
			sbar := (math.Exp(delta*n) - 1) / delta
			return a.amount*sbar + a.step*(sbar-n)/delta, nil
		}
	}
	pv, err := a.continuousPV()
	if err != nil {
		return 0, err
	}
	return pv * a.acc.Value(end), nil
}

// reinvestedAV is the principal returned plus the interest on it,
// reinvested at the second law: nA + A·i·(Is) at the reinvestment rate,
// over n-1 periods when paid in arrears and n when paid in advance.
func (a *Annuity) reinvestedAV() (float64, error) {
	if a.horizon != Finite || !a.level || a.hasFinal || !a.acc.IsLevel() || !a.reinvest.IsLevel() {
		return 0, fmt.Errorf("%w: reinvestment needs level payments under level growth laws", rate.ErrValidation)
	}
	i := a.acc.Value(a.period)/a.acc.Value(0) - 1
	r := a.reinvest.Value(a.period)/a.reinvest.Value(0) - 1
	n := a.count
	m := n - 1
	if a.timing == Due {
		m = n
	}
	return n*a.amount + a.amount*i*increasingS(r, m), nil
}

// increasingS is (Is)_m: the value at m of 1, 2, ..., m paid at the end of
// each period.
func increasingS(r, m float64) float64 {
	if r == 0 {
		return m * (m + 1) / 2
	}
	sdue := (math.Pow(1+r, m) - 1) / r * (1 + r)
	return (sdue - m) / r
}
