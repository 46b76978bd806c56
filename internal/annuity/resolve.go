package annuity

import (
	"fmt"
	"math"
	"slices"

	"github.com/SimonSchneider/tmval/internal/growth"
	"github.com/SimonSchneider/tmval/internal/rate"
	"github.com/SimonSchneider/tmval/internal/value"
)

// Strategy names how the schedule was pinned down.
type Strategy int

const (
	// ByTerm divides a given term into periods.
	ByTerm Strategy = iota
	// ByCount multiplies a given payment count by the period.
	ByCount
	// ByCountAndLoan fixes the count and settles the loan with the last
	// payment.
	ByCountAndLoan
	// BySchedule takes explicit, evenly spaced payments.
	BySchedule
	// ByLoan solves the count that repays a loan with level payments.
	ByLoan
	// ByPerpetuity pays forever.
	ByPerpetuity
	// ByContinuousTerm pays continuously over a given term.
	ByContinuousTerm
	// ByContinuousLoan solves the term that repays a loan with continuous
	// level payments.
	ByContinuousLoan
)

func (s Strategy) String() string {
	return [...]string{"term", "count", "count and loan", "schedule", "loan", "perpetuity", "continuous term", "continuous loan"}[s]
}

// New resolves the options into a complete annuity under acc.
func New(acc *growth.Accumulation, opts ...Option) (*Annuity, error) {
	if acc == nil {
		return nil, fmt.Errorf("%w: growth law is required", rate.ErrValidation)
	}
	p := params{amount: 1, period: 1}
	for _, o := range opts {
		o(&p)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	a := &Annuity{
		acc:      acc,
		reinvest: p.reinvest,
		rateFunc: p.rateFunc,
		amount:   p.amount,
		period:   p.period,
		step:     p.step,
		ratio:    p.ratio,
		deferral: p.deferral,
		timing:   p.timing,
		policy:   p.policy,
	}
	if p.stepEvery != p.period {
		a.stepEvery = p.stepEvery
	}
	var err error
	switch a.strategy = p.strategy(); a.strategy {
	case ByPerpetuity:
		err = a.resolvePerpetuity(p)
	case ByContinuousTerm:
		err = a.resolveContinuousTerm(p)
	case ByContinuousLoan:
		err = a.resolveContinuousLoan(p)
	case BySchedule:
		err = a.resolveSchedule(p)
	case ByTerm:
		err = a.resolveFractional(*p.term / p.period)
	case ByCount:
		err = a.resolveFractional(*p.count)
	case ByCountAndLoan:
		err = a.resolveCountAndLoan(p)
	case ByLoan:
		err = a.resolveLoan(p)
	default:
		err = fmt.Errorf("%w: give a term, a payment count, a loan amount or a schedule", ErrUnderdetermined)
	}
	if err != nil {
		return nil, err
	}
	if a.horizon == Finite {
		opts := []value.Option{value.WithGrowth(acc)}
		if p.logger != nil {
			opts = append(opts, value.WithLogger(p.logger))
		}
		if a.flows, err = value.New(a.flowAmounts, a.flowTimes, opts...); err != nil {
			return nil, err
		}
		a.flowAmounts, a.flowTimes = nil, nil
	}
	return a, nil
}

func (p params) perpetual() bool {
	return (p.term != nil && math.IsInf(*p.term, 1)) || (p.count != nil && math.IsInf(*p.count, 1))
}

func (p params) strategy() Strategy {
	switch {
	case p.perpetual():
		return ByPerpetuity
	case p.period == 0 && p.term != nil:
		return ByContinuousTerm
	case p.period == 0 && p.loan != nil:
		return ByContinuousLoan
	case p.schedule != nil:
		return BySchedule
	case p.term != nil:
		return ByTerm
	case p.count != nil && p.loan != nil:
		return ByCountAndLoan
	case p.count != nil:
		return ByCount
	case p.loan != nil:
		return ByLoan
	}
	return -1
}

func (p params) validate() error {
	if p.timingErr != nil {
		return p.timingErr
	}
	if p.timing != Immediate && p.timing != Due {
		return fmt.Errorf("%w: unknown timing %d", rate.ErrValidation, int(p.timing))
	}
	if p.policy < NoPolicy || p.policy > Balloon {
		return fmt.Errorf("%w: unknown final payment policy %d", rate.ErrValidation, int(p.policy))
	}
	for name, v := range map[string]float64{"amount": p.amount, "period": p.period, "step": p.step, "step interval": p.stepEvery, "ratio": p.ratio, "deferral": p.deferral} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be finite", rate.ErrValidation, name)
		}
	}
	if p.period < 0 || p.deferral < 0 || p.stepEvery < 0 {
		return fmt.Errorf("%w: period, deferral and step interval cannot be negative", rate.ErrValidation)
	}
	if p.ratio <= -1 {
		return fmt.Errorf("%w: geometric ratio %g must exceed -1", rate.ErrValidation, p.ratio)
	}
	if p.term != nil && (*p.term <= 0 || math.IsNaN(*p.term)) {
		return fmt.Errorf("%w: term must be positive", rate.ErrValidation)
	}
	if p.count != nil && (*p.count <= 0 || math.IsNaN(*p.count)) {
		return fmt.Errorf("%w: payment count must be positive", rate.ErrValidation)
	}
	if p.term != nil && p.count != nil && !math.IsInf(*p.term, 1) && math.Abs(*p.term-*p.count*p.period) > intTolerance*math.Max(1, *p.term) {
		return fmt.Errorf("%w: term %g does not match %g payments every %g", rate.ErrValidation, *p.term, *p.count, p.period)
	}
	if p.loan != nil {
		switch {
		case *p.loan <= 0:
			return fmt.Errorf("%w: loan amount must be positive", rate.ErrValidation)
		case p.amount <= 0:
			return fmt.Errorf("%w: loan payments must be positive", rate.ErrValidation)
		case p.term != nil:
			return fmt.Errorf("%w: a loan fixes the term, do not give both", rate.ErrValidation)
		case p.timing == Due || p.deferral != 0 || p.step != 0 || p.ratio != 0:
			return fmt.Errorf("%w: loan-style annuities pay level amounts in arrears", rate.ErrValidation)
		}
	}
	if p.period == 0 {
		if p.timing == Due || p.policy != NoPolicy || p.schedule != nil || p.count != nil || p.ratio != 0 {
			return fmt.Errorf("%w: continuous annuities take a term or loan and an amount or rate function", rate.ErrValidation)
		}
	}
	if p.rateFunc != nil && (p.step != 0 || p.loan != nil) {
		return fmt.Errorf("%w: a payment rate function replaces amount, step and loan", rate.ErrValidation)
	}
	if p.schedule != nil && (p.term != nil || p.count != nil || p.loan != nil || p.step != 0 || p.ratio != 0) {
		return fmt.Errorf("%w: a payment schedule already fixes term, count and amounts", rate.ErrValidation)
	}
	return nil
}

func (a *Annuity) resolvePerpetuity(p params) error {
	if p.policy != NoPolicy {
		return fmt.Errorf("%w: a perpetuity has no final payment to %s", rate.ErrValidation, p.policy)
	}
	if p.loan != nil {
		return fmt.Errorf("%w: a perpetuity never repays a loan", rate.ErrValidation)
	}
	if p.period == 0 {
		return fmt.Errorf("%w: continuous perpetuities are not supported", rate.ErrValidation)
	}
	a.horizon = Perpetual
	a.term, a.count = math.Inf(1), math.Inf(1)
	a.level = p.step == 0 && p.ratio == 0
	return nil
}

func (a *Annuity) resolveContinuousTerm(p params) error {
	a.horizon = Continuous
	a.term, a.count = *p.term, math.Inf(1)
	a.level = a.rateFunc == nil && a.step == 0
	return nil
}

// resolveContinuousLoan solves L = A(1-e^{-δn})/δ for n.
func (a *Annuity) resolveContinuousLoan(p params) error {
	delta, err := a.force()
	if err != nil {
		return err
	}
	a.horizon = Continuous
	a.count = math.Inf(1)
	a.level = a.step == 0
	if delta == 0 {
		a.term = *p.loan / a.amount
		return nil
	}
	x := 1 - *p.loan*delta/a.amount
	if x <= 0 {
		return fmt.Errorf("%w: payments of %g never repay %g", ErrArithmetic, a.amount, *p.loan)
	}
	a.term = -math.Log(x) / delta
	return nil
}

func (a *Annuity) resolveSchedule(p params) error {
	s := p.schedule
	if len(s.amounts) != len(s.times) || len(s.times) < 2 {
		return fmt.Errorf("%w: a schedule needs at least two payments with matching times", rate.ErrValidation)
	}
	idx := make([]int, len(s.times))
	for i := range idx {
		idx[i] = i
	}
	slices.SortFunc(idx, func(i, j int) int {
		switch {
		case s.times[i] < s.times[j]:
			return -1
		case s.times[i] > s.times[j]:
			return 1
		}
		return 0
	})
	times := make([]float64, len(idx))
	amounts := make([]float64, len(idx))
	for k, i := range idx {
		times[k], amounts[k] = s.times[i], s.amounts[i]
	}
	period := round7(times[1] - times[0])
	for k := 2; k < len(times); k++ {
		if round7(times[k]-times[k-1]) != period {
			return fmt.Errorf("%w: gap %g after %g differs from %g", ErrStructure, times[k]-times[k-1], times[k-1], period)
		}
	}
	if period <= 0 {
		return fmt.Errorf("%w: payments must be at distinct times", ErrStructure)
	}
	a.horizon = Finite
	a.period = period
	a.count = float64(len(times))
	a.term = a.count * period
	a.amount = amounts[0]
	a.custom = true
	if times[0] < period {
		a.timing = Due
		a.deferral += times[0]
	} else {
		a.timing = Immediate
		a.deferral += times[0] - period
	}
	a.level = slices.IndexFunc(amounts, func(v float64) bool { return v != amounts[0] }) < 0
	for k := range times {
		times[k] += p.deferral
	}
	a.flowAmounts, a.flowTimes = amounts, times
	return nil
}

// resolveFractional lays out r payments. A fractional remainder is settled
// by the policy, dropping by default: the next payment's value accrued over
// the fraction is paid at the term (one period after the last payment when
// due), or discounted into the last payment.
func (a *Annuity) resolveFractional(r float64) error {
	n, f := splitCount(r)
	if n == 0 {
		return fmt.Errorf("%w: term is shorter than one period", rate.ErrValidation)
	}
	a.horizon = Finite
	a.term = r * a.period
	a.layout(n)
	if f == 0 {
		a.count = float64(n)
		a.level = a.step == 0 && a.ratio == 0
		return nil
	}
	i, err := a.periodRate()
	if err != nil {
		return err
	}
	next := a.amount*math.Pow(1+a.ratio, float64(n)) + a.step*a.steps(n)
	extra := next * sAngle(i, f)
	switch a.policy {
	case Balloon:
		a.settle(n, extra*math.Pow(1+i, -f), 0)
	default:
		a.policy = Drop
		if a.timing == Due {
			a.settle(n, extra*math.Pow(1+i, 1-f), float64(n)*a.period+a.deferral)
		} else {
			a.settle(n, extra, a.term+a.deferral)
		}
	}
	return nil
}

// resolveLoan solves L = Q·a_r for r and settles the fraction by policy:
// a drop payment one period after the last full payment, or a balloon.
func (a *Annuity) resolveLoan(p params) error {
	i, err := a.periodRate()
	if err != nil {
		return err
	}
	r, err := loanCount(*p.loan, a.amount, i)
	if err != nil {
		return err
	}
	n, f := splitCount(r)
	a.horizon = Finite
	a.layout(n)
	a.term = float64(n) * a.period
	if f == 0 {
		a.count = float64(n)
		a.level = true
		return nil
	}
	frac := a.amount * sAngle(i, f)
	switch a.policy {
	case Balloon:
		if n == 0 {
			return fmt.Errorf("%w: loan is repaid before the first full payment, use a drop payment", rate.ErrValidation)
		}
		a.settle(n, frac*math.Pow(1+i, -f), 0)
	default:
		a.policy = Drop
		a.term = float64(n+1) * a.period
		a.settle(n, frac*math.Pow(1+i, 1-f), a.term)
	}
	return nil
}

// resolveCountAndLoan makes count payments of the level amount except the
// last, which pays whatever balance remains.
func (a *Annuity) resolveCountAndLoan(p params) error {
	n, f := splitCount(*p.count)
	if f != 0 {
		return fmt.Errorf("%w: payment count %g must be whole when a loan is given", rate.ErrValidation, *p.count)
	}
	i, err := a.periodRate()
	if err != nil {
		return err
	}
	a.horizon = Finite
	a.term = float64(n) * a.period
	a.layout(n)
	final := *p.loan*math.Pow(1+i, float64(n)) - a.amount*sAngle(i, float64(n-1))*(1+i)
	switch {
	case final <= 0:
		return fmt.Errorf("%w: the loan is repaid before payment %d", rate.ErrValidation, n)
	case math.Abs(final-a.amount) <= intTolerance*math.Max(1, a.amount):
		a.count = float64(n)
		a.level = true
		return nil
	}
	a.settle(n, final-a.amount, 0)
	return nil
}

// layout builds n payments from the amount, step and ratio.
func (a *Annuity) layout(n int) {
	a.flowAmounts = make([]float64, n)
	a.flowTimes = make([]float64, n)
	for k := range n {
		a.flowAmounts[k] = a.amount*math.Pow(1+a.ratio, float64(k)) + a.step*a.steps(k)
		a.flowTimes[k] = a.period*(float64(k)+a.timing.offset()) + a.deferral
	}
}

// steps is how many arithmetic steps payment k carries.
func (a *Annuity) steps(k int) float64 {
	if a.stepEvery == 0 {
		return float64(k)
	}
	return math.Floor(float64(k)*a.period/a.stepEvery + intTolerance)
}

// settle adds extra to the n-th payment, or, when at is positive, pays it
// separately at that time.
func (a *Annuity) settle(n int, extra, at float64) {
	a.hasFinal = true
	a.level = false
	if at > 0 {
		a.final = extra
		a.flowAmounts = append(a.flowAmounts, extra)
		a.flowTimes = append(a.flowTimes, at)
		a.count = float64(n + 1)
		return
	}
	a.flowAmounts[n-1] += extra
	a.final = a.flowAmounts[n-1]
	a.count = float64(n)
}

// periodRate is the effective rate per payment period. It needs a level
// law so that every period earns the same.
func (a *Annuity) periodRate() (float64, error) {
	if !a.acc.IsLevel() {
		return 0, fmt.Errorf("%w: solving the schedule needs a level growth law", rate.ErrValidation)
	}
	return a.acc.Value(a.period)/a.acc.Value(0) - 1, nil
}

func (a *Annuity) force() (float64, error) {
	r, ok := a.acc.Rate()
	if !ok {
		return 0, fmt.Errorf("%w: continuous closed forms need a compound growth law", rate.ErrValidation)
	}
	return math.Log1p(r.Magnitude), nil
}

// loanCount solves L = Q·a_r at period rate i for the possibly fractional
// payment count r.
func loanCount(loan, q, i float64) (float64, error) {
	if i == 0 {
		return loan / q, nil
	}
	x := 1 - i*loan/q
	if x <= 0 {
		return 0, fmt.Errorf("%w: payments of %g do not cover interest on %g", ErrArithmetic, q, loan)
	}
	return -math.Log(x) / math.Log1p(i), nil
}

// splitCount separates whole payments from the fraction, treating counts
// within intTolerance of a whole number as whole.
func splitCount(r float64) (int, float64) {
	if n := math.Round(r); math.Abs(r-n) <= intTolerance*math.Max(1, r) {
		return int(n), 0
	}
	n := math.Floor(r)
	return int(n), r - n
}

// sAngle is s_n at rate i: the value at n of 1 paid at the end of each of n
// periods. n may be fractional.
func sAngle(i, n float64) float64 {
	if i == 0 {
		return n
	}
	return (math.Pow(1+i, n) - 1) / i
}

func round7(x float64) float64 {
	return math.Round(x*1e7) / 1e7
}
