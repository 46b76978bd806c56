// Package annuity resolves partially specified payment schedules into
// annuities and prices them, preferring closed forms when the growth law
// and payment pattern allow.
package annuity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SimonSchneider/tmval/internal/growth"
	"github.com/SimonSchneider/tmval/internal/rate"
	"github.com/SimonSchneider/tmval/internal/value"
)

var (
	// ErrUnderdetermined means the supplied term, count, loan and schedule do
	// not pin the payments down.
	ErrUnderdetermined = errors.New("annuity is underdetermined")
	// ErrStructure means supplied payment times are not evenly spaced; use a
	// value.CashFlow for those.
	ErrStructure = errors.New("payments are not evenly spaced, use a cash flow instead")
	// ErrArithmetic means a closed form has no finite value, such as a
	// perpetuity whose payments grow as fast as the discount rate.
	ErrArithmetic = errors.New("annuity has no finite value")
)

// intTolerance decides when a payment count is a whole number.
const intTolerance = 1e-9

type Timing int

const (
	Immediate Timing = iota
	Due
)

func ParseTiming(s string) (Timing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "immediate", "imd", "arrears":
		return Immediate, nil
	case "due", "advance":
		return Due, nil
	}
	return 0, fmt.Errorf("%w: timing must be immediate or due, got %q", rate.ErrValidation, s)
}

func (t Timing) String() string {
	if t == Due {
		return "due"
	}
	return "immediate"
}

// offset is the position of the first payment within its period.
func (t Timing) offset() float64 {
	if t == Due {
		return 0
	}
	return 1
}

// Policy settles a schedule whose payment count is not a whole number.
type Policy int

const (
	NoPolicy Policy = iota
	// Drop adds a smaller payment after the last full one.
	Drop
	// Balloon folds the remainder into the last full payment.
	Balloon
)

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return NoPolicy, nil
	case "drop":
		return Drop, nil
	case "balloon":
		return Balloon, nil
	}
	return 0, fmt.Errorf("%w: final payment policy must be drop or balloon, got %q", rate.ErrValidation, s)
}

func (p Policy) String() string {
	switch p {
	case Drop:
		return "drop"
	case Balloon:
		return "balloon"
	}
	return "none"
}

type Horizon int

const (
	Finite Horizon = iota
	Perpetual
	Continuous
)

func (h Horizon) String() string {
	switch h {
	case Perpetual:
		return "perpetuity"
	case Continuous:
		return "continuous"
	}
	return "annuity"
}

// params collects the options before resolution.
type params struct {
	amount    float64
	period    float64
	term      *float64
	count     *float64
	step      float64
	stepEvery float64
	ratio     float64
	deferral  float64
	timing    Timing
	timingErr error
	loan      *float64
	policy    Policy
	schedule  *schedule
	reinvest  *growth.Accumulation
	rateFunc  func(t float64) float64
	logger    value.Logger
}

type schedule struct {
	amounts []float64
	times   []float64
}

type Option func(*params)

func WithAmount(a float64) Option {
	return func(p *params) { p.amount = a }
}

func WithPeriod(period float64) Option {
	return func(p *params) { p.period = period }
}

// WithTerm sets the term in years. math.Inf(1) makes a perpetuity.
func WithTerm(term float64) Option {
	return func(p *params) { p.term = &term }
}

// WithCount sets the number of payments. math.Inf(1) makes a perpetuity.
func WithCount(n float64) Option {
	return func(p *params) { p.count = &n }
}

// WithArithmetic increases each payment by step over the previous one.
func WithArithmetic(step float64) Option {
	return func(p *params) { p.step = step }
}

// WithStepEvery applies the arithmetic step once every years instead of at
// every payment, e.g. monthly payments that rise once a year.
func WithStepEvery(years float64) Option {
	return func(p *params) { p.stepEvery = years }
}

// WithGeometric grows each payment by ratio over the previous one.
func WithGeometric(ratio float64) Option {
	return func(p *params) { p.ratio = ratio }
}

func WithDeferral(years float64) Option {
	return func(p *params) { p.deferral = years }
}

func WithTiming(t Timing) Option {
	return func(p *params) { p.timing = t }
}

// WithTimingName accepts "immediate" or "due".
func WithTimingName(s string) Option {
	return func(p *params) { p.timing, p.timingErr = ParseTiming(s) }
}

// WithLoan specifies the annuity as the repayment of a loan of the given
// principal; the number of payments is solved from it.
func WithLoan(principal float64) Option {
	return func(p *params) { p.loan = &principal }
}

func WithPolicy(policy Policy) Option {
	return func(p *params) { p.policy = policy }
}

// WithSchedule supplies the payments directly. Times must be evenly spaced.
func WithSchedule(amounts, times []float64) Option {
	return func(p *params) {
		p.schedule = &schedule{amounts: append([]float64(nil), amounts...), times: append([]float64(nil), times...)}
	}
}

// WithReinvestment reinvests the interest paid on each deposit at a second
// growth law when accumulating.
func WithReinvestment(acc *growth.Accumulation) Option {
	return func(p *params) { p.reinvest = acc }
}

// WithRateFunc pays continuously at rate f(t) per year. It implies period 0.
func WithRateFunc(f func(t float64) float64) Option {
	return func(p *params) {
		p.rateFunc = f
		p.period = 0
	}
}

func WithLogger(l value.Logger) Option {
	return func(p *params) { p.logger = l }
}

// Annuity is a resolved payment schedule bound to a growth law.
type Annuity struct {
	acc      *growth.Accumulation
	reinvest *growth.Accumulation
	rateFunc func(t float64) float64

	amount    float64
	period    float64
	term      float64
	count     float64
	step      float64
	stepEvery float64
	ratio     float64
	deferral  float64
	timing    Timing
	policy    Policy

	horizon  Horizon
	strategy Strategy
	final    float64
	hasFinal bool
	level    bool
	custom   bool

	flows       *value.CashFlow
	flowAmounts []float64
	flowTimes   []float64
}

func Must(a *Annuity, err error) *Annuity {
	if err != nil {
		panic(err)
	}
	return a
}

func (a *Annuity) Growth() *growth.Accumulation { return a.acc }
func (a *Annuity) Amount() float64 { return a.amount }
func (a *Annuity) Period() float64 { return a.period }
func (a *Annuity) Term() float64 { return a.term }
func (a *Annuity) Deferral() float64 { return a.deferral }
func (a *Annuity) Timing() Timing { return a.timing }
func (a *Annuity) Horizon() Horizon { return a.horizon }
func (a *Annuity) Strategy() Strategy { return a.strategy }

// Count is the number of discrete payments, including any drop payment. It
// is +Inf for perpetuities and continuous annuities.
func (a *Annuity) Count() float64 { return a.count }

// IsLevel reports whether every payment is the same amount, which makes the
// schedule eligible for the level closed forms.
func (a *Annuity) IsLevel() bool { return a.level }

// FinalPayment returns the drop, balloon or balance-settling payment, if
// resolution produced one.
func (a *Annuity) FinalPayment() (float64, bool) {
	return a.final, a.hasFinal
}

// CashFlow returns the discrete payments. Perpetuities and continuous
// annuities have none.
func (a *Annuity) CashFlow() (*value.CashFlow, error) {
	if a.flows == nil {
		return nil, fmt.Errorf("%w: a %s has no finite payment list", rate.ErrValidation, a.horizon)
	}
	return a.flows, nil
}
