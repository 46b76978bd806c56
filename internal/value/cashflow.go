// Package value holds CashFlow, a set of dated payments that can be valued
// under a growth law and solved for its yield.
package value

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/SimonSchneider/tmval/internal/growth"
	"github.com/SimonSchneider/tmval/internal/rate"
)

var ErrNoGrowth = errors.New("cash flow has no growth law")

// Logger receives warnings that do not fail a computation. *log.Logger
// satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Flow is a single payment.
type Flow struct {
	Time   float64
	Amount float64
}

type CashFlow struct {
	times   []float64
	amounts []float64
	acc     *growth.Accumulation
	logger  Logger
	solver  YieldSolver
}

type Option func(*CashFlow)

func WithGrowth(acc *growth.Accumulation) Option {
	return func(cf *CashFlow) {
		cf.acc = acc
	}
}

// WithRate binds the growth law implied by r.
func WithRate(r rate.Rate) Option {
	return func(cf *CashFlow) {
		cf.acc = growth.FromRate(r)
	}
}

func WithLogger(l Logger) Option {
	return func(cf *CashFlow) {
		if l != nil {
			cf.logger = l
		}
	}
}

// WithYieldSolver overrides the strategy IRR would otherwise pick from the
// payment times.
func WithYieldSolver(s YieldSolver) Option {
	return func(cf *CashFlow) {
		cf.solver = s
	}
}

func New(amounts, times []float64, opts ...Option) (*CashFlow, error) {
	if err := checkPayments(amounts, times); err != nil {
		return nil, err
	}
	cf := &CashFlow{
		times:   slices.Clone(times),
		amounts: slices.Clone(amounts),
		logger:  nopLogger{},
	}
	for _, o := range opts {
		o(cf)
	}
	return cf, nil
}

func Must(cf *CashFlow, err error) *CashFlow {
	if err != nil {
		panic(err)
	}
	return cf
}

// Append adds payments in place. Nothing is added when the lists differ in
// length or a time is not finite.
func (cf *CashFlow) Append(amounts, times []float64) error {
	if err := checkPayments(amounts, times); err != nil {
		return err
	}
	cf.amounts = append(cf.amounts, amounts...)
	cf.times = append(cf.times, times...)
	return nil
}

func checkPayments(amounts, times []float64) error {
	if len(amounts) != len(times) {
		return fmt.Errorf("%w: %d amounts but %d times", rate.ErrValidation, len(amounts), len(times))
	}
	for _, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("%w: payment time %g is not finite", rate.ErrValidation, t)
		}
	}
	return nil
}

func (cf *CashFlow) Len() int {
	return len(cf.times)
}

func (cf *CashFlow) Times() []float64 {
	return slices.Clone(cf.times)
}

func (cf *CashFlow) Amounts() []float64 {
	return slices.Clone(cf.amounts)
}

func (cf *CashFlow) Growth() *growth.Accumulation {
	return cf.acc
}

// Grouped returns the payments sorted by time with amounts due at the same
// time summed.
func (cf *CashFlow) Grouped() []Flow {
	flows := make([]Flow, len(cf.times))
	for i := range cf.times {
		flows[i] = Flow{Time: cf.times[i], Amount: cf.amounts[i]}
	}
	slices.SortStableFunc(flows, func(a, b Flow) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})
	out := flows[:0]
	for _, f := range flows {
		if n := len(out); n > 0 && out[n-1].Time == f.Time {
			out[n-1].Amount += f.Amount
			continue
		}
		out = append(out, f)
	}
	return out
}

func (cf *CashFlow) accumulation() (*growth.Accumulation, error) {
	if cf.acc == nil {
		return nil, ErrNoGrowth
	}
	return cf.acc, nil
}

// NPV is the sum of every payment discounted to time 0.
func (cf *CashFlow) NPV() (float64, error) {
	acc, err := cf.accumulation()
	if err != nil {
		return 0, err
	}
	var pv float64
	for i, t := range cf.times {
		pv += acc.PresentValue(cf.amounts[i], t)
	}
	return pv, nil
}

// EquatedValue restates every payment to time t.
func (cf *CashFlow) EquatedValue(t float64) (float64, error) {
	acc, err := cf.accumulation()
	if err != nil {
		return 0, err
	}
	vt := acc.Value(t)
	var sum float64
	for i, tk := range cf.times {
		sum += cf.amounts[i] * vt / acc.Value(tk)
	}
	return sum, nil
}

// Balance is the running balance at time t: each payment up to and including
// t is added and the total is grown between payment dates. Balance-tiered
// laws see the balance at each step.
func (cf *CashFlow) Balance(t float64) (float64, error) {
	acc, err := cf.accumulation()
	if err != nil {
		return 0, err
	}
	var (
		bal  float64
		last float64
	)
	for j, f := range cf.Grouped() {
		if f.Time > t {
			break
		}
		if j > 0 {
			bal = acc.Amount(bal, f.Time-last)
		}
		bal += f.Amount
		last = f.Time
	}
	if t > last {
		bal = acc.Amount(bal, t-last)
	}
	return bal, nil
}

// EquatedTime is the time at which a single payment of c has the same
// present value as the whole cash flow.
func (cf *CashFlow) EquatedTime(c float64) (float64, error) {
	pv, err := cf.NPV()
	if err != nil {
		return 0, err
	}
	t, err := cf.acc.SolveTime(pv, c)
	if err != nil {
		return 0, fmt.Errorf("equated time for %g: %w", c, err)
	}
	return t, nil
}
