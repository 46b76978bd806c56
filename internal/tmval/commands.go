package tmval

import (
	"flag"
	"fmt"
	"io"
	"math"

	"github.com/SimonSchneider/goslu/date"
	"github.com/SimonSchneider/goslu/static/shttp"
	"github.com/SimonSchneider/tmval/internal/annuity"
	"github.com/SimonSchneider/tmval/internal/daycount"
	"github.com/SimonSchneider/tmval/internal/growth"
	"github.com/SimonSchneider/tmval/internal/rate"
	"github.com/SimonSchneider/tmval/internal/ui"
	"github.com/SimonSchneider/tmval/internal/value"
)

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// rateFlags describe a rate as magnitude, pattern and frequency or interval.
type rateFlags struct {
	magnitude, pattern, freq, interval *string
}

func addRateFlags(fs *flag.FlagSet, prefix string) rateFlags {
	return rateFlags{
		magnitude: fs.String(prefix+"rate", "", "rate magnitude, e.g. 5% or 0.05"),
		pattern:   fs.String(prefix+"pattern", "i", "rate pattern: i, d, apr, nomdisc, delta, s, sd"),
		freq:      fs.String(prefix+"freq", "", "compounding frequency for nominal rates"),
		interval:  fs.String(prefix+"interval", "", "effective interval in years"),
	}
}

func (f rateFlags) parse() (rate.Rate, error) {
	if *f.magnitude == "" {
		return rate.Rate{}, fmt.Errorf("%w: a rate is required", ErrUsage)
	}
	var r rate.Rate
	if err := shttp.Parse(&r.Magnitude, ui.ParseAmount, *f.magnitude, 0); err != nil {
		return rate.Rate{}, fmt.Errorf("rate: %w", err)
	}
	pattern, err := rate.ParsePattern(*f.pattern)
	if err != nil {
		return rate.Rate{}, err
	}
	return f.withPattern(r.Magnitude, pattern)
}

func (f rateFlags) withPattern(magnitude float64, pattern rate.Pattern) (rate.Rate, error) {
	var opts []rate.Option
	switch {
	case pattern.IsNominal():
		var freq float64
		if err := shttp.Parse(&freq, ui.ParseAmount, *f.freq, 1); err != nil {
			return rate.Rate{}, fmt.Errorf("freq: %w", err)
		}
		opts = append(opts, rate.WithFreq(freq))
	case pattern.HasInterval():
		var interval float64
		if err := shttp.Parse(&interval, ui.ParseAmount, *f.interval, 1); err != nil {
			return rate.Rate{}, fmt.Errorf("interval: %w", err)
		}
		opts = append(opts, rate.WithInterval(interval))
	}
	return rate.New(magnitude, pattern, opts...)
}

func runConvert(_ Config, args []string, stdout io.Writer, _ value.Logger) error {
	fs := newFlags("convert")
	from := addRateFlags(fs, "")
	to := addRateFlags(fs, "to-")
	target := fs.String("to", "", "target pattern")
	if err := fs.Parse(args); err != nil {
		return err
	}
	r, err := from.parse()
	if err != nil {
		return err
	}
	if *target == "" {
		_, err = fmt.Fprintln(stdout, r.Standardize().String())
		return err
	}
	pattern, err := rate.ParsePattern(*target)
	if err != nil {
		return err
	}
	shape, err := to.withPattern(0, pattern)
	if err != nil {
		return err
	}
	var opts []rate.Option
	switch {
	case pattern.IsNominal():
		opts = append(opts, rate.WithFreq(shape.Freq))
	case pattern.HasInterval():
		opts = append(opts, rate.WithInterval(shape.Interval))
	}
	out, err := r.Convert(pattern, opts...)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, out.String())
	return err
}

// annuityFlags are the schedule options shared by annuity and loan.
type annuityFlags struct {
	amount, period, term, count, loan, step, stepEvery, ratio, deferral, timing, policy *string
}

func addAnnuityFlags(fs *flag.FlagSet) annuityFlags {
	return annuityFlags{
		amount:    fs.String("amount", "", "first payment, default 1"),
		period:    fs.String("period", "", "years between payments, default 1, 0 for continuous"),
		term:      fs.String("term", "", "term in years, inf for a perpetuity"),
		count:     fs.String("count", "", "number of payments"),
		loan:      fs.String("loan", "", "loan principal to repay"),
		step:      fs.String("step", "", "arithmetic increase per payment"),
		stepEvery: fs.String("step-every", "", "years between arithmetic increases, default every payment"),
		ratio:     fs.String("ratio", "", "geometric growth per payment"),
		deferral:  fs.String("deferral", "", "years before the first period starts"),
		timing:    fs.String("timing", "immediate", "immediate or due"),
		policy:    fs.String("policy", "", "drop or balloon for a fractional payment count"),
	}
}

type numberFlag struct {
	name string
	val  *string
	def  float64
	set  func(float64) annuity.Option
}

func (f annuityFlags) options(withAmount bool) ([]annuity.Option, error) {
	opts := []annuity.Option{annuity.WithTimingName(*f.timing)}
	policy, err := annuity.ParsePolicy(*f.policy)
	if err != nil {
		return nil, err
	}
	opts = append(opts, annuity.WithPolicy(policy))
	numbers := []numberFlag{
		{"period", f.period, 1, annuity.WithPeriod},
		{"step", f.step, 0, annuity.WithArithmetic},
		{"step-every", f.stepEvery, 0, annuity.WithStepEvery},
		{"ratio", f.ratio, 0, annuity.WithGeometric},
		{"deferral", f.deferral, 0, annuity.WithDeferral},
	}
	if withAmount {
		numbers = append(numbers, numberFlag{"amount", f.amount, 1, annuity.WithAmount})
	}
	for _, n := range numbers {
		var v float64
		if err := shttp.Parse(&v, ui.ParseHumanNumber(ui.ParseAmount), *n.val, n.def); err != nil {
			return nil, fmt.Errorf("%s: %w", n.name, err)
		}
		opts = append(opts, n.set(v))
	}
	optional := []numberFlag{
		{"term", f.term, 0, annuity.WithTerm},
		{"count", f.count, 0, annuity.WithCount},
		{"loan", f.loan, 0, annuity.WithLoan},
	}
	for _, o := range optional {
		v, err := ui.ParseNullableAmount(*o.val)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", o.name, err)
		}
		if v != nil {
			opts = append(opts, o.set(*v))
		}
	}
	return opts, nil
}

func runAnnuity(_ Config, args []string, stdout io.Writer, logger value.Logger) error {
	fs := newFlags("annuity")
	rf := addRateFlags(fs, "")
	af := addAnnuityFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	r, err := rf.parse()
	if err != nil {
		return err
	}
	opts, err := af.options(true)
	if err != nil {
		return err
	}
	a, err := annuity.New(growth.FromRate(r), append(opts, annuity.WithLogger(logger))...)
	if err != nil {
		return err
	}
	pv, err := a.PresentValue()
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s by %s\n", a.Horizon(), a.Strategy())
	if !math.IsInf(a.Count(), 1) {
		fmt.Fprintf(stdout, "payments: %s\n", ui.FormatWithThousands(a.Count()))
	}
	fmt.Fprintf(stdout, "term: %g\n", a.Term())
	if final, ok := a.FinalPayment(); ok {
		fmt.Fprintf(stdout, "final payment: %s\n", ui.FormatMoney(final))
	}
	fmt.Fprintf(stdout, "present value: %s\n", ui.FormatMoney(pv))
	if a.Horizon() == annuity.Perpetual {
		return nil
	}
	av, err := a.AccumulatedValue()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "accumulated value: %s\n", ui.FormatMoney(av))
	return err
}

func runLoan(cfg Config, args []string, stdout io.Writer, _ value.Logger) error {
	fs := newFlags("loan")
	rf := addRateFlags(fs, "")
	af := addAnnuityFlags(fs)
	principal := fs.String("principal", "", "amount borrowed")
	cents := fs.Bool("cents", cfg.Cents, "round payments up to the cent and adjust the last")
	if err := fs.Parse(args); err != nil {
		return err
	}
	r, err := rf.parse()
	if err != nil {
		return err
	}
	var l float64
	if err := shttp.Parse(&l, ui.ParseHumanNumber(ui.ParseAmount), *principal, 0); err != nil {
		return fmt.Errorf("principal: %w", err)
	}
	if l <= 0 {
		return fmt.Errorf("%w: a positive -principal is required", ErrUsage)
	}
	opts, err := af.options(false)
	if err != nil {
		return err
	}
	cf, err := annuity.LoanPayment(growth.FromRate(r), l, *cents, opts...)
	if err != nil {
		return err
	}
	times, amounts := cf.Times(), cf.Amounts()
	for i := range times {
		if _, err := fmt.Fprintf(stdout, "%g\t%s\n", times[i], ui.FormatMoney(amounts[i])); err != nil {
			return err
		}
	}
	return nil
}

// cashFlow reads payments as parallel amount and time lists. Times default
// to 0, 1, 2, ...
func cashFlow(fs *flag.FlagSet, args []string, needRate bool, extra ...value.Option) (*value.CashFlow, error) {
	rf := addRateFlags(fs, "")
	amounts := fs.String("amounts", "", "comma-separated payments")
	times := fs.String("times", "", "comma-separated payment times in years")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	var as, ts []float64
	if err := shttp.Parse(&as, ui.ParseList, *amounts, nil); err != nil {
		return nil, fmt.Errorf("amounts: %w", err)
	}
	if err := shttp.Parse(&ts, ui.ParseList, *times, nil); err != nil {
		return nil, fmt.Errorf("times: %w", err)
	}
	if len(as) == 0 {
		return nil, fmt.Errorf("%w: -amounts is required", ErrUsage)
	}
	if len(ts) == 0 {
		ts = make([]float64, len(as))
		for i := range ts {
			ts[i] = float64(i)
		}
	}
	opts := extra
	if needRate {
		r, err := rf.parse()
		if err != nil {
			return nil, err
		}
		opts = append(opts, value.WithRate(r))
	}
	return value.New(as, ts, opts...)
}

func runNPV(_ Config, args []string, stdout io.Writer, _ value.Logger) error {
	fs := newFlags("npv")
	at := fs.String("at", "", "also restate the payments to this time")
	cf, err := cashFlow(fs, args, true)
	if err != nil {
		return err
	}
	npv, err := cf.NPV()
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "npv: %s\n", ui.FormatMoney(npv))
	t, err := ui.ParseNullableAmount(*at)
	if err != nil || t == nil {
		return err
	}
	eq, err := cf.EquatedValue(*t)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "value at %g: %s\n", *t, ui.FormatMoney(eq))
	return err
}

func runIRR(_ Config, args []string, stdout io.Writer, logger value.Logger) error {
	fs := newFlags("irr")
	guess := fs.String("guess", "", "starting value of 1+i for fractional payment times")
	cf, err := cashFlow(fs, args, false, value.WithLogger(logger))
	if err != nil {
		return err
	}
	x0, err := ui.ParseNullableAmount(*guess)
	if err != nil {
		return fmt.Errorf("guess: %w", err)
	}
	yields, err := cf.IRRFrom(ui.OrDefault(x0, value.DefaultGuess))
	if err != nil {
		return err
	}
	for _, y := range yields {
		if _, err := fmt.Fprintln(stdout, ui.FormatPercent(y)); err != nil {
			return err
		}
	}
	return nil
}

func runYearFrac(cfg Config, args []string, stdout io.Writer, _ value.Logger) error {
	fs := newFlags("yearfrac")
	name := fs.String("convention", cfg.Convention, "30/360, act/360, act/365 or act/act")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: yearfrac [-convention c] <from> <to>", ErrUsage)
	}
	conv, err := daycount.ParseConvention(*name)
	if err != nil {
		return err
	}
	from, err := date.ParseDate(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("from: %w", err)
	}
	to, err := date.ParseDate(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("to: %w", err)
	}
	_, err = fmt.Fprintf(stdout, "%s (%s)\n", ui.FormatNumber(conv.YearFraction(from, to), 6), conv)
	return err
}
