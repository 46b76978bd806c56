package rate

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	ErrValidation = errors.New("invalid rate")
	// ErrIncompatible is returned for conversions and comparisons across the
	// simple/compound boundary or between the two simple families.
	ErrIncompatible = fmt.Errorf("%w: incompatible rate families", ErrValidation)
)

// Rate is an immutable interest or discount rate. Freq is only meaningful
// for nominal patterns, Interval only for effective and simple patterns.
type Rate struct {
	Magnitude float64
	Pattern   Pattern
	Freq      float64
	Interval  float64
}

type Option func(*Rate)

// WithFreq sets the compounding frequency, in times per year.
func WithFreq(m float64) Option {
	return func(r *Rate) {
		r.Freq = m
	}
}

// WithInterval sets the effective interval, in years.
func WithInterval(t float64) Option {
	return func(r *Rate) {
		r.Interval = t
	}
}

func New(magnitude float64, pattern Pattern, opts ...Option) (Rate, error) {
	r := Rate{Magnitude: magnitude, Pattern: pattern}
	for _, opt := range opts {
		opt(&r)
	}
	if err := r.validate(); err != nil {
		return Rate{}, err
	}
	return r, nil
}

func Must(r Rate, err error) Rate {
	if err != nil {
		panic(err)
	}
	return r
}

// Effective returns an annual effective interest rate.
func Effective(i float64) Rate {
	return Rate{Magnitude: i, Pattern: EffectiveInterest, Interval: 1}
}

// Discount returns an annual effective discount rate.
func Discount(d float64) Rate {
	return Rate{Magnitude: d, Pattern: EffectiveDiscount, Interval: 1}
}

func Nominal(im, m float64) Rate {
	return Rate{Magnitude: im, Pattern: NominalInterest, Freq: m}
}

func NominalDiscountRate(dm, m float64) Rate {
	return Rate{Magnitude: dm, Pattern: NominalDiscount, Freq: m}
}

func Force(delta float64) Rate {
	return Rate{Magnitude: delta, Pattern: ForceOfInterest}
}

func Simple(s float64) Rate {
	return Rate{Magnitude: s, Pattern: SimpleInterest, Interval: 1}
}

func SimpleDiscountRate(sd float64) Rate {
	return Rate{Magnitude: sd, Pattern: SimpleDiscount, Interval: 1}
}

func (r Rate) validate() error {
	if !r.Pattern.valid() {
		return fmt.Errorf("%w: unknown pattern %d", ErrValidation, int(r.Pattern))
	}
	if math.IsNaN(r.Magnitude) || math.IsInf(r.Magnitude, 0) {
		return fmt.Errorf("%w: magnitude must be finite", ErrValidation)
	}
	switch {
	case r.Pattern.IsNominal():
		if r.Freq <= 0 {
			return fmt.Errorf("%w: compounding frequency must be provided for %s", ErrValidation, r.Pattern)
		}
		if r.Interval != 0 {
			return fmt.Errorf("%w: interval is not valid for %s", ErrValidation, r.Pattern)
		}
	case r.Pattern.HasInterval():
		if r.Interval <= 0 {
			return fmt.Errorf("%w: interval must be provided for %s", ErrValidation, r.Pattern)
		}
		if r.Freq != 0 {
			return fmt.Errorf("%w: frequency is only valid for nominal rates", ErrValidation)
		}
	case r.Pattern == ForceOfInterest:
		if r.Freq != 0 || r.Interval != 0 {
			return fmt.Errorf("%w: frequency or interval are not valid for %s", ErrValidation, r.Pattern)
		}
	}
	return nil
}

// Standardize puts compound rates on an annual effective interest basis and
// simple rates on an annual basis of their own family.
func (r Rate) Standardize() Rate {
	switch r.Pattern {
	case SimpleInterest, SimpleDiscount:
		return Rate{Magnitude: r.Magnitude / r.Interval, Pattern: r.Pattern, Interval: 1}
	default:
		return Effective(r.annualEffective())
	}
}

// AnnualEffective is the magnitude of the standardized compound rate. It
// panics for simple rates, which have no compound equivalent.
func (r Rate) AnnualEffective() float64 {
	if r.Pattern.IsSimple() {
		panic("rate: " + r.Pattern.String() + " has no annual effective equivalent")
	}
	return r.annualEffective()
}

// Accumulate returns the value at time t of principal k growing at r.
func (r Rate) Accumulate(k, t float64) float64 {
	switch r.Pattern {
	case SimpleInterest:
		return k * (1 + r.Magnitude/r.Interval*t)
	case SimpleDiscount:
		return k / (1 - r.Magnitude/r.Interval*t)
	default:
		return k * math.Pow(1+r.annualEffective(), t)
	}
}

// Compare returns -1, 0 or 1 after standardizing both rates. Rates of
// different families cannot be ordered.
func (r Rate) Compare(other Rate) (int, error) {
	if err := sameFamily(r, other); err != nil {
		return 0, err
	}
	a, b := r.Standardize().Magnitude, other.Standardize().Magnitude
	switch {
	case a < b:
		return -1, nil
	case a > b:
		return 1, nil
	}
	return 0, nil
}

// Equal reports whether both rates standardize to magnitudes within tol.
func (r Rate) Equal(other Rate, tol float64) bool {
	if sameFamily(r, other) != nil {
		return false
	}
	return math.Abs(r.Standardize().Magnitude-other.Standardize().Magnitude) <= tol
}

func sameFamily(a, b Rate) error {
	if a.Pattern.IsCompound() && b.Pattern.IsCompound() {
		return nil
	}
	if a.Pattern.IsSimple() && a.Pattern == b.Pattern {
		return nil
	}
	return fmt.Errorf("%w: cannot compare %s with %s", ErrIncompatible, a.Pattern, b.Pattern)
}

func (r Rate) String() string {
	s := "Pattern: " + r.Pattern.String() + "\nRate: " + strconv.FormatFloat(r.Magnitude, 'g', -1, 64)
	switch {
	case r.Pattern.IsNominal():
		s += "\nCompounding Frequency: " + strconv.FormatFloat(r.Freq, 'g', -1, 64) + " times per year"
	case r.Pattern.HasInterval():
		s += "\nUnit of time: " + strconv.FormatFloat(r.Interval, 'g', -1, 64) + " year"
		if r.Interval != 1 {
			s += "s"
		}
	}
	return s
}
