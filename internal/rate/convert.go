package rate

import (
	"fmt"
	"math"
)

// Convert restates r in the target pattern. Compound patterns convert
// freely through an annual effective interest rate; simple rates can only be
// rescaled to another interval within their own family.
func (r Rate) Convert(target Pattern, opts ...Option) (Rate, error) {
	if err := r.validate(); err != nil {
		return Rate{}, err
	}
	out := Rate{Pattern: target}
	for _, opt := range opts {
		opt(&out)
	}
	switch {
	case r.Pattern.IsSimple() && target.IsCompound():
		return Rate{}, fmt.Errorf("%w: %s cannot be converted to %s", ErrIncompatible, r.Pattern, target)
	case r.Pattern.IsCompound() && target.IsSimple():
		return Rate{}, fmt.Errorf("%w: %s cannot be converted to %s", ErrIncompatible, r.Pattern, target)
	case r.Pattern.IsSimple() && r.Pattern != target:
		return Rate{}, fmt.Errorf("%w: cannot convert between simple interest and simple discount", ErrIncompatible)
	}
	if err := out.validate(); err != nil {
		return Rate{}, fmt.Errorf("converting to %s: %w", target, err)
	}
	if target.IsSimple() {
		out.Magnitude = r.Magnitude / r.Interval * out.Interval
		return out, nil
	}
	out.Magnitude = fromAnnualEffective(r.annualEffective(), out)
	return out, nil
}

func (r Rate) annualEffective() float64 {
	switch r.Pattern {
	case EffectiveInterest:
		return math.Pow(1+r.Magnitude, 1/r.Interval) - 1
	case EffectiveDiscount:
		d := 1 - math.Pow(1-r.Magnitude, 1/r.Interval)
		return InterestFromDiscount(d)
	case NominalInterest:
		return math.Pow(1+r.Magnitude/r.Freq, r.Freq) - 1
	case NominalDiscount:
		d := 1 - math.Pow(1-r.Magnitude/r.Freq, r.Freq)
		return InterestFromDiscount(d)
	case ForceOfInterest:
		return math.Expm1(r.Magnitude)
	}
	panic("rate: no annual effective rate for " + r.Pattern.String())
}

func fromAnnualEffective(i float64, target Rate) float64 {
	switch target.Pattern {
	case EffectiveInterest:
		return math.Pow(1+i, target.Interval) - 1
	case EffectiveDiscount:
		return 1 - math.Pow(1-DiscountFromInterest(i), target.Interval)
	case NominalInterest:
		return target.Freq * (math.Pow(1+i, 1/target.Freq) - 1)
	case NominalDiscount:
		return target.Freq * (1 - math.Pow(1+i, -1/target.Freq))
	case ForceOfInterest:
		return math.Log1p(i)
	}
	panic("rate: cannot synthesize " + target.Pattern.String())
}

func DiscountFromInterest(i float64) float64 {
	return i / (1 + i)
}

func InterestFromDiscount(d float64) float64 {
	return d / (1 - d)
}
