package rate

import (
	"fmt"
	"strings"
)

type Pattern int

const (
	EffectiveInterest Pattern = iota
	EffectiveDiscount
	NominalInterest
	NominalDiscount
	ForceOfInterest
	SimpleInterest
	SimpleDiscount
)

var patternNames = map[Pattern]string{
	EffectiveInterest: "Effective Interest",
	EffectiveDiscount: "Effective Discount",
	NominalInterest:   "Nominal Interest",
	NominalDiscount:   "Nominal Discount",
	ForceOfInterest:   "Force of Interest",
	SimpleInterest:    "Simple Interest",
	SimpleDiscount:    "Simple Discount",
}

var patternAliases = map[string]Pattern{
	"i":                  EffectiveInterest,
	"interest":           EffectiveInterest,
	"apy":                EffectiveInterest,
	"effective interest": EffectiveInterest,
	"d":                  EffectiveDiscount,
	"discount":           EffectiveDiscount,
	"effective discount": EffectiveDiscount,
	"nomint":             NominalInterest,
	"apr":                NominalInterest,
	"nominal interest":   NominalInterest,
	"nomdisc":            NominalDiscount,
	"nominal discount":   NominalDiscount,
	"delta":              ForceOfInterest,
	"force":              ForceOfInterest,
	"force of interest":  ForceOfInterest,
	"s":                  SimpleInterest,
	"simp":               SimpleInterest,
	"simple interest":    SimpleInterest,
	"sd":                 SimpleDiscount,
	"simpdisc":           SimpleDiscount,
	"simple discount":    SimpleDiscount,
}

// ParsePattern accepts the formal pattern names as well as their usual
// abbreviations (apy, apr, delta, sd, ...), case-insensitively.
func ParsePattern(s string) (Pattern, error) {
	if p, ok := patternAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return p, nil
	}
	return 0, fmt.Errorf("%w: unknown rate pattern %q", ErrValidation, s)
}

func (p Pattern) String() string {
	if name, ok := patternNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Pattern(%d)", int(p))
}

func (p Pattern) valid() bool {
	_, ok := patternNames[p]
	return ok
}

// IsCompound reports whether p belongs to the family of freely
// interconvertible compound patterns.
func (p Pattern) IsCompound() bool {
	switch p {
	case EffectiveInterest, EffectiveDiscount, NominalInterest, NominalDiscount, ForceOfInterest:
		return true
	}
	return false
}

func (p Pattern) IsSimple() bool {
	return p == SimpleInterest || p == SimpleDiscount
}

func (p Pattern) IsNominal() bool {
	return p == NominalInterest || p == NominalDiscount
}

// HasInterval reports whether rates of this pattern are quoted over an
// effective interval.
func (p Pattern) HasInterval() bool {
	switch p {
	case EffectiveInterest, EffectiveDiscount, SimpleInterest, SimpleDiscount:
		return true
	}
	return false
}
