package ui

import (
	"fmt"
	"strings"
)

// ParseHumanNumber wraps delegate so input may end in k (thousands) or m
// (millions). Empty input is zero.
func ParseHumanNumber[T int | int64 | int32 | float64 | float32](delegate func(string) (T, error)) func(string) (T, error) {
	return func(val string) (T, error) {
		val = strings.TrimSpace(val)
		if val == "" {
			return 0, nil
		}
		mult := T(1)
		switch val[len(val)-1] {
		case 'k', 'K':
			mult, val = 1_000, val[:len(val)-1]
		case 'm', 'M':
			mult, val = 1_000_000, val[:len(val)-1]
		}
		v, err := delegate(val)
		return v * mult, err
	}
}

// ParseList parses comma-separated amounts.
func ParseList(val string) ([]float64, error) {
	if strings.TrimSpace(val) == "" {
		return nil, nil
	}
	parts := strings.Split(val, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		if strings.TrimSpace(p) == "" {
			return nil, fmt.Errorf("item %d is empty", i+1)
		}
		v, err := ParseHumanNumber(ParseAmount)(p)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

// ParseNullableAmount is nil for empty input.
func ParseNullableAmount(val string) (*float64, error) {
	if strings.TrimSpace(val) == "" {
		return nil, nil
	}
	f, err := ParseHumanNumber(ParseAmount)(val)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func OrDefault[T any](val *T, def T) T {
	if val == nil {
		return def
	}
	return *val
}
