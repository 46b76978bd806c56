package daycount_test

import (
	"errors"
	"math"
	"testing"

	"github.com/SimonSchneider/goslu/date"
	"github.com/SimonSchneider/tmval/internal/daycount"
	"github.com/SimonSchneider/tmval/internal/rate"
)

func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func TestYearFraction(t *testing.T) {
	tests := []struct {
		name     string
		c        daycount.Convention
		from, to string
		want     float64
	}{
		{"30/360 half year", daycount.ThirtyThreeSixty, "2020-01-15", "2020-07-15", 0.5},
		{"30/360 month end", daycount.ThirtyThreeSixty, "2020-01-31", "2020-03-01", 30.0 / 360},
		{"actual/360", daycount.ActualThreeSixty, "2021-01-01", "2021-03-02", 60.0 / 360},
		{"actual/365 leap", daycount.ActualThreeSixtyFive, "2020-01-01", "2021-01-01", 366.0 / 365},
		{"actual/actual leap year", daycount.ActualActual, "2020-01-01", "2021-01-01", 1},
		{"actual/actual split", daycount.ActualActual, "2019-07-01", "2020-07-01", 184.0/365 + 182.0/366},
		{"reversed", daycount.ActualThreeSixtyFive, "2021-01-11", "2021-01-01", -10.0 / 365},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from := Must(date.ParseDate(tt.from))
			to := Must(date.ParseDate(tt.to))
			if got := tt.c.YearFraction(from, to); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("YearFraction() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseConvention(t *testing.T) {
	for in, want := range map[string]daycount.Convention{
		"30/360":   daycount.ThirtyThreeSixty,
		"Bankers":  daycount.ActualThreeSixty,
		" act/365": daycount.ActualThreeSixtyFive,
		"ACT/ACT":  daycount.ActualActual,
	} {
		if got, err := daycount.ParseConvention(in); err != nil || got != want {
			t.Errorf("ParseConvention(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := daycount.ParseConvention("30e/360"); !errors.Is(err, rate.ErrValidation) {
		t.Errorf("unknown convention err = %v", err)
	}
}
