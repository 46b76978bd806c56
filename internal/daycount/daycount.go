// Package daycount turns pairs of calendar dates into year fractions.
package daycount

import (
	"fmt"
	"strings"
	"time"

	"github.com/SimonSchneider/goslu/date"
	"github.com/SimonSchneider/tmval/internal/rate"
)

type Convention int

const (
	ThirtyThreeSixty Convention = iota
	ActualThreeSixty
	ActualThreeSixtyFive
	ActualActual
)

var conventionNames = map[string]Convention{
	"30/360":        ThirtyThreeSixty,
	"osi":           ThirtyThreeSixty,
	"act/360":       ActualThreeSixty,
	"actual/360":    ActualThreeSixty,
	"bankers":       ActualThreeSixty,
	"act/365":       ActualThreeSixtyFive,
	"actual/365":    ActualThreeSixtyFive,
	"exact":         ActualThreeSixtyFive,
	"act/act":       ActualActual,
	"actual/actual": ActualActual,
}

func ParseConvention(s string) (Convention, error) {
	if c, ok := conventionNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c, nil
	}
	return 0, fmt.Errorf("%w: unknown day count convention %q", rate.ErrValidation, s)
}

func (c Convention) String() string {
	switch c {
	case ThirtyThreeSixty:
		return "30/360"
	case ActualThreeSixty:
		return "Actual/360"
	case ActualThreeSixtyFive:
		return "Actual/365"
	case ActualActual:
		return "Actual/Actual"
	}
	return fmt.Sprintf("Convention(%d)", int(c))
}

// YearFraction is the length of [from, to] in years under c. It is negative
// when to is before from.
func (c Convention) YearFraction(from, to date.Date) float64 {
	switch c {
	case ThirtyThreeSixty:
		return float64(Days360(from, to)) / 360
	case ActualThreeSixty:
		return float64(Days(from, to)) / 360
	case ActualThreeSixtyFive:
		return float64(Days(from, to)) / 365
	case ActualActual:
		return actualActual(from, to)
	}
	panic(fmt.Sprintf("daycount: unknown convention %d", int(c)))
}

// Days is the actual number of days between two dates.
func Days(from, to date.Date) int {
	return daysBetween(from.ToStdTime(), to.ToStdTime())
}

// Days360 counts every month as 30 days.
func Days360(from, to date.Date) int {
	f, t := from.ToStdTime(), to.ToStdTime()
	return 360*(t.Year()-f.Year()) + 30*(int(t.Month())-int(f.Month())) + t.Day() - f.Day()
}

// actualActual splits the interval at year ends and divides each piece by
// the length of the year it falls in.
func actualActual(from, to date.Date) float64 {
	f, t := from.ToStdTime(), to.ToStdTime()
	if t.Before(f) {
		return -actualActual(to, from)
	}
	var frac float64
	for f.Year() < t.Year() {
		next := time.Date(f.Year()+1, time.January, 1, 0, 0, 0, 0, f.Location())
		frac += float64(daysBetween(f, next)) / float64(daysInYear(f.Year()))
		f = next
	}
	return frac + float64(daysBetween(f, t))/float64(daysInYear(f.Year()))
}

func daysBetween(f, t time.Time) int {
	return int(t.Sub(f).Round(24*time.Hour) / (24 * time.Hour))
}

func daysInYear(y int) int {
	if time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay() == 366 {
		return 366
	}
	return 365
}
