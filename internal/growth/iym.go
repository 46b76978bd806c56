package growth

import (
	"fmt"
	"maps"
	"slices"

	"github.com/SimonSchneider/tmval/internal/rate"
)

// IYMTable is an investment year method table keyed by calendar year. Each
// row holds the select rates for money invested that year, by duration,
// followed by the portfolio rate credited in that calendar year.
type IYMTable map[int][]float64

func (tbl IYMTable) row(year int) ([]float64, error) {
	r, ok := tbl[year]
	if !ok || len(r) < 2 {
		return nil, fmt.Errorf("%w: no investment year row for %d", rate.ErrValidation, year)
	}
	return r, nil
}

// ReadIYM returns the rate credited in the given duration year (0-based) to
// money invested in year.
func ReadIYM(tbl IYMTable, year, duration int) (rate.Rate, error) {
	r, err := tbl.row(year)
	if err != nil {
		return rate.Rate{}, err
	}
	if duration < 0 {
		return rate.Rate{}, fmt.Errorf("%w: negative duration %d", rate.ErrValidation, duration)
	}
	if selected := len(r) - 1; duration < selected {
		return rate.Effective(r[duration]), nil
	}
	p, err := tbl.row(year + duration)
	if err != nil {
		return rate.Rate{}, fmt.Errorf("portfolio rate for %d: %w", year+duration, err)
	}
	return rate.Effective(p[len(p)-1]), nil
}

// TieredTimeFromIYM builds the time-tiered law followed by money invested in
// year: the select rates first, then the portfolio rate of each later
// calendar year in the table.
func TieredTimeFromIYM(tbl IYMTable, year int) (*TieredTime, error) {
	if _, err := tbl.row(year); err != nil {
		return nil, err
	}
	last := slices.Max(slices.Collect(maps.Keys(tbl)))
	var (
		tiers []float64
		rates []rate.Rate
	)
	for d := 0; year+d <= last || d < len(tbl[year])-1; d++ {
		r, err := ReadIYM(tbl, year, d)
		if err != nil {
			break
		}
		tiers = append(tiers, float64(d))
		rates = append(rates, r)
	}
	return NewTieredTime(tiers, rates)
}
