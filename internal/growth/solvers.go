package growth

import (
	"fmt"
	"math"

	"github.com/SimonSchneider/tmval/internal/rate"
)

func CompoundFutureValue(pv, i, t float64) float64 {
	return pv * math.Pow(1+i, t)
}

func CompoundPresentValue(fv, i, t float64) float64 {
	return fv * math.Pow(1+i, -t)
}

// CompoundRate is the annual effective rate that grows pv to fv in t years.
func CompoundRate(pv, fv, t float64) (float64, error) {
	if err := positive(pv, fv); err != nil {
		return 0, err
	}
	if t == 0 {
		return 0, fmt.Errorf("%w: rate is undefined over a zero-length interval", ErrUndefined)
	}
	return math.Pow(fv/pv, 1/t) - 1, nil
}

// CompoundTime is how many years pv takes to grow to fv at annual effective
// rate i.
func CompoundTime(pv, fv, i float64) (float64, error) {
	if err := positive(pv, fv); err != nil {
		return 0, err
	}
	if i <= -1 {
		return 0, fmt.Errorf("%w: rate %g wipes out principal", rate.ErrValidation, i)
	}
	if fv == pv {
		return 0, nil
	}
	if i == 0 {
		return 0, fmt.Errorf("%w: %g never reaches %g at a zero rate", ErrUndefined, pv, fv)
	}
	t := math.Log(fv/pv) / math.Log1p(i)
	if t < 0 {
		return 0, fmt.Errorf("%w: %g does not reach %g at rate %g", ErrUndefined, pv, fv, i)
	}
	return t, nil
}

func SimpleFutureValue(pv, s, t float64) float64 {
	return pv * (1 + s*t)
}

func SimplePresentValue(fv, s, t float64) float64 {
	return fv / (1 + s*t)
}

func SimpleRate(pv, fv, t float64) (float64, error) {
	if err := positive(pv, fv); err != nil {
		return 0, err
	}
	if t == 0 {
		return 0, fmt.Errorf("%w: rate is undefined over a zero-length interval", ErrUndefined)
	}
	return (fv/pv - 1) / t, nil
}

func SimpleTime(pv, fv, s float64) (float64, error) {
	if err := positive(pv, fv); err != nil {
		return 0, err
	}
	if s == 0 {
		if fv == pv {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %g never reaches %g at a zero rate", ErrUndefined, pv, fv)
	}
	return (fv/pv - 1) / s, nil
}

// SimpleDiscountTime solves pv = fv(1 - d t) for t.
func SimpleDiscountTime(pv, fv, d float64) (float64, error) {
	if err := positive(pv, fv); err != nil {
		return 0, err
	}
	if d == 0 {
		if fv == pv {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %g never reaches %g at a zero discount", ErrUndefined, pv, fv)
	}
	return (1 - pv/fv) / d, nil
}

func positive(pv, fv float64) error {
	if pv <= 0 || fv <= 0 {
		return fmt.Errorf("%w: values must be positive, got pv=%g fv=%g", rate.ErrValidation, pv, fv)
	}
	return nil
}
