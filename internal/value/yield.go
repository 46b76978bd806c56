package value

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/SimonSchneider/tmval/internal/rate"
	"github.com/SimonSchneider/tmval/internal/solve"
)

// DefaultGuess is the starting accumulation factor 1+i for iterative yield
// solving.
const DefaultGuess = 1.05

var ErrNoYield = errors.New("no positive yield")

// YieldSolver finds the rates i at which the grouped flows have zero present
// value. x0 is a starting guess for 1+i; exact solvers ignore it.
type YieldSolver interface {
	Yields(flows []Flow, x0 float64) ([]float64, error)
}

// PolynomialSolver treats the equation of value as a polynomial in 1+i. It
// only applies when every payment time is a non-negative integer.
type PolynomialSolver struct{}

func (PolynomialSolver) Yields(flows []Flow, _ float64) ([]float64, error) {
	if !IntegralTimes(flows) {
		return nil, fmt.Errorf("%w: polynomial yield needs whole, non-negative payment times", rate.ErrValidation)
	}
	if len(flows) == 0 {
		return nil, nil
	}
	degree := int(flows[len(flows)-1].Time)
	coeffs := make([]float64, degree+1)
	for _, f := range flows {
		coeffs[int(f.Time)] += f.Amount
	}
	roots, err := solve.PolyRoots(coeffs)
	if err != nil {
		return nil, fmt.Errorf("solving equation of value: %w", err)
	}
	yields := make([]float64, 0, len(roots))
	for _, x := range solve.RealRoots(roots) {
		if x == 0 {
			continue
		}
		yields = append(yields, x-1)
	}
	return yields, nil
}

// SecantSolver iterates on Σ a·x^-t from the starting guess and returns the
// single root it reaches.
type SecantSolver struct {
	Settings *solve.Settings
}

func (s SecantSolver) Yields(flows []Flow, x0 float64) ([]float64, error) {
	f := func(x float64) float64 {
		var sum float64
		for _, fl := range flows {
			sum += fl.Amount * math.Pow(x, -fl.Time)
		}
		return sum
	}
	x, err := solve.Secant(f, x0, s.Settings)
	if err != nil {
		return nil, fmt.Errorf("iterating equation of value from %g: %w", x0, err)
	}
	return []float64{x - 1}, nil
}

// IntegralTimes reports whether every payment time is a whole number of
// periods at or after 0.
func IntegralTimes(flows []Flow) bool {
	for _, f := range flows {
		if f.Time < 0 || f.Time != math.Trunc(f.Time) {
			return false
		}
	}
	return true
}

// SolverFor picks the exact polynomial strategy when it applies and the
// secant strategy otherwise.
func SolverFor(flows []Flow) YieldSolver {
	if IntegralTimes(flows) {
		return PolynomialSolver{}
	}
	return SecantSolver{}
}

// IRR returns every real yield rate found, ascending.
func (cf *CashFlow) IRR() ([]float64, error) {
	return cf.IRRFrom(DefaultGuess)
}

// IRRFrom is IRR with a starting guess x0 for 1+i, used when some payment
// time is fractional. When no real yield exists it logs a warning and
// returns an empty result.
func (cf *CashFlow) IRRFrom(x0 float64) ([]float64, error) {
	flows := cf.Grouped()
	solver := cf.solver
	if solver == nil {
		solver = SolverFor(flows)
	}
	yields, err := solver.Yields(flows, x0)
	if err != nil {
		return nil, err
	}
	if len(yields) == 0 {
		cf.logger.Printf("irr: no real yield for %d payments", len(flows))
		return []float64{}, nil
	}
	slices.Sort(yields)
	return yields, nil
}

// MinPositiveYield is the smallest positive yield, the one usually meant
// when a cash flow admits several.
func (cf *CashFlow) MinPositiveYield() (float64, error) {
	yields, err := cf.IRR()
	if err != nil {
		return 0, err
	}
	for _, y := range yields {
		if y > 0 {
			return y, nil
		}
	}
	return 0, ErrNoYield
}
