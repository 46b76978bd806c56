// Package solve holds the numerical building blocks shared by the valuation
// packages: an iteration-capped secant search, exact polynomial roots, and
// thin wrappers over gonum's quadrature and finite differences.
package solve

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/mat"
)

var ErrConvergence = errors.New("did not converge")

const (
	DefaultMaxIter   = 100
	DefaultTolerance = 1.48e-8
)

type Settings struct {
	MaxIter   int
	Tolerance float64
}

func (s *Settings) orDefault() Settings {
	out := Settings{MaxIter: DefaultMaxIter, Tolerance: DefaultTolerance}
	if s == nil {
		return out
	}
	if s.MaxIter > 0 {
		out.MaxIter = s.MaxIter
	}
	if s.Tolerance > 0 {
		out.Tolerance = s.Tolerance
	}
	return out
}

// Secant searches for a root of f starting at x0. It never runs more than
// MaxIter steps and reports ErrConvergence instead of returning a
// non-finite or unconverged value.
func Secant(f func(float64) float64, x0 float64, settings *Settings) (float64, error) {
	s := settings.orDefault()
	p0 := x0
	p1 := x0*(1+1e-4) + 1e-4
	if x0 < 0 {
		p1 = x0*(1+1e-4) - 1e-4
	}
	q0, q1 := f(p0), f(p1)
	if q0 == 0 {
		return p0, nil
	}
	if math.Abs(q1) > math.Abs(q0) {
		p0, p1, q0, q1 = p1, p0, q1, q0
	}
	for range s.MaxIter {
		if math.IsNaN(q0) || math.IsNaN(q1) || math.IsInf(q0, 0) || math.IsInf(q1, 0) {
			return 0, fmt.Errorf("%w: function not finite near %g", ErrConvergence, p1)
		}
		if q1 == q0 {
			if q1 == 0 {
				return p1, nil
			}
			return 0, fmt.Errorf("%w: zero slope at %g", ErrConvergence, p1)
		}
		p := p1 - q1*(p1-p0)/(q1-q0)
		if math.Abs(p-p1) <= s.Tolerance*math.Max(1, math.Abs(p)) {
			if v := f(p); math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, fmt.Errorf("%w: function not finite at %g", ErrConvergence, p)
			}
			return p, nil
		}
		p0, q0 = p1, q1
		p1, q1 = p, f(p)
	}
	return 0, fmt.Errorf("%w after %d iterations from x0=%g", ErrConvergence, s.MaxIter, x0)
}

// PolyRoots returns every complex root of the polynomial whose coefficients
// are given from the highest degree down. Leading zeros lower the degree;
// trailing zeros contribute roots at zero.
func PolyRoots(coeffs []float64) ([]complex128, error) {
	for len(coeffs) > 0 && coeffs[0] == 0 {
		coeffs = coeffs[1:]
	}
	var zeros int
	for len(coeffs) > 0 && coeffs[len(coeffs)-1] == 0 {
		coeffs = coeffs[:len(coeffs)-1]
		zeros++
	}
	roots := make([]complex128, zeros)
	n := len(coeffs) - 1
	switch {
	case n < 1:
		return roots, nil
	case n == 1:
		return append(roots, complex(-coeffs[1]/coeffs[0], 0)), nil
	}
	companion := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		companion.Set(0, j, -coeffs[j+1]/coeffs[0])
	}
	for i := 1; i < n; i++ {
		companion.Set(i, i-1, 1)
	}
	var eig mat.Eigen
	if ok := eig.Factorize(companion, mat.EigenNone); !ok {
		return nil, fmt.Errorf("%w: eigenvalue decomposition of degree %d polynomial failed", ErrConvergence, n)
	}
	return append(roots, eig.Values(nil)...), nil
}

// RealRoots keeps the roots whose imaginary part is negligible, sorted
// ascending.
func RealRoots(roots []complex128) []float64 {
	reals := make([]float64, 0, len(roots))
	for _, r := range roots {
		if math.Abs(imag(r)) <= 1e-10*math.Max(1, math.Abs(real(r))) {
			reals = append(reals, real(r))
		}
	}
	sort.Float64s(reals)
	return reals
}

// Derivative is the central finite-difference derivative of f at x.
func Derivative(f func(float64) float64, x float64) float64 {
	return fd.Derivative(f, x, &fd.Settings{Formula: fd.Central, Step: 1e-6})
}

// SecondDerivative is the central second difference of f at x.
func SecondDerivative(f func(float64) float64, x float64) float64 {
	return fd.Derivative(f, x, &fd.Settings{Formula: fd.Central2nd, Step: 1e-4})
}

// Integrate integrates f over [a, b] with fixed-order Gauss-Legendre
// quadrature.
func Integrate(f func(float64) float64, a, b float64) float64 {
	return quad.Fixed(f, a, b, 200, nil, 0)
}
