// Package solver finds roots of scalar functions of one variable.
package solver

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNoBracket is returned when no sign change is found inside the search limits.
	ErrNoBracket = errors.New("root not bracketed")
	// ErrMaxIterations is returned when the iteration budget is exhausted.
	ErrMaxIterations = errors.New("maximum iterations reached")
)

// Func is an objective that may fail to evaluate.
type Func func(x float64) (float64, error)

const (
	growth  = 1.6
	epsilon = 2.220446049250313e-16
)

// Bracket searches for [a, b] with f(a) and f(b) of opposite sign, starting from
// [x0, x1] and widening geometrically while staying inside [lower, upper].
func Bracket(f Func, x0, x1, lower, upper float64, maxIter int) (a, b float64, err error) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	a, b = math.Max(x0, lower), math.Min(x1, upper)
	if a >= b {
		return 0, 0, fmt.Errorf("Bracket: empty interval [%g, %g]: %w", a, b, ErrNoBracket)
	}

	fa, err := f(a)
	if err != nil {
		return 0, 0, err
	}
	fb, err := f(b)
	if err != nil {
		return 0, 0, err
	}

	for i := 0; i < maxIter; i++ {
		if fa == 0 || fb == 0 || (fa < 0) != (fb < 0) {
			return a, b, nil
		}
		atLower, atUpper := a <= lower, b >= upper
		if atLower && atUpper {
			break
		}
		width := b - a
		// Move the end whose value is closer to zero, or the only one still free.
		if !atUpper && (atLower || math.Abs(fb) < math.Abs(fa)) {
			b = math.Min(b+growth*width, upper)
			if fb, err = f(b); err != nil {
				return 0, 0, err
			}
		} else {
			a = math.Max(a-growth*width, lower)
			if fa, err = f(a); err != nil {
				return 0, 0, err
			}
		}
	}
	if fa == 0 || fb == 0 || (fa < 0) != (fb < 0) {
		return a, b, nil
	}
	return 0, 0, fmt.Errorf("Bracket: no sign change in [%g, %g] (f=%g, %g): %w", a, b, fa, fb, ErrNoBracket)
}

// Brent finds a root of f in [a, b], which must bracket a sign change. It returns the
// root and the number of function evaluations used after the end points.
func Brent(f Func, a, b, tol float64, maxIter int) (float64, int, error) {
	fa, err := f(a)
	if err != nil {
		return 0, 0, err
	}
	fb, err := f(b)
	if err != nil {
		return 0, 0, err
	}
	if fa == 0 {
		return a, 0, nil
	}
	if fb == 0 {
		return b, 0, nil
	}
	if (fa < 0) == (fb < 0) {
		return 0, 0, fmt.Errorf("Brent: f(%g)=%g and f(%g)=%g: %w", a, fa, b, fb, ErrNoBracket)
	}

	c, fc := a, fa
	d := b - a
	e := d

	for iter := 1; iter <= maxIter; iter++ {
		if (fb > 0) == (fc > 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol1 := 2*epsilon*math.Abs(b) + 0.5*tol
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol1 || fb == 0 {
			return b, iter, nil
		}

		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			// Inverse quadratic interpolation, or secant when only two points differ.
			var p, q float64
			s := fb / fa
			if a == c {
				p = 2 * xm * s
				q = 1 - s
			} else {
				qq := fa / fc
				r := fb / fc
				p = s * (2*xm*qq*(qq-r) - (b-a)*(r-1))
				q = (qq - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			if 2*p < math.Min(3*xm*q-math.Abs(tol1*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else {
			b += math.Copysign(tol1, xm)
		}
		if fb, err = f(b); err != nil {
			return 0, iter, err
		}
	}
	return b, maxIter, fmt.Errorf("Brent: %d iterations, last x=%g f=%g: %w", maxIter, b, fb, ErrMaxIterations)
}
