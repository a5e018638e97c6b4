// Package jacobian holds dense derivative rows: the partials of one scalar output
// with respect to the M calibration parameters of a curve.
package jacobian

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrSizeMismatch is returned when two Jacobians of different lengths are combined.
	ErrSizeMismatch = errors.New("jacobian size mismatch")
	// ErrZeroDenominator is returned by Quotient when the denominator value is zero.
	ErrZeroDenominator = errors.New("jacobian quotient with zero denominator")
)

// Jacobian is a row vector of partial derivatives.
type Jacobian struct {
	d []float64
}

// New returns a zero Jacobian with m entries.
func New(m int) *Jacobian {
	return &Jacobian{d: make([]float64, m)}
}

// FromSlice copies v into a new Jacobian.
func FromSlice(v []float64) *Jacobian {
	d := make([]float64, len(v))
	copy(d, v)
	return &Jacobian{d: d}
}

// Len returns the number of parameters.
func (j *Jacobian) Len() int {
	return len(j.d)
}

// At returns the i-th partial.
func (j *Jacobian) At(i int) float64 {
	return j.d[i]
}

// Values returns a copy of the partials.
func (j *Jacobian) Values() []float64 {
	out := make([]float64, len(j.d))
	copy(out, j.d)
	return out
}

// Clone returns an independent copy.
func (j *Jacobian) Clone() *Jacobian {
	return FromSlice(j.d)
}

// Add accumulates other into j in place.
func (j *Jacobian) Add(other *Jacobian) error {
	if other.Len() != j.Len() {
		return fmt.Errorf("Add: %d vs %d: %w", j.Len(), other.Len(), ErrSizeMismatch)
	}
	floats.Add(j.d, other.d)
	return nil
}

// AddScaled accumulates alpha*other into j in place.
func (j *Jacobian) AddScaled(alpha float64, other *Jacobian) error {
	if other.Len() != j.Len() {
		return fmt.Errorf("AddScaled: %d vs %d: %w", j.Len(), other.Len(), ErrSizeMismatch)
	}
	floats.AddScaled(j.d, alpha, other.d)
	return nil
}

// Scale multiplies every partial by alpha in place.
func (j *Jacobian) Scale(alpha float64) {
	floats.Scale(alpha, j.d)
}

// IsFinite reports whether every partial is finite.
func (j *Jacobian) IsFinite() bool {
	for _, v := range j.d {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Quotient applies the quotient rule to r = num/den:
//
//	dr = (dnum - r*dden) / den
//
// numValue and denValue are the values of the numerator and denominator at the point
// the derivatives were taken.
func Quotient(num, den *Jacobian, numValue, denValue float64) (*Jacobian, error) {
	if num.Len() != den.Len() {
		return nil, fmt.Errorf("Quotient: %d vs %d: %w", num.Len(), den.Len(), ErrSizeMismatch)
	}
	if denValue == 0 {
		return nil, fmt.Errorf("Quotient: %w", ErrZeroDenominator)
	}
	ratio := numValue / denValue
	out := num.Clone()
	floats.AddScaled(out.d, -ratio, den.d)
	floats.Scale(1/denValue, out.d)
	return out, nil
}

// Sum folds the given Jacobians into a new one of length m.
// It is associative, so callers may fold partial sums in any grouping.
func Sum(m int, parts ...*Jacobian) (*Jacobian, error) {
	acc := New(m)
	for _, p := range parts {
		if err := acc.Add(p); err != nil {
			return nil, err
		}
	}
	return acc, nil
}
