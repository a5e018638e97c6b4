// Package cds values running-premium credit default swaps on a discount curve and a
// hazard curve: measure sets, discount-curve Jacobians and flat-spread calibration.
package cds

import (
	"errors"
	"reflect"
	"time"

	"github.com/meenmo/credlib/jacobian"
)

// DiscountCurve is what the engine needs from a discount curve.
type DiscountCurve interface {
	DF(t time.Time) float64
	EffectiveDF(t1, t2 time.Time) float64
	JacobianOfDF(t time.Time) (*jacobian.Jacobian, error)
	JacobianOfEffectiveDF(t1, t2 time.Time) (*jacobian.Jacobian, error)
	NumParameters() int
}

// CreditCurve is what the engine needs from a survival curve.
type CreditCurve interface {
	Survival(t time.Time) float64
	EffectiveRecovery(t1, t2 time.Time) float64
	NodeDates() []time.Time
}

var (
	// ErrMissingCurve is returned when a discount or credit curve is absent.
	ErrMissingCurve = errors.New("missing curve")
	// ErrInvalidDate is returned for a zero valuation date.
	ErrInvalidDate = errors.New("invalid valuation date")
	// ErrZeroDV01 is returned when the clean DV01 is zero and ratios are undefined.
	ErrZeroDV01 = errors.New("zero DV01")
	// ErrInvalidInstrument is returned by constructors on bad instrument inputs.
	ErrInvalidInstrument = errors.New("invalid instrument")
	// ErrInvalidLossPeriod is returned when survival is non-finite or increasing.
	ErrInvalidLossPeriod = errors.New("invalid loss period")
	// ErrCalibrationFailed wraps any root-finding failure.
	ErrCalibrationFailed = errors.New("calibration failed")
	// ErrUnsupportedMeasure is returned when a Jacobian or target is requested for an unsupported measure.
	ErrUnsupportedMeasure = errors.New("unsupported measure")
)

func isNilInterface(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}
