package curve

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/meenmo/credlib/calendar"
	"github.com/meenmo/credlib/jacobian"
	"github.com/meenmo/credlib/utils"
)

var (
	// ErrInvalidCurve is returned when curve nodes fail validation.
	ErrInvalidCurve = errors.New("invalid curve")
	// ErrNegativeHazard is returned when a hazard curve would carry a negative intensity.
	ErrNegativeHazard = errors.New("negative hazard rate")
)

// DiscountCurve is a zero-rate curve with continuously compounded node rates on an
// ACT/365F time axis from the anchor date. Discount factors are log-linear between
// nodes (linear in r*t) and use a flat zero rate outside the node range.
//
// The node zero rates are the curve's calibration parameters.
type DiscountCurve struct {
	anchor time.Time
	dates  []time.Time
	times  []float64
	rates  []float64
}

// NewDiscountCurve builds a curve from node dates and zero rates (decimal, e.g. 0.03).
func NewDiscountCurve(anchor time.Time, dates []time.Time, zeroRates []float64) (*DiscountCurve, error) {
	if anchor.IsZero() {
		return nil, fmt.Errorf("NewDiscountCurve: anchor date is required: %w", ErrInvalidCurve)
	}
	if len(dates) == 0 || len(dates) != len(zeroRates) {
		return nil, fmt.Errorf("NewDiscountCurve: %d dates vs %d rates: %w", len(dates), len(zeroRates), ErrInvalidCurve)
	}
	if !utils.IsAscending(dates) || !dates[0].After(anchor) {
		return nil, fmt.Errorf("NewDiscountCurve: node dates must be ascending and after %s: %w", utils.FormatDate(anchor), ErrInvalidCurve)
	}

	c := &DiscountCurve{
		anchor: anchor,
		dates:  append([]time.Time(nil), dates...),
		times:  make([]float64, len(dates)),
		rates:  make([]float64, len(zeroRates)),
	}
	for i, d := range dates {
		if math.IsNaN(zeroRates[i]) || math.IsInf(zeroRates[i], 0) {
			return nil, fmt.Errorf("NewDiscountCurve: rate %d is not finite: %w", i, ErrInvalidCurve)
		}
		c.times[i] = utils.CurveTime(anchor, d)
		c.rates[i] = zeroRates[i]
	}
	return c, nil
}

// NewDiscountCurveFromDFs creates a curve from explicitly provided discount factors.
// Pillars on or before the anchor are ignored (DF(anchor) is 1 by construction).
func NewDiscountCurveFromDFs(anchor time.Time, dfs map[time.Time]float64) (*DiscountCurve, error) {
	dates := make([]time.Time, 0, len(dfs))
	for d := range dfs {
		if d.After(anchor) {
			dates = append(dates, d)
		}
	}
	utils.SortDates(dates)

	rates := make([]float64, len(dates))
	for i, d := range dates {
		df := dfs[d]
		if df <= 0 {
			return nil, fmt.Errorf("NewDiscountCurveFromDFs: non-positive DF at %s: %w", utils.FormatDate(d), ErrInvalidCurve)
		}
		rates[i] = -math.Log(df) / utils.CurveTime(anchor, d)
	}
	return NewDiscountCurve(anchor, dates, rates)
}

// DiscountCurveFromTenors builds a curve from tenor-keyed zero rates in percent ("5Y" -> 3.1).
func DiscountCurveFromTenors(anchor time.Time, zeroRatesPct map[string]float64, cal calendar.CalendarID) (*DiscountCurve, error) {
	byDate := make(map[time.Time]float64, len(zeroRatesPct))
	for tenor, pct := range zeroRatesPct {
		d, err := TenorDate(anchor, tenor, cal)
		if err != nil {
			return nil, fmt.Errorf("DiscountCurveFromTenors: %w", err)
		}
		byDate[d] = pct / 100.0
	}
	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	utils.SortDates(dates)
	rates := make([]float64, len(dates))
	for i, d := range dates {
		rates[i] = byDate[d]
	}
	return NewDiscountCurve(anchor, dates, rates)
}

// logDFWeights returns ln DF(t) together with d(ln DF)/d(rate_i) for the (at most two)
// nodes that t depends on.
func (c *DiscountCurve) logDFWeights(t time.Time) (logDF float64, idx [2]int, grad [2]float64, n int) {
	tt := utils.CurveTime(c.anchor, t)
	last := len(c.times) - 1

	switch {
	case tt <= c.times[0]:
		return -c.rates[0] * tt, [2]int{0, 0}, [2]float64{-tt, 0}, 1
	case tt >= c.times[last]:
		return -c.rates[last] * tt, [2]int{last, 0}, [2]float64{-tt, 0}, 1
	}

	lo, hi, _ := bracketOrBoundary(c.times, tt)
	w := (tt - c.times[lo]) / (c.times[hi] - c.times[lo])
	gLo := -(1 - w) * c.times[lo]
	gHi := -w * c.times[hi]
	logDF = gLo*c.rates[lo] + gHi*c.rates[hi]
	return logDF, [2]int{lo, hi}, [2]float64{gLo, gHi}, 2
}

// DF returns the discount factor at t.
func (c *DiscountCurve) DF(t time.Time) float64 {
	logDF, _, _, _ := c.logDFWeights(t)
	return math.Exp(logDF)
}

// ZeroRateAt returns the continuously-compounded zero rate (decimal) at t.
func (c *DiscountCurve) ZeroRateAt(t time.Time) float64 {
	tt := utils.CurveTime(c.anchor, t)
	if tt <= 0 {
		return c.rates[0]
	}
	return -math.Log(c.DF(t)) / tt
}

// EffectiveDF returns the average discount factor over [t1, t2] assuming a flat
// forward rate in between: the logarithmic mean of DF(t1) and DF(t2).
func (c *DiscountCurve) EffectiveDF(t1, t2 time.Time) float64 {
	m, _, _ := logMean(c.DF(t1), c.DF(t2))
	return m
}

// JacobianOfDF returns dDF(t)/d(rate_i) for every node.
func (c *DiscountCurve) JacobianOfDF(t time.Time) (*jacobian.Jacobian, error) {
	logDF, idx, grad, n := c.logDFWeights(t)
	if math.IsNaN(logDF) || math.IsInf(logDF, 0) {
		return nil, fmt.Errorf("JacobianOfDF: non-finite DF at %s: %w", utils.FormatDate(t), ErrInvalidCurve)
	}
	df := math.Exp(logDF)
	out := make([]float64, len(c.rates))
	for k := 0; k < n; k++ {
		out[idx[k]] += df * grad[k]
	}
	return jacobian.FromSlice(out), nil
}

// JacobianOfEffectiveDF chain-rules the logarithmic mean through both end-point DF Jacobians.
func (c *DiscountCurve) JacobianOfEffectiveDF(t1, t2 time.Time) (*jacobian.Jacobian, error) {
	j1, err := c.JacobianOfDF(t1)
	if err != nil {
		return nil, err
	}
	j2, err := c.JacobianOfDF(t2)
	if err != nil {
		return nil, err
	}
	_, dA, dB := logMean(c.DF(t1), c.DF(t2))
	j1.Scale(dA)
	if err := j1.AddScaled(dB, j2); err != nil {
		return nil, err
	}
	return j1, nil
}

// logMean returns L(a,b) = (a-b)/(ln a - ln b) and its partials.
func logMean(a, b float64) (m, dA, dB float64) {
	d := math.Log(a) - math.Log(b)
	if math.Abs(d) < 1e-12 {
		return 0.5 * (a + b), 0.5, 0.5
	}
	m = (a - b) / d
	dA = (1 - m/a) / d
	dB = (m/b - 1) / d
	return m, dA, dB
}

// NumParameters returns the number of calibration parameters (node rates).
func (c *DiscountCurve) NumParameters() int {
	return len(c.rates)
}

// Parameters returns a copy of the node zero rates.
func (c *DiscountCurve) Parameters() []float64 {
	return append([]float64(nil), c.rates...)
}

// WithParameters returns a new curve on the same nodes with the given zero rates.
func (c *DiscountCurve) WithParameters(rates []float64) (*DiscountCurve, error) {
	return NewDiscountCurve(c.anchor, c.dates, rates)
}

// Anchor returns the curve's anchor (valuation) date.
func (c *DiscountCurve) Anchor() time.Time {
	return c.anchor
}

// Nodes returns the node dates.
func (c *DiscountCurve) Nodes() []time.Time {
	return append([]time.Time(nil), c.dates...)
}

// PillarDFs returns discount factors at every node, keyed by date.
func (c *DiscountCurve) PillarDFs() map[time.Time]float64 {
	out := make(map[time.Time]float64, len(c.dates))
	for _, d := range c.dates {
		out[d] = c.DF(d)
	}
	return out
}
