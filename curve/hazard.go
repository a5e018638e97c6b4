package curve

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/credlib/utils"
)

// HazardCurve is a piecewise-constant default-intensity curve. Hazard h[i] applies on
// (dates[i-1], dates[i]] with dates[-1] = anchor, and the last hazard extends flat
// beyond the final node. Recovery rates are piecewise-constant on the same segments.
type HazardCurve struct {
	id         string
	anchor     time.Time
	dates      []time.Time
	times      []float64
	hazards    []float64
	recoveries []float64
	cum        []float64 // integrated hazard at each node time
}

// Component is one calibrating node of a hazard curve.
type Component struct {
	Date     time.Time
	Hazard   float64
	Recovery float64
}

// NewHazardCurve validates and builds a hazard curve. recoveries may hold a single
// value, which then applies to every segment.
func NewHazardCurve(anchor time.Time, dates []time.Time, hazards, recoveries []float64) (*HazardCurve, error) {
	if anchor.IsZero() {
		return nil, fmt.Errorf("NewHazardCurve: anchor date is required: %w", ErrInvalidCurve)
	}
	if len(dates) == 0 || len(dates) != len(hazards) {
		return nil, fmt.Errorf("NewHazardCurve: %d dates vs %d hazards: %w", len(dates), len(hazards), ErrInvalidCurve)
	}
	if len(recoveries) == 1 && len(dates) > 1 {
		r := recoveries[0]
		recoveries = make([]float64, len(dates))
		for i := range recoveries {
			recoveries[i] = r
		}
	}
	if len(recoveries) != len(dates) {
		return nil, fmt.Errorf("NewHazardCurve: %d dates vs %d recoveries: %w", len(dates), len(recoveries), ErrInvalidCurve)
	}
	if !utils.IsAscending(dates) || !dates[0].After(anchor) {
		return nil, fmt.Errorf("NewHazardCurve: node dates must be ascending and after %s: %w", utils.FormatDate(anchor), ErrInvalidCurve)
	}

	c := &HazardCurve{
		anchor:     anchor,
		dates:      append([]time.Time(nil), dates...),
		times:      make([]float64, len(dates)),
		hazards:    append([]float64(nil), hazards...),
		recoveries: append([]float64(nil), recoveries...),
		cum:        make([]float64, len(dates)),
	}

	prevT, acc := 0.0, 0.0
	for i, d := range dates {
		h, r := hazards[i], recoveries[i]
		if math.IsNaN(h) || math.IsInf(h, 0) {
			return nil, fmt.Errorf("NewHazardCurve: hazard %d is not finite: %w", i, ErrInvalidCurve)
		}
		if h < 0 {
			return nil, fmt.Errorf("NewHazardCurve: hazard %d = %g: %w", i, h, ErrNegativeHazard)
		}
		if math.IsNaN(r) || r < 0 || r >= 1 {
			return nil, fmt.Errorf("NewHazardCurve: recovery %d = %g outside [0,1): %w", i, r, ErrInvalidCurve)
		}
		c.times[i] = utils.CurveTime(anchor, d)
		acc += h * (c.times[i] - prevT)
		c.cum[i] = acc
		prevT = c.times[i]
	}
	return c, nil
}

// HazardFromSpread is the credit-triangle approximation spread / (1 - recovery).
func HazardFromSpread(spread, recovery float64) float64 {
	return spread / (1 - recovery)
}

// WithID returns a copy of the curve labelled id.
func (c *HazardCurve) WithID(id string) *HazardCurve {
	out := *c
	out.id = id
	return &out
}

// ID returns the curve's label (may be empty).
func (c *HazardCurve) ID() string {
	return c.id
}

// Anchor returns the curve's anchor date.
func (c *HazardCurve) Anchor() time.Time {
	return c.anchor
}

// NodeDates returns the node dates.
func (c *HazardCurve) NodeDates() []time.Time {
	return append([]time.Time(nil), c.dates...)
}

func (c *HazardCurve) segmentOf(tt float64) int {
	i := segment(c.times, tt)
	if i >= len(c.times) {
		i = len(c.times) - 1
	}
	return i
}

// integrated returns the integrated hazard from anchor to curve time tt.
func (c *HazardCurve) integrated(tt float64) float64 {
	if tt <= 0 {
		return 0
	}
	last := len(c.times) - 1
	if tt > c.times[last] {
		return c.cum[last] + c.hazards[last]*(tt-c.times[last])
	}
	i := segment(c.times, tt)
	prevT, prevCum := 0.0, 0.0
	if i > 0 {
		prevT, prevCum = c.times[i-1], c.cum[i-1]
	}
	return prevCum + c.hazards[i]*(tt-prevT)
}

// Survival returns the survival probability to t. Dates on or before the anchor give 1.
func (c *HazardCurve) Survival(t time.Time) float64 {
	return math.Exp(-c.integrated(utils.CurveTime(c.anchor, t)))
}

// Hazard returns the instantaneous hazard at t.
func (c *HazardCurve) Hazard(t time.Time) float64 {
	return c.hazards[c.segmentOf(utils.CurveTime(c.anchor, t))]
}

// Recovery returns the recovery rate of the segment containing t.
func (c *HazardCurve) Recovery(t time.Time) float64 {
	return c.recoveries[c.segmentOf(utils.CurveTime(c.anchor, t))]
}

// EffectiveRecovery averages recovery over (t1, t2] weighted by default probability.
// With no default mass in the interval it falls back to Recovery(t2).
func (c *HazardCurve) EffectiveRecovery(t1, t2 time.Time) float64 {
	if !t2.After(t1) {
		return c.Recovery(t2)
	}

	a := t1
	var weighted, total float64
	for _, d := range c.dates {
		if !d.After(a) {
			continue
		}
		if !d.Before(t2) {
			break
		}
		w := c.Survival(a) - c.Survival(d)
		weighted += w * c.Recovery(d)
		total += w
		a = d
	}
	w := c.Survival(a) - c.Survival(t2)
	weighted += w * c.Recovery(t2)
	total += w

	if total <= 0 {
		return c.Recovery(t2)
	}
	return weighted / total
}

// MinHazard returns the smallest node hazard.
func (c *HazardCurve) MinHazard() float64 {
	m := c.hazards[0]
	for _, h := range c.hazards[1:] {
		m = math.Min(m, h)
	}
	return m
}

// CalibratingComponents lists each node with its hazard and recovery.
func (c *HazardCurve) CalibratingComponents() []Component {
	out := make([]Component, len(c.dates))
	for i, d := range c.dates {
		out[i] = Component{Date: d, Hazard: c.hazards[i], Recovery: c.recoveries[i]}
	}
	return out
}

// CreateFlatCurve builds a flat hazard curve at level shift. With applyToAllNodes the
// node dates are kept and every hazard is set to shift; otherwise a single node sits at
// the last curve date. recoveryOverride, when non-nil, replaces every recovery rate.
func (c *HazardCurve) CreateFlatCurve(shift float64, applyToAllNodes bool, recoveryOverride *float64) (*HazardCurve, error) {
	if shift < 0 {
		return nil, fmt.Errorf("CreateFlatCurve: shift %g: %w", shift, ErrNegativeHazard)
	}

	var (
		dates      []time.Time
		hazards    []float64
		recoveries []float64
	)
	if applyToAllNodes {
		dates = c.dates
		hazards = make([]float64, len(c.dates))
		for i := range hazards {
			hazards[i] = shift
		}
		recoveries = append([]float64(nil), c.recoveries...)
	} else {
		last := len(c.dates) - 1
		dates = []time.Time{c.dates[last]}
		hazards = []float64{shift}
		recoveries = []float64{c.recoveries[last]}
	}
	if recoveryOverride != nil {
		for i := range recoveries {
			recoveries[i] = *recoveryOverride
		}
	}

	out, err := NewHazardCurve(c.anchor, dates, hazards, recoveries)
	if err != nil {
		return nil, fmt.Errorf("CreateFlatCurve: %w", err)
	}
	out.id = c.id
	return out, nil
}

// Tweak returns a copy with shift added to every node hazard.
func (c *HazardCurve) Tweak(shift float64) (*HazardCurve, error) {
	hazards := make([]float64, len(c.hazards))
	for i, h := range c.hazards {
		hazards[i] = h + shift
		// Brent may land a hair below -MinHazard.
		if hazards[i] < 0 && hazards[i] > -1e-14 {
			hazards[i] = 0
		}
	}
	out, err := NewHazardCurve(c.anchor, c.dates, hazards, c.recoveries)
	if err != nil {
		return nil, fmt.Errorf("Tweak: %w", err)
	}
	out.id = c.id
	return out, nil
}
