package schedule

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/meenmo/credlib/utils"
)

// NotionalStep sets the notional factor from Date onward.
type NotionalStep struct {
	Date   time.Time
	Factor float64
}

// NotionalSchedule is a step function of notional factors relative to the initial
// notional. The zero value (and nil) is a constant factor of 1.
type NotionalSchedule struct {
	steps []NotionalStep
}

// NewNotionalSchedule validates steps (ascending dates, finite non-negative factors).
func NewNotionalSchedule(steps []NotionalStep) (*NotionalSchedule, error) {
	for i, s := range steps {
		if math.IsNaN(s.Factor) || math.IsInf(s.Factor, 0) || s.Factor < 0 {
			return nil, fmt.Errorf("NewNotionalSchedule: invalid factor %g at %s", s.Factor, utils.FormatDate(s.Date))
		}
		if i > 0 && !s.Date.After(steps[i-1].Date) {
			return nil, fmt.Errorf("NewNotionalSchedule: step dates must be strictly ascending")
		}
	}
	return &NotionalSchedule{steps: append([]NotionalStep(nil), steps...)}, nil
}

// FactorAt returns the factor of the last step dated on or before d.
func (n *NotionalSchedule) FactorAt(d time.Time) float64 {
	if n == nil || len(n.steps) == 0 {
		return 1
	}
	i := sort.Search(len(n.steps), func(i int) bool { return n.steps[i].Date.After(d) })
	if i == 0 {
		return 1
	}
	return n.steps[i-1].Factor
}

// FactorOver returns the time-weighted average factor over [d1, d2).
func (n *NotionalSchedule) FactorOver(d1, d2 time.Time) float64 {
	if !d2.After(d1) || n == nil || len(n.steps) == 0 {
		return n.FactorAt(d1)
	}

	var acc float64
	cursor := d1
	for _, s := range n.steps {
		if !s.Date.After(cursor) {
			continue
		}
		if !s.Date.Before(d2) {
			break
		}
		acc += n.FactorAt(cursor) * utils.Days(cursor, s.Date)
		cursor = s.Date
	}
	acc += n.FactorAt(cursor) * utils.Days(cursor, d2)
	return acc / utils.Days(d1, d2)
}
