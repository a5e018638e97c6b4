package cds

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/credlib/schedule"
	"github.com/meenmo/credlib/utils"
)

// LossSubPeriod is one slice of a coupon period's protection window.
type LossSubPeriod struct {
	StartDate     time.Time
	EndDate       time.Time
	SurvivalStart float64
	SurvivalEnd   float64
	// AccrualFraction is the coupon year fraction from the accrual start to the
	// sub-period midpoint: the premium owed on a default inside the slice.
	AccrualFraction float64
	RecoveryRate    float64
}

// DefaultProbability is the survival drop across the slice.
func (s LossSubPeriod) DefaultProbability() float64 {
	return s.SurvivalStart - s.SurvivalEnd
}

// LossPeriods splits the live part of p, from max(p.StartDate, protectionStart) to
// p.EndDate, at every credit curve node and into steps of at most maxStepDays.
// A period with no live protection yields no sub-periods.
func LossPeriods(p schedule.CouponPeriod, protectionStart time.Time, credit CreditCurve, setting CreditSetting, dayCount utils.DayCount, maxStepDays int) ([]LossSubPeriod, error) {
	if isNilInterface(credit) {
		return nil, fmt.Errorf("LossPeriods: %w", ErrMissingCurve)
	}
	if maxStepDays <= 0 {
		return nil, fmt.Errorf("LossPeriods: maxStepDays must be positive, got %d", maxStepDays)
	}

	start := utils.MaxDate(p.StartDate, protectionStart)
	end := p.EndDate
	if !end.After(start) {
		return nil, nil
	}

	var nodes []time.Time
	for _, d := range credit.NodeDates() {
		if d.After(start) && d.Before(end) {
			nodes = append(nodes, d)
		}
	}

	out := make([]LossSubPeriod, 0, int(utils.Days(start, end))/maxStepDays+len(nodes)+1)
	cursor := start
	sPrev := credit.Survival(cursor)
	next := 0
	for cursor.Before(end) {
		stop := utils.MinDate(utils.AddDays(cursor, maxStepDays), end)
		for next < len(nodes) && !nodes[next].After(cursor) {
			next++
		}
		if next < len(nodes) && nodes[next].Before(stop) {
			stop = nodes[next]
		}

		sNext := credit.Survival(stop)
		if math.IsNaN(sNext) || math.IsInf(sNext, 0) || math.IsNaN(sPrev) || sNext > sPrev {
			return nil, fmt.Errorf("LossPeriods: survival %g -> %g over [%s, %s]: %w",
				sPrev, sNext, utils.FormatDate(cursor), utils.FormatDate(stop), ErrInvalidLossPeriod)
		}

		recovery := setting.FixedRecovery
		if setting.UseCurveRecovery {
			recovery = credit.EffectiveRecovery(cursor, stop)
		}
		mid := cursor.Add(stop.Sub(cursor) / 2)

		out = append(out, LossSubPeriod{
			StartDate:       cursor,
			EndDate:         stop,
			SurvivalStart:   sPrev,
			SurvivalEnd:     sNext,
			AccrualFraction: utils.YearFraction(p.AccrualStart, mid, dayCount),
			RecoveryRate:    recovery,
		})
		cursor, sPrev = stop, sNext
	}
	return out, nil
}
