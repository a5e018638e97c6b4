// Package schedule generates coupon periods and notional step schedules for
// running-premium credit instruments.
package schedule

import (
	"fmt"
	"time"

	"github.com/meenmo/credlib/calendar"
	"github.com/meenmo/credlib/utils"
)

// CouponPeriod is one premium period.
//
// StartDate/EndDate bound the protection window. AccrualStart/AccrualEnd bound
// the coupon accrual; YearFraction is the coupon day-count fraction over it.
type CouponPeriod struct {
	StartDate    time.Time
	EndDate      time.Time
	AccrualStart time.Time
	AccrualEnd   time.Time
	PayDate      time.Time
	YearFraction float64
}

// Convention describes how coupon dates are rolled and adjusted.
type Convention struct {
	FrequencyMonths int // 3 for quarterly
	Calendar        calendar.CalendarID
	DayCount        utils.DayCount
	PayDelayDays    int
	// IncludeMaturityDay extends the last accrual period by one day so that
	// protection covers the maturity date itself.
	IncludeMaturityDay bool
	EOM                bool
}

// DefaultConvention is the standard quarterly ACT/360 CDS premium leg on cal.
func DefaultConvention(cal calendar.CalendarID) Convention {
	return Convention{
		FrequencyMonths:    3,
		Calendar:           cal,
		DayCount:           utils.Act360,
		IncludeMaturityDay: true,
	}
}

// Generate rolls coupon dates backward from maturity, creating a front stub if
// needed. A stub shorter than eight days is merged into the following period.
func Generate(effective, maturity time.Time, conv Convention) ([]CouponPeriod, error) {
	if !maturity.After(effective) {
		return nil, fmt.Errorf("Generate: maturity %s not after effective %s", utils.FormatDate(maturity), utils.FormatDate(effective))
	}
	if conv.FrequencyMonths <= 0 {
		return nil, fmt.Errorf("Generate: unsupported frequency %d months", conv.FrequencyMonths)
	}

	var unadjusted []time.Time
	current := maturity
	for k := 1; current.After(effective); k++ {
		unadjusted = append([]time.Time{current}, unadjusted...)
		if conv.EOM {
			current = utils.AddMonth(maturity, -k*conv.FrequencyMonths)
		} else {
			current = maturity.AddDate(0, -k*conv.FrequencyMonths, 0)
		}
	}

	if len(unadjusted) > 1 {
		if gap := int(utils.Days(effective, unadjusted[0])); gap > 0 && gap <= 7 {
			unadjusted = unadjusted[1:]
		}
	}
	unadjusted = append([]time.Time{effective}, unadjusted...)

	periods := make([]CouponPeriod, 0, len(unadjusted)-1)
	for i := 0; i < len(unadjusted)-1; i++ {
		accrualStart := calendar.Adjust(conv.Calendar, unadjusted[i])
		if i == 0 {
			accrualStart = unadjusted[0]
		}
		accrualEnd := calendar.Adjust(conv.Calendar, unadjusted[i+1])
		payDate := calendar.AddBusinessDays(conv.Calendar, accrualEnd, conv.PayDelayDays)

		last := i == len(unadjusted)-2
		if last && conv.IncludeMaturityDay {
			accrualEnd = unadjusted[i+1].AddDate(0, 0, 1)
		}

		periods = append(periods, CouponPeriod{
			StartDate:    accrualStart,
			EndDate:      accrualEnd,
			AccrualStart: accrualStart,
			AccrualEnd:   accrualEnd,
			PayDate:      payDate,
			YearFraction: utils.YearFraction(accrualStart, accrualEnd, conv.DayCount),
		})
	}
	return periods, nil
}

// Validate checks that periods are non-empty, well formed, ascending and non-overlapping.
func Validate(periods []CouponPeriod) error {
	if len(periods) == 0 {
		return fmt.Errorf("Validate: no coupon periods")
	}
	for i, p := range periods {
		if !p.EndDate.After(p.StartDate) || p.AccrualEnd.Before(p.AccrualStart) {
			return fmt.Errorf("Validate: period %d [%s, %s] is empty", i, utils.FormatDate(p.StartDate), utils.FormatDate(p.EndDate))
		}
		if i > 0 && p.StartDate.Before(periods[i-1].EndDate) {
			return fmt.Errorf("Validate: period %d overlaps its predecessor", i)
		}
	}
	return nil
}
