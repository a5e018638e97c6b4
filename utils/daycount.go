package utils

import (
	"strings"
	"time"
)

// DayCount names a year-fraction convention.
type DayCount string

const (
	Act360  DayCount = "ACT/360"
	Act365F DayCount = "ACT/365F"
	Dc30360 DayCount = "30/360"
	Dc30E   DayCount = "30E/360"
)

// ParseDayCount normalizes user input ("act/360", "ACT/365") to a DayCount.
// Unknown conventions fall back to ACT/365F.
func ParseDayCount(s string) DayCount {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ACT/360", "A360":
		return Act360
	case "30/360", "30U/360":
		return Dc30360
	case "30E/360":
		return Dc30E
	default:
		return Act365F
	}
}

// YearFraction computes year fraction between two dates using the specified day count convention.
// Supported conventions: ACT/360, ACT/365F, 30E/360, 30/360
func YearFraction(start, end time.Time, convention DayCount) float64 {
	switch convention {
	case Act360:
		return Days(start, end) / 360.0
	case Act365F:
		return Days(start, end) / 365.0
	case Dc30E, Dc30360:
		// D1 and D2 are capped at 30
		d1 := start.Day()
		if d1 > 30 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 > 30 {
			d2 = 30
		}
		y1, m1 := start.Year(), int(start.Month())
		y2, m2 := end.Year(), int(end.Month())
		return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
	default:
		return Days(start, end) / 365.0
	}
}

// CurveTime is the ACT/365F time axis used by every curve in this module.
func CurveTime(anchor, t time.Time) float64 {
	return YearFraction(anchor, t, Act365F)
}
