package curve

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/meenmo/credlib/calendar"
	"github.com/meenmo/credlib/utils"
)

// TenorDate converts tenor strings like "1W", "3M", "10Y" to a modified-following
// adjusted date counted from anchor.
func TenorDate(anchor time.Time, tenor string, cal calendar.CalendarID) (time.Time, error) {
	tenor = strings.TrimSpace(strings.ToUpper(tenor))
	if len(tenor) < 2 {
		return time.Time{}, fmt.Errorf("TenorDate: invalid tenor %q", tenor)
	}
	unit := tenor[len(tenor)-1]
	n, err := strconv.Atoi(tenor[:len(tenor)-1])
	if err != nil || n <= 0 {
		return time.Time{}, fmt.Errorf("TenorDate: invalid tenor %q", tenor)
	}

	var d time.Time
	switch unit {
	case 'D':
		d = anchor.AddDate(0, 0, n)
	case 'W':
		d = anchor.AddDate(0, 0, 7*n)
	case 'M':
		d = utils.AddMonth(anchor, n)
	case 'Y':
		d = utils.AddMonth(anchor, 12*n)
	default:
		return time.Time{}, fmt.Errorf("TenorDate: invalid tenor unit in %q", tenor)
	}
	return calendar.Adjust(cal, d), nil
}
