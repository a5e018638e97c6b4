package cds

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/meenmo/credlib/calendar"
	"github.com/meenmo/credlib/schedule"
	"github.com/meenmo/credlib/utils"
)

// CreditSetting describes the protection leg.
type CreditSetting struct {
	// DefaultPaymentLagDays delays the protection payment after a default.
	DefaultPaymentLagDays int
	// UseCurveRecovery takes recovery from the credit curve instead of FixedRecovery.
	UseCurveRecovery bool
	FixedRecovery    float64
	CreditCurveID    string
}

// NewCreditSetting validates and returns a CreditSetting.
func NewCreditSetting(lagDays int, useCurveRecovery bool, fixedRecovery float64, creditCurveID string) (CreditSetting, error) {
	s := CreditSetting{
		DefaultPaymentLagDays: lagDays,
		UseCurveRecovery:      useCurveRecovery,
		FixedRecovery:         fixedRecovery,
		CreditCurveID:         creditCurveID,
	}
	if err := s.validate(); err != nil {
		return CreditSetting{}, fmt.Errorf("NewCreditSetting: %w", err)
	}
	return s, nil
}

func (s CreditSetting) validate() error {
	if s.DefaultPaymentLagDays < 0 {
		return fmt.Errorf("negative default payment lag %d: %w", s.DefaultPaymentLagDays, ErrInvalidInstrument)
	}
	if math.IsNaN(s.FixedRecovery) || s.FixedRecovery < 0 || s.FixedRecovery >= 1 {
		return fmt.Errorf("recovery %g outside [0,1): %w", s.FixedRecovery, ErrInvalidInstrument)
	}
	if strings.TrimSpace(s.CreditCurveID) == "" {
		return fmt.Errorf("credit curve id is required: %w", ErrInvalidInstrument)
	}
	return nil
}

// InstrumentSpec is the input to NewInstrument. Periods are generated from the
// dates and Convention when left empty.
type InstrumentSpec struct {
	Name            string
	EffectiveDate   time.Time
	MaturityDate    time.Time
	Notional        float64
	Coupon          float64 // decimal running coupon, 0.01 == 100bp
	Periods         []schedule.CouponPeriod
	Notionals       *schedule.NotionalSchedule
	Credit          CreditSetting
	DiscountCurveID string
	DayCount        utils.DayCount
	Calendar        calendar.CalendarID
	Convention      *schedule.Convention
}

// Instrument is a validated single-name CDS.
type Instrument struct {
	Name            string
	EffectiveDate   time.Time
	MaturityDate    time.Time
	Notional        float64
	Coupon          float64
	Periods         []schedule.CouponPeriod
	Notionals       *schedule.NotionalSchedule
	Credit          CreditSetting
	DiscountCurveID string
	DayCount        utils.DayCount
}

// NewInstrument validates spec and builds its coupon schedule if needed.
func NewInstrument(spec InstrumentSpec) (*Instrument, error) {
	if spec.Notional <= 0 || math.IsNaN(spec.Notional) || math.IsInf(spec.Notional, 0) {
		return nil, fmt.Errorf("NewInstrument: notional %g: %w", spec.Notional, ErrInvalidInstrument)
	}
	if math.IsNaN(spec.Coupon) || math.IsInf(spec.Coupon, 0) {
		return nil, fmt.Errorf("NewInstrument: coupon is not finite: %w", ErrInvalidInstrument)
	}
	if !spec.MaturityDate.After(spec.EffectiveDate) {
		return nil, fmt.Errorf("NewInstrument: maturity %s not after effective %s: %w",
			utils.FormatDate(spec.MaturityDate), utils.FormatDate(spec.EffectiveDate), ErrInvalidInstrument)
	}
	if err := spec.Credit.validate(); err != nil {
		return nil, fmt.Errorf("NewInstrument: %w", err)
	}
	if spec.DiscountCurveID == "" {
		return nil, fmt.Errorf("NewInstrument: discount curve id is required: %w", ErrInvalidInstrument)
	}

	dc := spec.DayCount
	if dc == "" {
		dc = utils.Act360
	}

	periods := spec.Periods
	if len(periods) == 0 {
		cal := spec.Calendar
		if cal == "" {
			cal = calendar.USD
		}
		conv := schedule.DefaultConvention(cal)
		if spec.Convention != nil {
			conv = *spec.Convention
		}
		conv.DayCount = dc

		var err error
		periods, err = schedule.Generate(spec.EffectiveDate, spec.MaturityDate, conv)
		if err != nil {
			return nil, fmt.Errorf("NewInstrument: %w", err)
		}
	}
	if err := schedule.Validate(periods); err != nil {
		return nil, fmt.Errorf("NewInstrument: %v: %w", err, ErrInvalidInstrument)
	}

	return &Instrument{
		Name:            spec.Name,
		EffectiveDate:   spec.EffectiveDate,
		MaturityDate:    spec.MaturityDate,
		Notional:        spec.Notional,
		Coupon:          spec.Coupon,
		Periods:         append([]schedule.CouponPeriod(nil), periods...),
		Notionals:       spec.Notionals,
		Credit:          spec.Credit,
		DiscountCurveID: spec.DiscountCurveID,
		DayCount:        dc,
	}, nil
}

// livePeriods returns the periods whose pay date is on or after valuationDate.
func (inst *Instrument) livePeriods(valuationDate time.Time) []schedule.CouponPeriod {
	for i, p := range inst.Periods {
		if !p.PayDate.Before(valuationDate) {
			return inst.Periods[i:]
		}
	}
	return nil
}
