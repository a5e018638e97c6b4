package cds

import (
	"fmt"
	"time"

	"github.com/meenmo/credlib/calendar"
	"github.com/meenmo/credlib/config"
	"github.com/meenmo/credlib/jacobian"
	"github.com/meenmo/credlib/logging"
	"github.com/meenmo/credlib/measure"
	"github.com/meenmo/credlib/utils"
)

const (
	// face is the unit notional results are computed on before scaling.
	face = 100.0
	bp   = 1e-4
)

// legTotals are the unscaled, unsettled sums over the live schedule.
type legTotals struct {
	annuity      float64 // risky annuity including accrual on default
	loss         float64 // discounted expected loss
	lossNoRec    float64 // discounted default probability
	expLoss      float64
	expLossNoRec float64
	accruedYF    float64 // accrued year fraction scaled by notional factor
	accrualDays  float64
	lastEnd      time.Time

	// d(annuity) and d(loss) w.r.t. discount curve parameters; nil unless requested.
	jAnnuity *jacobian.Jacobian
	jLoss    *jacobian.Jacobian
}

func checkInputs(fn string, valuationDate time.Time, inst *Instrument, disc DiscountCurve, credit CreditCurve) error {
	if valuationDate.IsZero() {
		return fmt.Errorf("%s: %w", fn, ErrInvalidDate)
	}
	if inst == nil {
		return fmt.Errorf("%s: nil instrument: %w", fn, ErrInvalidInstrument)
	}
	if isNilInterface(disc) {
		return fmt.Errorf("%s: discount curve %q: %w", fn, inst.DiscountCurveID, ErrMissingCurve)
	}
	if isNilInterface(credit) {
		return fmt.Errorf("%s: credit curve %q: %w", fn, inst.Credit.CreditCurveID, ErrMissingCurve)
	}
	return nil
}

// settlementDate applies the T+n cash settlement rule when settleDate is zero.
func settlementDate(valuationDate time.Time, cfg config.Pricer, settleDate time.Time) time.Time {
	if !settleDate.IsZero() {
		return settleDate
	}
	return calendar.AddBusinessDays(cfg.CalendarID(), valuationDate, cfg.CashSettleDays)
}

// accumulate walks the live periods and their loss sub-periods once.
func accumulate(valuationDate time.Time, cfg config.Pricer, inst *Instrument, disc DiscountCurve, credit CreditCurve, withJacobian bool) (*legTotals, error) {
	var tot legTotals
	if withJacobian {
		tot.jAnnuity = jacobian.New(disc.NumParameters())
		tot.jLoss = jacobian.New(disc.NumParameters())
	}

	live := inst.livePeriods(valuationDate)
	if len(live) == 0 {
		return &tot, nil
	}
	if skipped := len(inst.Periods) - len(live); skipped > 0 {
		logging.Get().Debug("skipped settled coupon periods", "instrument", inst.Name, "count", skipped)
	}

	first := live[0]
	if !valuationDate.Before(first.AccrualStart) && valuationDate.Before(first.AccrualEnd) {
		tot.accruedYF = utils.YearFraction(first.AccrualStart, valuationDate, inst.DayCount) * inst.Notionals.FactorAt(valuationDate)
		tot.accrualDays = utils.Days(first.AccrualStart, valuationDate)
	}

	lag := inst.Credit.DefaultPaymentLagDays
	for _, p := range live {
		factor := inst.Notionals.FactorOver(p.AccrualStart, p.AccrualEnd)
		survivalDate := p.AccrualEnd
		if cfg.SurviveToPayDate {
			survivalDate = p.PayDate
		}
		couponFlow := p.YearFraction * credit.Survival(survivalDate) * factor
		tot.annuity += couponFlow * disc.DF(p.PayDate)
		if withJacobian {
			jdf, err := disc.JacobianOfDF(p.PayDate)
			if err != nil {
				return nil, err
			}
			if err := tot.jAnnuity.AddScaled(couponFlow, jdf); err != nil {
				return nil, err
			}
		}

		subs, err := LossPeriods(p, valuationDate, credit, inst.Credit, inst.DayCount, cfg.MaxStepDays)
		if err != nil {
			return nil, err
		}
		for _, sp := range subs {
			dp := sp.DefaultProbability()
			f := inst.Notionals.FactorOver(sp.StartDate, sp.EndDate)
			t1, t2 := utils.AddDays(sp.StartDate, lag), utils.AddDays(sp.EndDate, lag)
			eff := disc.EffectiveDF(t1, t2)

			lossFlow := (1 - sp.RecoveryRate) * dp * f
			tot.expLoss += lossFlow
			tot.expLossNoRec += dp * f
			tot.loss += lossFlow * eff
			tot.lossNoRec += dp * f * eff

			var accrualFlow float64
			if cfg.IncludeAccrualOnDefault {
				accrualFlow = sp.AccrualFraction * dp * f
				tot.annuity += accrualFlow * eff
			}

			if withJacobian {
				jeff, err := disc.JacobianOfEffectiveDF(t1, t2)
				if err != nil {
					return nil, err
				}
				if err := tot.jAnnuity.AddScaled(accrualFlow, jeff); err != nil {
					return nil, err
				}
				if err := tot.jLoss.AddScaled(lossFlow, jeff); err != nil {
					return nil, err
				}
			}
		}
		tot.lastEnd = p.EndDate
	}
	return &tot, nil
}

// ComputeMeasures values inst on disc and credit. A zero settleDate applies the
// configured T+n cash settlement rule. Results are scaled to the instrument notional.
func ComputeMeasures(valuationDate time.Time, cfg config.Pricer, inst *Instrument, disc DiscountCurve, credit CreditCurve, settleDate time.Time) (*measure.Set, error) {
	if err := checkInputs("ComputeMeasures", valuationDate, inst, disc, credit); err != nil {
		return nil, err
	}
	tot, err := accumulate(valuationDate, cfg, inst, disc, credit, false)
	if err != nil {
		return nil, fmt.Errorf("ComputeMeasures: %s: %w", inst.Name, err)
	}

	settle := settlementDate(valuationDate, cfg, settleDate)
	dfSettle := disc.DF(settle)
	scale := inst.Notional * 0.01
	unit := func(x float64) float64 { return face * x * scale }

	dirtyDV01 := unit(tot.annuity/dfSettle) * bp
	accrued01 := unit(tot.accruedYF) * bp
	cleanDV01 := dirtyDV01 - accrued01
	if cleanDV01 == 0 {
		return nil, fmt.Errorf("ComputeMeasures: %s: %w", inst.Name, ErrZeroDV01)
	}

	lossPV := unit(tot.loss / dfSettle)
	lossNoRecPV := unit(tot.lossNoRec / dfSettle)
	fairPremium := lossPV / cleanDV01
	cleanPV := inst.Coupon*cleanDV01/bp - lossPV
	dirtyPV := inst.Coupon*dirtyDV01/bp - lossPV

	factorNow := inst.Notionals.FactorAt(valuationDate)
	ms := measure.NewSet()
	ms.Set(measure.PV.String(), dirtyPV)
	ms.Set(measure.DirtyPV.String(), dirtyPV)
	ms.Set(measure.CleanPV.String(), cleanPV)
	ms.Set(measure.DV01.String(), cleanDV01)
	ms.Set(measure.DirtyDV01.String(), dirtyDV01)
	ms.Set(measure.Accrued.String(), inst.Coupon*accrued01/bp)
	ms.Set(measure.Accrued01.String(), accrued01)
	ms.Set(measure.AccrualDays.String(), tot.accrualDays)
	ms.Set(measure.LossPV.String(), lossPV)
	ms.Set(measure.LossNoRecoveryPV.String(), lossNoRecPV)
	ms.Set(measure.ExpectedLoss.String(), unit(tot.expLoss))
	ms.Set(measure.ExpectedLossNoRecovery.String(), unit(tot.expLossNoRec))
	ms.Set(measure.FairPremium.String(), fairPremium)
	ms.Set(measure.ParSpread.String(), fairPremium)
	ms.Set(measure.Upfront.String(), cleanPV)
	if factorNow > 0 {
		ms.Set(measure.Price.String(), 100*(1+dirtyPV/inst.Notional/factorNow))
		ms.Set(measure.CleanPrice.String(), 100*(1+cleanPV/inst.Notional/factorNow))
		ms.Set(measure.RiskyDuration.String(), cleanDV01/bp/(inst.Notional*factorNow))
	}

	if !tot.lastEnd.IsZero() {
		sNow := credit.Survival(valuationDate)
		survival := credit.Survival(tot.lastEnd) / sNow
		ms.Set(measure.SurvivalProbability.String(), survival)
		ms.Set(measure.DefaultProbability.String(), 1-survival)

		recovery := inst.Credit.FixedRecovery
		if inst.Credit.UseCurveRecovery {
			recovery = credit.EffectiveRecovery(valuationDate, tot.lastEnd)
		}
		ms.Set(measure.RecoveryRate.String(), recovery)
	}
	ms.Set(measure.Notional.String(), inst.Notional*factorNow)
	ms.Set(measure.FirstCouponRate.String(), inst.Coupon*100)
	return ms, nil
}
