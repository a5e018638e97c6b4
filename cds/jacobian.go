package cds

import (
	"fmt"
	"time"

	"github.com/meenmo/credlib/config"
	"github.com/meenmo/credlib/jacobian"
)

// settled turns d(v) into d(v / DF(s)) given d(DF(s)).
func settled(dv *jacobian.Jacobian, v, dfSettle float64, jSettle *jacobian.Jacobian) (*jacobian.Jacobian, error) {
	out := dv.Clone()
	out.Scale(1 / dfSettle)
	if err := out.AddScaled(-v/(dfSettle*dfSettle), jSettle); err != nil {
		return nil, err
	}
	return out, nil
}

func jacobianInputs(fn string, valuationDate time.Time, cfg config.Pricer, inst *Instrument, disc DiscountCurve, credit CreditCurve, settleDate time.Time) (*legTotals, float64, *jacobian.Jacobian, error) {
	if err := checkInputs(fn, valuationDate, inst, disc, credit); err != nil {
		return nil, 0, nil, err
	}
	tot, err := accumulate(valuationDate, cfg, inst, disc, credit, true)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("%s: %s: %w", fn, inst.Name, err)
	}
	settle := settlementDate(valuationDate, cfg, settleDate)
	jSettle, err := disc.JacobianOfDF(settle)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("%s: %w", fn, err)
	}
	return tot, disc.DF(settle), jSettle, nil
}

// DirtyPVJacobian returns d(DirtyPV)/d(discount curve parameter) for every parameter.
func DirtyPVJacobian(valuationDate time.Time, cfg config.Pricer, inst *Instrument, disc DiscountCurve, credit CreditCurve, settleDate time.Time) (*jacobian.Jacobian, error) {
	tot, dfSettle, jSettle, err := jacobianInputs("DirtyPVJacobian", valuationDate, cfg, inst, disc, credit, settleDate)
	if err != nil {
		return nil, err
	}

	// coupon leg minus protection leg, before settlement discounting
	raw := inst.Coupon*tot.annuity - tot.loss
	jRaw := tot.jAnnuity.Clone()
	jRaw.Scale(inst.Coupon)
	if err := jRaw.AddScaled(-1, tot.jLoss); err != nil {
		return nil, fmt.Errorf("DirtyPVJacobian: %w", err)
	}

	out, err := settled(jRaw, raw, dfSettle, jSettle)
	if err != nil {
		return nil, fmt.Errorf("DirtyPVJacobian: %w", err)
	}
	out.Scale(face * inst.Notional * 0.01)
	return out, nil
}

// FairPremiumJacobian returns d(FairPremium)/d(discount curve parameter), in bp per unit parameter.
func FairPremiumJacobian(valuationDate time.Time, cfg config.Pricer, inst *Instrument, disc DiscountCurve, credit CreditCurve, settleDate time.Time) (*jacobian.Jacobian, error) {
	tot, dfSettle, jSettle, err := jacobianInputs("FairPremiumJacobian", valuationDate, cfg, inst, disc, credit, settleDate)
	if err != nil {
		return nil, err
	}

	scale := face * inst.Notional * 0.01
	lossPV := scale * tot.loss / dfSettle
	cleanDV01 := scale * (tot.annuity/dfSettle - tot.accruedYF) * bp
	if cleanDV01 == 0 {
		return nil, fmt.Errorf("FairPremiumJacobian: %s: %w", inst.Name, ErrZeroDV01)
	}

	dLoss, err := settled(tot.jLoss, tot.loss, dfSettle, jSettle)
	if err != nil {
		return nil, fmt.Errorf("FairPremiumJacobian: %w", err)
	}
	dLoss.Scale(scale)

	dDV01, err := settled(tot.jAnnuity, tot.annuity, dfSettle, jSettle)
	if err != nil {
		return nil, fmt.Errorf("FairPremiumJacobian: %w", err)
	}
	dDV01.Scale(scale * bp)

	out, err := jacobian.Quotient(dLoss, dDV01, lossPV, cleanDV01)
	if err != nil {
		return nil, fmt.Errorf("FairPremiumJacobian: %w", err)
	}
	return out, nil
}
