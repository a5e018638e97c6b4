package cds

import (
	"fmt"
	"time"

	"github.com/meenmo/credlib/config"
	"github.com/meenmo/credlib/jacobian"
	"github.com/meenmo/credlib/logging"
	"github.com/meenmo/credlib/market"
	"github.com/meenmo/credlib/measure"
)

// quotePriority is the order in which market quotes are probed.
var quotePriority = []measure.ID{
	measure.Price,
	measure.CleanPrice,
	measure.Upfront,
	measure.FairPremium,
	measure.PV,
	measure.CleanPV,
}

// Pricer values one instrument against a market environment.
type Pricer struct {
	inst *Instrument
}

// NewPricer wraps inst.
func NewPricer(inst *Instrument) *Pricer {
	return &Pricer{inst: inst}
}

// Name returns the instrument name.
func (p *Pricer) Name() string {
	return p.inst.Name
}

// Instrument returns the priced instrument.
func (p *Pricer) Instrument() *Instrument {
	return p.inst
}

func (p *Pricer) curves(mkt *market.Params) (DiscountCurve, CreditCurve, error) {
	if mkt == nil {
		return nil, nil, ErrMissingCurve
	}
	disc, err := mkt.DiscountCurve(p.inst.DiscountCurveID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMissingCurve, err)
	}
	credit, err := mkt.CreditCurve(p.inst.Credit.CreditCurveID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMissingCurve, err)
	}
	return disc, credit, nil
}

// ComputeMeasures returns the model measure set on the curves in mkt.
func (p *Pricer) ComputeMeasures(valuationDate time.Time, cfg config.Pricer, mkt *market.Params) (*measure.Set, error) {
	disc, credit, err := p.curves(mkt)
	if err != nil {
		return nil, fmt.Errorf("ComputeMeasures: %s: %w", p.inst.Name, err)
	}
	return ComputeMeasures(valuationDate, cfg, p.inst, disc, credit, time.Time{})
}

// ComputeJacobian returns the discount-curve Jacobian of a supported measure
// (PV/DirtyPV or FairPremium/ParSpread).
func (p *Pricer) ComputeJacobian(valuationDate time.Time, cfg config.Pricer, mkt *market.Params, name string) (*jacobian.Jacobian, error) {
	disc, credit, err := p.curves(mkt)
	if err != nil {
		return nil, fmt.Errorf("ComputeJacobian: %s: %w", p.inst.Name, err)
	}
	switch measure.Lookup(name) {
	case measure.PV, measure.DirtyPV:
		return DirtyPVJacobian(valuationDate, cfg, p.inst, disc, credit, time.Time{})
	case measure.FairPremium, measure.ParSpread:
		return FairPremiumJacobian(valuationDate, cfg, p.inst, disc, credit, time.Time{})
	default:
		return nil, fmt.Errorf("ComputeJacobian: %q: %w", name, ErrUnsupportedMeasure)
	}
}

// CalibrateHazard is Value under the basket component contract.
func (p *Pricer) CalibrateHazard(valuationDate time.Time, cfg config.Pricer, mkt *market.Params, q config.Calibration) (*measure.Set, error) {
	return p.Value(valuationDate, cfg, mkt, q)
}

// Value returns the model measures merged with their "Fair"-prefixed copies and, when
// the instrument is quoted, the "Market"-prefixed measures on the calibrated curve.
// Calibration failure is logged and leaves the Market measures out.
func (p *Pricer) Value(valuationDate time.Time, cfg config.Pricer, mkt *market.Params, q config.Calibration) (*measure.Set, error) {
	fair, err := p.ComputeMeasures(valuationDate, cfg, mkt)
	if err != nil {
		return nil, fmt.Errorf("Value: %w", err)
	}
	out := fair.Clone()
	out.Merge(fair, measure.PrefixFair)

	quoted, mid, ok := p.firstQuote(mkt)
	if !ok {
		return out, nil
	}
	out.Set(measure.MarketInputKey(quoted), mid)

	log := logging.Get().With("instrument", p.inst.Name, "quote", quoted.String(), "mid", mid)

	target, err := quoteTarget(quoted, mid, p.inst, valuationDate, fair)
	if err != nil {
		log.Warn("market quote not usable for calibration", "error", err)
		return out, nil
	}
	mode, err := ParseCalibrationMode(q.Mode)
	if err != nil {
		log.Warn("calibration skipped", "error", err)
		return out, nil
	}

	res, err := NewCalibrator(mode, q).Calibrate(valuationDate, cfg, p.inst, mkt, target)
	if err != nil {
		log.Warn("calibration failed", "error", err)
		return out, nil
	}

	disc, _, err := p.curves(mkt)
	if err != nil {
		return nil, fmt.Errorf("Value: %w", err)
	}
	marketSet, err := ComputeMeasures(valuationDate, cfg, p.inst, disc, res.Curve, time.Time{})
	if err != nil {
		log.Warn("measures on calibrated curve failed", "error", err)
		return out, nil
	}
	marketSet.Set(measure.CalibratedShift.String(), res.Shift)
	out.Merge(marketSet, measure.PrefixMarket)
	return out, nil
}

func (p *Pricer) firstQuote(mkt *market.Params) (measure.ID, float64, bool) {
	for _, id := range quotePriority {
		q, ok := mkt.Quote(p.inst.Name, id)
		if !ok {
			continue
		}
		if mid, ok := q.MidValue(); ok {
			return id, mid, true
		}
	}
	return measure.Unknown, 0, false
}

// quoteTarget translates a quoted mid into a calibration target. Price and PV style
// quotes map onto Upfront through curve-independent offsets (notional factor and
// accrued premium); FairPremium is matched directly.
func quoteTarget(quoted measure.ID, mid float64, inst *Instrument, valuationDate time.Time, fair *measure.Set) (Target, error) {
	notional := inst.Notional * inst.Notionals.FactorAt(valuationDate)
	accrued, _ := fair.Get(measure.Accrued.String())

	switch quoted {
	case measure.Upfront, measure.CleanPV:
		return Target{Measure: measure.Upfront, Value: mid}, nil
	case measure.PV:
		return Target{Measure: measure.Upfront, Value: mid - accrued}, nil
	case measure.CleanPrice:
		return Target{Measure: measure.Upfront, Value: (mid/100 - 1) * notional}, nil
	case measure.Price:
		return Target{Measure: measure.Upfront, Value: (mid/100-1)*notional - accrued}, nil
	case measure.FairPremium:
		return Target{Measure: measure.FairPremium, Value: mid}, nil
	default:
		return Target{}, fmt.Errorf("quoteTarget: %s: %w", quoted, ErrUnsupportedMeasure)
	}
}
