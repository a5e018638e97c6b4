package cds_test

import (
	"math"
	"testing"
	"time"

	"github.com/meenmo/credlib/cds"
	"github.com/meenmo/credlib/config"
	"github.com/meenmo/credlib/market"
	"github.com/meenmo/credlib/measure"
)

func quotedMarket(t *testing.T, val time.Time, hazards []float64) *market.Params {
	t.Helper()
	mkt := market.NewParams()
	mkt.SetDiscountCurve("USD-OIS", shapedDiscount(t, val))
	mkt.SetCreditCurve("ACME", hazardCurve(t, val, calibrationNodes, hazards))
	return mkt
}

func TestPricerValue_NoQuote(t *testing.T) {
	t.Parallel()

	val := date(2025, 3, 20)
	mkt := quotedMarket(t, val, []float64{0.02, 0.02})
	p := cds.NewPricer(testInstrument(t))

	ms, err := p.Value(val, config.DefaultConfig.Pricer, mkt, config.DefaultConfig.Calibration)
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if get(t, ms, "PV") != get(t, ms, "FairPV") {
		t.Fatalf("FairPV must equal PV")
	}
	for _, n := range ms.Names() {
		if len(n) >= 6 && n[:6] == measure.PrefixMarket {
			t.Fatalf("unexpected market key %s without a quote", n)
		}
	}
}

func TestPricerValue_PriceQuoteCalibrates(t *testing.T) {
	t.Parallel()

	val := date(2025, 5, 1)
	cfg := config.DefaultConfig.Pricer
	inst := testInstrument(t)

	// Price produced by the engine at a known flat hazard of 2.5%.
	truth := quotedMarket(t, val, []float64{0.025, 0.025})
	quoted, err := cds.NewPricer(inst).ComputeMeasures(val, cfg, truth)
	if err != nil {
		t.Fatalf("ComputeMeasures: %v", err)
	}
	price := get(t, quoted, "Price")

	mkt := quotedMarket(t, val, []float64{0.01, 0.02})
	src := market.NewMapQuoteSource()
	src.Put(inst.Name, measure.Price, market.NewMidQuote(price))
	src.Put(inst.Name, measure.FairPremium, market.NewMidQuote(999))
	mkt.SetQuotes(src)

	q := config.DefaultConfig.Calibration
	q.Mode = "flat-curve-nodes"
	ms, err := cds.NewPricer(inst).Value(val, cfg, mkt, q)
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	if v := get(t, ms, measure.MarketInputKey(measure.Price)); v != price {
		t.Fatalf("MarketInputType=Price = %v want %v", v, price)
	}
	if ms.Has(measure.MarketInputKey(measure.FairPremium)) {
		t.Fatalf("lower-priority quote must not be recorded")
	}
	if shift := get(t, ms, "MarketCalibratedShift"); math.Abs(shift-0.025) > 1e-8 {
		t.Fatalf("MarketCalibratedShift = %.12f want 0.025", shift)
	}
	if got := get(t, ms, "MarketPrice"); math.Abs(got-price) > 1e-6 {
		t.Fatalf("MarketPrice = %.10f want %.10f", got, price)
	}
	if get(t, ms, "FairPrice") == get(t, ms, "MarketPrice") {
		t.Fatalf("fair and market prices should differ for a mispriced model curve")
	}
}

func TestPricerValue_CalibrationFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	val := date(2025, 3, 20)
	inst := testInstrument(t)
	mkt := quotedMarket(t, val, []float64{0.02, 0.02})
	src := market.NewMapQuoteSource()
	src.Put(inst.Name, measure.Upfront, market.NewMidQuote(1e12))
	mkt.SetQuotes(src)

	ms, err := cds.NewPricer(inst).Value(val, config.DefaultConfig.Pricer, mkt, config.DefaultConfig.Calibration)
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if !ms.Has(measure.MarketInputKey(measure.Upfront)) {
		t.Fatalf("market input marker missing")
	}
	if ms.Has("MarketUpfront") || ms.Has("MarketCalibratedShift") {
		t.Fatalf("failed calibration must not add Market keys: %v", ms.Names())
	}
	if !ms.Has("FairUpfront") {
		t.Fatalf("fair measures missing")
	}
}

func TestPricer_ComputeJacobian(t *testing.T) {
	t.Parallel()

	val := date(2025, 3, 20)
	mkt := quotedMarket(t, val, []float64{0.02, 0.03})
	p := cds.NewPricer(testInstrument(t))

	j, err := p.ComputeJacobian(val, config.DefaultConfig.Pricer, mkt, "pv")
	if err != nil {
		t.Fatalf("ComputeJacobian(pv): %v", err)
	}
	if j.Len() != 4 {
		t.Fatalf("Jacobian length %d want 4", j.Len())
	}
	if _, err := p.ComputeJacobian(val, config.DefaultConfig.Pricer, mkt, "Accrued"); err == nil {
		t.Fatalf("expected unsupported measure error")
	}
}
