package main

import (
	"fmt"
	"time"

	"github.com/meenmo/credlib/calendar"
	"github.com/meenmo/credlib/cds"
	"github.com/meenmo/credlib/config"
	"github.com/meenmo/credlib/curve"
	"github.com/meenmo/credlib/market"
	"github.com/meenmo/credlib/measure"
)

func main() {
	valuationDate := time.Date(2025, 11, 21, 0, 0, 0, 0, time.UTC)

	zeroRates := map[string]float64{
		"3M":  3.9120,
		"6M":  3.8275,
		"1Y":  3.6410,
		"2Y":  3.4785,
		"3Y":  3.4420,
		"5Y":  3.4960,
		"7Y":  3.5830,
		"10Y": 3.7210,
	}
	disc, err := curve.DiscountCurveFromTenors(valuationDate, zeroRates, calendar.USD)
	if err != nil {
		panic(err)
	}
	credit, err := curve.NewHazardCurve(valuationDate,
		[]time.Time{valuationDate.AddDate(10, 0, 0)},
		[]float64{curve.HazardFromSpread(0.0125, 0.4)},
		[]float64{0.4},
	)
	if err != nil {
		panic(err)
	}

	mkt := market.NewParams()
	mkt.SetDiscountCurve("USD-SOFR", disc)
	mkt.SetCreditCurve("ACME", credit.WithID("ACME"))

	setting, err := cds.NewCreditSetting(0, false, 0.4, "ACME")
	if err != nil {
		panic(err)
	}
	inst, err := cds.NewInstrument(cds.InstrumentSpec{
		Name:            "ACME 5Y",
		EffectiveDate:   time.Date(2025, 9, 22, 0, 0, 0, 0, time.UTC),
		MaturityDate:    time.Date(2030, 12, 20, 0, 0, 0, 0, time.UTC),
		Notional:        10000000,
		Coupon:          0.01,
		Credit:          setting,
		DiscountCurveID: "USD-SOFR",
	})
	if err != nil {
		panic(err)
	}

	ms, err := cds.NewPricer(inst).ComputeMeasures(valuationDate, config.GetConfig().Pricer, mkt)
	if err != nil {
		panic(err)
	}

	for _, id := range []measure.ID{measure.PV, measure.CleanPV, measure.Accrued, measure.DV01, measure.FairPremium, measure.Price, measure.DefaultProbability} {
		v, _ := ms.Get(id.String())
		fmt.Printf("%-20s %.6f\n", id.String()+":", v)
	}
}
