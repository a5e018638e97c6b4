package cds_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/meenmo/credlib/cds"
	"github.com/meenmo/credlib/config"
	"github.com/meenmo/credlib/curve"
	"github.com/meenmo/credlib/market"
	"github.com/meenmo/credlib/measure"
	"github.com/meenmo/credlib/solver"
)

var calibrationNodes = []time.Time{date(2027, 3, 20), date(2035, 3, 20)}

func TestCalibrate_RecoversKnownSpread(t *testing.T) {
	t.Parallel()

	val := date(2025, 3, 20)
	cfg := config.DefaultConfig.Pricer
	q := config.DefaultConfig.Calibration
	inst := testInstrument(t)
	disc := flatDiscount(t, val, 0.03)

	cases := []struct {
		mode      cds.CalibrationMode
		truth     *curve.HazardCurve
		start     *curve.HazardCurve
		wantShift float64
	}{
		{
			mode:      cds.FlatInstrumentNode,
			truth:     hazardCurve(t, val, []time.Time{date(2035, 3, 20)}, []float64{0.02}),
			start:     hazardCurve(t, val, calibrationNodes, []float64{0.01, 0.03}),
			wantShift: 0.02,
		},
		{
			mode:      cds.FlatCurveNodes,
			truth:     hazardCurve(t, val, calibrationNodes, []float64{0.02, 0.02}),
			start:     hazardCurve(t, val, calibrationNodes, []float64{0.01, 0.03}),
			wantShift: 0.02,
		},
		{
			mode:      cds.ParallelBump,
			truth:     hazardCurve(t, val, calibrationNodes, []float64{0.02, 0.02}),
			start:     hazardCurve(t, val, calibrationNodes, []float64{0.035, 0.035}),
			wantShift: -0.015,
		},
	}

	for _, tc := range cases {
		fair, err := cds.ComputeMeasures(val, cfg, inst, disc, tc.truth, time.Time{})
		if err != nil {
			t.Fatalf("%v: ComputeMeasures: %v", tc.mode, err)
		}
		target := cds.Target{Measure: measure.Upfront, Value: get(t, fair, "Upfront")}

		mkt := market.NewParams()
		mkt.SetDiscountCurve("USD-OIS", disc)
		mkt.SetCreditCurve("ACME", tc.start)

		cal := cds.NewCalibrator(tc.mode, q)
		if cal.State() != cds.StateInit {
			t.Fatalf("%v: initial state %v", tc.mode, cal.State())
		}
		res, err := cal.Calibrate(val, cfg, inst, mkt, target)
		if err != nil {
			t.Fatalf("%v: Calibrate: %v", tc.mode, err)
		}
		if cal.State() != cds.StateConverged {
			t.Fatalf("%v: state %v want CONVERGED", tc.mode, cal.State())
		}
		if math.Abs(res.Shift-tc.wantShift) > 1e-8 {
			t.Fatalf("%v: shift %.12f want %.12f", tc.mode, res.Shift, tc.wantShift)
		}
		if got, _ := mkt.CreditCurve("ACME"); got != tc.start {
			t.Fatalf("%v: original curve not restored", tc.mode)
		}

		again, err := cds.ComputeMeasures(val, cfg, inst, disc, res.Curve, time.Time{})
		if err != nil {
			t.Fatalf("%v: ComputeMeasures on calibrated curve: %v", tc.mode, err)
		}
		if diff := math.Abs(get(t, again, "Upfront") - target.Value); diff > 1e-2 {
			t.Fatalf("%v: calibrated Upfront off by %g", tc.mode, diff)
		}
	}
}

func TestCalibrate_FairPremiumTarget(t *testing.T) {
	t.Parallel()

	val := date(2025, 3, 20)
	cfg := config.DefaultConfig.Pricer
	inst := testInstrument(t)
	disc := flatDiscount(t, val, 0.03)

	truth := hazardCurve(t, val, []time.Time{date(2035, 3, 20)}, []float64{0.04})
	fair, err := cds.ComputeMeasures(val, cfg, inst, disc, truth, time.Time{})
	if err != nil {
		t.Fatalf("ComputeMeasures: %v", err)
	}

	mkt := market.NewParams()
	mkt.SetDiscountCurve("USD-OIS", disc)
	mkt.SetCreditCurve("ACME", hazardCurve(t, val, calibrationNodes, []float64{0.01, 0.01}))

	res, err := cds.NewCalibrator(cds.FlatInstrumentNode, config.DefaultConfig.Calibration).
		Calibrate(val, cfg, inst, mkt, cds.Target{Measure: measure.FairPremium, Value: get(t, fair, "FairPremium")})
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if math.Abs(res.Shift-0.04) > 1e-8 {
		t.Fatalf("shift %.12f want 0.04", res.Shift)
	}
}

func TestCalibrate_FailureRestoresCurve(t *testing.T) {
	t.Parallel()

	val := date(2025, 3, 20)
	inst := testInstrument(t)
	start := hazardCurve(t, val, calibrationNodes, []float64{0.01, 0.03})

	mkt := market.NewParams()
	mkt.SetDiscountCurve("USD-OIS", flatDiscount(t, val, 0.03))
	mkt.SetCreditCurve("ACME", start)

	cal := cds.NewCalibrator(cds.FlatCurveNodes, config.DefaultConfig.Calibration)
	// No hazard level produces an upfront this large.
	_, err := cal.Calibrate(val, config.DefaultConfig.Pricer, inst, mkt, cds.Target{Measure: measure.Upfront, Value: 1e12})
	if !errors.Is(err, cds.ErrCalibrationFailed) || !errors.Is(err, solver.ErrNoBracket) {
		t.Fatalf("err = %v want ErrCalibrationFailed wrapping ErrNoBracket", err)
	}
	if cal.State() != cds.StateFailed {
		t.Fatalf("state %v want FAILED", cal.State())
	}
	if got, _ := mkt.CreditCurve("ACME"); got != start {
		t.Fatalf("original curve not restored after failure")
	}
}

func TestParseCalibrationMode(t *testing.T) {
	t.Parallel()

	for s, want := range map[string]cds.CalibrationMode{
		"flat-instrument-node": cds.FlatInstrumentNode,
		"Flat-Curve-Nodes":     cds.FlatCurveNodes,
		"parallel-bump":        cds.ParallelBump,
	} {
		got, err := cds.ParseCalibrationMode(s)
		if err != nil || got != want {
			t.Fatalf("ParseCalibrationMode(%q) = %v, %v", s, got, err)
		}
		if back, _ := cds.ParseCalibrationMode(got.String()); back != got {
			t.Fatalf("String round trip failed for %v", got)
		}
	}
	if _, err := cds.ParseCalibrationMode("newton"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestCalibrate_NilInputs(t *testing.T) {
	t.Parallel()

	val := date(2025, 3, 20)
	cfg := config.DefaultConfig.Pricer
	target := cds.Target{Measure: measure.FairPremium, Value: 100}

	cal := cds.NewCalibrator(cds.FlatInstrumentNode, config.DefaultConfig.Calibration)
	if _, err := cal.Calibrate(val, cfg, testInstrument(t), nil, target); !errors.Is(err, cds.ErrMissingCurve) {
		t.Fatalf("nil market: err = %v want ErrMissingCurve", err)
	}
	if cal.State() != cds.StateFailed {
		t.Fatalf("nil market: state %v want FAILED", cal.State())
	}

	cal = cds.NewCalibrator(cds.FlatInstrumentNode, config.DefaultConfig.Calibration)
	if _, err := cal.Calibrate(val, cfg, nil, market.NewParams(), target); !errors.Is(err, cds.ErrInvalidInstrument) {
		t.Fatalf("nil instrument: err = %v want ErrInvalidInstrument", err)
	}
	if cal.State() != cds.StateFailed {
		t.Fatalf("nil instrument: state %v want FAILED", cal.State())
	}
}

func TestCalibrationState_String(t *testing.T) {
	t.Parallel()

	for s, want := range map[cds.CalibrationState]string{
		cds.StateInit:            "INIT",
		cds.StateSearching:       "SEARCHING",
		cds.StateConverged:       "CONVERGED",
		cds.StateFailed:          "FAILED",
		cds.CalibrationState(7):  "CalibrationState(7)",
		cds.CalibrationState(-1): "CalibrationState(-1)",
	} {
		if got := s.String(); got != want {
			t.Fatalf("%d.String() = %q want %q", int(s), got, want)
		}
	}
}
