package curve_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/meenmo/credlib/calendar"
	"github.com/meenmo/credlib/curve"
	"github.com/meenmo/credlib/utils"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var anchor = date(2025, 3, 20)

func testDiscount(t *testing.T) *curve.DiscountCurve {
	t.Helper()
	c, err := curve.NewDiscountCurve(anchor,
		[]time.Time{date(2026, 3, 20), date(2028, 3, 20), date(2030, 3, 20), date(2035, 3, 20)},
		[]float64{0.040, 0.037, 0.036, 0.038},
	)
	if err != nil {
		t.Fatalf("NewDiscountCurve: %v", err)
	}
	return c
}

func TestDiscountCurve_NodesAndExtrapolation(t *testing.T) {
	t.Parallel()

	c := testDiscount(t)
	if got := c.DF(anchor); got != 1 {
		t.Fatalf("DF(anchor) = %v want 1", got)
	}

	node := date(2028, 3, 20)
	want := math.Exp(-0.037 * utils.CurveTime(anchor, node))
	if got := c.DF(node); math.Abs(got-want) > 1e-14 {
		t.Fatalf("DF(node) = %.15f want %.15f", got, want)
	}

	late := date(2040, 3, 20)
	want = math.Exp(-0.038 * utils.CurveTime(anchor, late))
	if got := c.DF(late); math.Abs(got-want) > 1e-14 {
		t.Fatalf("flat extrapolation DF = %.15f want %.15f", got, want)
	}

	mid := date(2029, 3, 20)
	if got := c.DF(mid); got >= c.DF(node) || got <= c.DF(date(2030, 3, 20)) {
		t.Fatalf("DF(mid) = %v not between neighbours", got)
	}
}

func TestDiscountCurve_JacobianMatchesFiniteDifference(t *testing.T) {
	t.Parallel()

	c := testDiscount(t)
	const h = 1e-7
	for _, d := range []time.Time{date(2025, 9, 1), date(2027, 6, 15), date(2033, 1, 1), date(2038, 1, 1)} {
		jac, err := c.JacobianOfDF(d)
		if err != nil {
			t.Fatalf("JacobianOfDF: %v", err)
		}
		base := c.Parameters()
		for i := range base {
			up := append([]float64(nil), base...)
			dn := append([]float64(nil), base...)
			up[i] += h
			dn[i] -= h
			cu, _ := c.WithParameters(up)
			cd, _ := c.WithParameters(dn)
			fd := (cu.DF(d) - cd.DF(d)) / (2 * h)
			if math.Abs(fd-jac.At(i)) > 1e-7 {
				t.Fatalf("%s node %d: analytic %.10f fd %.10f", utils.FormatDate(d), i, jac.At(i), fd)
			}
		}
	}
}

func TestDiscountCurve_EffectiveDF(t *testing.T) {
	t.Parallel()

	c := testDiscount(t)
	t1, t2 := date(2027, 1, 1), date(2027, 2, 1)
	got := c.EffectiveDF(t1, t2)
	if got > c.DF(t1) || got < c.DF(t2) {
		t.Fatalf("EffectiveDF = %v outside [%v, %v]", got, c.DF(t2), c.DF(t1))
	}
	if same := c.EffectiveDF(t1, t1); math.Abs(same-c.DF(t1)) > 1e-15 {
		t.Fatalf("EffectiveDF over empty interval = %v want %v", same, c.DF(t1))
	}

	jac, err := c.JacobianOfEffectiveDF(t1, t2)
	if err != nil {
		t.Fatalf("JacobianOfEffectiveDF: %v", err)
	}
	const h = 1e-7
	base := c.Parameters()
	for i := range base {
		up := append([]float64(nil), base...)
		dn := append([]float64(nil), base...)
		up[i] += h
		dn[i] -= h
		cu, _ := c.WithParameters(up)
		cd, _ := c.WithParameters(dn)
		fd := (cu.EffectiveDF(t1, t2) - cd.EffectiveDF(t1, t2)) / (2 * h)
		if math.Abs(fd-jac.At(i)) > 1e-7 {
			t.Fatalf("node %d: analytic %.10f fd %.10f", i, jac.At(i), fd)
		}
	}
}

func TestDiscountCurve_FromDFsAndTenors(t *testing.T) {
	t.Parallel()

	d1, d2 := date(2026, 3, 20), date(2030, 3, 20)
	c, err := curve.NewDiscountCurveFromDFs(anchor, map[time.Time]float64{anchor: 1, d1: 0.97, d2: 0.85})
	if err != nil {
		t.Fatalf("NewDiscountCurveFromDFs: %v", err)
	}
	if got := c.DF(d2); math.Abs(got-0.85) > 1e-14 {
		t.Fatalf("DF(d2) = %v want 0.85", got)
	}
	if c.NumParameters() != 2 {
		t.Fatalf("NumParameters = %d want 2", c.NumParameters())
	}

	tc, err := curve.DiscountCurveFromTenors(anchor, map[string]float64{"1Y": 4.0, "5Y": 3.6}, calendar.USD)
	if err != nil {
		t.Fatalf("DiscountCurveFromTenors: %v", err)
	}
	nodes := tc.Nodes()
	if len(nodes) != 2 || !nodes[0].Equal(date(2026, 3, 20)) {
		t.Fatalf("tenor nodes = %v", nodes)
	}

	if _, err := curve.NewDiscountCurve(anchor, []time.Time{d2, d1}, []float64{0.01, 0.01}); !errors.Is(err, curve.ErrInvalidCurve) {
		t.Fatalf("unsorted nodes: err = %v want ErrInvalidCurve", err)
	}
}

func testHazard(t *testing.T) *curve.HazardCurve {
	t.Helper()
	c, err := curve.NewHazardCurve(anchor,
		[]time.Time{date(2026, 3, 20), date(2028, 3, 20), date(2030, 3, 20)},
		[]float64{0.01, 0.02, 0.03},
		[]float64{0.4, 0.35, 0.3},
	)
	if err != nil {
		t.Fatalf("NewHazardCurve: %v", err)
	}
	return c.WithID("ACME")
}

func TestHazardCurve_Survival(t *testing.T) {
	t.Parallel()

	c := testHazard(t)
	t1 := utils.CurveTime(anchor, date(2026, 3, 20))
	t2 := utils.CurveTime(anchor, date(2028, 3, 20))
	t3 := utils.CurveTime(anchor, date(2030, 3, 20))

	want := math.Exp(-(0.01*t1 + 0.02*(t2-t1)))
	if got := c.Survival(date(2028, 3, 20)); math.Abs(got-want) > 1e-14 {
		t.Fatalf("Survival(node 2) = %.15f want %.15f", got, want)
	}

	beyond := date(2032, 3, 20)
	tb := utils.CurveTime(anchor, beyond)
	want = math.Exp(-(0.01*t1 + 0.02*(t2-t1) + 0.03*(t3-t2) + 0.03*(tb-t3)))
	if got := c.Survival(beyond); math.Abs(got-want) > 1e-14 {
		t.Fatalf("flat extrapolated survival = %.15f want %.15f", got, want)
	}

	if c.Survival(anchor) != 1 || c.Survival(date(2024, 1, 1)) != 1 {
		t.Fatalf("survival before anchor must be 1")
	}
	if c.Hazard(date(2027, 1, 1)) != 0.02 || c.Recovery(date(2027, 1, 1)) != 0.35 {
		t.Fatalf("segment lookup wrong")
	}
}

func TestHazardCurve_EffectiveRecovery(t *testing.T) {
	t.Parallel()

	c := testHazard(t)
	if got := c.EffectiveRecovery(date(2026, 6, 1), date(2027, 6, 1)); math.Abs(got-0.35) > 1e-15 {
		t.Fatalf("single-segment EffectiveRecovery = %v want 0.35", got)
	}
	got := c.EffectiveRecovery(date(2025, 6, 1), date(2029, 6, 1))
	if got <= 0.3 || got >= 0.4 {
		t.Fatalf("blended EffectiveRecovery = %v outside (0.3, 0.4)", got)
	}
}

func TestHazardCurve_FlatAndTweak(t *testing.T) {
	t.Parallel()

	c := testHazard(t)

	single, err := c.CreateFlatCurve(0.015, false, nil)
	if err != nil {
		t.Fatalf("CreateFlatCurve single: %v", err)
	}
	if n := len(single.NodeDates()); n != 1 {
		t.Fatalf("single-node flat curve has %d nodes", n)
	}
	if single.ID() != "ACME" || single.Recovery(date(2026, 1, 1)) != 0.3 {
		t.Fatalf("flat curve lost id or last recovery")
	}

	rec := 0.25
	all, err := c.CreateFlatCurve(0.015, true, &rec)
	if err != nil {
		t.Fatalf("CreateFlatCurve all: %v", err)
	}
	for _, comp := range all.CalibratingComponents() {
		if comp.Hazard != 0.015 || comp.Recovery != 0.25 {
			t.Fatalf("component %+v not flat", comp)
		}
	}
	d := date(2029, 1, 1)
	if math.Abs(single.Survival(d)-all.Survival(d)) > 1e-15 {
		t.Fatalf("flat modes disagree on survival")
	}

	if _, err := c.CreateFlatCurve(-0.001, true, nil); !errors.Is(err, curve.ErrNegativeHazard) {
		t.Fatalf("negative flat shift: err = %v", err)
	}

	bumped, err := c.Tweak(0.005)
	if err != nil {
		t.Fatalf("Tweak: %v", err)
	}
	if got := bumped.MinHazard(); math.Abs(got-0.015) > 1e-15 {
		t.Fatalf("MinHazard after tweak = %v", got)
	}
	if _, err := c.Tweak(-c.MinHazard()); err != nil {
		t.Fatalf("Tweak to zero floor: %v", err)
	}
	if _, err := c.Tweak(-0.02); !errors.Is(err, curve.ErrNegativeHazard) {
		t.Fatalf("Tweak below floor: err = %v", err)
	}
}

func TestHazardCurve_Validation(t *testing.T) {
	t.Parallel()

	if _, err := curve.NewHazardCurve(anchor, []time.Time{date(2026, 1, 1)}, []float64{0.01}, []float64{1.0}); !errors.Is(err, curve.ErrInvalidCurve) {
		t.Fatalf("recovery 1.0: err = %v", err)
	}
	if _, err := curve.NewHazardCurve(anchor, []time.Time{date(2026, 1, 1), date(2027, 1, 1)}, []float64{0.01}, []float64{0.4}); !errors.Is(err, curve.ErrInvalidCurve) {
		t.Fatalf("length mismatch: err = %v", err)
	}
	c, err := curve.NewHazardCurve(anchor, []time.Time{date(2026, 1, 1), date(2027, 1, 1)}, []float64{0.01, 0.02}, []float64{0.4})
	if err != nil {
		t.Fatalf("broadcast recovery: %v", err)
	}
	if c.Recovery(date(2026, 6, 1)) != 0.4 {
		t.Fatalf("broadcast recovery not applied")
	}
	if got := curve.HazardFromSpread(0.012, 0.4); math.Abs(got-0.02) > 1e-15 {
		t.Fatalf("HazardFromSpread = %v", got)
	}
}
