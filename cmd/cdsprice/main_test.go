package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meenmo/credlib/cmd/cdsprice/internal/cli"
)

const doc = `{
  "valuation_date": "2025-03-20",
  "discount_curves": {"USD-OIS": {"calendar": "USD", "zero_rates": {"1Y": 4.0, "5Y": 3.8, "10Y": 3.9}}},
  "credit_curves": {
    "ACME": {"nodes": [{"date": "3Y", "hazard": 0.02, "recovery": 0.4}, {"date": "10Y", "hazard": 0.025, "recovery": 0.4}]},
    "BETA": {"nodes": [{"date": "10Y", "spread_bp": 150, "recovery": 0.4}]}
  },
  "instruments": [
    {"name": "ACME 5Y", "effective_date": "2025-03-20", "maturity_date": "2030-06-20", "notional": 10000000,
     "coupon_bp": 100, "credit_curve": "ACME", "discount_curve": "USD-OIS"},
    {"name": "BETA 5Y", "effective_date": "2025-03-20", "maturity_date": "2030-06-20", "notional": 5000000,
     "coupon_bp": 500, "credit_curve": "BETA", "discount_curve": "USD-OIS"}
  ],
  "quotes": [{"instrument": "BETA 5Y", "measure": "FairPremium", "mid": 180}],
  "basket": {"name": "PAIR", "components": [{"instrument": "ACME 5Y", "weight": 0.7}, {"instrument": "BETA 5Y", "weight": 1.3}]},
  "target": "%s",
  "measure": "PV"
}`

func runWith(t *testing.T, cmd, target string, flags ...string) (int, cli.Output) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(append([]string{cmd}, flags...), strings.NewReader(strings.Replace(doc, "%s", target, 1)), &stdout, &stderr)
	var out cli.Output
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("%s: output %q is not JSON: %v", cmd, stdout.String(), err)
	}
	return code, out
}

func TestRun_Single(t *testing.T) {
	code, out := runWith(t, "single", "BETA 5Y")
	if code != 0 || out.Error != "" {
		t.Fatalf("single: code %d error %q", code, out.Error)
	}
	if _, ok := out.Measures["MarketCalibratedShift"]; !ok {
		t.Fatalf("quoted instrument should be calibrated, got %v", out.Measures)
	}
	fp := out.Measures["MarketFairPremium"]
	if f, _ := fp.Float64(); f < 179.99 || f > 180.01 {
		t.Fatalf("MarketFairPremium = %s want 180", fp)
	}
}

func TestRun_Basket(t *testing.T) {
	code, out := runWith(t, "basket", "")
	if code != 0 || out.Error != "" {
		t.Fatalf("basket: code %d error %q", code, out.Error)
	}
	if out.Target != "PAIR" {
		t.Fatalf("target = %q", out.Target)
	}
	if _, ok := out.Measures["PV"]; !ok {
		t.Fatalf("basket PV missing: %v", out.Measures)
	}
}

func TestRun_Jacobian(t *testing.T) {
	code, out := runWith(t, "jacobian", "ACME 5Y")
	if code != 0 || out.Error != "" {
		t.Fatalf("jacobian: code %d error %q", code, out.Error)
	}
	if len(out.Jacobian) != 3 {
		t.Fatalf("Jacobian has %d entries want 3", len(out.Jacobian))
	}
}

func TestRun_RecordThenReplay(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "credlib.yaml")
	cfg := "recorder:\n  driver: sqlite\n  dsn: " + filepath.Join(dir, "runs.db") + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	code, valued := runWith(t, "single", "ACME 5Y", "-config", cfgPath, "-record")
	if code != 0 || valued.Error != "" {
		t.Fatalf("record: code %d error %q", code, valued.Error)
	}
	code, replayed := runWith(t, "single", "ACME 5Y", "-config", cfgPath, "-replay")
	if code != 0 || replayed.Error != "" {
		t.Fatalf("replay: code %d error %q", code, replayed.Error)
	}
	if len(replayed.Measures) != len(valued.Measures) {
		t.Fatalf("replayed %d measures want %d", len(replayed.Measures), len(valued.Measures))
	}
	for name, v := range valued.Measures {
		if !replayed.Measures[name].Equal(v) {
			t.Fatalf("%s replayed %s want %s", name, replayed.Measures[name], v)
		}
	}

	code, out := runWith(t, "single", "BETA 5Y", "-config", cfgPath, "-replay")
	if code != 1 || out.Error == "" {
		t.Fatalf("replay of unrecorded target: code %d error %q", code, out.Error)
	}
}

func TestRun_Errors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"single"}, strings.NewReader("{"), &stdout, &stderr); code != 1 {
		t.Fatalf("bad JSON: code %d", code)
	}
	if !strings.Contains(stdout.String(), `"error"`) {
		t.Fatalf("bad JSON: output %q", stdout.String())
	}
	if code := run([]string{"swap"}, strings.NewReader(""), &stdout, &stderr); code != 2 {
		t.Fatalf("unknown command: code %d", code)
	}
}
