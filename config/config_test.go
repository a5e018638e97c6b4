package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/meenmo/credlib/calendar"
	"github.com/meenmo/credlib/config"
	"github.com/meenmo/credlib/utils"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	c := config.DefaultConfig
	if err := c.Validate(); err != nil {
		t.Fatalf("DefaultConfig invalid: %v", err)
	}
	if c.Pricer.SurviveToPayDate || !c.Pricer.IncludeAccrualOnDefault || c.Pricer.MaxStepDays != 30 || c.Pricer.CashSettleDays != 3 {
		t.Fatalf("unexpected pricer defaults: %+v", c.Pricer)
	}
	if c.Pricer.CalendarID() != calendar.USD || c.Pricer.Basis() != utils.Act360 {
		t.Fatalf("calendar/basis = %s/%s", c.Pricer.CalendarID(), c.Pricer.Basis())
	}
	if c.Basket.MissingPolicy != "drop" {
		t.Fatalf("MissingPolicy = %q", c.Basket.MissingPolicy)
	}
}

func TestLoad_YAMLOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credlib.yaml")
	body := []byte("pricer:\n  max_step_days: 10\n  calendar: TARGET\ncalibration:\n  mode: parallel-bump\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("CREDLIB_PRICER_CASH_SETTLE_DAYS", "1")

	c, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Pricer.MaxStepDays != 10 || c.Pricer.CalendarID() != calendar.TARGET {
		t.Fatalf("file values not applied: %+v", c.Pricer)
	}
	if c.Pricer.CashSettleDays != 1 {
		t.Fatalf("env override not applied: %d", c.Pricer.CashSettleDays)
	}
	if !c.Pricer.IncludeAccrualOnDefault || c.Calibration.Tolerance != 1e-10 {
		t.Fatalf("defaults lost: %+v %+v", c.Pricer, c.Calibration)
	}
	if c.Calibration.Mode != "parallel-bump" {
		t.Fatalf("Mode = %q", c.Calibration.Mode)
	}
}

func TestValidate_Rejects(t *testing.T) {
	t.Parallel()

	bad := config.DefaultConfig
	bad.Basket.MissingPolicy = "average"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected missing_policy rejection")
	}

	bad = config.DefaultConfig
	bad.Pricer.MaxStepDays = 0
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected max_step_days rejection")
	}

	bad = config.DefaultConfig
	bad.Calibration.Mode = "newton"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected mode rejection")
	}
}
