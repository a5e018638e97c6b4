// Package config holds pricing, calibration and infrastructure settings.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/meenmo/credlib/calendar"
	"github.com/meenmo/credlib/logging"
	"github.com/meenmo/credlib/utils"
)

// Pricer controls the measure engine.
type Pricer struct {
	// SurviveToPayDate evaluates coupon survival at the pay date instead of the accrual end.
	SurviveToPayDate bool `mapstructure:"survive_to_pay_date"`

	// IncludeAccrualOnDefault adds the premium accrued up to a default to the annuity.
	IncludeAccrualOnDefault bool `mapstructure:"include_accrual_on_default"`

	// MaxStepDays caps the length of a loss integration sub-period.
	MaxStepDays int `mapstructure:"max_step_days"`

	// CashSettleDays is the business-day lag from valuation to cash settlement.
	CashSettleDays int `mapstructure:"cash_settle_days"`

	Calendar string `mapstructure:"calendar"`
	DayCount string `mapstructure:"day_count"`
}

// CalendarID resolves the configured calendar name.
func (p Pricer) CalendarID() calendar.CalendarID {
	return calendar.Parse(p.Calendar)
}

// Basis resolves the configured coupon day count.
func (p Pricer) Basis() utils.DayCount {
	return utils.ParseDayCount(p.DayCount)
}

// Calibration controls the flat hazard calibrator.
type Calibration struct {
	// Mode is one of flat-instrument-node, flat-curve-nodes, parallel-bump.
	Mode string `mapstructure:"mode"`

	Tolerance     float64 `mapstructure:"tolerance"`
	MaxIterations int     `mapstructure:"max_iterations"`

	// InitialLow/InitialHigh seed the bracket search, which may widen up to UpperBound.
	InitialLow  float64 `mapstructure:"initial_low"`
	InitialHigh float64 `mapstructure:"initial_high"`
	UpperBound  float64 `mapstructure:"upper_bound"`

	MaxBracketIterations int `mapstructure:"max_bracket_iterations"`
}

// Basket controls aggregation of component measures.
type Basket struct {
	// MissingPolicy is "drop" (a measure missing on any component is omitted)
	// or "skip" (components without the measure are ignored).
	MissingPolicy string `mapstructure:"missing_policy"`
}

// Recorder controls persistence of valuation results.
type Recorder struct {
	Enabled bool   `mapstructure:"enabled"`
	Driver  string `mapstructure:"driver"` // sqlite or postgres
	DSN     string `mapstructure:"dsn"`
}

// Config is the full configuration tree.
type Config struct {
	Pricer      Pricer         `mapstructure:"pricer"`
	Calibration Calibration    `mapstructure:"calibration"`
	Basket      Basket         `mapstructure:"basket"`
	Logging     logging.Config `mapstructure:"logging"`
	Recorder    Recorder       `mapstructure:"recorder"`
}

// DefaultConfig provides production-ready default values.
var DefaultConfig = Config{
	Pricer: Pricer{
		SurviveToPayDate:        false,
		IncludeAccrualOnDefault: true,
		MaxStepDays:             30,
		CashSettleDays:          3,
		Calendar:                string(calendar.USD),
		DayCount:                string(utils.Act360),
	},
	Calibration: Calibration{
		Mode:                 "flat-instrument-node",
		Tolerance:            1e-10,
		MaxIterations:        100,
		InitialLow:           0,
		InitialHigh:          0.05,
		UpperBound:           5.0,
		MaxBracketIterations: 50,
	},
	Basket: Basket{
		MissingPolicy: "drop",
	},
	Logging: logging.DefaultConfig,
	Recorder: Recorder{
		Driver: "sqlite",
		DSN:    "credlib.db",
	},
}

// cfg is the active configuration. Defaults to DefaultConfig.
var cfg = DefaultConfig

// SetConfig replaces the active configuration.
func SetConfig(c Config) {
	cfg = c
}

// GetConfig returns the active configuration.
func GetConfig() Config {
	return cfg
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if c.Pricer.MaxStepDays <= 0 {
		return fmt.Errorf("pricer.max_step_days must be positive, got %d", c.Pricer.MaxStepDays)
	}
	if c.Pricer.CashSettleDays < 0 {
		return fmt.Errorf("pricer.cash_settle_days must be non-negative, got %d", c.Pricer.CashSettleDays)
	}
	switch strings.ToLower(c.Calibration.Mode) {
	case "flat-instrument-node", "flat-curve-nodes", "parallel-bump":
	default:
		return fmt.Errorf("unknown calibration.mode %q", c.Calibration.Mode)
	}
	if c.Calibration.Tolerance <= 0 || c.Calibration.MaxIterations <= 0 {
		return fmt.Errorf("calibration tolerance and max_iterations must be positive")
	}
	if c.Calibration.InitialHigh <= c.Calibration.InitialLow || c.Calibration.UpperBound < c.Calibration.InitialHigh {
		return fmt.Errorf("calibration bracket [%g, %g] / upper %g is inconsistent",
			c.Calibration.InitialLow, c.Calibration.InitialHigh, c.Calibration.UpperBound)
	}
	switch strings.ToLower(c.Basket.MissingPolicy) {
	case "drop", "skip":
	default:
		return fmt.Errorf("unknown basket.missing_policy %q", c.Basket.MissingPolicy)
	}
	if c.Recorder.Enabled {
		switch c.Recorder.Driver {
		case "sqlite", "postgres":
		default:
			return fmt.Errorf("unknown recorder.driver %q", c.Recorder.Driver)
		}
		if c.Recorder.DSN == "" {
			return fmt.Errorf("recorder.dsn is required when the recorder is enabled")
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig

	v.SetDefault("pricer.survive_to_pay_date", d.Pricer.SurviveToPayDate)
	v.SetDefault("pricer.include_accrual_on_default", d.Pricer.IncludeAccrualOnDefault)
	v.SetDefault("pricer.max_step_days", d.Pricer.MaxStepDays)
	v.SetDefault("pricer.cash_settle_days", d.Pricer.CashSettleDays)
	v.SetDefault("pricer.calendar", d.Pricer.Calendar)
	v.SetDefault("pricer.day_count", d.Pricer.DayCount)

	v.SetDefault("calibration.mode", d.Calibration.Mode)
	v.SetDefault("calibration.tolerance", d.Calibration.Tolerance)
	v.SetDefault("calibration.max_iterations", d.Calibration.MaxIterations)
	v.SetDefault("calibration.initial_low", d.Calibration.InitialLow)
	v.SetDefault("calibration.initial_high", d.Calibration.InitialHigh)
	v.SetDefault("calibration.upper_bound", d.Calibration.UpperBound)
	v.SetDefault("calibration.max_bracket_iterations", d.Calibration.MaxBracketIterations)

	v.SetDefault("basket.missing_policy", d.Basket.MissingPolicy)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)
	v.SetDefault("logging.file_path", d.Logging.FilePath)
	v.SetDefault("logging.max_size", d.Logging.MaxSize)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age", d.Logging.MaxAge)
	v.SetDefault("logging.compress", d.Logging.Compress)
	v.SetDefault("logging.with_caller", d.Logging.WithCaller)

	v.SetDefault("recorder.enabled", d.Recorder.Enabled)
	v.SetDefault("recorder.driver", d.Recorder.Driver)
	v.SetDefault("recorder.dsn", d.Recorder.DSN)
}

// Load reads a TOML, YAML or JSON file (by extension) over the defaults and applies
// CREDLIB_* environment overrides, e.g. CREDLIB_PRICER_MAX_STEP_DAYS=15.
// An empty path loads defaults and environment only.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("Load: read %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("CREDLIB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("Load: unmarshal: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("Load: %w", err)
	}
	return c, nil
}
