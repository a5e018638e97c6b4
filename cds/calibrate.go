package cds

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/meenmo/credlib/config"
	"github.com/meenmo/credlib/curve"
	"github.com/meenmo/credlib/logging"
	"github.com/meenmo/credlib/market"
	"github.com/meenmo/credlib/measure"
	"github.com/meenmo/credlib/solver"
)

// CalibrationMode selects how a trial shift becomes a credit curve.
type CalibrationMode int

const (
	// FlatInstrumentNode replaces the curve with a single flat node at its last date.
	FlatInstrumentNode CalibrationMode = iota
	// FlatCurveNodes keeps every node date and sets every hazard to the shift.
	FlatCurveNodes
	// ParallelBump adds the shift to every hazard of the existing curve.
	ParallelBump
)

func (m CalibrationMode) String() string {
	switch m {
	case FlatInstrumentNode:
		return "flat-instrument-node"
	case FlatCurveNodes:
		return "flat-curve-nodes"
	case ParallelBump:
		return "parallel-bump"
	default:
		return fmt.Sprintf("CalibrationMode(%d)", int(m))
	}
}

// ParseCalibrationMode maps a config string onto a mode.
func ParseCalibrationMode(s string) (CalibrationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "flat-instrument-node":
		return FlatInstrumentNode, nil
	case "flat-curve-nodes":
		return FlatCurveNodes, nil
	case "parallel-bump":
		return ParallelBump, nil
	default:
		return 0, fmt.Errorf("ParseCalibrationMode: unknown mode %q", s)
	}
}

// CalibrationState tracks a Calibrator's progress.
type CalibrationState int

const (
	// StateInit is a Calibrator that has not started a search.
	StateInit CalibrationState = iota
	// StateSearching is set while the bracket and root searches run.
	StateSearching
	// StateConverged means the last Calibrate call returned a result.
	StateConverged
	// StateFailed means the last Calibrate call returned an error.
	StateFailed
)

func (s CalibrationState) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateSearching:
		return "SEARCHING"
	case StateConverged:
		return "CONVERGED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("CalibrationState(%d)", int(s))
	}
}

// Target is the measure value calibration must reproduce.
type Target struct {
	Measure measure.ID
	Value   float64
}

// CalibrationResult is a converged calibration.
type CalibrationResult struct {
	Shift      float64
	Curve      *curve.HazardCurve
	Iterations int
}

// Calibrator solves for the flat hazard shift that reproduces a target measure.
// A Calibrator is not safe for concurrent use.
type Calibrator struct {
	mode  CalibrationMode
	q     config.Calibration
	state CalibrationState
}

// NewCalibrator returns a Calibrator in the INIT state.
func NewCalibrator(mode CalibrationMode, q config.Calibration) *Calibrator {
	return &Calibrator{mode: mode, q: q, state: StateInit}
}

// State returns the current state.
func (c *Calibrator) State() CalibrationState {
	return c.state
}

// Mode returns the calibration mode.
func (c *Calibrator) Mode() CalibrationMode {
	return c.mode
}

func (c *Calibrator) trialCurve(orig *curve.HazardCurve, shift float64) (*curve.HazardCurve, error) {
	switch c.mode {
	case FlatInstrumentNode:
		return orig.CreateFlatCurve(shift, false, nil)
	case FlatCurveNodes:
		return orig.CreateFlatCurve(shift, true, nil)
	case ParallelBump:
		return orig.Tweak(shift)
	default:
		return nil, fmt.Errorf("trialCurve: unknown mode %v", c.mode)
	}
}

// Calibrate searches for the shift that makes target.Measure equal target.Value.
// Each trial curve is installed in mkt only for the duration of one evaluation, so
// the original curve is back in place on every exit path.
func (c *Calibrator) Calibrate(valuationDate time.Time, cfg config.Pricer, inst *Instrument, mkt *market.Params, target Target) (CalibrationResult, error) {
	c.state = StateInit
	if inst == nil {
		c.state = StateFailed
		return CalibrationResult{}, fmt.Errorf("Calibrate: nil instrument: %w", ErrInvalidInstrument)
	}
	if mkt == nil {
		c.state = StateFailed
		return CalibrationResult{}, fmt.Errorf("Calibrate: nil market: %w", ErrMissingCurve)
	}
	id := inst.Credit.CreditCurveID
	orig, err := mkt.CreditCurve(id)
	if err != nil {
		c.state = StateFailed
		return CalibrationResult{}, fmt.Errorf("Calibrate: %w", err)
	}
	disc, err := mkt.DiscountCurve(inst.DiscountCurveID)
	if err != nil {
		c.state = StateFailed
		return CalibrationResult{}, fmt.Errorf("Calibrate: %w", err)
	}
	if math.IsNaN(target.Value) || math.IsInf(target.Value, 0) {
		c.state = StateFailed
		return CalibrationResult{}, fmt.Errorf("Calibrate: target %s is not finite: %w", target.Measure, ErrCalibrationFailed)
	}

	log := logging.Get().With("instrument", inst.Name, "mode", c.mode.String(), "target", target.Measure.String())

	objective := func(shift float64) (float64, error) {
		trial, err := c.trialCurve(orig, shift)
		if err != nil {
			return 0, err
		}
		restore, err := mkt.SwapCreditCurve(id, trial)
		if err != nil {
			return 0, err
		}
		defer restore()

		active, err := mkt.CreditCurve(id)
		if err != nil {
			return 0, err
		}
		ms, err := ComputeMeasures(valuationDate, cfg, inst, disc, active, time.Time{})
		if err != nil {
			return 0, err
		}
		v, ok := ms.Get(target.Measure.String())
		if !ok {
			return 0, fmt.Errorf("objective: %s not produced: %w", target.Measure, ErrUnsupportedMeasure)
		}
		log.Debug("calibration trial", "shift", shift, "value", v, "goal", target.Value)
		return v - target.Value, nil
	}

	lower := 0.0
	if c.mode == ParallelBump {
		lower = -orig.MinHazard()
	}
	c.state = StateSearching

	a, b, err := solver.Bracket(objective, math.Max(c.q.InitialLow, lower), c.q.InitialHigh, lower, c.q.UpperBound, c.q.MaxBracketIterations)
	if err != nil {
		c.state = StateFailed
		return CalibrationResult{}, fmt.Errorf("Calibrate: %s: %w: %w", inst.Name, ErrCalibrationFailed, err)
	}
	shift, iters, err := solver.Brent(objective, a, b, c.q.Tolerance, c.q.MaxIterations)
	if err != nil {
		c.state = StateFailed
		return CalibrationResult{}, fmt.Errorf("Calibrate: %s: %w: %w", inst.Name, ErrCalibrationFailed, err)
	}

	calibrated, err := c.trialCurve(orig, shift)
	if err != nil {
		c.state = StateFailed
		return CalibrationResult{}, fmt.Errorf("Calibrate: %s: %w: %w", inst.Name, ErrCalibrationFailed, err)
	}
	c.state = StateConverged
	log.Debug("calibration converged", "shift", shift, "iterations", iters)
	return CalibrationResult{Shift: shift, Curve: calibrated, Iterations: iters}, nil
}
