// Package basket aggregates single-name measure sets across a weighted portfolio.
package basket

import (
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/meenmo/credlib/measure"
)

// Policy decides how one measure combines across components.
type Policy int

const (
	// Ignore drops the measure from the basket result.
	Ignore Policy = iota
	// Cumulative sums component values (additive quantities).
	Cumulative
	// WeightedCumulative sums weight * value (intensive quantities).
	WeightedCumulative
	// UnitAccumulate takes the first component's value unchanged.
	UnitAccumulate
)

func (p Policy) String() string {
	switch p {
	case Cumulative:
		return "CUMULATIVE"
	case WeightedCumulative:
		return "WEIGHTED_CUMULATIVE"
	case UnitAccumulate:
		return "UNIT_ACCUMULATE"
	default:
		return "IGNORE"
	}
}

var policies = map[measure.ID]Policy{
	measure.PV:                     Cumulative,
	measure.DirtyPV:                Cumulative,
	measure.CleanPV:                Cumulative,
	measure.DV01:                   Cumulative,
	measure.DirtyDV01:              Cumulative,
	measure.Accrued:                Cumulative,
	measure.Accrued01:              Cumulative,
	measure.LossPV:                 Cumulative,
	measure.LossNoRecoveryPV:       Cumulative,
	measure.ExpectedLoss:           Cumulative,
	measure.ExpectedLossNoRecovery: Cumulative,
	measure.Upfront:                Cumulative,
	measure.Notional:               Cumulative,

	measure.FairPremium:         WeightedCumulative,
	measure.ParSpread:           WeightedCumulative,
	measure.Price:               WeightedCumulative,
	measure.CleanPrice:          WeightedCumulative,
	measure.RiskyDuration:       WeightedCumulative,
	measure.DefaultProbability:  WeightedCumulative,
	measure.SurvivalProbability: WeightedCumulative,
	measure.RecoveryRate:        WeightedCumulative,
	measure.CalibratedShift:     WeightedCumulative,
	measure.Yield:               WeightedCumulative,
	measure.Duration:            WeightedCumulative,
	measure.Convexity:           WeightedCumulative,

	measure.AccrualDays:     UnitAccumulate,
	measure.FirstCouponRate: UnitAccumulate,
	measure.WorkoutDate:     UnitAccumulate,
	measure.WorkoutType:     UnitAccumulate,
	measure.WorkoutFactor:   UnitAccumulate,
}

// PolicyFor classifies a measure name. A "Fair" or "Market" prefix is stripped
// when the full name is not itself a known measure (FairPremium is).
func PolicyFor(name string) Policy {
	id := measure.Lookup(name)
	if id == measure.Unknown {
		id = measure.Lookup(stripPrefix(name))
	}
	return policies[id]
}

func stripPrefix(name string) string {
	lower := strings.ToLower(name)
	for _, p := range []string{measure.PrefixFair, measure.PrefixMarket} {
		if strings.HasPrefix(lower, strings.ToLower(p)) {
			return name[len(p):]
		}
	}
	return name
}

// Aggregate combines per-component values under p. weights must line up with
// values for WeightedCumulative. It reports false for Ignore or when there is
// nothing to combine.
func Aggregate(p Policy, values, weights []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	switch p {
	case Cumulative:
		return floats.Sum(values), true
	case WeightedCumulative:
		if len(weights) != len(values) {
			return 0, false
		}
		return floats.Dot(values, weights), true
	case UnitAccumulate:
		return values[0], true
	default:
		return 0, false
	}
}
