package measure

import "strings"

// ID enumerates the measures known to this module.
type ID int

const (
	Unknown ID = iota
	PV
	DirtyPV
	CleanPV
	DV01
	DirtyDV01
	Accrued
	Accrued01
	AccrualDays
	LossPV
	LossNoRecoveryPV
	ExpectedLoss
	ExpectedLossNoRecovery
	FairPremium
	ParSpread
	Upfront
	Price
	CleanPrice
	RiskyDuration
	DefaultProbability
	SurvivalProbability
	RecoveryRate
	Notional
	FirstCouponRate
	CalibratedShift
	Yield
	Duration
	Convexity
	WorkoutDate
	WorkoutType
	WorkoutFactor
)

// Prefixes used when blending fair and market measure sets.
const (
	PrefixFair   = "Fair"
	PrefixMarket = "Market"

	// MarketInputType is the key recording which quote drove calibration,
	// written as "MarketInputType=<Name>".
	MarketInputType = "MarketInputType"
)

var idNames = map[ID]string{
	PV:                     "PV",
	DirtyPV:                "DirtyPV",
	CleanPV:                "CleanPV",
	DV01:                   "DV01",
	DirtyDV01:              "DirtyDV01",
	Accrued:                "Accrued",
	Accrued01:              "Accrued01",
	AccrualDays:            "AccrualDays",
	LossPV:                 "LossPV",
	LossNoRecoveryPV:       "LossNoRecoveryPV",
	ExpectedLoss:           "ExpectedLoss",
	ExpectedLossNoRecovery: "ExpectedLossNoRecovery",
	FairPremium:            "FairPremium",
	ParSpread:              "ParSpread",
	Upfront:                "Upfront",
	Price:                  "Price",
	CleanPrice:             "CleanPrice",
	RiskyDuration:          "RiskyDuration",
	DefaultProbability:     "DefaultProbability",
	SurvivalProbability:    "SurvivalProbability",
	RecoveryRate:           "RecoveryRate",
	Notional:               "Notional",
	FirstCouponRate:        "FirstCouponRate",
	CalibratedShift:        "CalibratedShift",
	Yield:                  "Yield",
	Duration:               "Duration",
	Convexity:              "Convexity",
	WorkoutDate:            "WorkoutDate",
	WorkoutType:            "WorkoutType",
	WorkoutFactor:          "WorkoutFactor",
}

var nameIDs = func() map[string]ID {
	m := make(map[string]ID, len(idNames))
	for id, n := range idNames {
		m[strings.ToLower(n)] = id
	}
	return m
}()

// String returns the canonical measure name.
func (id ID) String() string {
	if n, ok := idNames[id]; ok {
		return n
	}
	return "Unknown"
}

// Lookup translates a measure name (case-insensitive) to its ID.
func Lookup(name string) ID {
	return nameIDs[strings.ToLower(strings.TrimSpace(name))]
}

// MarketInputKey renders the "MarketInputType=<Name>" marker key.
func MarketInputKey(id ID) string {
	return MarketInputType + "=" + id.String()
}
