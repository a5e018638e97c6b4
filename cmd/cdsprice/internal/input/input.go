// Package input defines the cdsprice input document and turns it into curves,
// pricers and baskets.
package input

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/credlib/basket"
	"github.com/meenmo/credlib/calendar"
	"github.com/meenmo/credlib/cds"
	"github.com/meenmo/credlib/curve"
	"github.com/meenmo/credlib/market"
	"github.com/meenmo/credlib/measure"
	"github.com/meenmo/credlib/utils"
)

// Document is the full input schema.
//
// Conventions:
// - zero rates are in percent (e.g., 4.25 means 4.25%)
// - hazard rates are decimal (0.02 means 2% per year)
// - coupon_bp is in bp (100 means 1% running)
type Document struct {
	ValuationDate  string                  `json:"valuation_date" yaml:"valuation_date"`
	DiscountCurves map[string]DiscountSpec `json:"discount_curves" yaml:"discount_curves"`
	CreditCurves   map[string]CreditSpec   `json:"credit_curves" yaml:"credit_curves"`
	Instruments    []InstrumentSpec        `json:"instruments" yaml:"instruments"`
	Quotes         []QuoteSpec             `json:"quotes" yaml:"quotes"`
	Basket         *BasketSpec             `json:"basket" yaml:"basket"`

	// Target names the instrument (or the basket) for single and jacobian.
	Target string `json:"target" yaml:"target"`
	// Measure is the Jacobian measure (PV or FairPremium).
	Measure string `json:"measure" yaml:"measure"`
	// Measures filters the output; empty means all.
	Measures []string `json:"measures" yaml:"measures"`
}

// DiscountSpec builds a discount curve from tenor zero rates or dated discount factors.
type DiscountSpec struct {
	Calendar        string             `json:"calendar" yaml:"calendar"`
	ZeroRatesPct    map[string]float64 `json:"zero_rates" yaml:"zero_rates"`
	DiscountFactors map[string]float64 `json:"discount_factors" yaml:"discount_factors"`
}

// CreditSpec builds a piecewise-constant hazard curve.
type CreditSpec struct {
	Nodes []CreditNode `json:"nodes" yaml:"nodes"`
}

// CreditNode is one hazard segment ending at Date (a date or a tenor).
type CreditNode struct {
	Date     string  `json:"date" yaml:"date"`
	Hazard   float64 `json:"hazard" yaml:"hazard"`
	SpreadBP float64 `json:"spread_bp" yaml:"spread_bp"`
	Recovery float64 `json:"recovery" yaml:"recovery"`
}

// InstrumentSpec is one single-name CDS.
type InstrumentSpec struct {
	Name                  string   `json:"name" yaml:"name"`
	EffectiveDate         string   `json:"effective_date" yaml:"effective_date"`
	MaturityDate          string   `json:"maturity_date" yaml:"maturity_date"`
	Notional              float64  `json:"notional" yaml:"notional"`
	CouponBP              float64  `json:"coupon_bp" yaml:"coupon_bp"`
	Recovery              *float64 `json:"recovery" yaml:"recovery"`
	UseCurveRecovery      bool     `json:"use_curve_recovery" yaml:"use_curve_recovery"`
	DefaultPaymentLagDays int      `json:"default_payment_lag_days" yaml:"default_payment_lag_days"`
	CreditCurve           string   `json:"credit_curve" yaml:"credit_curve"`
	DiscountCurve         string   `json:"discount_curve" yaml:"discount_curve"`
	DayCount              string   `json:"day_count" yaml:"day_count"`
	Calendar              string   `json:"calendar" yaml:"calendar"`
}

// QuoteSpec is a market quote on one instrument.
type QuoteSpec struct {
	Instrument string              `json:"instrument" yaml:"instrument"`
	Measure    string              `json:"measure" yaml:"measure"`
	Bid        decimal.NullDecimal `json:"bid" yaml:"bid"`
	Mid        decimal.NullDecimal `json:"mid" yaml:"mid"`
	Ask        decimal.NullDecimal `json:"ask" yaml:"ask"`
}

// BasketSpec lists basket members by instrument name.
type BasketSpec struct {
	Name       string            `json:"name" yaml:"name"`
	Components []BasketComponent `json:"components" yaml:"components"`
}

// BasketComponent is one weighted member.
type BasketComponent struct {
	Instrument string  `json:"instrument" yaml:"instrument"`
	Weight     float64 `json:"weight" yaml:"weight"`
}

// Read returns the bytes at path, or stdin when path is empty.
func Read(stdin io.Reader, path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(stdin)
}

// Decode parses data as YAML when path ends in .yaml/.yml and as JSON otherwise.
// Unknown fields are rejected.
func Decode(data []byte, path string) (*Document, error) {
	var doc Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse YAML input: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse JSON input: %w", err)
		}
	}
	return &doc, nil
}

// Workspace is a Document resolved into library objects.
type Workspace struct {
	ValuationDate time.Time
	Market        *market.Params
	Pricers       map[string]*cds.Pricer
	// Order keeps the document order of Pricers.
	Order []string
}

// Build resolves curves, instruments and quotes.
func (d *Document) Build() (*Workspace, error) {
	val, err := utils.ParseDate(strings.TrimSpace(d.ValuationDate))
	if err != nil {
		return nil, fmt.Errorf("invalid valuation_date: %v", err)
	}
	if len(d.Instruments) == 0 {
		return nil, fmt.Errorf("instruments is required")
	}

	mkt := market.NewParams()
	for id, spec := range d.DiscountCurves {
		c, err := spec.build(val)
		if err != nil {
			return nil, fmt.Errorf("discount curve %s: %w", id, err)
		}
		mkt.SetDiscountCurve(id, c)
	}
	for id, spec := range d.CreditCurves {
		c, err := spec.build(val)
		if err != nil {
			return nil, fmt.Errorf("credit curve %s: %w", id, err)
		}
		mkt.SetCreditCurve(id, c.WithID(id))
	}

	ws := &Workspace{ValuationDate: val, Market: mkt, Pricers: make(map[string]*cds.Pricer)}
	for _, spec := range d.Instruments {
		inst, err := spec.build()
		if err != nil {
			return nil, fmt.Errorf("instrument %q: %w", spec.Name, err)
		}
		if _, dup := ws.Pricers[inst.Name]; dup {
			return nil, fmt.Errorf("duplicate instrument %q", inst.Name)
		}
		ws.Pricers[inst.Name] = cds.NewPricer(inst)
		ws.Order = append(ws.Order, inst.Name)
	}

	if len(d.Quotes) > 0 {
		src := market.NewMapQuoteSource()
		for _, q := range d.Quotes {
			id := measure.Lookup(q.Measure)
			if id == measure.Unknown {
				return nil, fmt.Errorf("quote on %q: unknown measure %q", q.Instrument, q.Measure)
			}
			src.Put(q.Instrument, id, market.Quote{Bid: q.Bid, Mid: q.Mid, Ask: q.Ask})
		}
		mkt.SetQuotes(src)
	}
	return ws, nil
}

// Pricer returns the pricer for name, or the only one when name is empty.
func (w *Workspace) Pricer(name string) (*cds.Pricer, error) {
	if name == "" {
		if len(w.Order) != 1 {
			return nil, fmt.Errorf("target is required when more than one instrument is given")
		}
		name = w.Order[0]
	}
	p, ok := w.Pricers[name]
	if !ok {
		return nil, fmt.Errorf("unknown instrument %q", name)
	}
	return p, nil
}

// Basket resolves the basket section. Without one, every instrument joins with equal weight.
func (w *Workspace) Basket(spec *BasketSpec) (*basket.Product, error) {
	name := "basket"
	var comps []basket.Component
	var weights []float64
	if spec == nil || len(spec.Components) == 0 {
		for _, n := range w.Order {
			comps = append(comps, w.Pricers[n])
			weights = append(weights, 1)
		}
	} else {
		for _, c := range spec.Components {
			p, ok := w.Pricers[c.Instrument]
			if !ok {
				return nil, fmt.Errorf("basket component: unknown instrument %q", c.Instrument)
			}
			comps = append(comps, p)
			weights = append(weights, c.Weight)
		}
	}
	if spec != nil && spec.Name != "" {
		name = spec.Name
	}
	return basket.New(name, comps, weights)
}

func (s DiscountSpec) build(val time.Time) (*curve.DiscountCurve, error) {
	cal := calendar.Parse(s.Calendar)
	switch {
	case len(s.ZeroRatesPct) > 0 && len(s.DiscountFactors) > 0:
		return nil, fmt.Errorf("give either zero_rates or discount_factors, not both")
	case len(s.ZeroRatesPct) > 0:
		return curve.DiscountCurveFromTenors(val, s.ZeroRatesPct, cal)
	case len(s.DiscountFactors) > 0:
		dfs := make(map[time.Time]float64, len(s.DiscountFactors))
		for k, v := range s.DiscountFactors {
			d, err := resolveDate(val, k, cal)
			if err != nil {
				return nil, err
			}
			dfs[d] = v
		}
		return curve.NewDiscountCurveFromDFs(val, dfs)
	default:
		return nil, fmt.Errorf("zero_rates or discount_factors is required")
	}
}

func (s CreditSpec) build(val time.Time) (*curve.HazardCurve, error) {
	if len(s.Nodes) == 0 {
		return nil, fmt.Errorf("nodes is required")
	}
	dates := make([]time.Time, len(s.Nodes))
	hazards := make([]float64, len(s.Nodes))
	recoveries := make([]float64, len(s.Nodes))
	for i, n := range s.Nodes {
		d, err := resolveDate(val, n.Date, calendar.WeekendsOnly)
		if err != nil {
			return nil, err
		}
		dates[i] = d
		recoveries[i] = n.Recovery
		hazards[i] = n.Hazard
		if n.Hazard == 0 && n.SpreadBP != 0 {
			hazards[i] = curve.HazardFromSpread(n.SpreadBP*1e-4, n.Recovery)
		}
	}
	return curve.NewHazardCurve(val, dates, hazards, recoveries)
}

func (s InstrumentSpec) build() (*cds.Instrument, error) {
	eff, err := utils.ParseDate(s.EffectiveDate)
	if err != nil {
		return nil, fmt.Errorf("invalid effective_date: %v", err)
	}
	mat, err := utils.ParseDate(s.MaturityDate)
	if err != nil {
		return nil, fmt.Errorf("invalid maturity_date: %v", err)
	}
	recovery := 0.4
	if s.Recovery != nil {
		recovery = *s.Recovery
	}
	creditID := s.CreditCurve
	if creditID == "" {
		creditID = s.Name
	}
	credit, err := cds.NewCreditSetting(s.DefaultPaymentLagDays, s.UseCurveRecovery, recovery, creditID)
	if err != nil {
		return nil, err
	}

	spec := cds.InstrumentSpec{
		Name:            s.Name,
		EffectiveDate:   eff,
		MaturityDate:    mat,
		Notional:        s.Notional,
		Coupon:          s.CouponBP * 1e-4,
		Credit:          credit,
		DiscountCurveID: s.DiscountCurve,
		Calendar:        calendar.USD,
	}
	if s.DayCount != "" {
		spec.DayCount = utils.ParseDayCount(s.DayCount)
	}
	if s.Calendar != "" {
		spec.Calendar = calendar.Parse(s.Calendar)
	}
	return cds.NewInstrument(spec)
}

// resolveDate accepts YYYY-MM-DD or a tenor such as 5Y.
func resolveDate(val time.Time, s string, cal calendar.CalendarID) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := utils.ParseDate(s); err == nil {
		return d, nil
	}
	d, err := curve.TenorDate(val, s, cal)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date or tenor %q", s)
	}
	return d, nil
}
