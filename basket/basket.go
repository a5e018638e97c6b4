package basket

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meenmo/credlib/config"
	"github.com/meenmo/credlib/jacobian"
	"github.com/meenmo/credlib/logging"
	"github.com/meenmo/credlib/market"
	"github.com/meenmo/credlib/measure"
)

var (
	// ErrZeroWeights is returned when the raw component weights sum to zero.
	ErrZeroWeights = errors.New("basket weights sum to zero")
	// ErrInvalidBasket is returned for malformed basket definitions.
	ErrInvalidBasket = errors.New("invalid basket")
	// ErrNotAggregable is returned when a measure's policy is Ignore.
	ErrNotAggregable = errors.New("measure is not aggregated for baskets")
)

// Component is anything that can price itself as a basket member.
type Component interface {
	Name() string
	ComputeMeasures(valuationDate time.Time, cfg config.Pricer, mkt *market.Params) (*measure.Set, error)
	ComputeJacobian(valuationDate time.Time, cfg config.Pricer, mkt *market.Params, name string) (*jacobian.Jacobian, error)
	CalibrateHazard(valuationDate time.Time, cfg config.Pricer, mkt *market.Params, q config.Calibration) (*measure.Set, error)
}

// MissingPolicy decides what happens when a component has no value for a measure.
type MissingPolicy int

const (
	// MissingDrop leaves the measure out of the basket result.
	MissingDrop MissingPolicy = iota
	// MissingSkip aggregates over the components that have it, renormalising weights.
	MissingSkip
)

// ParseMissingPolicy maps "drop" or "skip" (case-insensitive; "" is drop).
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop":
		return MissingDrop, nil
	case "skip":
		return MissingSkip, nil
	default:
		return MissingDrop, fmt.Errorf("ParseMissingPolicy: unknown policy %q", s)
	}
}

// Product is a weighted list of components.
type Product struct {
	name       string
	components []Component
	weights    []float64
	missing    MissingPolicy
}

// New normalises rawWeights to sum to one and returns the basket.
func New(name string, components []Component, rawWeights []float64) (*Product, error) {
	if len(components) == 0 {
		return nil, fmt.Errorf("New: %s: no components: %w", name, ErrInvalidBasket)
	}
	if len(components) != len(rawWeights) {
		return nil, fmt.Errorf("New: %s: %d components but %d weights: %w", name, len(components), len(rawWeights), ErrInvalidBasket)
	}
	total := 0.0
	for i, w := range rawWeights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("New: %s: weight %d is not finite: %w", name, i, ErrInvalidBasket)
		}
		if components[i] == nil {
			return nil, fmt.Errorf("New: %s: component %d is nil: %w", name, i, ErrInvalidBasket)
		}
		total += w
	}
	if total == 0 {
		return nil, fmt.Errorf("New: %s: %w", name, ErrZeroWeights)
	}

	weights := make([]float64, len(rawWeights))
	for i, w := range rawWeights {
		weights[i] = w / total
	}
	return &Product{
		name:       name,
		components: append([]Component(nil), components...),
		weights:    weights,
	}, nil
}

// WithMissingPolicy sets how missing component values are handled.
func (p *Product) WithMissingPolicy(mp MissingPolicy) *Product {
	p.missing = mp
	return p
}

// Name returns the basket name.
func (p *Product) Name() string {
	return p.name
}

// Components returns the members in order.
func (p *Product) Components() []Component {
	return append([]Component(nil), p.components...)
}

// Weights returns the normalised weights.
func (p *Product) Weights() []float64 {
	return append([]float64(nil), p.weights...)
}

// present returns the values and weights of the components that carry name.
// ok is false when the missing policy drops the measure.
func (p *Product) present(name string, sets []*measure.Set) (values, weights []float64, ok bool) {
	for i, s := range sets {
		v, has := s.Get(name)
		if !has || math.IsNaN(v) {
			if p.missing == MissingDrop {
				return nil, nil, false
			}
			continue
		}
		values = append(values, v)
		weights = append(weights, p.weights[i])
	}
	if len(values) == 0 {
		return nil, nil, false
	}
	if len(values) < len(sets) {
		renormalise(weights)
	}
	return values, weights, true
}

func renormalise(w []float64) {
	total := 0.0
	for _, x := range w {
		total += x
	}
	if total == 0 {
		return
	}
	for i := range w {
		w[i] /= total
	}
}

// AggregateMeasure combines name across sets, one per component in order.
func (p *Product) AggregateMeasure(name string, sets []*measure.Set) (float64, bool) {
	policy := PolicyFor(name)
	if policy == Ignore || len(sets) != len(p.components) {
		return 0, false
	}
	values, weights, ok := p.present(name, sets)
	if !ok {
		return 0, false
	}
	return Aggregate(policy, values, weights)
}

// aggregateAll aggregates every recognised name found in any set.
func (p *Product) aggregateAll(sets []*measure.Set) *measure.Set {
	out := measure.NewSet()
	seen := make(map[string]bool)
	for _, s := range sets {
		if s == nil {
			continue
		}
		for _, n := range s.Names() {
			k := strings.ToLower(n)
			if seen[k] {
				continue
			}
			seen[k] = true
			if v, ok := p.AggregateMeasure(n, sets); ok {
				out.Set(n, v)
			}
		}
	}
	return out
}

// componentFailed reports whether a component error should fail the basket.
func (p *Product) componentFailed(op string, c Component, err error) error {
	if p.missing == MissingDrop {
		return fmt.Errorf("%s: %s: component %s: %w", op, p.name, c.Name(), err)
	}
	logging.Get().Warn("basket component skipped", "basket", p.name, "component", c.Name(), "op", op, "error", err)
	return nil
}

// Measures prices every component concurrently and aggregates the results.
func (p *Product) Measures(valuationDate time.Time, cfg config.Pricer, mkt *market.Params) (*measure.Set, error) {
	sets := make([]*measure.Set, len(p.components))
	var g errgroup.Group
	for i, c := range p.components {
		i, c := i, c
		g.Go(func() error {
			s, err := c.ComputeMeasures(valuationDate, cfg, mkt)
			if err != nil {
				return p.componentFailed("Measures", c, err)
			}
			sets[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return p.aggregateAll(sets), nil
}

// Value runs each component's market blender in turn and aggregates the results.
// Components run sequentially because calibration swaps curves in mkt.
func (p *Product) Value(valuationDate time.Time, cfg config.Pricer, mkt *market.Params, q config.Calibration) (*measure.Set, error) {
	sets := make([]*measure.Set, len(p.components))
	for i, c := range p.components {
		s, err := c.CalibrateHazard(valuationDate, cfg, mkt, q)
		if err != nil {
			if err := p.componentFailed("Value", c, err); err != nil {
				return nil, err
			}
			continue
		}
		sets[i] = s
	}
	return p.aggregateAll(sets), nil
}

// Jacobian combines the component Jacobians of name under its policy.
func (p *Product) Jacobian(valuationDate time.Time, cfg config.Pricer, mkt *market.Params, name string) (*jacobian.Jacobian, error) {
	policy := PolicyFor(name)
	if policy == Ignore {
		return nil, fmt.Errorf("Jacobian: %s: %q: %w", p.name, name, ErrNotAggregable)
	}

	var parts []*jacobian.Jacobian
	var weights []float64
	for i, c := range p.components {
		j, err := c.ComputeJacobian(valuationDate, cfg, mkt, name)
		if err != nil {
			if err := p.componentFailed("Jacobian", c, err); err != nil {
				return nil, err
			}
			continue
		}
		parts = append(parts, j)
		weights = append(weights, p.weights[i])
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("Jacobian: %s: no component produced %q: %w", p.name, name, ErrInvalidBasket)
	}
	if len(parts) < len(p.components) {
		renormalise(weights)
	}

	switch policy {
	case UnitAccumulate:
		return parts[0].Clone(), nil
	case Cumulative:
		out, err := jacobian.Sum(parts[0].Len(), parts...)
		if err != nil {
			return nil, fmt.Errorf("Jacobian: %s: %w", p.name, err)
		}
		return out, nil
	default:
		out := jacobian.New(parts[0].Len())
		for i, j := range parts {
			if err := out.AddScaled(weights[i], j); err != nil {
				return nil, fmt.Errorf("Jacobian: %s: %w", p.name, err)
			}
		}
		return out, nil
	}
}
