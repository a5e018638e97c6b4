// Package market holds the curves and quotes a valuation reads.
package market

import (
	"errors"
	"fmt"
	"sync"

	"github.com/meenmo/credlib/curve"
	"github.com/meenmo/credlib/measure"
)

// ErrUnknownCurve is returned when no curve is registered under an id.
var ErrUnknownCurve = errors.New("unknown curve")

// Params is the market environment: discount and credit curves by id plus quotes.
// Reads are safe for concurrent use. SwapCreditCurve must not race with
// valuations that depend on the swapped curve.
type Params struct {
	mu       sync.RWMutex
	discount map[string]*curve.DiscountCurve
	credit   map[string]*curve.HazardCurve
	quotes   QuoteSource
}

// NewParams returns an empty market.
func NewParams() *Params {
	return &Params{
		discount: make(map[string]*curve.DiscountCurve),
		credit:   make(map[string]*curve.HazardCurve),
	}
}

// SetDiscountCurve registers c under id.
func (p *Params) SetDiscountCurve(id string, c *curve.DiscountCurve) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.discount[id] = c
}

// SetCreditCurve registers c under id.
func (p *Params) SetCreditCurve(id string, c *curve.HazardCurve) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.credit[id] = c
}

// SetQuotes installs the quote source.
func (p *Params) SetQuotes(q QuoteSource) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quotes = q
}

// DiscountCurve returns the discount curve registered under id.
func (p *Params) DiscountCurve(id string) (*curve.DiscountCurve, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.discount[id]
	if !ok || c == nil {
		return nil, fmt.Errorf("DiscountCurve: %q: %w", id, ErrUnknownCurve)
	}
	return c, nil
}

// CreditCurve returns the credit curve registered under id.
func (p *Params) CreditCurve(id string) (*curve.HazardCurve, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.credit[id]
	if !ok || c == nil {
		return nil, fmt.Errorf("CreditCurve: %q: %w", id, ErrUnknownCurve)
	}
	return c, nil
}

// Quote looks up a quote; false when no source is installed or nothing is quoted.
func (p *Params) Quote(instrument string, id measure.ID) (Quote, bool) {
	p.mu.RLock()
	src := p.quotes
	p.mu.RUnlock()
	if src == nil {
		return Quote{}, false
	}
	return src.Quote(instrument, id)
}

// SwapCreditCurve installs c under id and returns a function restoring the previous
// curve. The id must already be registered.
func (p *Params) SwapCreditCurve(id string, c *curve.HazardCurve) (restore func(), err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev, ok := p.credit[id]
	if !ok {
		return nil, fmt.Errorf("SwapCreditCurve: %q: %w", id, ErrUnknownCurve)
	}
	p.credit[id] = c
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.credit[id] = prev
	}, nil
}
