package market

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/meenmo/credlib/measure"
)

// Quote is an observed two-way market for one measure of one instrument.
// Any side may be absent.
type Quote struct {
	Bid decimal.NullDecimal
	Mid decimal.NullDecimal
	Ask decimal.NullDecimal
}

// NewMidQuote is a convenience for a mid-only quote.
func NewMidQuote(mid float64) Quote {
	return Quote{Mid: decimal.NewNullDecimal(decimal.NewFromFloat(mid))}
}

// ParseQuote builds a quote from decimal strings; empty strings leave a side unset.
func ParseQuote(bid, mid, ask string) (Quote, error) {
	var q Quote
	for _, side := range []struct {
		s   string
		dst *decimal.NullDecimal
	}{{bid, &q.Bid}, {mid, &q.Mid}, {ask, &q.Ask}} {
		if strings.TrimSpace(side.s) == "" {
			continue
		}
		d, err := decimal.NewFromString(strings.TrimSpace(side.s))
		if err != nil {
			return Quote{}, err
		}
		*side.dst = decimal.NewNullDecimal(d)
	}
	return q, nil
}

// MidValue returns the explicit mid, or the average of bid and ask when both are present.
func (q Quote) MidValue() (float64, bool) {
	if q.Mid.Valid {
		return q.Mid.Decimal.InexactFloat64(), true
	}
	if q.Bid.Valid && q.Ask.Valid {
		return q.Bid.Decimal.Add(q.Ask.Decimal).Div(decimal.NewFromInt(2)).InexactFloat64(), true
	}
	return 0, false
}

// QuoteSource supplies market quotes for instruments.
type QuoteSource interface {
	Quote(instrument string, id measure.ID) (Quote, bool)
}

// MapQuoteSource is a static map-backed QuoteSource keyed by instrument name.
type MapQuoteSource struct {
	quotes map[string]map[measure.ID]Quote
}

// NewMapQuoteSource returns an empty MapQuoteSource.
func NewMapQuoteSource() *MapQuoteSource {
	return &MapQuoteSource{quotes: make(map[string]map[measure.ID]Quote)}
}

// Put stores a quote, replacing any existing one for the same instrument and measure.
func (m *MapQuoteSource) Put(instrument string, id measure.ID, q Quote) {
	byID, ok := m.quotes[instrument]
	if !ok {
		byID = make(map[measure.ID]Quote)
		m.quotes[instrument] = byID
	}
	byID[id] = q
}

func (m *MapQuoteSource) Quote(instrument string, id measure.ID) (Quote, bool) {
	q, ok := m.quotes[instrument][id]
	return q, ok
}

// HasInstrument reports whether any quote exists for instrument.
func (m *MapQuoteSource) HasInstrument(instrument string) bool {
	return len(m.quotes[instrument]) > 0
}
