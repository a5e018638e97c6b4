// Package recorder persists valuation results.
package recorder

import (
	"context"
	"time"

	"github.com/meenmo/credlib/config"
	"github.com/meenmo/credlib/measure"
)

// Valuation is one priced instrument or basket.
type Valuation struct {
	RunAt         time.Time
	Instrument    string
	ValuationDate time.Time
	Measures      *measure.Set
}

// Recorder stores valuations.
type Recorder interface {
	Record(ctx context.Context, v *Valuation) error
	Close() error
}

// New returns a SQL recorder when cfg is enabled and a no-op one otherwise.
func New(cfg config.Recorder) (Recorder, error) {
	if !cfg.Enabled {
		return NewNoopRecorder(), nil
	}
	return NewSQLRecorder(cfg.Driver, cfg.DSN)
}
