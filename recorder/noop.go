package recorder

import "context"

// NoopRecorder discards everything. Used when persistence is disabled.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) Record(_ context.Context, _ *Valuation) error { return nil }
func (n *NoopRecorder) Close() error                                 { return nil }
