package composite

import (
	"context"

	"warrantfeed/internal/application/port"
	"warrantfeed/internal/domain"
)

// Sink fans a batch out to several sinks. Every sink is called; the first
// error is returned.
type Sink struct {
	sinks []port.QuoteSink
}

func New(sinks ...port.QuoteSink) *Sink {
	// nil sinks are allowed; filter in constructor for safety
	out := make([]port.QuoteSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Sink{sinks: out}
}

func (s *Sink) Len() int { return len(s.sinks) }

func (s *Sink) Publish(ctx context.Context, quotes []domain.Quote) error {
	var firstErr error
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, quotes); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
