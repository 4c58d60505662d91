package sink

import (
	"context"

	"linkgraph/domain/event"
	"linkgraph/errors"
)

// SessionSink bridges the fanout pipeline and one open transport
// session. The transport handler owns the channel and drains it into
// the wire; fanout never blocks on a slow client beyond its own timeout.
type SessionSink struct {
	ID     string
	Events chan event.DomainEvent
}

func NewSessionSink(id string, bufferSize int) *SessionSink {
	return &SessionSink{ID: id, Events: make(chan event.DomainEvent, bufferSize)}
}

// Consume is called by fanout.
// Redirects the event through the owner of the channel; the transport
// handler takes it from there. A full buffer means the client is not
// keeping up, so the event is dropped for this session only.
func (s *SessionSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.ErrSinkFull
	}
}
