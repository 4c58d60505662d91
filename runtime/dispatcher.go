// Package runtime handles event propagation: the durable notification
// write, the async push queue, and the workers draining it. It
// orchestrates the system without containing business logic or domain
// rules.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"linkgraph/domain"
	"linkgraph/domain/event"
	"linkgraph/errors"
	"linkgraph/observability"
	"linkgraph/repositories"
)

type JobKind int

const (
	JobPush JobKind = iota
	JobBroadcast
)

// Job is one unit of best-effort live delivery.
type Job struct {
	Kind           JobKind
	Event          event.DomainEvent
	ConversationID string // broadcast only
}

// Dispatcher implements the fanout contract: a synchronous durable
// notification write followed by an independent asynchronous push.
// The durable record is the contract; everything after Store is
// best-effort and never surfaces to the caller.
type Dispatcher struct {
	log           *slog.Logger
	notifications repositories.INotificationRepository
	jobs          chan Job
}

func NewDispatcher(log *slog.Logger, notifications repositories.INotificationRepository, bufferSize int) *Dispatcher {
	return &Dispatcher{
		log:           log,
		notifications: notifications,
		jobs:          make(chan Job, bufferSize),
	}
}

// Emit persists a notification for the event, then enqueues a push job.
// A failed write aborts the whole triggering operation: no domain change
// may be reported successful without its durable record.
func (d *Dispatcher) Emit(ctx context.Context, e event.DomainEvent) error {
	now := time.Now().UTC()
	n := domain.Notification{
		ID:        uuid.New(),
		Type:      e.Kind(),
		Message:   e.Describe(),
		Sender:    e.Sender(),
		Receiver:  e.Receiver(),
		Status:    domain.NotificationPending,
		RelatedID: e.RelatedID(),
		CreatedAt: now,
		ExpiresAt: now.Add(domain.NotificationTTL),
	}
	if err := d.notifications.Store(n); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrUnavailable, err)
	}
	observability.NotificationsEmitted.Inc()

	d.enqueue(Job{Kind: JobPush, Event: e})
	return nil
}

// Broadcast schedules delivery to every session joined to the
// conversation room. No durable write happens here: the message store
// already holds the record.
func (d *Dispatcher) Broadcast(conversationID string, e event.DomainEvent) {
	d.enqueue(Job{Kind: JobBroadcast, Event: e, ConversationID: conversationID})
}

// Jobs is drained by the fanout worker.
func (d *Dispatcher) Jobs() <-chan Job {
	return d.jobs
}

func (d *Dispatcher) enqueue(job Job) {
	select {
	case d.jobs <- job:
	default:
		observability.JobsDropped.Inc()
		d.log.Warn("Fanout queue full, dropping live delivery",
			"kind", job.Event.Kind(), "receiver", job.Event.Receiver().Key())
	}
}
