package contract

import (
	"context"
	"reflect"

	"linkgraph/domain/event"
)

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// initialization or lifecycle events, avoiding the need for manual
// naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one live delivery channel, usually backed by an open
// transport session.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Presence is the advisory live-delivery routing surface consumed by the
// fanout worker. The durable stores stay authoritative.
type Presence interface {
	Live(actorKey string) (EventSink, bool)
	SinksForRoom(conversationID string) []EventSink
}

// EventDispatcher persists a notification for the event, then schedules
// best-effort live delivery off the critical path.
type EventDispatcher interface {
	Emit(ctx context.Context, e event.DomainEvent) error
	Broadcast(conversationID string, e event.DomainEvent)
}
