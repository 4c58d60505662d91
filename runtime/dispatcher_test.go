package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"linkgraph/domain"
	"linkgraph/domain/event"
	"linkgraph/errors"
)

// memoryNotifications is an in-memory stand-in for the badger-backed
// repository, with an optional injected failure.
type memoryNotifications struct {
	stored   []domain.Notification
	storeErr error
}

func (m *memoryNotifications) Store(n domain.Notification) error {
	if m.storeErr != nil {
		return m.storeErr
	}
	m.stored = append(m.stored, n)
	return nil
}

func (m *memoryNotifications) Get(uuid.UUID) (domain.Notification, error) {
	return domain.Notification{}, errors.ErrNotFound
}
func (m *memoryNotifications) List(domain.Actor, int) ([]domain.Notification, error) {
	return m.stored, nil
}
func (m *memoryNotifications) MarkRead(uuid.UUID, domain.Actor) error { return nil }
func (m *memoryNotifications) MarkAllRead(domain.Actor) error         { return nil }
func (m *memoryNotifications) MarkCompleted(uuid.UUID, string) error  { return nil }
func (m *memoryNotifications) DeleteExpired(time.Time) (int, error)   { return 0, nil }

func requestedEvent() event.ConnectionRequested {
	return event.ConnectionRequested{Connection: domain.Connection{
		ID:        uuid.New(),
		Requester: domain.Actor{Kind: domain.KindPerson, ID: "alice"},
		Receiver:  domain.Actor{Kind: domain.KindPerson, ID: "bob"},
		Status:    domain.ConnectionPending,
		CreatedAt: time.Now().UTC(),
	}}
}

func Test_Emit_Stores_Then_Enqueues(t *testing.T) {
	req := require.New(t)
	store := &memoryNotifications{}
	dispatcher := NewDispatcher(slog.Default(), store, 4)

	e := requestedEvent()
	req.NoError(dispatcher.Emit(context.Background(), e))

	req.Len(store.stored, 1)
	n := store.stored[0]
	req.Equal(event.KindConnectionRequested, n.Type)
	req.Equal(e.Receiver(), n.Receiver)
	req.Equal(e.RelatedID(), n.RelatedID)
	req.False(n.IsRead)
	req.Equal(domain.NotificationPending, n.Status)
	req.Equal(n.CreatedAt.Add(domain.NotificationTTL), n.ExpiresAt)

	select {
	case job := <-dispatcher.Jobs():
		req.Equal(JobPush, job.Kind)
		req.Equal(e, job.Event)
	default:
		req.FailNow("expected a queued push job")
	}
}

func Test_Emit_Fails_When_Store_Fails(t *testing.T) {
	req := require.New(t)
	store := &memoryNotifications{storeErr: fmt.Errorf("disk full")}
	dispatcher := NewDispatcher(slog.Default(), store, 4)

	err := dispatcher.Emit(context.Background(), requestedEvent())
	req.ErrorIs(err, errors.ErrUnavailable)

	// Nothing durable, nothing pushed.
	select {
	case <-dispatcher.Jobs():
		req.FailNow("no job expected after a failed write")
	default:
	}
}

func Test_Broadcast_Skips_Durable_Write(t *testing.T) {
	req := require.New(t)
	store := &memoryNotifications{}
	dispatcher := NewDispatcher(slog.Default(), store, 4)

	e := requestedEvent()
	dispatcher.Broadcast("conv-1", e)

	req.Empty(store.stored)
	select {
	case job := <-dispatcher.Jobs():
		req.Equal(JobBroadcast, job.Kind)
		req.Equal("conv-1", job.ConversationID)
	default:
		req.FailNow("expected a queued broadcast job")
	}
}

func Test_Full_Queue_Drops_Instead_Of_Blocking(t *testing.T) {
	req := require.New(t)
	dispatcher := NewDispatcher(slog.Default(), &memoryNotifications{}, 1)

	dispatcher.Broadcast("conv-1", requestedEvent())

	done := make(chan struct{})
	go func() {
		dispatcher.Broadcast("conv-1", requestedEvent())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		req.FailNow("enqueue must never block")
	}
	req.Len(dispatcher.Jobs(), 1)
}
