package services

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"linkgraph/domain"
	"linkgraph/errors"
	"linkgraph/repositories"
	"linkgraph/runtime"
)

type testEnv struct {
	connections *ConnectionService
	messaging   *MessagingService
	dispatcher  *runtime.Dispatcher
	notifRepo   repositories.NotificationRepository
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	connRepo := repositories.NewConnectionRepository(db, log)
	notifRepo := repositories.NewNotificationRepository(db, log)
	msgRepo := repositories.NewMessageRepository(db, log)
	dispatcher := runtime.NewDispatcher(log, notifRepo, 16)

	return testEnv{
		connections: NewConnectionService(log, connRepo, dispatcher),
		messaging:   NewMessagingService(log, msgRepo, connRepo, dispatcher, 1000),
		dispatcher:  dispatcher,
		notifRepo:   notifRepo,
	}
}

// connect establishes an accepted connection between the two actors.
func (e testEnv) connect(t *testing.T, a, b domain.Actor) {
	t.Helper()
	conn, err := e.connections.Request(context.Background(), a, b)
	require.NoError(t, err)
	_, err = e.connections.Accept(context.Background(), conn.ID, b)
	require.NoError(t, err)
}

func Test_Send_Requires_Accepted_Connection(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	alice := domain.Actor{Kind: domain.KindPerson, ID: "alice"}
	bob := domain.Actor{Kind: domain.KindPerson, ID: "bob"}

	_, err := env.messaging.Send(ctx, alice, bob, "", "hello", nil)
	req.ErrorIs(err, errors.ErrForbidden)

	env.connect(t, alice, bob)

	m, err := env.messaging.Send(ctx, alice, bob, "", "hello", nil)
	req.NoError(err)
	req.Equal(domain.ConversationID(alice, bob), m.ConversationID)

	// The durable notification exists for the receiver.
	notifications, err := env.notifRepo.List(bob, 10)
	req.NoError(err)
	req.NotEmpty(notifications)
	req.Equal("message_sent", notifications[0].Type)
}

func Test_Send_Validation(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	alice := domain.Actor{Kind: domain.KindPerson, ID: "alice"}
	bob := domain.Actor{Kind: domain.KindPerson, ID: "bob"}
	env.connect(t, alice, bob)

	_, err := env.messaging.Send(ctx, alice, bob, "", "", nil)
	req.ErrorIs(err, errors.ErrValidation)

	_, err = env.messaging.Send(ctx, alice, bob, "", strings.Repeat("x", 1001), nil)
	req.ErrorIs(err, errors.ErrValidation)

	_, err = env.messaging.Send(ctx, alice, bob, "", "see this", []string{"not a url"})
	req.ErrorIs(err, errors.ErrValidation)

	// Attachment-only message is fine.
	_, err = env.messaging.Send(ctx, alice, bob, "", "", []string{"https://cdn.example.com/f.pdf"})
	req.NoError(err)

	// A conversation id not matching the participants is refused.
	_, err = env.messaging.Send(ctx, alice, bob, uuid.NewString(), "hello", nil)
	req.ErrorIs(err, errors.ErrValidation)
}

func Test_Conversation_Round_Trip(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	alice := domain.Actor{Kind: domain.KindPerson, ID: "alice"}
	bob := domain.Actor{Kind: domain.KindPerson, ID: "bob"}
	env.connect(t, alice, bob)

	m, err := env.messaging.Send(ctx, alice, bob, "", "hello bob", nil)
	req.NoError(err)

	conversations, err := env.messaging.ListConversations(ctx, bob)
	req.NoError(err)
	req.Len(conversations, 1)
	req.Equal(1, conversations[0].UnreadCount)

	req.NoError(env.messaging.MarkRead(ctx, m.ID, bob))

	conversations, err = env.messaging.ListConversations(ctx, bob)
	req.NoError(err)
	req.Zero(conversations[0].UnreadCount)

	messages, err := env.messaging.ListMessages(ctx, m.ConversationID)
	req.NoError(err)
	req.Len(messages, 1)
	req.True(messages[0].IsRead)
}

func Test_ListMessages_Rejects_Malformed_ID(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	_, err := env.messaging.ListMessages(context.Background(), "../etc/passwd")
	req.ErrorIs(err, errors.ErrValidation)
}

func Test_Removed_Connection_Blocks_New_Sends_Only(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	alice := domain.Actor{Kind: domain.KindPerson, ID: "alice"}
	bob := domain.Actor{Kind: domain.KindPerson, ID: "bob"}
	env.connect(t, alice, bob)

	m, err := env.messaging.Send(ctx, alice, bob, "", "before removal", nil)
	req.NoError(err)

	req.NoError(env.connections.Remove(ctx, alice, bob))

	_, err = env.messaging.Send(ctx, alice, bob, "", "after removal", nil)
	req.ErrorIs(err, errors.ErrForbidden)

	// History stays readable.
	messages, err := env.messaging.ListMessages(ctx, m.ConversationID)
	req.NoError(err)
	req.Len(messages, 1)
}
