package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"linkgraph/domain"
	"linkgraph/errors"
)

func buildMessage(sender, receiver domain.Actor, content string, createdAt time.Time) domain.Message {
	return domain.Message{
		ID:             uuid.New(),
		Sender:         sender,
		Receiver:       receiver,
		Content:        content,
		ConversationID: domain.ConversationID(sender, receiver),
		CreatedAt:      createdAt,
	}
}

func Test_ListByConversation_Is_Chronological(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	alice := domain.Actor{Kind: domain.KindPerson, ID: "alice"}
	bob := domain.Actor{Kind: domain.KindPerson, ID: "bob"}

	base := time.Now().UTC()
	// Stored out of order on purpose.
	second := buildMessage(bob, alice, "second", base.Add(time.Second))
	first := buildMessage(alice, bob, "first", base)
	third := buildMessage(alice, bob, "third", base.Add(2*time.Second))
	for _, m := range []domain.Message{second, first, third} {
		req.NoError(repository.Store(m))
	}

	messages, err := repository.ListByConversation(domain.ConversationID(alice, bob))
	req.NoError(err)
	req.Len(messages, 3)
	req.Equal("first", messages[0].Content)
	req.Equal("second", messages[1].Content)
	req.Equal("third", messages[2].Content)
}

func Test_ListConversations_Summarizes_Per_Participant(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	alice := domain.Actor{Kind: domain.KindPerson, ID: "alice"}
	bob := domain.Actor{Kind: domain.KindPerson, ID: "bob"}
	acme := domain.Actor{Kind: domain.KindOrganization, ID: "acme"}

	base := time.Now().UTC()
	req.NoError(repository.Store(buildMessage(bob, alice, "hey", base)))
	req.NoError(repository.Store(buildMessage(bob, alice, "still there?", base.Add(time.Second))))
	req.NoError(repository.Store(buildMessage(acme, alice, "offer inside", base.Add(time.Minute))))

	conversations, err := repository.ListConversations(alice)
	req.NoError(err)
	req.Len(conversations, 2)

	// Most recent conversation first.
	req.Equal(acme, conversations[0].Peer)
	req.Equal("offer inside", conversations[0].LastMessage.Content)
	req.Equal(1, conversations[0].UnreadCount)

	req.Equal(bob, conversations[1].Peer)
	req.Equal("still there?", conversations[1].LastMessage.Content)
	req.Equal(2, conversations[1].UnreadCount)

	// The sender side counts nothing as unread.
	fromBob, err := repository.ListConversations(bob)
	req.NoError(err)
	req.Len(fromBob, 1)
	req.Zero(fromBob[0].UnreadCount)
}

func Test_MarkRead_Only_For_Receiver(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	alice := domain.Actor{Kind: domain.KindPerson, ID: "alice"}
	bob := domain.Actor{Kind: domain.KindPerson, ID: "bob"}
	m := buildMessage(alice, bob, "ping", time.Now().UTC())
	req.NoError(repository.Store(m))

	req.ErrorIs(repository.MarkRead(m.ID, alice), errors.ErrForbidden)
	req.NoError(repository.MarkRead(m.ID, bob))

	got, err := repository.Get(m.ID)
	req.NoError(err)
	req.True(got.IsRead)
}

func Test_Delete_Only_For_Sender(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	alice := domain.Actor{Kind: domain.KindPerson, ID: "alice"}
	bob := domain.Actor{Kind: domain.KindPerson, ID: "bob"}
	m := buildMessage(alice, bob, "oops", time.Now().UTC())
	req.NoError(repository.Store(m))

	req.ErrorIs(repository.Delete(m.ID, bob), errors.ErrForbidden)
	req.NoError(repository.Delete(m.ID, alice))

	_, err := repository.Get(m.ID)
	req.ErrorIs(err, errors.ErrNotFound)

	// The conversation disappears once its only message is gone.
	conversations, err := repository.ListConversations(bob)
	req.NoError(err)
	req.Empty(conversations)
}

func Test_Delete_Missing_Message_Is_NotFound(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	alice := domain.Actor{Kind: domain.KindPerson, ID: "alice"}
	req.ErrorIs(repository.Delete(uuid.New(), alice), errors.ErrNotFound)
}
