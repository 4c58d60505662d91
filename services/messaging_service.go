package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"linkgraph/contract"
	"linkgraph/domain"
	"linkgraph/domain/event"
	"linkgraph/errors"
	"linkgraph/repositories"
)

type IMessagingService interface {
	Send(ctx context.Context, sender, receiver domain.Actor, conversationID, content string, attachments []string) (domain.Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error)
	ListConversations(ctx context.Context, actor domain.Actor) ([]domain.Conversation, error)
	MarkRead(ctx context.Context, id uuid.UUID, acting domain.Actor) error
	Delete(ctx context.Context, id uuid.UUID, acting domain.Actor) error
}

type MessagingService struct {
	log              *slog.Logger
	messages         repositories.IMessageRepository
	connections      repositories.IConnectionRepository
	dispatcher       contract.EventDispatcher
	maxContentLength int
}

func NewMessagingService(log *slog.Logger, messages repositories.IMessageRepository,
	connections repositories.IConnectionRepository, dispatcher contract.EventDispatcher,
	maxContentLength int) *MessagingService {
	return &MessagingService{
		log:              log,
		messages:         messages,
		connections:      connections,
		dispatcher:       dispatcher,
		maxContentLength: maxContentLength,
	}
}

// Send persists a message and schedules live delivery.
// Authorization happens at call time: the sender needs an accepted
// connection with the receiver right now. A connection removed later
// does not retroactively revoke the conversation.
func (s *MessagingService) Send(ctx context.Context, sender, receiver domain.Actor,
	conversationID, content string, attachments []string) (domain.Message, error) {
	if err := s.validateSend(receiver, content, attachments); err != nil {
		return domain.Message{}, err
	}

	derived := domain.ConversationID(sender, receiver)
	if conversationID == "" {
		conversationID = derived
	} else if conversationID != derived {
		return domain.Message{}, fmt.Errorf("%w: conversation does not match participants", errors.ErrValidation)
	}

	accepted, err := s.connections.AcceptedBetween(sender, receiver)
	if err != nil {
		return domain.Message{}, err
	}
	if !accepted {
		return domain.Message{}, fmt.Errorf("%w: no accepted connection with receiver", errors.ErrForbidden)
	}

	m := domain.Message{
		ID:             uuid.New(),
		Sender:         sender,
		Receiver:       receiver,
		Content:        content,
		Attachments:    attachments,
		ConversationID: conversationID,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.messages.Store(m); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrUnavailable, err)
	}

	evt := event.MessageSent{Message: m}
	if err := s.dispatcher.Emit(ctx, evt); err != nil {
		return domain.Message{}, err
	}
	s.dispatcher.Broadcast(conversationID, evt)
	return m, nil
}

func (s *MessagingService) ListMessages(_ context.Context, conversationID string) ([]domain.Message, error) {
	if _, err := uuid.Parse(conversationID); err != nil {
		return nil, fmt.Errorf("%w: malformed conversation id", errors.ErrValidation)
	}
	return s.messages.ListByConversation(conversationID)
}

func (s *MessagingService) ListConversations(_ context.Context, actor domain.Actor) ([]domain.Conversation, error) {
	return s.messages.ListConversations(actor)
}

func (s *MessagingService) MarkRead(_ context.Context, id uuid.UUID, acting domain.Actor) error {
	return s.messages.MarkRead(id, acting)
}

func (s *MessagingService) Delete(_ context.Context, id uuid.UUID, acting domain.Actor) error {
	return s.messages.Delete(id, acting)
}

func (s *MessagingService) validateSend(receiver domain.Actor, content string, attachments []string) error {
	if err := receiver.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	if content == "" && len(attachments) == 0 {
		return fmt.Errorf("%w: empty message", errors.ErrValidation)
	}
	if len(content) > s.maxContentLength {
		return fmt.Errorf("%w: content exceeds %d bytes", errors.ErrValidation, s.maxContentLength)
	}
	// Attachment URLs come from the object storage collaborator; the
	// core only checks they parse as absolute URLs.
	for _, raw := range attachments {
		u, err := url.Parse(raw)
		if err != nil || !u.IsAbs() {
			return fmt.Errorf("%w: malformed attachment url", errors.ErrValidation)
		}
	}
	return nil
}
