package domain

import (
	"time"

	"github.com/google/uuid"
)

// conversationNamespace seeds the deterministic conversation ids.
// Changing it would orphan every stored conversation.
var conversationNamespace = uuid.MustParse("9f2c1af7-6b57-4c35-9f39-d2a1c0a52b18")

// Message represents an immutable conversation event between two actors.
// Attachments are opaque URLs handed out by the object storage collaborator.
type Message struct {
	ID             uuid.UUID `json:"id"`
	Sender         Actor     `json:"sender"`
	Receiver       Actor     `json:"receiver"`
	Content        string    `json:"content"`
	Attachments    []string  `json:"attachments,omitempty"`
	IsRead         bool      `json:"is_read"`
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// Conversation is a read-model summary for one participant.
type Conversation struct {
	ID          string  `json:"id"`
	Peer        Actor   `json:"peer"`
	LastMessage Message `json:"last_message"`
	UnreadCount int     `json:"unread_count"`
}

// ConversationID derives the conversation identity from the participant
// pair. Both directions resolve to the same id.
func ConversationID(a, b Actor) string {
	return uuid.NewSHA1(conversationNamespace, []byte(PairKey(a, b))).String()
}
