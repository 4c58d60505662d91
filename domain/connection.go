package domain

import (
	"time"

	"github.com/google/uuid"
)

type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionRejected ConnectionStatus = "rejected"
)

// Connection is a relationship record between two actors.
// pending is the initial state; accepted and rejected are terminal
// per record. A rejected record does not block a later new request
// between the same pair.
type Connection struct {
	ID        uuid.UUID        `json:"id"`
	Requester Actor            `json:"requester"`
	Receiver  Actor            `json:"receiver"`
	Status    ConnectionStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (c Connection) PairKey() string {
	return PairKey(c.Requester, c.Receiver)
}

// CanTransition reports whether a status change is allowed.
// The only edges are pending->accepted and pending->rejected.
func (c Connection) CanTransition(to ConnectionStatus) bool {
	return c.Status == ConnectionPending &&
		(to == ConnectionAccepted || to == ConnectionRejected)
}
