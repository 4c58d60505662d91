package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationTTL bounds storage growth: every notification carries an
// immutable expiry stamped at creation and is deleted by the reaper
// once past it.
const NotificationTTL = 30 * 24 * time.Hour

type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationCompleted NotificationStatus = "completed"
	NotificationExpired   NotificationStatus = "expired"
)

type Notification struct {
	ID        uuid.UUID          `json:"id"`
	Type      string             `json:"type"`
	Message   string             `json:"message"`
	Sender    Actor              `json:"sender"`
	Receiver  Actor              `json:"receiver"`
	IsRead    bool               `json:"is_read"`
	Status    NotificationStatus `json:"status"`
	RelatedID string             `json:"related_id"`
	ExpiresAt time.Time          `json:"expires_at"`
	CreatedAt time.Time          `json:"created_at"`
}

func (n Notification) Expired(now time.Time) bool {
	return n.Status == NotificationExpired || now.After(n.ExpiresAt)
}
