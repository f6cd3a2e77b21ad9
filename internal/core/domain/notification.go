package domain

import (
	"errors"
	"time"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Notification is a per-recipient inbox entry. It is created only by the
// dispatcher in response to an appointment event, and mutated only by its
// owner marking it read. The deep link is embedded as a plain URL rather than
// a foreign key so the notification survives appointment deletion.
type Notification struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	OwnerID   string    `json:"owner_id" bson:"owner_id"`
	Message   string    `json:"message" bson:"message"`
	URL       string    `json:"url,omitempty" bson:"url,omitempty"`
	Read      bool      `json:"read" bson:"read"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
