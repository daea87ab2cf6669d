package notifications

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies availability push messages
type EventType string

const (
	EventAvailability EventType = "availability"
	EventStatus       EventType = "status"
)

// Event is one push message sent to subscribed product pages. Clients only
// render what the server reports; they never compute availability locally.
type Event struct {
	Type      EventType `json:"type"`
	ProductID uuid.UUID `json:"product_id"`
	Available *int      `json:"available,omitempty"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
