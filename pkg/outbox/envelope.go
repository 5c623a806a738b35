package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
)

// ActorRef identifies the staff member that produced the event.
type ActorRef struct {
	UserID uuid.UUID       `json:"userId"`
	Role   enums.StaffRole `json:"role,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// ActorFromID returns a reference for the acting staff member, or nil for
// system-initiated events.
func ActorFromID(id *uuid.UUID) *ActorRef {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return &ActorRef{UserID: *id}
}
