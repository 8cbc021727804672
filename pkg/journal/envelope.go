package journal

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/openvenue/settlement/pkg/enums"
)

// ActorRef identifies who triggered the transition.
type ActorRef struct {
	CallerID uuid.UUID       `json:"callerId"`
	Role     enums.ActorRole `json:"role,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in journal_entries
// and relayed verbatim to the journal topic. External indexers reconstruct
// all history from these; there is no list-everything query.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
