package engine

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/openvenue/settlement/internal/token"
	"github.com/openvenue/settlement/internal/treasury"
)

// Journal payloads. Versioned through the envelope; field renames need a
// version bump.

type mintPayload struct {
	TokenID uint64    `json:"tokenId"`
	Holder  uuid.UUID `json:"holder"`
	Amount  int64     `json:"amount"`
}

type transferPayload struct {
	TokenID   uint64    `json:"tokenId"`
	Owner     uuid.UUID `json:"owner"`
	Recipient uuid.UUID `json:"recipient"`
	Amount    int64     `json:"amount"`
}

type purchasePayload struct {
	EventID      uint16                `json:"eventId"`
	Tier         uint16                `json:"tier"`
	Payer        uuid.UUID             `json:"payer"`
	Quantity     int64                 `json:"quantity"`
	TicketIDs    []uint64              `json:"ticketIds"`
	Distribution treasury.Distribution `json:"distribution"`
}

type tipPayload struct {
	EventID      uint16                `json:"eventId"`
	Payer        uuid.UUID             `json:"payer"`
	Distribution treasury.Distribution `json:"distribution"`
}

type withdrawalPayload struct {
	Recipient uuid.UUID `json:"recipient"`
	Currency  string    `json:"currency"`
	Amount    int64     `json:"amount"`
}

type refundPayload struct {
	EventID uint16    `json:"eventId"`
	Payer   uuid.UUID `json:"payer"`
	Kind    string    `json:"kind"`
	Amount  int64     `json:"amount"`
	Forced  bool      `json:"forced,omitempty"`
}

type checkinPayload struct {
	EventID uint16    `json:"eventId"`
	Holder  uuid.UUID `json:"holder"`
	BadgeID uint64    `json:"badgeId"`
}

func eventAggregateID(eventID uint16) string {
	return strconv.FormatUint(uint64(eventID), 10)
}

func tokenAggregateID(id token.ID) string {
	return strconv.FormatUint(uint64(id), 10)
}
