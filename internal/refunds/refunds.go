// Package refunds tracks exactly what each payer spent per event, split by
// purpose, so a cancellation can make payers whole without clawing back
// funds already distributed to recipients.
package refunds

import (
	"github.com/google/uuid"
	"github.com/openvenue/settlement/pkg/enums"
	"github.com/openvenue/settlement/pkg/errors"
)

// Entry is one payer's running totals for one event. Each side is zeroed
// independently when its refund is claimed.
type Entry struct {
	TicketPaid int64 `json:"ticket_paid"`
	TipPaid    int64 `json:"tip_paid"`
}

// Book is the per-event payer ledger. Not safe for concurrent use on its
// own; the engine serializes access.
type Book struct {
	Entries map[uint16]map[uuid.UUID]*Entry `json:"entries"`
}

// NewBook returns an empty payer ledger.
func NewBook() *Book {
	return &Book{Entries: map[uint16]map[uuid.UUID]*Entry{}}
}

// Record adds a completed payment to the payer's running total for the
// event. Amounts accumulate across purchases; refunds later return the sum.
func (b *Book) Record(eventID uint16, payer uuid.UUID, kind enums.RefundKind, amount int64) {
	if amount <= 0 {
		return
	}
	byPayer := b.Entries[eventID]
	if byPayer == nil {
		byPayer = map[uuid.UUID]*Entry{}
		b.Entries[eventID] = byPayer
	}
	entry := byPayer[payer]
	if entry == nil {
		entry = &Entry{}
		byPayer[payer] = entry
	}
	switch kind {
	case enums.RefundKindTips:
		entry.TipPaid += amount
	default:
		entry.TicketPaid += amount
	}
}

// Owed returns the payer's refundable amount for one purpose.
func (b *Book) Owed(eventID uint16, payer uuid.UUID, kind enums.RefundKind) int64 {
	entry := b.Entries[eventID][payer]
	if entry == nil {
		return 0
	}
	if kind == enums.RefundKindTips {
		return entry.TipPaid
	}
	return entry.TicketPaid
}

// Claim zeroes the payer's entry for the purpose and returns the amount to
// pay out. A zero entry, including one already claimed, is a state
// conflict; the caller restores via Record if the payout fails afterwards.
func (b *Book) Claim(eventID uint16, payer uuid.UUID, kind enums.RefundKind) (int64, error) {
	entry := b.Entries[eventID][payer]
	if entry == nil {
		return 0, errors.New(errors.CodeStateConflict, "no refundable balance")
	}
	var amount int64
	switch kind {
	case enums.RefundKindTips:
		amount, entry.TipPaid = entry.TipPaid, 0
	default:
		amount, entry.TicketPaid = entry.TicketPaid, 0
	}
	if amount == 0 {
		return 0, errors.New(errors.CodeStateConflict, "no refundable balance")
	}
	return amount, nil
}

// Payers returns every payer with a recorded entry for the event. Order is
// unspecified.
func (b *Book) Payers(eventID uint16) []uuid.UUID {
	byPayer := b.Entries[eventID]
	out := make([]uuid.UUID, 0, len(byPayer))
	for payer := range byPayer {
		out = append(out, payer)
	}
	return out
}
