package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/openvenue/settlement/internal/token"
	"github.com/openvenue/settlement/pkg/enums"
	"github.com/openvenue/settlement/pkg/errors"
	"github.com/openvenue/settlement/pkg/journal"
)

// BalanceOf returns the holder's balance for one token id.
func (e *Engine) BalanceOf(holder uuid.UUID, id token.ID) int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Ledger.BalanceOf(holder, id)
}

// Allowance returns the remaining grant from owner to spender for id.
func (e *Engine) Allowance(owner, spender uuid.UUID, id token.ID) int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Ledger.Allowance(owner, spender, id)
}

// IsOperator reports whether operator holds blanket rights over owner.
func (e *Engine) IsOperator(owner, operator uuid.UUID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Ledger.IsOperator(owner, operator)
}

// Transfer moves ticket units between holders. Beyond the ledger's own
// soulbound and authority rules, a ticket whose tier was declared
// non-transferable stays put.
func (e *Engine) Transfer(ctx context.Context, caller, owner, recipient uuid.UUID, id token.ID, amount int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireNotBanned(caller); err != nil {
		return err
	}
	if id.Class() == enums.AssetClassEventTicket {
		fields := id.Decode()
		event, err := e.state.Registry.Get(fields.Event)
		if err != nil {
			return err
		}
		tier, err := event.TierOf(fields.Scope)
		if err != nil {
			return err
		}
		if !tier.Transferable {
			return errors.New(errors.CodeStateConflict, "tier tickets are non-transferable")
		}
	}
	if err := e.state.Ledger.Transfer(caller, owner, recipient, id, amount); err != nil {
		return err
	}

	e.emit(journal.Entry{
		EventType:     enums.EventTokenTransferred,
		AggregateType: enums.AggregateToken,
		AggregateID:   tokenAggregateID(id),
		Actor:         participantActor(caller),
		Data:          transferPayload{TokenID: uint64(id), Owner: owner, Recipient: recipient, Amount: amount},
	})
	e.flush(ctx)
	return nil
}

// Approve grants spender a transfer allowance over the caller's balance.
func (e *Engine) Approve(ctx context.Context, caller, spender uuid.UUID, id token.ID, amount int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireNotBanned(caller); err != nil {
		return err
	}
	err := e.state.Ledger.Approve(caller, spender, id, amount)
	e.flush(ctx)
	return err
}

// SetOperator grants or revokes blanket transfer rights over the caller's
// transferable tokens.
func (e *Engine) SetOperator(ctx context.Context, caller, operator uuid.UUID, approved bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireNotBanned(caller); err != nil {
		return err
	}
	err := e.state.Ledger.SetOperator(caller, operator, approved)
	e.flush(ctx)
	return err
}

// CheckIn mints the attendance badge for a ticket holder once the event has
// started. One badge per holder per event; a second check-in is rejected.
func (e *Engine) CheckIn(ctx context.Context, holder uuid.UUID, eventID uint16) (token.ID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireNotBanned(holder); err != nil {
		return 0, err
	}
	event, err := e.state.Registry.Get(eventID)
	if err != nil {
		return 0, err
	}
	if event.Status != enums.EventStatusActive {
		return 0, errors.New(errors.CodeStateConflict, "event is not active")
	}
	now := e.clock()
	if now.Before(event.StartsAt) {
		return 0, errors.New(errors.CodeStateConflict, "event has not started")
	}
	if !now.Before(event.EndsAt) {
		return 0, errors.New(errors.CodeStateConflict, "event has ended")
	}
	if !e.state.Ledger.HoldsTicketFor(holder, eventID) {
		return 0, errors.New(errors.CodeForbidden, "no ticket for this event")
	}
	badge := token.BadgeID(eventID)
	if e.state.Ledger.HoldsAny(holder, badge) {
		return 0, errors.New(errors.CodeStateConflict, "already checked in")
	}
	if err := e.state.Ledger.Mint(holder, badge, 1); err != nil {
		return 0, err
	}

	e.emit(journal.Entry{
		EventType:     enums.EventCheckedIn,
		AggregateType: enums.AggregateEvent,
		AggregateID:   eventAggregateID(eventID),
		Actor:         participantActor(holder),
		Data:          checkinPayload{EventID: eventID, Holder: holder, BadgeID: uint64(badge)},
	})
	e.flush(ctx)
	return badge, nil
}
