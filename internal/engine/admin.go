package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/openvenue/settlement/pkg/enums"
	"github.com/openvenue/settlement/pkg/journal"
)

// SetProtocolFee reconfigures the global protocol fee within its bound.
func (e *Engine) SetProtocolFee(ctx context.Context, admin uuid.UUID, bps int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.state.Treasury.SetProtocolFee(bps); err != nil {
		return err
	}
	e.emit(journal.Entry{
		EventType:     enums.EventProtocolFeeUpdated,
		AggregateType: enums.AggregateProtocol,
		AggregateID:   "protocol",
		Actor:         adminActor(admin),
		Data:          map[string]any{"feeBps": bps},
	})
	e.flush(ctx)
	return nil
}

// AllowCurrency admits an external currency for payments.
func (e *Engine) AllowCurrency(ctx context.Context, admin uuid.UUID, currency enums.Currency, exponent int32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.state.Treasury.AllowCurrency(currency, exponent); err != nil {
		return err
	}
	e.emit(journal.Entry{
		EventType:     enums.EventCurrencyAllowed,
		AggregateType: enums.AggregateProtocol,
		AggregateID:   string(currency),
		Actor:         adminActor(admin),
		Data:          map[string]any{"currency": currency, "exponent": exponent},
	})
	e.flush(ctx)
	return nil
}

// BanParticipant blocks a participant from every value-moving entry point.
// Funds already pending remain withdrawable once the ban is lifted.
func (e *Engine) BanParticipant(ctx context.Context, admin uuid.UUID, participant uuid.UUID, banned bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if banned {
		e.state.Banned[participant] = true
	} else {
		delete(e.state.Banned, participant)
	}
	e.emit(journal.Entry{
		EventType:     enums.EventParticipantBanned,
		AggregateType: enums.AggregateParticipant,
		AggregateID:   participant.String(),
		Actor:         adminActor(admin),
		Data:          map[string]any{"banned": banned},
	})
	e.flush(ctx)
	return nil
}
