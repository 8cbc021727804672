package engine

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/openvenue/settlement/internal/guard"
	"github.com/openvenue/settlement/internal/registry"
	"github.com/openvenue/settlement/pkg/enums"
	"github.com/openvenue/settlement/pkg/errors"
	"github.com/openvenue/settlement/pkg/journal"
)

// ClaimRefund pays back what the caller spent on one purpose for a
// cancelled event. The book entry is zeroed before the payout and restored
// if the payout fails; a second claim finds nothing and transfers nothing.
func (e *Engine) ClaimRefund(ctx context.Context, payer uuid.UUID, eventID uint16, kind enums.RefundKind) (int64, error) {
	ctx, err := guard.Enter(ctx)
	if err != nil {
		e.metrics.IncGuardTrip()
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireNotBanned(payer); err != nil {
		return 0, err
	}
	event, err := e.refundableEvent(eventID, false)
	if err != nil {
		return 0, err
	}
	amount, err := e.payRefund(ctx, event, payer, kind, false, participantActor(payer))
	if err != nil {
		return 0, err
	}
	e.flush(ctx)
	return amount, nil
}

// ForceRefunds is the administrator fallback: it pushes both refund kinds
// to every listed payer of a cancelled event, ignoring the claim deadline.
// Failures are collected per payer and purpose; one failed payout does not
// stop the batch.
func (e *Engine) ForceRefunds(ctx context.Context, admin uuid.UUID, eventID uint16, payers []uuid.UUID) error {
	ctx, err := guard.Enter(ctx)
	if err != nil {
		e.metrics.IncGuardTrip()
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	event, err := e.refundableEvent(eventID, true)
	if err != nil {
		return err
	}
	if len(payers) == 0 {
		payers = e.state.Refunds.Payers(eventID)
	}

	var failures error
	for _, payer := range payers {
		for _, kind := range []enums.RefundKind{enums.RefundKindTickets, enums.RefundKindTips} {
			if e.state.Refunds.Owed(eventID, payer, kind) == 0 {
				continue
			}
			if _, err := e.payRefund(ctx, event, payer, kind, true, adminActor(admin)); err != nil {
				failures = multierr.Append(failures, errors.Wrap(errors.As(err).Code(), err,
					"refunding "+string(kind)+" for "+payer.String()))
			}
		}
	}
	e.flush(ctx)
	return failures
}

// refundableEvent checks the event is cancelled and, unless forced, that
// the claim deadline has not passed.
func (e *Engine) refundableEvent(eventID uint16, forced bool) (*registry.Event, error) {
	event, err := e.state.Registry.Get(eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != enums.EventStatusCancelled || event.CancelledAt == nil {
		return nil, errors.New(errors.CodeStateConflict, "event is not cancelled")
	}
	if !forced && !e.clock().Before(event.CancelledAt.Add(e.cfg.RefundWindow)) {
		return nil, errors.New(errors.CodeStateConflict, "refund window closed")
	}
	return event, nil
}

// payRefund zeroes the entry, pays from custody, and restores on failure.
func (e *Engine) payRefund(ctx context.Context, event *registry.Event, payer uuid.UUID, kind enums.RefundKind, forced bool, actor *journal.ActorRef) (int64, error) {
	amount, err := e.state.Refunds.Claim(event.ID, payer, kind)
	if err != nil {
		return 0, err
	}
	if err := e.gateway.Pay(ctx, payer, event.Currency, amount); err != nil {
		e.state.Refunds.Record(event.ID, payer, kind, amount)
		return 0, err
	}
	e.state.Treasury.MarkPaidOut(event.Currency, amount)

	eventType := enums.EventRefundClaimed
	if forced {
		eventType = enums.EventRefundForced
	}
	e.emit(journal.Entry{
		EventType:     eventType,
		AggregateType: enums.AggregateEvent,
		AggregateID:   eventAggregateID(event.ID),
		Actor:         actor,
		Data:          refundPayload{EventID: event.ID, Payer: payer, Kind: string(kind), Amount: amount, Forced: forced},
	})
	e.metrics.ObserveRefund(string(event.Currency), string(kind))
	return amount, nil
}
