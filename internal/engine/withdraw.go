package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/openvenue/settlement/internal/guard"
	"github.com/openvenue/settlement/pkg/enums"
	"github.com/openvenue/settlement/pkg/journal"
)

// Pending returns the caller's withdrawable balance in one currency.
func (e *Engine) Pending(currency enums.Currency, recipient uuid.UUID) int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Treasury.PendingOf(currency, recipient)
}

// Withdraw debits the caller's full pending balance and pays it out. The
// balance is zeroed before the gateway call and restored if the payout
// fails, so nothing is ever withdrawable twice.
func (e *Engine) Withdraw(ctx context.Context, caller uuid.UUID, currency enums.Currency) (int64, error) {
	ctx, err := guard.Enter(ctx)
	if err != nil {
		e.metrics.IncGuardTrip()
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireNotBanned(caller); err != nil {
		return 0, err
	}
	amount, err := e.state.Treasury.Debit(currency, caller)
	if err != nil {
		return 0, err
	}
	if err := e.gateway.Pay(ctx, caller, currency, amount); err != nil {
		e.state.Treasury.Restore(currency, caller, amount)
		return 0, err
	}
	e.state.Treasury.MarkPaidOut(currency, amount)

	e.emit(journal.Entry{
		EventType:     enums.EventWithdrawal,
		AggregateType: enums.AggregateTreasury,
		AggregateID:   string(currency),
		Actor:         participantActor(caller),
		Data:          withdrawalPayload{Recipient: caller, Currency: string(currency), Amount: amount},
	})
	e.flush(ctx)
	e.metrics.ObserveWithdrawal(string(currency))

	return amount, nil
}
