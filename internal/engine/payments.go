package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/openvenue/settlement/internal/guard"
	"github.com/openvenue/settlement/internal/pricing"
	"github.com/openvenue/settlement/internal/registry"
	"github.com/openvenue/settlement/internal/token"
	"github.com/openvenue/settlement/internal/treasury"
	"github.com/openvenue/settlement/pkg/enums"
	"github.com/openvenue/settlement/pkg/errors"
	"github.com/openvenue/settlement/pkg/journal"
)

// PurchaseRequest buys quantity units of one tier. MaxPayment caps what the
// engine may pull; the pull is always for the exact computed price.
type PurchaseRequest struct {
	EventID    uint16
	Tier       uint16
	Quantity   int64
	MaxPayment int64
	Platform   *treasury.PlatformFee
}

// PurchaseResult reports the minted tickets and where the payment went.
type PurchaseResult struct {
	TicketIDs    []token.ID            `json:"ticket_ids"`
	Quote        pricing.Quote         `json:"quote"`
	Distribution treasury.Distribution `json:"distribution"`
}

// Purchase validates, pulls the exact price into custody, then mints and
// distributes in one transition. Everything that can fail is checked before
// the pull; after it, only the gateway's own success has external effect.
func (e *Engine) Purchase(ctx context.Context, payer uuid.UUID, req PurchaseRequest) (PurchaseResult, error) {
	ctx, err := guard.Enter(ctx)
	if err != nil {
		e.metrics.IncGuardTrip()
		return PurchaseResult{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireNotBanned(payer); err != nil {
		return PurchaseResult{}, err
	}
	event, tier, err := e.activeTier(req.EventID, req.Tier)
	if err != nil {
		return PurchaseResult{}, err
	}
	quote, err := e.quoter.Price(tier, req.Quantity, e.clock())
	if err != nil {
		return PurchaseResult{}, err
	}
	if quote.Total > req.MaxPayment {
		return PurchaseResult{}, errors.Newf(errors.CodeEconomic, "price %d exceeds payment cap %d", quote.Total, req.MaxPayment)
	}
	if err := e.state.Treasury.ValidateDistribution(event.Currency, quote.Total, payer, req.Platform); err != nil {
		return PurchaseResult{}, err
	}

	if err := e.gateway.Pull(ctx, payer, event.Currency, quote.Total); err != nil {
		return PurchaseResult{}, err
	}

	dist, err := e.state.Treasury.Distribute(event.Currency, quote.Total, payer, event.Splits, req.Platform)
	if err != nil {
		// Preconditions were validated before the pull; give the money
		// back and surface whatever slipped through.
		if payErr := e.gateway.Pay(ctx, payer, event.Currency, quote.Total); payErr != nil && e.logg != nil {
			e.logg.Error(ctx, "returning funds after failed distribution", payErr)
		}
		return PurchaseResult{}, err
	}

	ticketIDs := make([]token.ID, 0, req.Quantity)
	rawIDs := make([]uint64, 0, req.Quantity)
	for i := int64(0); i < req.Quantity; i++ {
		tier.Sold++
		id := token.TicketID(event.ID, req.Tier, tier.Sold)
		if err := e.state.Ledger.Mint(payer, id, 1); err != nil {
			return PurchaseResult{}, err
		}
		ticketIDs = append(ticketIDs, id)
		rawIDs = append(rawIDs, uint64(id))
	}
	e.state.Refunds.Record(event.ID, payer, enums.RefundKindTickets, quote.Total)

	e.emit(journal.Entry{
		EventType:     enums.EventTicketsPurchased,
		AggregateType: enums.AggregateEvent,
		AggregateID:   eventAggregateID(event.ID),
		Actor:         participantActor(payer),
		Data: purchasePayload{
			EventID:      event.ID,
			Tier:         req.Tier,
			Payer:        payer,
			Quantity:     req.Quantity,
			TicketIDs:    rawIDs,
			Distribution: dist,
		},
	})
	e.emit(journal.Entry{
		EventType:     enums.EventPaymentDistributed,
		AggregateType: enums.AggregateTreasury,
		AggregateID:   string(event.Currency),
		Actor:         participantActor(payer),
		Data:          dist,
	})
	e.flush(ctx)
	e.metrics.ObservePurchase(string(event.Currency), quote.Total)

	return PurchaseResult{TicketIDs: ticketIDs, Quote: quote, Distribution: dist}, nil
}

// TipRequest sends a voluntary amount through the event's distribution.
type TipRequest struct {
	EventID  uint16
	Amount   int64
	Platform *treasury.PlatformFee
}

// Tip pulls the amount and distributes it like a purchase, without minting.
func (e *Engine) Tip(ctx context.Context, payer uuid.UUID, req TipRequest) (treasury.Distribution, error) {
	ctx, err := guard.Enter(ctx)
	if err != nil {
		e.metrics.IncGuardTrip()
		return treasury.Distribution{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireNotBanned(payer); err != nil {
		return treasury.Distribution{}, err
	}
	if req.Amount <= 0 {
		return treasury.Distribution{}, errors.New(errors.CodeValidation, "tip amount must be positive")
	}
	event, err := e.state.Registry.Get(req.EventID)
	if err != nil {
		return treasury.Distribution{}, err
	}
	if event.Status != enums.EventStatusActive {
		return treasury.Distribution{}, errors.New(errors.CodeStateConflict, "event is not active")
	}
	if err := e.state.Treasury.ValidateDistribution(event.Currency, req.Amount, payer, req.Platform); err != nil {
		return treasury.Distribution{}, err
	}

	if err := e.gateway.Pull(ctx, payer, event.Currency, req.Amount); err != nil {
		return treasury.Distribution{}, err
	}
	dist, err := e.state.Treasury.Distribute(event.Currency, req.Amount, payer, event.Splits, req.Platform)
	if err != nil {
		if payErr := e.gateway.Pay(ctx, payer, event.Currency, req.Amount); payErr != nil && e.logg != nil {
			e.logg.Error(ctx, "returning funds after failed distribution", payErr)
		}
		return treasury.Distribution{}, err
	}
	e.state.Refunds.Record(event.ID, payer, enums.RefundKindTips, req.Amount)

	e.emit(journal.Entry{
		EventType:     enums.EventTipReceived,
		AggregateType: enums.AggregateEvent,
		AggregateID:   eventAggregateID(event.ID),
		Actor:         participantActor(payer),
		Data:          tipPayload{EventID: event.ID, Payer: payer, Distribution: dist},
	})
	e.flush(ctx)
	e.metrics.ObserveTip(string(event.Currency), req.Amount)

	return dist, nil
}

func (e *Engine) activeTier(eventID, tierIdx uint16) (*registry.Event, *registry.Tier, error) {
	event, err := e.state.Registry.Get(eventID)
	if err != nil {
		return nil, nil, err
	}
	if event.Status != enums.EventStatusActive {
		return nil, nil, errors.New(errors.CodeStateConflict, "event is not active")
	}
	tier, err := event.TierOf(tierIdx)
	if err != nil {
		return nil, nil, err
	}
	return event, tier, nil
}
