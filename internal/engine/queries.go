package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/openvenue/settlement/internal/pricing"
	"github.com/openvenue/settlement/pkg/enums"
	"github.com/openvenue/settlement/pkg/money"
)

// TierDetail is the public view of one tier.
type TierDetail struct {
	Index        uint16    `json:"index"`
	Name         string    `json:"name"`
	UnitPrice    int64     `json:"unit_price"`
	MaxSupply    uint16    `json:"max_supply"`
	Sold         uint16    `json:"sold"`
	SaleStart    time.Time `json:"sale_start"`
	SaleEnd      time.Time `json:"sale_end"`
	Transferable bool      `json:"transferable"`
}

// EventDetail is the public view of one event.
type EventDetail struct {
	ID         uint16            `json:"id"`
	Organizer  uuid.UUID         `json:"organizer"`
	Name       string            `json:"name"`
	Venue      string            `json:"venue"`
	Currency   enums.Currency    `json:"currency"`
	LatE7      int32             `json:"lat_e7"`
	LngE7      int32             `json:"lng_e7"`
	StartsAt   time.Time         `json:"starts_at"`
	EndsAt     time.Time         `json:"ends_at"`
	Capacity   uint32            `json:"capacity"`
	Visibility enums.Visibility  `json:"visibility"`
	Status     enums.EventStatus `json:"status"`
	Tiers      []TierDetail      `json:"tiers"`
}

// Event returns the public detail of one event.
func (e *Engine) Event(eventID uint16) (EventDetail, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	event, err := e.state.Registry.Get(eventID)
	if err != nil {
		return EventDetail{}, err
	}
	detail := EventDetail{
		ID:         event.ID,
		Organizer:  event.Organizer,
		Name:       event.Name,
		Venue:      event.Venue,
		Currency:   event.Currency,
		LatE7:      event.Location.LatE7,
		LngE7:      event.Location.LngE7,
		StartsAt:   event.StartsAt,
		EndsAt:     event.EndsAt,
		Capacity:   event.Capacity,
		Visibility: event.Visibility,
		Status:     event.Status,
		Tiers:      make([]TierDetail, 0, len(event.Tiers)),
	}
	for i, tier := range event.Tiers {
		detail.Tiers = append(detail.Tiers, TierDetail{
			Index:        uint16(i),
			Name:         tier.Name,
			UnitPrice:    tier.UnitPrice,
			MaxSupply:    tier.MaxSupply,
			Sold:         tier.Sold,
			SaleStart:    tier.SaleStart,
			SaleEnd:      tier.SaleEnd,
			Transferable: tier.Transferable,
		})
	}
	return detail, nil
}

// QuoteDetail is a price quote with its display rendering.
type QuoteDetail struct {
	pricing.Quote
	Currency enums.Currency `json:"currency"`
	Display  string         `json:"display"`
}

// Quote prices a prospective purchase without touching any state.
func (e *Engine) Quote(eventID, tierIdx uint16, quantity int64) (QuoteDetail, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	event, tier, err := e.activeTier(eventID, tierIdx)
	if err != nil {
		return QuoteDetail{}, err
	}
	quote, err := e.quoter.Price(tier, quantity, e.clock())
	if err != nil {
		return QuoteDetail{}, err
	}
	exponent, err := e.state.Treasury.ExponentOf(event.Currency)
	if err != nil {
		return QuoteDetail{}, err
	}
	return QuoteDetail{
		Quote:    quote,
		Currency: event.Currency,
		Display:  money.DisplayString(quote.Total, exponent),
	}, nil
}

// EventExists reports whether the event id is registered. Collaborator
// query; no invariant rides on it.
func (e *Engine) EventExists(eventID uint16) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Registry.Exists(eventID)
}

// IsOrganizer reports whether the participant organizes the event.
func (e *Engine) IsOrganizer(eventID uint16, participant uuid.UUID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Registry.IsOrganizer(eventID, participant)
}

// EventVisibility returns the event's visibility, private for unknown ids.
func (e *Engine) EventVisibility(eventID uint16) enums.Visibility {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Registry.VisibilityOf(eventID)
}

// RefundOwed returns what the payer could currently claim for one purpose.
func (e *Engine) RefundOwed(eventID uint16, payer uuid.UUID, kind enums.RefundKind) int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Refunds.Owed(eventID, payer, kind)
}
