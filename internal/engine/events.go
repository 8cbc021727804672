package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/openvenue/settlement/internal/registry"
	"github.com/openvenue/settlement/internal/token"
	"github.com/openvenue/settlement/pkg/enums"
	"github.com/openvenue/settlement/pkg/errors"
	"github.com/openvenue/settlement/pkg/journal"
)

// CreateEventResult reports a created event and the credentials minted
// alongside it.
type CreateEventResult struct {
	EventID             uint16    `json:"event_id"`
	OrganizerCredential token.ID  `json:"organizer_credential"`
	VenueCredential     *token.ID `json:"venue_credential,omitempty"`
}

// CreateEvent registers an event, mints the organizer credential, and mints
// a venue credential when the organizer has none for the venue.
func (e *Engine) CreateEvent(ctx context.Context, organizer uuid.UUID, params registry.CreateParams) (CreateEventResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireNotBanned(organizer); err != nil {
		return CreateEventResult{}, err
	}
	if _, ok := e.state.Treasury.Allowed[params.Currency]; !ok {
		return CreateEventResult{}, errors.Newf(errors.CodeEconomic, "currency %s not allow-listed", params.Currency)
	}

	event, err := e.state.Registry.CreateEvent(organizer, params, e.cfg.MaxSplits, e.clock())
	if err != nil {
		return CreateEventResult{}, err
	}

	result := CreateEventResult{EventID: event.ID}

	orgCred := token.OrganizerCredID(event.ID)
	if err := e.state.Ledger.Mint(organizer, orgCred, 1); err != nil {
		return CreateEventResult{}, err
	}
	result.OrganizerCredential = orgCred
	e.emit(journal.Entry{
		EventType:     enums.EventCredentialMinted,
		AggregateType: enums.AggregateToken,
		AggregateID:   tokenAggregateID(orgCred),
		Actor:         participantActor(organizer),
		Data:          mintPayload{TokenID: uint64(orgCred), Holder: organizer, Amount: 1},
	})

	venueCred := token.VenueCredID(event.VenueScope)
	if !e.state.Ledger.HoldsAny(organizer, venueCred) {
		if err := e.state.Ledger.Mint(organizer, venueCred, 1); err != nil {
			return CreateEventResult{}, err
		}
		result.VenueCredential = &venueCred
		e.emit(journal.Entry{
			EventType:     enums.EventCredentialMinted,
			AggregateType: enums.AggregateToken,
			AggregateID:   tokenAggregateID(venueCred),
			Actor:         participantActor(organizer),
			Data:          mintPayload{TokenID: uint64(venueCred), Holder: organizer, Amount: 1},
		})
	}

	e.emit(journal.Entry{
		EventType:     enums.EventEventCreated,
		AggregateType: enums.AggregateEvent,
		AggregateID:   eventAggregateID(event.ID),
		Actor:         participantActor(organizer),
		Data:          event,
	})
	e.flush(ctx)
	return result, nil
}

// CancelEvent flips an active event to cancelled before it starts. Ledgers
// are untouched; refund claims read the payer book afterwards.
func (e *Engine) CancelEvent(ctx context.Context, caller uuid.UUID, eventID uint16) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	event, err := e.state.Registry.CancelEvent(eventID, caller, e.clock())
	if err != nil {
		return err
	}
	e.emit(journal.Entry{
		EventType:     enums.EventEventCancelled,
		AggregateType: enums.AggregateEvent,
		AggregateID:   eventAggregateID(eventID),
		Actor:         participantActor(caller),
		Data:          map[string]any{"cancelledAt": event.CancelledAt},
	})
	e.flush(ctx)
	return nil
}
