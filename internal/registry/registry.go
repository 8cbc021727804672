// Package registry owns event metadata: tiers, payment splits, lifecycle
// status, and the per-venue bookkeeping behind venue credentials.
package registry

import (
	"time"

	"github.com/google/uuid"
	"github.com/openvenue/settlement/internal/token"
	"github.com/openvenue/settlement/pkg/enums"
	"github.com/openvenue/settlement/pkg/errors"
)

const (
	// BpsDenominator is the protocol whole for all share arithmetic.
	BpsDenominator = 10_000

	MaxNameLen  = 200
	MaxVenueLen = 200
)

// Tier is one price band of an event. Sold only ever increases; refunds do
// not return inventory.
type Tier struct {
	Name         string    `json:"name"`
	UnitPrice    int64     `json:"unit_price"`
	MaxSupply    uint16    `json:"max_supply"`
	Sold         uint16    `json:"sold"`
	SaleStart    time.Time `json:"sale_start"`
	SaleEnd      time.Time `json:"sale_end"`
	Transferable bool      `json:"transferable"`
}

// Split is one organizer-declared revenue share, immutable after creation.
type Split struct {
	Recipient uuid.UUID `json:"recipient"`
	ShareBps  int64     `json:"share_bps"`
}

// Event is the registry record. Start time and capacity never change after
// creation; status only moves active to cancelled.
type Event struct {
	ID               uint16            `json:"id"`
	Organizer        uuid.UUID         `json:"organizer"`
	Name             string            `json:"name"`
	Venue            string            `json:"venue"`
	VenueFingerprint [32]byte          `json:"venue_fingerprint"`
	VenueScope       uint16            `json:"venue_scope"`
	Currency         enums.Currency    `json:"currency"`
	Location         GeoPoint          `json:"location"`
	StartsAt         time.Time         `json:"starts_at"`
	EndsAt           time.Time         `json:"ends_at"`
	Capacity         uint32            `json:"capacity"`
	Visibility       enums.Visibility  `json:"visibility"`
	Status           enums.EventStatus `json:"status"`
	CancelledAt      *time.Time        `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	Tiers            []*Tier           `json:"tiers"`
	Splits           []Split           `json:"splits"`
}

// Registry holds all events keyed by their sequential id. Not safe for
// concurrent use on its own; the engine serializes access.
type Registry struct {
	Events      map[uint16]*Event `json:"events"`
	NextID      uint16            `json:"next_id"`
	VenueEvents map[uint16]uint32 `json:"venue_events"`
}

// NewRegistry returns an empty registry. Event ids start at 1 so a zero id
// is always invalid.
func NewRegistry() *Registry {
	return &Registry{
		Events:      map[uint16]*Event{},
		NextID:      1,
		VenueEvents: map[uint16]uint32{},
	}
}

// CreateParams is the caller-supplied half of an event record.
type CreateParams struct {
	Name       string
	Venue      string
	Currency   enums.Currency
	Location   GeoPoint
	StartsAt   time.Time
	EndsAt     time.Time
	Capacity   uint32
	Visibility enums.Visibility
	Tiers      []TierParams
	Splits     []Split
}

// TierParams is the caller-supplied half of a tier record.
type TierParams struct {
	Name         string
	UnitPrice    int64
	MaxSupply    uint16
	SaleStart    time.Time
	SaleEnd      time.Time
	Transferable bool
}

// CreateEvent validates the parameters, allocates the next event id, and
// stores the record. Splits are stored verbatim so distribution iterates
// them in the declared order. maxSplits is the configured split-count bound.
func (r *Registry) CreateEvent(organizer uuid.UUID, params CreateParams, maxSplits int, now time.Time) (*Event, error) {
	if err := validateCreate(params, maxSplits, now); err != nil {
		return nil, err
	}
	if r.NextID == 0 || uint64(r.NextID) > token.MaxEventID {
		return nil, errors.New(errors.CodeStateConflict, "event id space exhausted")
	}

	fingerprint := Fingerprint(params.Venue)
	event := &Event{
		ID:               r.NextID,
		Organizer:        organizer,
		Name:             params.Name,
		Venue:            params.Venue,
		VenueFingerprint: fingerprint,
		VenueScope:       ScopeOf(fingerprint),
		Currency:         params.Currency,
		Location:         params.Location,
		StartsAt:         params.StartsAt,
		EndsAt:           params.EndsAt,
		Capacity:         params.Capacity,
		Visibility:       params.Visibility,
		Status:           enums.EventStatusActive,
		CreatedAt:        now,
		Tiers:            make([]*Tier, 0, len(params.Tiers)),
		Splits:           append([]Split(nil), params.Splits...),
	}
	for _, t := range params.Tiers {
		event.Tiers = append(event.Tiers, &Tier{
			Name:         t.Name,
			UnitPrice:    t.UnitPrice,
			MaxSupply:    t.MaxSupply,
			SaleStart:    t.SaleStart,
			SaleEnd:      t.SaleEnd,
			Transferable: t.Transferable,
		})
	}

	r.Events[event.ID] = event
	r.NextID++
	r.VenueEvents[event.VenueScope]++
	return event, nil
}

func validateCreate(params CreateParams, maxSplits int, now time.Time) error {
	if params.Name == "" || len(params.Name) > MaxNameLen {
		return errors.New(errors.CodeValidation, "event name empty or too long")
	}
	if params.Venue == "" || len(params.Venue) > MaxVenueLen {
		return errors.New(errors.CodeValidation, "venue name empty or too long")
	}
	if !params.Currency.IsValid() {
		return errors.New(errors.CodeValidation, "invalid settlement currency")
	}
	if !params.Location.Valid() {
		return errors.New(errors.CodeValidation, "location out of coordinate range")
	}
	if !params.StartsAt.After(now) {
		return errors.New(errors.CodeValidation, "event start must be in the future")
	}
	if !params.EndsAt.After(params.StartsAt) {
		return errors.New(errors.CodeValidation, "event end must follow its start")
	}
	if params.Capacity == 0 {
		return errors.New(errors.CodeValidation, "event capacity must be positive")
	}
	if !params.Visibility.IsValid() {
		return errors.New(errors.CodeValidation, "invalid visibility")
	}
	if len(params.Tiers) == 0 {
		return errors.New(errors.CodeValidation, "at least one tier required")
	}
	// Tier indexes must fit the token codec's 16-bit scope slot.
	if len(params.Tiers) > token.MaxScopeID+1 {
		return errors.Newf(errors.CodeValidation, "tier count exceeds bound of %d", token.MaxScopeID+1)
	}
	var totalSupply uint64
	for i, t := range params.Tiers {
		if t.Name == "" || len(t.Name) > MaxNameLen {
			return errors.Newf(errors.CodeValidation, "tier %d name empty or too long", i)
		}
		if t.UnitPrice < 0 {
			return errors.Newf(errors.CodeValidation, "tier %d unit price must not be negative", i)
		}
		if t.MaxSupply == 0 {
			return errors.Newf(errors.CodeValidation, "tier %d max supply must be positive", i)
		}
		if !t.SaleEnd.After(t.SaleStart) {
			return errors.Newf(errors.CodeValidation, "tier %d sale window inverted", i)
		}
		totalSupply += uint64(t.MaxSupply)
	}
	if totalSupply > uint64(params.Capacity) {
		return errors.New(errors.CodeValidation, "tier supplies exceed event capacity")
	}
	if len(params.Splits) == 0 {
		return errors.New(errors.CodeValidation, "at least one payment split required")
	}
	if len(params.Splits) > maxSplits {
		return errors.Newf(errors.CodeValidation, "split count exceeds bound of %d", maxSplits)
	}
	var shareSum int64
	for i, s := range params.Splits {
		if s.Recipient == uuid.Nil {
			return errors.Newf(errors.CodeValidation, "split %d recipient must not be zero", i)
		}
		if s.ShareBps <= 0 {
			return errors.Newf(errors.CodeValidation, "split %d share must be positive", i)
		}
		shareSum += s.ShareBps
	}
	if shareSum != BpsDenominator {
		return errors.Newf(errors.CodeValidation, "split shares sum to %d, want %d", shareSum, BpsDenominator)
	}
	return nil
}

// CancelEvent flips an active event to cancelled. Only the organizer may
// cancel, and only before the event starts. Ledgers are untouched; refunds
// read the payer book lazily.
func (r *Registry) CancelEvent(eventID uint16, caller uuid.UUID, now time.Time) (*Event, error) {
	event, err := r.Get(eventID)
	if err != nil {
		return nil, err
	}
	if event.Organizer != caller {
		return nil, errors.New(errors.CodeForbidden, "only the organizer can cancel")
	}
	if event.Status == enums.EventStatusCancelled {
		return nil, errors.New(errors.CodeStateConflict, "event already cancelled")
	}
	if !now.Before(event.StartsAt) {
		return nil, errors.New(errors.CodeStateConflict, "event already started")
	}
	cancelledAt := now
	event.Status = enums.EventStatusCancelled
	event.CancelledAt = &cancelledAt
	return event, nil
}

// Get returns the event or a not-found error.
func (r *Registry) Get(eventID uint16) (*Event, error) {
	event, ok := r.Events[eventID]
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "event not found")
	}
	return event, nil
}

// TierOf returns one tier of an event by index.
func (e *Event) TierOf(tierIdx uint16) (*Tier, error) {
	if int(tierIdx) >= len(e.Tiers) {
		return nil, errors.New(errors.CodeNotFound, "tier not found")
	}
	return e.Tiers[tierIdx], nil
}

// Exists reports whether the event id is registered.
func (r *Registry) Exists(eventID uint16) bool {
	_, ok := r.Events[eventID]
	return ok
}

// IsOrganizer reports whether the participant organizes the event.
func (r *Registry) IsOrganizer(eventID uint16, participant uuid.UUID) bool {
	event, ok := r.Events[eventID]
	return ok && event.Organizer == participant
}

// VisibilityOf returns the event's visibility for invite gating. Unknown
// events read as private so collaborators fail closed.
func (r *Registry) VisibilityOf(eventID uint16) enums.Visibility {
	event, ok := r.Events[eventID]
	if !ok {
		return enums.VisibilityPrivate
	}
	return event.Visibility
}
