package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/openvenue/settlement/api/responses"
	"github.com/openvenue/settlement/api/validators"
	"github.com/openvenue/settlement/internal/engine"
	"github.com/openvenue/settlement/internal/registry"
	"github.com/openvenue/settlement/pkg/enums"
	pkgerrors "github.com/openvenue/settlement/pkg/errors"
	"github.com/openvenue/settlement/pkg/logger"
)

type tierPayload struct {
	Name         string    `json:"name" validate:"required"`
	UnitPrice    int64     `json:"unit_price" validate:"min=0"`
	MaxSupply    uint16    `json:"max_supply" validate:"required"`
	SaleStart    time.Time `json:"sale_start" validate:"required"`
	SaleEnd      time.Time `json:"sale_end" validate:"required"`
	Transferable bool      `json:"transferable"`
}

type splitPayload struct {
	Recipient uuid.UUID `json:"recipient" validate:"required"`
	ShareBps  int64     `json:"share_bps" validate:"required"`
}

type createEventPayload struct {
	Name       string         `json:"name" validate:"required"`
	Venue      string         `json:"venue" validate:"required"`
	Currency   string         `json:"currency" validate:"required"`
	LatE7      int32          `json:"lat_e7"`
	LngE7      int32          `json:"lng_e7"`
	StartsAt   time.Time      `json:"starts_at" validate:"required"`
	EndsAt     time.Time      `json:"ends_at" validate:"required"`
	Capacity   uint32         `json:"capacity" validate:"required"`
	Visibility string         `json:"visibility" validate:"required"`
	Tiers      []tierPayload  `json:"tiers" validate:"required,min=1,dive"`
	Splits     []splitPayload `json:"splits" validate:"required,min=1,dive"`
}

// EventCreate registers a new event and returns the minted credentials.
func EventCreate(svc *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement engine unavailable"))
			return
		}
		organizer, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload createEventPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		currency, err := enums.ParseCurrency(payload.Currency)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency"))
			return
		}
		visibility, err := enums.ParseVisibility(payload.Visibility)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid visibility"))
			return
		}
		location := registry.GeoPoint{LatE7: payload.LatE7, LngE7: payload.LngE7}
		if !location.Valid() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "location out of range"))
			return
		}

		params := registry.CreateParams{
			Name:       validators.SanitizeString(payload.Name, 200),
			Venue:      validators.SanitizeString(payload.Venue, 200),
			Currency:   currency,
			Location:   location,
			StartsAt:   payload.StartsAt,
			EndsAt:     payload.EndsAt,
			Capacity:   payload.Capacity,
			Visibility: visibility,
			Tiers:      make([]registry.TierParams, 0, len(payload.Tiers)),
			Splits:     make([]registry.Split, 0, len(payload.Splits)),
		}
		for _, tier := range payload.Tiers {
			params.Tiers = append(params.Tiers, registry.TierParams{
				Name:         validators.SanitizeString(tier.Name, 100),
				UnitPrice:    tier.UnitPrice,
				MaxSupply:    tier.MaxSupply,
				SaleStart:    tier.SaleStart,
				SaleEnd:      tier.SaleEnd,
				Transferable: tier.Transferable,
			})
		}
		for _, split := range payload.Splits {
			params.Splits = append(params.Splits, registry.Split{
				Recipient: split.Recipient,
				ShareBps:  split.ShareBps,
			})
		}

		result, err := svc.CreateEvent(ctx, organizer, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// EventCancel flips the event to cancelled and opens its refund window.
func EventCancel(svc *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement engine unavailable"))
			return
		}
		caller, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		eventID, err := eventIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.CancelEvent(ctx, caller, eventID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"event_id": eventID, "status": string(enums.EventStatusCancelled)})
	}
}

// EventDetail serves authenticated reads. Private events stay hidden from
// everyone but their organizer.
func EventDetail(svc *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement engine unavailable"))
			return
		}
		caller, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		eventID, err := eventIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if svc.EventVisibility(eventID) == enums.VisibilityPrivate && !svc.IsOrganizer(eventID, caller) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "event not found"))
			return
		}
		detail, err := svc.Event(eventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// PublicEventDetail serves discovery reads. Private events are indistinguishable
// from missing ones here.
func PublicEventDetail(svc *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement engine unavailable"))
			return
		}
		eventID, err := eventIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if svc.EventVisibility(eventID) == enums.VisibilityPrivate {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "event not found"))
			return
		}
		detail, err := svc.Event(eventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// PublicEventQuote prices a prospective purchase without touching state.
func PublicEventQuote(svc *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement engine unavailable"))
			return
		}
		eventID, err := eventIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if svc.EventVisibility(eventID) == enums.VisibilityPrivate {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "event not found"))
			return
		}

		tier, err := validators.ParseQueryInt(r, "tier", 0, 0, 0xffff)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		quantity, err := validators.ParseQueryInt(r, "quantity", 1, 1, 0xffff)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		quote, err := svc.Quote(eventID, uint16(tier), int64(quantity))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}
