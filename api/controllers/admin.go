package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/openvenue/settlement/api/responses"
	"github.com/openvenue/settlement/api/validators"
	"github.com/openvenue/settlement/internal/engine"
	"github.com/openvenue/settlement/pkg/enums"
	pkgerrors "github.com/openvenue/settlement/pkg/errors"
	"github.com/openvenue/settlement/pkg/logger"
)

type protocolFeePayload struct {
	FeeBps int64 `json:"fee_bps" validate:"min=0"`
}

type allowCurrencyPayload struct {
	Currency string `json:"currency" validate:"required"`
	Exponent int32  `json:"exponent" validate:"min=0,max=18"`
}

type banPayload struct {
	Banned bool `json:"banned"`
}

type forceRefundsPayload struct {
	Payers []uuid.UUID `json:"payers,omitempty"`
}

// AdminSetProtocolFee reconfigures the protocol fee within its hard cap.
func AdminSetProtocolFee(svc *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement engine unavailable"))
			return
		}
		admin, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload protocolFeePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.SetProtocolFee(ctx, admin, payload.FeeBps); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"fee_bps": payload.FeeBps})
	}
}

// AdminAllowCurrency adds a settlement currency to the allow-list.
func AdminAllowCurrency(svc *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement engine unavailable"))
			return
		}
		admin, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload allowCurrencyPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		currency, err := enums.ParseCurrency(payload.Currency)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency"))
			return
		}

		if err := svc.AllowCurrency(ctx, admin, currency, payload.Exponent); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"currency": currency,
			"exponent": payload.Exponent,
		})
	}
}

// AdminBanParticipant sets or clears a participant's ban.
func AdminBanParticipant(svc *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement engine unavailable"))
			return
		}
		admin, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		participant, err := participantIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload banPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.BanParticipant(ctx, admin, participant, payload.Banned); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"participant": participant,
			"banned":      payload.Banned,
		})
	}
}

// AdminForceRefunds pushes refunds to payers of a cancelled event, ignoring
// the claim deadline. An empty payer list targets every recorded payer.
func AdminForceRefunds(svc *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement engine unavailable"))
			return
		}
		admin, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		eventID, err := eventIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload forceRefundsPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.ForceRefunds(ctx, admin, eventID, payload.Payers); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"event_id": eventID})
	}
}
