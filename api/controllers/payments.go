package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/openvenue/settlement/api/responses"
	"github.com/openvenue/settlement/api/validators"
	"github.com/openvenue/settlement/internal/engine"
	"github.com/openvenue/settlement/internal/treasury"
	pkgerrors "github.com/openvenue/settlement/pkg/errors"
	"github.com/openvenue/settlement/pkg/logger"
)

type platformFeePayload struct {
	Referrer uuid.UUID `json:"referrer" validate:"required"`
	FeeBps   int64     `json:"fee_bps" validate:"required"`
}

type purchasePayload struct {
	Tier       uint16              `json:"tier"`
	Quantity   int64               `json:"quantity" validate:"required,min=1"`
	MaxPayment int64               `json:"max_payment" validate:"min=0"`
	Platform   *platformFeePayload `json:"platform,omitempty"`
}

type tipPayload struct {
	Amount   int64               `json:"amount" validate:"required,min=1"`
	Platform *platformFeePayload `json:"platform,omitempty"`
}

func platformFee(payload *platformFeePayload) *treasury.PlatformFee {
	if payload == nil {
		return nil
	}
	return &treasury.PlatformFee{Referrer: payload.Referrer, FeeBps: payload.FeeBps}
}

// EventPurchase buys tickets at the current demand price.
func EventPurchase(svc *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement engine unavailable"))
			return
		}
		payer, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		eventID, err := eventIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload purchasePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Purchase(ctx, payer, engine.PurchaseRequest{
			EventID:    eventID,
			Tier:       payload.Tier,
			Quantity:   payload.Quantity,
			MaxPayment: payload.MaxPayment,
			Platform:   platformFee(payload.Platform),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// EventTip routes a voluntary payment through the event's distribution.
func EventTip(svc *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement engine unavailable"))
			return
		}
		payer, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		eventID, err := eventIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload tipPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dist, err := svc.Tip(ctx, payer, engine.TipRequest{
			EventID:  eventID,
			Amount:   payload.Amount,
			Platform: platformFee(payload.Platform),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dist)
	}
}
