package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/openvenue/settlement/api/responses"
	"github.com/openvenue/settlement/api/validators"
	"github.com/openvenue/settlement/internal/engine"
	"github.com/openvenue/settlement/internal/token"
	pkgerrors "github.com/openvenue/settlement/pkg/errors"
	"github.com/openvenue/settlement/pkg/logger"
)

type transferPayload struct {
	Owner     uuid.UUID `json:"owner" validate:"required"`
	Recipient uuid.UUID `json:"recipient" validate:"required"`
	TokenID   uint64    `json:"token_id" validate:"required"`
	Amount    int64     `json:"amount" validate:"required,min=1"`
}

type approvePayload struct {
	Spender uuid.UUID `json:"spender" validate:"required"`
	TokenID uint64    `json:"token_id" validate:"required"`
	Amount  int64     `json:"amount" validate:"min=0"`
}

type operatorPayload struct {
	Operator uuid.UUID `json:"operator" validate:"required"`
	Approved bool      `json:"approved"`
}

// TokenBalance reports the caller's balance of one token.
func TokenBalance(svc *engine.Engine, logg *logger.Logger) http.HandlerFunc {
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
		id, err := tokenIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		fields := id.Decode()
		responses.WriteSuccess(w, map[string]any{
			"token_id": uint64(id),
			"class":    fields.Class.String(),
			"balance":  svc.BalanceOf(caller, id),
		})
	}
}

// TokenTransfer moves tokens between holders, honoring allowances and
// operator grants when the caller is not the owner.
func TokenTransfer(svc *engine.Engine, logg *logger.Logger) http.HandlerFunc {
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

		var payload transferPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Transfer(ctx, caller, payload.Owner, payload.Recipient, token.ID(payload.TokenID), payload.Amount); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"token_id":  payload.TokenID,
			"owner":     payload.Owner,
			"recipient": payload.Recipient,
			"amount":    payload.Amount,
		})
	}
}

// TokenApprove grants a spender a per-token allowance from the caller.
func TokenApprove(svc *engine.Engine, logg *logger.Logger) http.HandlerFunc {
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

		var payload approvePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Approve(ctx, caller, payload.Spender, token.ID(payload.TokenID), payload.Amount); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"token_id": payload.TokenID,
			"spender":  payload.Spender,
			"amount":   payload.Amount,
		})
	}
}

// TokenSetOperator grants or revokes account-wide transfer authority.
func TokenSetOperator(svc *engine.Engine, logg *logger.Logger) http.HandlerFunc {
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

		var payload operatorPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.SetOperator(ctx, caller, payload.Operator, payload.Approved); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"operator": payload.Operator,
			"approved": payload.Approved,
		})
	}
}

// EventCheckIn validates ticket possession during the event window and mints
// the attendance badge.
func EventCheckIn(svc *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement engine unavailable"))
			return
		}
		holder, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		eventID, err := eventIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		badge, err := svc.CheckIn(ctx, holder, eventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"event_id": eventID,
			"badge":    uint64(badge),
		})
	}
}
