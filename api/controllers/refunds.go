package controllers

import (
	"net/http"

	"github.com/openvenue/settlement/api/responses"
	"github.com/openvenue/settlement/internal/engine"
	"github.com/openvenue/settlement/pkg/enums"
	pkgerrors "github.com/openvenue/settlement/pkg/errors"
	"github.com/openvenue/settlement/pkg/logger"
)

// RefundOwed reports what the caller could currently claim for a cancelled event.
func RefundOwed(svc *engine.Engine, logg *logger.Logger) http.HandlerFunc {
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

		responses.WriteSuccess(w, map[string]any{
			"event_id": eventID,
			"tickets":  svc.RefundOwed(eventID, caller, enums.RefundKindTickets),
			"tips":     svc.RefundOwed(eventID, caller, enums.RefundKindTips),
		})
	}
}

// RefundTickets returns the caller's full ticket payments for a cancelled event.
func RefundTickets(svc *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return claimRefund(svc, logg, enums.RefundKindTickets)
}

// RefundTips returns the caller's tips for a cancelled event.
func RefundTips(svc *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return claimRefund(svc, logg, enums.RefundKindTips)
}

func claimRefund(svc *engine.Engine, logg *logger.Logger, kind enums.RefundKind) http.HandlerFunc {
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

		amount, err := svc.ClaimRefund(ctx, caller, eventID, kind)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"event_id": eventID,
			"kind":     string(kind),
			"amount":   amount,
		})
	}
}
