package controllers

import (
	"net/http"

	"github.com/openvenue/settlement/api/responses"
	"github.com/openvenue/settlement/internal/engine"
	pkgerrors "github.com/openvenue/settlement/pkg/errors"
	"github.com/openvenue/settlement/pkg/logger"
)

// WithdrawalPending reports the caller's claimable balance in one currency.
func WithdrawalPending(svc *engine.Engine, logg *logger.Logger) http.HandlerFunc {
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
		currency, err := currencyParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"currency": currency,
			"pending":  svc.Pending(currency, caller),
		})
	}
}

// WithdrawalCreate pays out the caller's full pending balance.
func WithdrawalCreate(svc *engine.Engine, logg *logger.Logger) http.HandlerFunc {
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
		currency, err := currencyParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		amount, err := svc.Withdraw(ctx, caller, currency)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"currency": currency,
			"amount":   amount,
		})
	}
}
