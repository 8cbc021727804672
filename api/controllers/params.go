package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/openvenue/settlement/api/middleware"
	"github.com/openvenue/settlement/internal/token"
	"github.com/openvenue/settlement/pkg/enums"
	pkgerrors "github.com/openvenue/settlement/pkg/errors"
)

func callerID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.CallerIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid caller id")
	}
	return id, nil
}

func eventIDParam(r *http.Request) (uint16, error) {
	raw := chi.URLParam(r, "eventId")
	value, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "event id must be a 16-bit integer").WithDetails(map[string]any{"event_id": raw})
	}
	return uint16(value), nil
}

func tokenIDParam(r *http.Request) (token.ID, error) {
	raw := chi.URLParam(r, "tokenId")
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "token id must be a 64-bit integer").WithDetails(map[string]any{"token_id": raw})
	}
	return token.ID(value), nil
}

func currencyParam(r *http.Request) (enums.Currency, error) {
	currency, err := enums.ParseCurrency(chi.URLParam(r, "currency"))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
	}
	return currency, nil
}

func participantIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "participantId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid participant id")
	}
	return id, nil
}
