package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/openvenue/settlement/api/middleware"
	"github.com/openvenue/settlement/internal/bank"
	"github.com/openvenue/settlement/internal/engine"
	"github.com/openvenue/settlement/internal/registry"
	"github.com/openvenue/settlement/pkg/config"
	"github.com/openvenue/settlement/pkg/enums"
	"github.com/openvenue/settlement/pkg/types"
)

type fixture struct {
	engine  *engine.Engine
	gateway *bank.MemoryGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.ProtocolConfig{
		FeeCollectorID:    uuid.NewString(),
		ProtocolFeeBps:    50,
		MaxProtocolFeeBps: 1000,
		MaxPlatformFeeBps: 500,
		MaxSplits:         20,
		PriceCapBps:       30000,
		RefundWindow:      90 * 24 * time.Hour,
	}
	state, err := engine.NewState(cfg)
	if err != nil {
		t.Fatalf("building state: %v", err)
	}
	gateway := bank.NewMemoryGateway()
	eng, err := engine.New(state, cfg, gateway, nil, nil, nil)
	if err != nil {
		t.Fatalf("building engine: %v", err)
	}
	return &fixture{engine: eng, gateway: gateway}
}

func (f *fixture) seedEvent(t *testing.T, organizer uuid.UUID) uint16 {
	t.Helper()
	now := time.Now()
	result, err := f.engine.CreateEvent(context.Background(), organizer, registry.CreateParams{
		Name:       "Warehouse Live",
		Venue:      "The Depot",
		Currency:   enums.CurrencyNative,
		Location:   registry.GeoPoint{LatE7: 407000000, LngE7: -740000000},
		StartsAt:   now.Add(48 * time.Hour),
		EndsAt:     now.Add(54 * time.Hour),
		Capacity:   500,
		Visibility: enums.VisibilityPublic,
		Tiers: []registry.TierParams{{
			Name:      "GA",
			UnitPrice: 1000,
			MaxSupply: 100,
			SaleStart: now.Add(-time.Hour),
			SaleEnd:   now.Add(47 * time.Hour),
		}},
		Splits: []registry.Split{{Recipient: organizer, ShareBps: 10000}},
	})
	if err != nil {
		t.Fatalf("seeding event: %v", err)
	}
	return result.EventID
}

func authedRequest(method, target string, caller uuid.UUID, body string, params map[string]string) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := middleware.WithCallerID(req.Context(), caller.String())

	rc := chi.NewRouteContext()
	for key, value := range params {
		rc.URLParams.Add(key, value)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rc)
	return req.WithContext(ctx)
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding body %q: %v", rec.Body.String(), err)
	}
	return envelope.Data
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding error body %q: %v", rec.Body.String(), err)
	}
	return envelope.Error.Code
}

func TestEventPurchaseHappyPath(t *testing.T) {
	f := newFixture(t)
	organizer := uuid.New()
	buyer := uuid.New()
	eventID := f.seedEvent(t, organizer)
	f.gateway.Deposit(buyer, enums.CurrencyNative, 50_000)

	handler := EventPurchase(f.engine, nil)
	body := `{"tier":0,"quantity":2,"max_payment":5000}`
	req := authedRequest(http.MethodPost, "/api/v1/events/1/purchase", buyer, body, map[string]string{"eventId": fmt.Sprint(eventID)})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body %s", rec.Code, rec.Body.String())
	}
	result := decodeData[engine.PurchaseResult](t, rec)
	if len(result.TicketIDs) != 2 {
		t.Fatalf("expected 2 tickets got %d", len(result.TicketIDs))
	}
	if result.Quote.Total != 2000 {
		t.Fatalf("expected total 2000 got %d", result.Quote.Total)
	}
	if got := f.gateway.BalanceOf(buyer, enums.CurrencyNative); got != 48_000 {
		t.Fatalf("expected exact pull, balance %d", got)
	}
}

func TestEventPurchaseOverCap(t *testing.T) {
	f := newFixture(t)
	organizer := uuid.New()
	buyer := uuid.New()
	eventID := f.seedEvent(t, organizer)
	f.gateway.Deposit(buyer, enums.CurrencyNative, 50_000)

	handler := EventPurchase(f.engine, nil)
	body := `{"tier":0,"quantity":2,"max_payment":1999}`
	req := authedRequest(http.MethodPost, "/api/v1/events/1/purchase", buyer, body, map[string]string{"eventId": fmt.Sprint(eventID)})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d body %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "ECONOMIC_CONFLICT" {
		t.Fatalf("unexpected error code %s", code)
	}
	if got := f.gateway.BalanceOf(buyer, enums.CurrencyNative); got != 50_000 {
		t.Fatalf("nothing should have been pulled, balance %d", got)
	}
}

func TestEventPurchaseRejectsBadBody(t *testing.T) {
	f := newFixture(t)
	eventID := f.seedEvent(t, uuid.New())

	handler := EventPurchase(f.engine, nil)
	req := authedRequest(http.MethodPost, "/api/v1/events/1/purchase", uuid.New(), `{"quantity":0}`, map[string]string{"eventId": fmt.Sprint(eventID)})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestEventTipDistributes(t *testing.T) {
	f := newFixture(t)
	organizer := uuid.New()
	tipper := uuid.New()
	eventID := f.seedEvent(t, organizer)
	f.gateway.Deposit(tipper, enums.CurrencyNative, 10_000)

	handler := EventTip(f.engine, nil)
	req := authedRequest(http.MethodPost, "/api/v1/events/1/tip", tipper, `{"amount":1000}`, map[string]string{"eventId": fmt.Sprint(eventID)})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", rec.Code, rec.Body.String())
	}
	if got := f.gateway.BalanceOf(tipper, enums.CurrencyNative); got != 9_000 {
		t.Fatalf("expected tip pulled, balance %d", got)
	}
}

func TestWithdrawalRoundTrip(t *testing.T) {
	f := newFixture(t)
	organizer := uuid.New()
	buyer := uuid.New()
	eventID := f.seedEvent(t, organizer)
	f.gateway.Deposit(buyer, enums.CurrencyNative, 10_000)

	purchase := EventPurchase(f.engine, nil)
	req := authedRequest(http.MethodPost, "/api/v1/events/1/purchase", buyer, `{"tier":0,"quantity":1,"max_payment":1000}`, map[string]string{"eventId": fmt.Sprint(eventID)})
	purchase.ServeHTTP(httptest.NewRecorder(), req)

	pending := WithdrawalPending(f.engine, nil)
	req = authedRequest(http.MethodGet, "/api/v1/withdrawals/NATIVE", organizer, "", map[string]string{"currency": "NATIVE"})
	rec := httptest.NewRecorder()
	pending.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", rec.Code, rec.Body.String())
	}
	data := decodeData[map[string]any](t, rec)
	if data["pending"].(float64) != 995 {
		t.Fatalf("expected 995 pending got %v", data["pending"])
	}

	withdraw := WithdrawalCreate(f.engine, nil)
	req = authedRequest(http.MethodPost, "/api/v1/withdrawals/NATIVE", organizer, "", map[string]string{"currency": "NATIVE"})
	rec = httptest.NewRecorder()
	withdraw.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", rec.Code, rec.Body.String())
	}
	if got := f.gateway.BalanceOf(organizer, enums.CurrencyNative); got != 995 {
		t.Fatalf("expected payout 995, balance %d", got)
	}

	// A second withdrawal has nothing left to pay.
	rec = httptest.NewRecorder()
	req = authedRequest(http.MethodPost, "/api/v1/withdrawals/NATIVE", organizer, "", map[string]string{"currency": "NATIVE"})
	withdraw.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestRefundFlow(t *testing.T) {
	f := newFixture(t)
	organizer := uuid.New()
	buyer := uuid.New()
	eventID := f.seedEvent(t, organizer)
	f.gateway.Deposit(buyer, enums.CurrencyNative, 10_000)

	purchase := EventPurchase(f.engine, nil)
	req := authedRequest(http.MethodPost, "/api/v1/events/1/purchase", buyer, `{"tier":0,"quantity":1,"max_payment":1000}`, map[string]string{"eventId": fmt.Sprint(eventID)})
	purchase.ServeHTTP(httptest.NewRecorder(), req)

	cancel := EventCancel(f.engine, nil)
	req = authedRequest(http.MethodPost, "/api/v1/events/1/cancel", organizer, "", map[string]string{"eventId": fmt.Sprint(eventID)})
	rec := httptest.NewRecorder()
	cancel.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200 got %d body %s", rec.Code, rec.Body.String())
	}

	owed := RefundOwed(f.engine, nil)
	req = authedRequest(http.MethodGet, "/api/v1/events/1/refunds", buyer, "", map[string]string{"eventId": fmt.Sprint(eventID)})
	rec = httptest.NewRecorder()
	owed.ServeHTTP(rec, req)
	data := decodeData[map[string]any](t, rec)
	if data["tickets"].(float64) != 1000 {
		t.Fatalf("expected 1000 owed got %v", data["tickets"])
	}

	claim := RefundTickets(f.engine, nil)
	req = authedRequest(http.MethodPost, "/api/v1/events/1/refunds/tickets", buyer, "", map[string]string{"eventId": fmt.Sprint(eventID)})
	rec = httptest.NewRecorder()
	claim.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("claim: expected 200 got %d body %s", rec.Code, rec.Body.String())
	}
	if got := f.gateway.BalanceOf(buyer, enums.CurrencyNative); got != 10_000 {
		t.Fatalf("expected full restore, balance %d", got)
	}

	// Nothing left; a second claim conflicts.
	req = authedRequest(http.MethodPost, "/api/v1/events/1/refunds/tickets", buyer, "", map[string]string{"eventId": fmt.Sprint(eventID)})
	rec = httptest.NewRecorder()
	claim.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestAdminAllowCurrencyAndFee(t *testing.T) {
	f := newFixture(t)
	admin := uuid.New()

	allow := AdminAllowCurrency(f.engine, nil)
	req := authedRequest(http.MethodPost, "/api/admin/v1/currencies", admin, `{"currency":"usdc","exponent":6}`, nil)
	rec := httptest.NewRecorder()
	allow.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body %s", rec.Code, rec.Body.String())
	}

	fee := AdminSetProtocolFee(f.engine, nil)
	req = authedRequest(http.MethodPut, "/api/admin/v1/protocol/fee", admin, `{"fee_bps":100}`, nil)
	rec = httptest.NewRecorder()
	fee.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", rec.Code, rec.Body.String())
	}

	// Above the hard cap.
	req = authedRequest(http.MethodPut, "/api/admin/v1/protocol/fee", admin, `{"fee_bps":1500}`, nil)
	rec = httptest.NewRecorder()
	fee.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestAdminBanBlocksPurchases(t *testing.T) {
	f := newFixture(t)
	admin := uuid.New()
	buyer := uuid.New()
	eventID := f.seedEvent(t, uuid.New())
	f.gateway.Deposit(buyer, enums.CurrencyNative, 10_000)

	ban := AdminBanParticipant(f.engine, nil)
	req := authedRequest(http.MethodPost, "/api/admin/v1/participants/x/ban", admin, `{"banned":true}`, map[string]string{"participantId": buyer.String()})
	rec := httptest.NewRecorder()
	ban.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("ban: expected 200 got %d body %s", rec.Code, rec.Body.String())
	}

	purchase := EventPurchase(f.engine, nil)
	req = authedRequest(http.MethodPost, "/api/v1/events/1/purchase", buyer, `{"tier":0,"quantity":1,"max_payment":1000}`, map[string]string{"eventId": fmt.Sprint(eventID)})
	rec = httptest.NewRecorder()
	purchase.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestEventCreateValidatesPayload(t *testing.T) {
	f := newFixture(t)
	handler := EventCreate(f.engine, nil)

	req := authedRequest(http.MethodPost, "/api/v1/events", uuid.New(), `{"name":"x"}`, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "VALIDATION_ERROR" {
		t.Fatalf("unexpected error code %s", code)
	}
}

func TestTokenBalanceReflectsPurchase(t *testing.T) {
	f := newFixture(t)
	buyer := uuid.New()
	eventID := f.seedEvent(t, uuid.New())
	f.gateway.Deposit(buyer, enums.CurrencyNative, 10_000)

	purchase := EventPurchase(f.engine, nil)
	req := authedRequest(http.MethodPost, "/api/v1/events/1/purchase", buyer, `{"tier":0,"quantity":1,"max_payment":1000}`, map[string]string{"eventId": fmt.Sprint(eventID)})
	rec := httptest.NewRecorder()
	purchase.ServeHTTP(rec, req)
	result := decodeData[engine.PurchaseResult](t, rec)

	balance := TokenBalance(f.engine, nil)
	req = authedRequest(http.MethodGet, "/api/v1/tokens/x/balance", buyer, "", map[string]string{"tokenId": fmt.Sprint(uint64(result.TicketIDs[0]))})
	rec = httptest.NewRecorder()
	balance.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", rec.Code, rec.Body.String())
	}
	data := decodeData[map[string]any](t, rec)
	if data["balance"].(float64) != 1 {
		t.Fatalf("expected balance 1 got %v", data["balance"])
	}
	if data["class"].(string) != "event_ticket" {
		t.Fatalf("unexpected class %v", data["class"])
	}
}
