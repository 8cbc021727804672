package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/openvenue/settlement/internal/bank"
	"github.com/openvenue/settlement/internal/engine"
	"github.com/openvenue/settlement/internal/registry"
	pkgAuth "github.com/openvenue/settlement/pkg/auth"
	"github.com/openvenue/settlement/pkg/config"
	"github.com/openvenue/settlement/pkg/enums"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60},
		Protocol: config.ProtocolConfig{
			FeeCollectorID:    uuid.NewString(),
			ProtocolFeeBps:    50,
			MaxProtocolFeeBps: 1000,
			MaxPlatformFeeBps: 500,
			MaxSplits:         20,
			PriceCapBps:       30000,
			RefundWindow:      90 * 24 * time.Hour,
		},
	}
}

func testEngine(t *testing.T, cfg *config.Config) *engine.Engine {
	t.Helper()
	state, err := engine.NewState(cfg.Protocol)
	if err != nil {
		t.Fatalf("building state: %v", err)
	}
	eng, err := engine.New(state, cfg.Protocol, bank.NewMemoryGateway(), nil, nil, nil)
	if err != nil {
		t.Fatalf("building engine: %v", err)
	}
	return eng
}

func seedEvent(t *testing.T, eng *engine.Engine, organizer uuid.UUID, visibility enums.Visibility) uint16 {
	t.Helper()
	now := time.Now()
	result, err := eng.CreateEvent(context.Background(), organizer, registry.CreateParams{
		Name:       "Warehouse Live",
		Venue:      "The Depot",
		Currency:   enums.CurrencyNative,
		Location:   registry.GeoPoint{LatE7: 407000000, LngE7: -740000000},
		StartsAt:   now.Add(48 * time.Hour),
		EndsAt:     now.Add(54 * time.Hour),
		Capacity:   500,
		Visibility: visibility,
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

func mintToken(t *testing.T, cfg *config.Config, role enums.ActorRole, caller uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		CallerID: caller,
		Role:     role,
	})
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	cfg := testConfig(t)
	router := NewRouter(cfg, nil, stubPinger{}, nil, testEngine(t, cfg), nil)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if env := rec.Header().Get("X-Settle-Env"); env != "test" {
		t.Fatalf("expected env header, got %q", env)
	}
}

func TestPublicEventDetail(t *testing.T) {
	cfg := testConfig(t)
	eng := testEngine(t, cfg)
	organizer := uuid.New()
	eventID := seedEvent(t, eng, organizer, enums.VisibilityPublic)

	router := NewRouter(cfg, nil, stubPinger{}, nil, eng, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/public/events/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data engine.EventDetail `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if envelope.Data.ID != eventID {
		t.Fatalf("expected event %d got %d", eventID, envelope.Data.ID)
	}
	if envelope.Data.Organizer != organizer {
		t.Fatalf("unexpected organizer %s", envelope.Data.Organizer)
	}
}

func TestPublicEventDetailHidesPrivate(t *testing.T) {
	cfg := testConfig(t)
	eng := testEngine(t, cfg)
	seedEvent(t, eng, uuid.New(), enums.VisibilityPrivate)

	router := NewRouter(cfg, nil, stubPinger{}, nil, eng, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/public/events/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestPublicQuote(t *testing.T) {
	cfg := testConfig(t)
	eng := testEngine(t, cfg)
	seedEvent(t, eng, uuid.New(), enums.VisibilityPublic)

	router := NewRouter(cfg, nil, stubPinger{}, nil, eng, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/public/events/1/quote?tier=0&quantity=2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data engine.QuoteDetail `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if envelope.Data.Total != 2000 {
		t.Fatalf("expected quote total 2000 got %d", envelope.Data.Total)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	cfg := testConfig(t)
	router := NewRouter(cfg, nil, stubPinger{}, nil, testEngine(t, cfg), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tokens/1/balance", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestTokenBalanceWithAuth(t *testing.T) {
	cfg := testConfig(t)
	eng := testEngine(t, cfg)
	caller := uuid.New()
	router := NewRouter(cfg, nil, stubPinger{}, nil, eng, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tokens/1/balance", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.ActorRoleParticipant, caller))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestAdminRoutesRejectParticipants(t *testing.T) {
	cfg := testConfig(t)
	router := NewRouter(cfg, nil, stubPinger{}, nil, testEngine(t, cfg), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/currencies", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.ActorRoleParticipant, uuid.New()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}
