package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openvenue/settlement/api/controllers"
	"github.com/openvenue/settlement/api/middleware"
	"github.com/openvenue/settlement/internal/engine"
	"github.com/openvenue/settlement/pkg/config"
	"github.com/openvenue/settlement/pkg/db"
	"github.com/openvenue/settlement/pkg/logger"
	"github.com/openvenue/settlement/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	eng *engine.Engine,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.CORS(),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/events/{eventId}", controllers.PublicEventDetail(eng, logg))
		r.Get("/events/{eventId}/quote", controllers.PublicEventQuote(eng, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Use(middleware.RateLimit(cfg.AuthRateLimit, redisClient, logg))

		r.Route("/v1/events", func(r chi.Router) {
			r.Post("/", controllers.EventCreate(eng, logg))
			r.Get("/{eventId}", controllers.EventDetail(eng, logg))
			r.Post("/{eventId}/cancel", controllers.EventCancel(eng, logg))
			r.Post("/{eventId}/purchase", controllers.EventPurchase(eng, logg))
			r.Post("/{eventId}/tip", controllers.EventTip(eng, logg))
			r.Post("/{eventId}/checkin", controllers.EventCheckIn(eng, logg))
			r.Get("/{eventId}/refunds", controllers.RefundOwed(eng, logg))
			r.Post("/{eventId}/refunds/tickets", controllers.RefundTickets(eng, logg))
			r.Post("/{eventId}/refunds/tips", controllers.RefundTips(eng, logg))
		})

		r.Route("/v1/withdrawals", func(r chi.Router) {
			r.Get("/{currency}", controllers.WithdrawalPending(eng, logg))
			r.Post("/{currency}", controllers.WithdrawalCreate(eng, logg))
		})

		r.Route("/v1/tokens", func(r chi.Router) {
			r.Get("/{tokenId}/balance", controllers.TokenBalance(eng, logg))
			r.Post("/transfer", controllers.TokenTransfer(eng, logg))
			r.Post("/approve", controllers.TokenApprove(eng, logg))
			r.Post("/operators", controllers.TokenSetOperator(eng, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole("admin", logg))
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Use(middleware.RateLimit(cfg.AuthRateLimit, redisClient, logg))

		r.Route("/v1", func(r chi.Router) {
			r.Put("/protocol/fee", controllers.AdminSetProtocolFee(eng, logg))
			r.Post("/currencies", controllers.AdminAllowCurrency(eng, logg))
			r.Post("/participants/{participantId}/ban", controllers.AdminBanParticipant(eng, logg))
			r.Post("/events/{eventId}/force-refunds", controllers.AdminForceRefunds(eng, logg))
		})
	})

	return r
}
