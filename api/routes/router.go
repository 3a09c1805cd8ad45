package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bnasmart/gateway-backend/api/controllers"
	webhookcontrollers "github.com/bnasmart/gateway-backend/api/controllers/webhooks"
	"github.com/bnasmart/gateway-backend/api/middleware"
	checkoutsvc "github.com/bnasmart/gateway-backend/internal/checkout"
	paymentmethodsvc "github.com/bnasmart/gateway-backend/internal/paymentmethods"
	"github.com/bnasmart/gateway-backend/pkg/config"
	"github.com/bnasmart/gateway-backend/pkg/logger"
	"github.com/bnasmart/gateway-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP redis.Pinger,
	redisP redis.Pinger,
	checkoutService checkoutsvc.Service,
	paymentMethodsService paymentmethodsvc.Service,
	webhookService webhookcontrollers.BNAWebhookService,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/webhooks/bna", func(r chi.Router) {
		r.Post("/", webhookcontrollers.BNAWebhook(webhookService, cfg.BNA, logg))
		r.Get("/test", webhookcontrollers.BNAWebhookTest())
		r.Get("/status", webhookcontrollers.BNAWebhookStatus(cfg.BNA))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Post("/api/v1/checkout", controllers.CheckoutToken(checkoutService, cfg.Features, logg))
		r.Route("/api/v1/payment-methods", func(r chi.Router) {
			r.Get("/", controllers.ListPaymentMethods(paymentMethodsService, logg))
			r.Delete("/{methodID}", controllers.DeletePaymentMethod(paymentMethodsService, logg))
		})
	})

	return r
}
