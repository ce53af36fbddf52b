package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/academykit/intake-bot/internal/http/middleware"
	"github.com/academykit/intake-bot/internal/leads"
	"github.com/academykit/intake-bot/internal/messaging"
	"github.com/academykit/intake-bot/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger           *logging.Logger
	MessagingHandler *messaging.Handler
	LeadsHandler     *leads.Handler
	MetricsHandler   http.Handler

	// OperatorToken guards the broadcast and admin endpoints. Empty
	// disables them rather than leaving them open.
	OperatorToken string

	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (webhooks, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.MessagingHandler.HealthCheck)
		public.Post("/webhooks/whatsapp", cfg.MessagingHandler.WhatsAppWebhook)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Operator endpoints, token guarded
	r.Group(func(operator chi.Router) {
		operator.Use(httpmiddleware.BearerToken(cfg.OperatorToken))
		operator.Post("/broadcast", cfg.MessagingHandler.Broadcast)
		if cfg.LeadsHandler != nil {
			operator.Get("/admin/leads", cfg.LeadsHandler.ListLeads)
		}
	})

	return r
}
