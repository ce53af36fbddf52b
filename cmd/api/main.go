package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/academykit/intake-bot/internal/api/router"
	"github.com/academykit/intake-bot/internal/catalog"
	appconfig "github.com/academykit/intake-bot/internal/config"
	"github.com/academykit/intake-bot/internal/conversation"
	"github.com/academykit/intake-bot/internal/leads"
	"github.com/academykit/intake-bot/internal/messaging"
	"github.com/academykit/intake-bot/internal/observability/metrics"
	"github.com/academykit/intake-bot/internal/session"
	"github.com/academykit/intake-bot/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting intake-bot API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	cat, err := loadCatalog(cfg)
	if err != nil {
		logger.Error("failed to load course catalog", "error", err)
		os.Exit(1)
	}
	logger.Info("course catalog loaded", "courses", cat.Len())

	sessions, err := buildSessionStore(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize session store", "error", err)
		os.Exit(1)
	}

	repo, lister, cleanup, err := buildLeadStore(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize lead store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	intakeMetrics := metrics.NewIntakeMetrics(prometheus.DefaultRegisterer)
	engine := conversation.NewEngine(cat, cfg.AcademyName)
	submitter := leads.NewSubmitter(repo, logger, intakeMetrics)

	var dispatcher *messaging.Dispatcher
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		sender := messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.WhatsAppFromNumber, logger)
		dispatcher = messaging.NewDispatcher(sender, "whatsapp", logger, intakeMetrics)
	} else {
		logger.Warn("twilio credentials not set, broadcast disabled")
	}

	messagingHandler := messaging.NewHandler(cfg.TwilioWebhookSecret, sessions, engine, submitter, dispatcher, logger, intakeMetrics)

	var leadsHandler *leads.Handler
	if lister != nil {
		leadsHandler = leads.NewHandler(lister, logger)
	}

	r := router.New(&router.Config{
		Logger:             logger,
		MessagingHandler:   messagingHandler,
		LeadsHandler:       leadsHandler,
		MetricsHandler:     promhttp.Handler(),
		OperatorToken:      cfg.BroadcastToken,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func loadCatalog(cfg *appconfig.Config) (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(cfg.CatalogPath)
}

func buildSessionStore(cfg *appconfig.Config, logger *logging.Logger) (session.Store, error) {
	switch cfg.SessionBackend {
	case appconfig.SessionBackendRedis:
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, err
		}
		logger.Info("using redis session store", "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL)
		return session.NewRedisStore(client, cfg.SessionTTL), nil
	default:
		logger.Info("using in-memory session store")
		return session.NewMemoryStore(), nil
	}
}

// buildLeadStore returns the configured repository, an optional lister for
// the admin endpoint, and a cleanup func for connection pools.
func buildLeadStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (leads.Repository, leads.Lister, func(), error) {
	noop := func() {}
	switch cfg.LeadStore {
	case appconfig.LeadStorePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, noop, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, nil, noop, err
		}
		repo := leads.NewPostgresRepository(pool)
		logger.Info("using postgres lead store")
		return repo, repo, pool.Close, nil
	case appconfig.LeadStoreSheets:
		repo, err := leads.NewSheetsRepository(ctx, cfg.SheetsSpreadsheetID, cfg.GoogleCredentials)
		if err != nil {
			return nil, nil, noop, err
		}
		logger.Info("using google sheets lead store", "spreadsheet", cfg.SheetsSpreadsheetID)
		return repo, nil, noop, nil
	default:
		repo := leads.NewInMemoryRepository()
		logger.Info("using in-memory lead store")
		return repo, repo, noop, nil
	}
}
