package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leadgrid/leadgrid-server/internal/cache"
	"github.com/leadgrid/leadgrid-server/internal/config"
	"github.com/leadgrid/leadgrid-server/internal/logger"
	"github.com/leadgrid/leadgrid-server/internal/metrics"
	"github.com/leadgrid/leadgrid-server/internal/repository/postgres"
	"github.com/leadgrid/leadgrid-server/internal/service"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	revealCache, err := cache.New(cfg.Redis.URL)
	if err != nil {
		logger.Fatal("failed to initialize reveal cache", "error", err)
	}
	if revealCache != nil {
		defer revealCache.Close()
	}

	m := metrics.New()

	profileRepo := postgres.NewProfileRepository(db)
	companyRepo := postgres.NewCompanyRepository(db)
	userRepo := postgres.NewUserRepository(db)
	revealRepo := postgres.NewRevealRepository(db)
	emailRegistry := postgres.NewEmailRegistryRepository(db)
	domainRegistry := postgres.NewDomainRegistryRepository(db)

	companyService := service.NewCompanies(companyRepo, domainRegistry,
		cfg.Search.FanoutTimeout, cfg.Search.PartialResults, m, logger.With("component", "companies"))
	profileService := service.NewProfiles(profileRepo, emailRegistry, companyService,
		cfg.Search.FanoutTimeout, cfg.Search.PartialResults, m, logger.With("component", "profiles"))
	// The API transport binds these services; this binary itself serves
	// only the metrics and health endpoints.
	_ = service.NewLedger(userRepo, revealRepo, logger.With("component", "ledger"))
	_ = service.NewReveals(revealRepo, userRepo, profileService, revealCache,
		service.RevealCosts{Email: cfg.Reveal.EmailCost, Phone: cfg.Reveal.PhoneCost},
		m, logger.With("component", "reveals"))

	logger.Info("services initialized",
		"reveal_email_cost", cfg.Reveal.EmailCost,
		"reveal_phone_cost", cfg.Reveal.PhoneCost,
		"fanout_timeout", cfg.Search.FanoutTimeout,
		"partial_results", cfg.Search.PartialResults,
		"reveal_cache_enabled", revealCache != nil)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
	go func() {
		logger.Info("starting metrics server", "address", cfg.Metrics.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	logAppVersion(logger)

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err)
	}

	logger.Info("shutdown complete")
}

func logAppVersion(l *logger.Logger) {
	l.Info("build info",
		"version", buildVersion,
		"date", buildDate,
		"commit", buildCommit)
}
