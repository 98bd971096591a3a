// Package api implements app.Runner for the API server process.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apphttp "github.com/KeKeBossa/academia-chain-sub001/pkg/app/http"
	artifactservice "github.com/KeKeBossa/academia-chain-sub001/pkg/artifact/service"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/assetstore"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/chain"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/config"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/eventsync"
	govservice "github.com/KeKeBossa/academia-chain-sub001/pkg/governance/service"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/govstore"
	identityservice "github.com/KeKeBossa/academia-chain-sub001/pkg/identity/service"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/identitystore"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/pgutil"
)

const requestTimeout = 60 * time.Second

// Server holds cfg to init the api server.
type Server struct {
	cfg *config.Config
}

// NewServer initializes a new api server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("api server config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting API server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port))

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() { _ = db.Close() }()
	logger.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database))

	chainClient, err := chain.NewClient(&cfg.Chain, logger)
	if err != nil {
		return fmt.Errorf("connect chain: %w", err)
	}
	defer chainClient.Close()
	chainClient.VerifySignerRoles(ctx)

	identityStore := identitystore.NewStore(db)
	assetStore := assetstore.NewStore(db)
	govStore := govstore.NewStore(db)

	authService := identityservice.NewService(identityStore, &cfg.Auth, cfg.Chain.ChainID, logger)
	credService := identityservice.NewCredentialService(identityStore, &cfg.Credentials, logger)
	govService := govservice.NewService(govStore, chainClient, logger)
	artifactService := artifactservice.NewService(assetStore, govStore, chainClient, logger)

	identityHandler := identityservice.NewHandler(authService, credService, logger)
	govHandler := govservice.NewHandler(govService, logger)
	artifactHandler := artifactservice.NewHandler(artifactService, logger)

	router := s.setupRouter(identityHandler, govHandler, artifactHandler)

	stopMetrics := s.startMetricsServer(logger)
	defer stopMetrics()

	stopSync := s.startEventSync(chainClient, assetStore, logger)
	defer stopSync()

	janitor := identityservice.NewChallengeJanitor(identityStore, cfg.Auth.ChallengeTTL, logger)
	janitor.Start()
	defer janitor.Stop()

	err = apphttp.ServeAndWait(ctx, router, logger, &cfg.Server)

	// Stop background work before deferred closes kick in.
	stopSync()
	stopMetrics()

	return err
}

func (s *Server) setupRouter(
	identityHandler *identityservice.Handler,
	govHandler *govservice.Handler,
	artifactHandler *artifactservice.Handler,
) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		apphttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		identityHandler.Routes(r)

		r.Group(func(r chi.Router) {
			r.Use(identityHandler.RequireSession)
			govHandler.Routes(r)
			artifactHandler.Routes(r)
		})
	})

	return r
}

func (s *Server) startMetricsServer(logger *zap.Logger) func() {
	if !s.cfg.Monitoring.Enabled {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Monitoring.MetricsPort),
		Handler: mux,
	}

	go func() {
		logger.Info("Metrics server listening", zap.Int("port", s.cfg.Monitoring.MetricsPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) startEventSync(chainClient *chain.Client, store assetstore.Store, logger *zap.Logger) func() {
	if !s.cfg.Sync.Enabled {
		return func() {}
	}

	engine := eventsync.NewEngine(chainClient, store, &s.cfg.Sync, &s.cfg.Chain, logger)
	runner := eventsync.NewRunner(engine, s.cfg.Sync.Interval, logger)
	runner.Start()

	return runner.Stop
}
