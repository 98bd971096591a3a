// Package syncer implements app.Runner for the standalone event sync
// daemon. It runs the same ingestion engine as the API server, for
// deployments that separate serving from chain polling.
package syncer

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/KeKeBossa/academia-chain-sub001/pkg/assetstore"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/chain"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/config"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/eventsync"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/pgutil"
)

// Server holds cfg to init the sync daemon.
type Server struct {
	cfg *config.Config
}

// NewServer initializes a new sync daemon.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("syncer config is nil")
	}
	cfg := s.cfg

	if !cfg.Sync.Enabled {
		return fmt.Errorf("sync.enabled is false; nothing to run")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting event sync daemon",
		zap.String("source", cfg.Sync.Source),
		zap.Duration("interval", cfg.Sync.Interval))

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() { _ = db.Close() }()

	chainClient, err := chain.NewClient(&cfg.Chain, logger)
	if err != nil {
		return fmt.Errorf("connect chain: %w", err)
	}
	defer chainClient.Close()

	store := assetstore.NewStore(db)
	engine := eventsync.NewEngine(chainClient, store, &cfg.Sync, &cfg.Chain, logger)
	runner := eventsync.NewRunner(engine, cfg.Sync.Interval, logger)

	runner.Start()
	<-ctx.Done()

	logger.Info("Shutting down event sync daemon...")
	runner.Stop()

	return nil
}
