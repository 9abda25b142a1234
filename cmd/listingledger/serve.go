package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/listingledger/internal/api"
	"github.com/jmerrifield20/listingledger/internal/api/handler"
	"github.com/jmerrifield20/listingledger/internal/audit"
	"github.com/jmerrifield20/listingledger/internal/chain"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an in-memory ledger over HTTP",
		Long: `serve keeps one chain in memory and exposes it under /api/v1/ledger.
The chain starts from the genesis record on every start; nothing is written
to disk.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				conf.Server.Port = port
			}
			return runServe(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (overrides server.port)")
	return cmd
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if conf.File != "" {
		logger.Info("config loaded", zap.String("file", conf.File))
	} else {
		logger.Warn("no config file found, using defaults and env vars")
	}

	// ── Ledger ───────────────────────────────────────────────────────────────
	ledger := chain.New(chain.WithClock(conf.NewClock()))
	root, n, err := checkLedger(ctx, ledger)
	if err != nil {
		return err
	}
	handler.SetRecordsGauge(n)
	logger.Info("ledger initialised", zap.String("root", root), zap.Int("records", n))

	opts := api.OptionsFromConfig(conf)

	// ── Integrity auditor ────────────────────────────────────────────────────
	if conf.Audit.Interval > 0 {
		auditor := audit.New(ledger, audit.Config{Interval: conf.Audit.Interval}, logger)
		if conf.Metrics.Enabled {
			auditor.SetMetricsRecord(handler.RecordAuditCheck)
		}
		auditor.Check(ctx)
		opts.Audit = auditor
		go auditor.Start(ctx)
		logger.Info("integrity auditor started", zap.Duration("interval", conf.Audit.Interval))
	}

	// ── HTTP Router ──────────────────────────────────────────────────────────
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(ctx, ledger, opts, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", conf.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listingledger HTTP listening", zap.Int("port", conf.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("HTTP listen: %w", err)
	}
	logger.Info("shutting down listingledger...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	if n, err = ledger.Len(shutdownCtx); err != nil {
		logger.Warn("ledger length at shutdown", zap.Error(err))
	}
	logger.Info("listingledger stopped", zap.Int("records", n))
	return nil
}

// checkLedger verifies a freshly built ledger and reports its root and length.
func checkLedger(ctx context.Context, ledger chain.Ledger) (string, int, error) {
	if err := ledger.Verify(ctx); err != nil {
		return "", 0, fmt.Errorf("genesis verification: %w", err)
	}
	root, err := ledger.Root(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("ledger root: %w", err)
	}
	n, err := ledger.Len(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("ledger length: %w", err)
	}
	return root, n, nil
}
