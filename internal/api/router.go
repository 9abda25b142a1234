// Package api assembles the HTTP surface of a listing ledger.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/listingledger/internal/api/handler"
	"github.com/jmerrifield20/listingledger/internal/audit"
	"github.com/jmerrifield20/listingledger/internal/chain"
	"github.com/jmerrifield20/listingledger/internal/config"
	"github.com/jmerrifield20/listingledger/internal/listing"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"
)

// Options controls router middleware.
type Options struct {
	CORSOrigins    []string
	RateLimitRPS   int
	MaxBodyBytes   int64
	VerifyCacheMB  int
	MetricsEnabled bool

	// Audit, when set, reports the background auditor's last result on
	// /healthz.
	Audit AuditStatus
}

// AuditStatus is the part of audit.Auditor the health endpoint reads.
type AuditStatus interface {
	Last() audit.Result
}

// OptionsFromConfig maps loaded configuration onto router options.
func OptionsFromConfig(conf *config.Config) Options {
	return Options{
		CORSOrigins:    conf.Server.CORSOrigins,
		RateLimitRPS:   conf.Server.RateLimitRPS,
		MaxBodyBytes:   conf.Server.MaxBodyBytes,
		VerifyCacheMB:  conf.Server.VerifyCacheMB,
		MetricsEnabled: conf.Metrics.Enabled,
	}
}

// NewRouter builds the gin engine for ledger and wraps it with gzip response
// compression. Background work started for the router stops when ctx is done.
func NewRouter(ctx context.Context, ledger chain.Ledger, opts Options, logger *zap.Logger) http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handler.RequestID())

	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", handler.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", handler.RequestIDHeader},
			AllowCredentials: !containsWildcard(opts.CORSOrigins),
			MaxAge:           12 * time.Hour,
		}))
	}

	router.Use(handler.SecurityHeaders())
	if opts.MaxBodyBytes > 0 {
		router.Use(handler.BodyLimit(opts.MaxBodyBytes))
	}
	if opts.RateLimitRPS > 0 {
		router.Use(handler.RateLimiter(ctx, opts.RateLimitRPS, opts.RateLimitRPS*2))
	}
	if opts.MetricsEnabled {
		router.Use(handler.PrometheusMiddleware())
		router.GET("/metrics", handler.MetricsHandler())
	}
	router.Use(handler.RequestLogger(logger))

	router.GET("/healthz", healthz(opts.Audit))

	ledgerHandler := handler.NewLedgerHandler(ledger, logger)
	ledgerHandler.SetVerifyCache(handler.NewVerifyCache(opts.VerifyCacheMB))

	v1 := router.Group("/api/v1")
	ledgerHandler.Register(v1)
	handler.NewListingHandler(listing.NewService(ledger), logger).Register(v1)

	return gzhttp.GzipHandler(router)
}

// healthz answers 503 once the auditor has found the chain broken.
func healthz(status AuditStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		if status == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		last := status.Last()
		if last.CheckedAt.IsZero() {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "audit": gin.H{"checked": false}})
			return
		}

		report := gin.H{
			"checked":    true,
			"checked_at": last.CheckedAt,
			"records":    last.Records,
			"root":       last.Root,
			"intact":     last.Intact(),
		}
		if !last.Intact() {
			report["error"] = last.Err.Error()
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "audit": report})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "audit": report})
	}
}

// containsWildcard returns true if origins includes "*".
func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}
