// Package audit periodically re-verifies a running ledger.
package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jmerrifield20/listingledger/internal/chain"
	"go.uber.org/zap"
)

// Config holds auditor configuration.
type Config struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Verifier is the part of chain.Ledger the auditor needs.
type Verifier interface {
	Verify(ctx context.Context) error
	Len(ctx context.Context) (int, error)
	Root(ctx context.Context) (string, error)
}

// MetricsRecordFunc is an optional callback for recording audit results and
// the chain length seen by the pass.
type MetricsRecordFunc func(intact bool, records int)

// Result is the outcome of one audit pass.
type Result struct {
	CheckedAt time.Time
	Records   int
	Root      string
	Err       error
}

// Intact reports whether the pass found no integrity problem.
func (r Result) Intact() bool { return r.Err == nil }

// Auditor runs Verify on a schedule and logs transitions between an intact
// and a broken chain.
type Auditor struct {
	ledger    Verifier
	cfg       Config
	onMetrics MetricsRecordFunc
	logger    *zap.Logger

	mu     sync.Mutex
	last   Result
	broken bool
}

// New creates a new Auditor.
func New(ledger Verifier, cfg Config, logger *zap.Logger) *Auditor {
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Auditor{ledger: ledger, cfg: cfg, logger: logger}
}

// SetMetricsRecord configures the metrics recording callback.
func (a *Auditor) SetMetricsRecord(fn MetricsRecordFunc) {
	a.onMetrics = fn
}

// Start runs the audit loop until ctx is cancelled.
func (a *Auditor) Start(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
			a.Check(checkCtx)
			cancel()
		case <-ctx.Done():
			return
		}
	}
}

// Check runs a single verification pass.
func (a *Auditor) Check(ctx context.Context) Result {
	res := Result{CheckedAt: time.Now().UTC()}
	res.Err = a.ledger.Verify(ctx)
	if n, err := a.ledger.Len(ctx); err == nil {
		res.Records = n
	}
	if root, err := a.ledger.Root(ctx); err == nil {
		res.Root = root
	}

	if a.onMetrics != nil {
		a.onMetrics(res.Intact(), res.Records)
	}

	a.mu.Lock()
	wasBroken := a.broken
	a.broken = !res.Intact()
	a.last = res
	a.mu.Unlock()

	switch {
	case !res.Intact() && !wasBroken:
		fields := []zap.Field{zap.Int("records", res.Records), zap.Error(res.Err)}
		var ie *chain.IntegrityError
		if errors.As(res.Err, &ie) {
			fields = append(fields, zap.Int("position", ie.Position))
		}
		a.logger.Error("audit: ledger integrity broken", fields...)
	case res.Intact() && wasBroken:
		a.logger.Info("audit: ledger integrity restored",
			zap.Int("records", res.Records),
			zap.String("root", res.Root),
		)
	case res.Intact():
		a.logger.Debug("audit: ledger intact",
			zap.Int("records", res.Records),
			zap.String("root", res.Root),
		)
	}
	return res
}

// Last returns the most recent result; the zero Result before the first pass.
func (a *Auditor) Last() Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}
