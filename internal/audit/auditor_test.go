package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmerrifield20/listingledger/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// ── Stubs ────────────────────────────────────────────────────────────────

type stubVerifier struct {
	mu  sync.Mutex
	err error
	n   int
}

func (s *stubVerifier) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *stubVerifier) Verify(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *stubVerifier) Len(context.Context) (int, error)     { return s.n, nil }
func (s *stubVerifier) Root(context.Context) (string, error) { return "root", nil }

// ── Tests ────────────────────────────────────────────────────────────────

func TestCheck_intactLedger(t *testing.T) {
	l := chain.New()
	_, _ = l.Append(context.Background(), "A")

	a := New(l, Config{}, zap.NewNop())
	res := a.Check(context.Background())

	assert.True(t, res.Intact())
	assert.Equal(t, 2, res.Records)
	root, _ := l.Root(context.Background())
	assert.Equal(t, root, res.Root)
	assert.Equal(t, res, a.Last())
}

func TestCheck_metricsCallback(t *testing.T) {
	v := &stubVerifier{n: 3}
	a := New(v, Config{}, zap.NewNop())

	var (
		got     []bool
		lengths []int
	)
	a.SetMetricsRecord(func(intact bool, records int) {
		got = append(got, intact)
		lengths = append(lengths, records)
	})

	a.Check(context.Background())
	v.setErr(&chain.IntegrityError{Position: 2, Reason: "stored hash does not match content"})
	a.Check(context.Background())

	assert.Equal(t, []bool{true, false}, got)
	assert.Equal(t, []int{3, 3}, lengths)
}

func TestCheck_logsTransitionsOnce(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	v := &stubVerifier{n: 3, err: &chain.IntegrityError{Position: 1, Reason: "previous hash does not match predecessor"}}
	a := New(v, Config{}, zap.New(core))

	a.Check(context.Background())
	a.Check(context.Background())
	broken := logs.FilterMessage("audit: ledger integrity broken")
	require.Equal(t, 1, broken.Len())
	assert.Equal(t, int64(1), broken.All()[0].ContextMap()["position"])

	v.setErr(nil)
	a.Check(context.Background())
	assert.Equal(t, 1, logs.FilterMessage("audit: ledger integrity restored").Len())
}

func TestCheck_nonIntegrityError(t *testing.T) {
	v := &stubVerifier{err: errors.New("boom")}
	a := New(v, Config{}, zap.NewNop())
	res := a.Check(context.Background())
	assert.False(t, res.Intact())
	assert.EqualError(t, res.Err, "boom")
}

func TestStart_stopsOnCancel(t *testing.T) {
	v := &stubVerifier{n: 1}
	a := New(v, Config{Interval: 5 * time.Millisecond}, zap.NewNop())

	var mu sync.Mutex
	runs := 0
	a.SetMetricsRecord(func(bool, int) {
		mu.Lock()
		runs++
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
