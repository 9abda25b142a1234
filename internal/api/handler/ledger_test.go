package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/listingledger/internal/api/handler"
	"github.com/jmerrifield20/listingledger/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupLedgerRouter(t *testing.T, ledger chain.Ledger) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handler.RequestID(), handler.BodyLimit(1024))
	h := handler.NewLedgerHandler(ledger, zap.NewNop())
	h.SetVerifyCache(handler.NewVerifyCache(1))
	v1 := r.Group("/api/v1")
	h.Register(v1)
	return r
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestLedgerOverview_200(t *testing.T) {
	ledger := chain.New()
	router := setupLedgerRouter(t, ledger)

	w := do(t, router, http.MethodGet, "/api/v1/ledger", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode(t, w)
	assert.Equal(t, float64(1), resp["records"])
	assert.Equal(t, chain.Genesis().Hash, resp["root"])
}

func TestLedgerVerify_200(t *testing.T) {
	router := setupLedgerRouter(t, chain.New())

	for i := 0; i < 2; i++ { // second call is served from the cache
		w := do(t, router, http.MethodGet, "/api/v1/ledger/verify", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decode(t, w)["valid"])
	}
}

// brokenLedger reports an integrity failure from Verify.
type brokenLedger struct {
	*chain.MemoryLedger
}

func (brokenLedger) Verify(context.Context) error {
	return &chain.IntegrityError{Position: 3, Reason: "stored hash does not match content"}
}

func TestLedgerVerify_broken(t *testing.T) {
	router := setupLedgerRouter(t, brokenLedger{chain.New()})

	w := do(t, router, http.MethodGet, "/api/v1/ledger/verify", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, false, resp["valid"])
	assert.Equal(t, float64(3), resp["position"])
	assert.Contains(t, resp["error"], "record 3")
}

func TestLedgerAppend_201(t *testing.T) {
	ledger := chain.New(chain.WithClock(chain.FixedClock("2025-04-01")))
	router := setupLedgerRouter(t, ledger)

	w := do(t, router, http.MethodPost, "/api/v1/ledger/records", `{"payload":"A"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rec chain.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, 1, rec.Position)
	assert.Equal(t, "A", rec.Payload)
	assert.Equal(t, "2025-04-01", rec.Timestamp)
	assert.Equal(t, chain.Genesis().Hash, rec.PreviousHash)

	n, _ := ledger.Len(context.Background())
	assert.Equal(t, 2, n)
	assert.NotEmpty(t, w.Header().Get(handler.RequestIDHeader))
}

func TestLedgerAppend_emptyPayload(t *testing.T) {
	router := setupLedgerRouter(t, chain.New())
	w := do(t, router, http.MethodPost, "/api/v1/ledger/records", `{"payload":""}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestLedgerAppend_400_missingPayload(t *testing.T) {
	router := setupLedgerRouter(t, chain.New())
	w := do(t, router, http.MethodPost, "/api/v1/ledger/records", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLedgerAppend_400_badJSON(t *testing.T) {
	router := setupLedgerRouter(t, chain.New())
	w := do(t, router, http.MethodPost, "/api/v1/ledger/records", `{"payload":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLedgerAppend_413_tooLarge(t *testing.T) {
	ledger := chain.New()
	router := setupLedgerRouter(t, ledger)

	body := `{"payload":"` + strings.Repeat("x", 2048) + `"}`
	w := do(t, router, http.MethodPost, "/api/v1/ledger/records", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	n, _ := ledger.Len(context.Background())
	assert.Equal(t, 1, n)
}

// failingLedger fails every Append.
type failingLedger struct {
	*chain.MemoryLedger
}

func (failingLedger) Append(context.Context, string) (chain.Record, error) {
	return chain.Record{}, errors.New("disk on fire")
}

func TestLedgerAppend_500(t *testing.T) {
	router := setupLedgerRouter(t, failingLedger{chain.New()})
	w := do(t, router, http.MethodPost, "/api/v1/ledger/records", `{"payload":"A"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLedgerListRecords_pagination(t *testing.T) {
	ledger := chain.New()
	for _, p := range []string{"A", "B", "C", "D"} {
		_, _ = ledger.Append(context.Background(), p)
	}
	router := setupLedgerRouter(t, ledger)

	w := do(t, router, http.MethodGet, "/api/v1/ledger/records?offset=1&limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Records []chain.Record `json:"records"`
		Total   int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.Total)
	require.Len(t, resp.Records, 2)
	assert.Equal(t, "A", resp.Records[0].Payload)
	assert.Equal(t, "B", resp.Records[1].Payload)
}

func TestLedgerListRecords_offsetPastEnd(t *testing.T) {
	router := setupLedgerRouter(t, chain.New())
	w := do(t, router, http.MethodGet, "/api/v1/ledger/records?offset=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decode(t, w)["records"])
}

func TestLedgerListRecords_400(t *testing.T) {
	router := setupLedgerRouter(t, chain.New())
	for _, q := range []string{"offset=-1", "offset=x", "limit=0", "limit=y"} {
		w := do(t, router, http.MethodGet, "/api/v1/ledger/records?"+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestLedgerGetRecord_200_genesis(t *testing.T) {
	router := setupLedgerRouter(t, chain.New())

	w := do(t, router, http.MethodGet, "/api/v1/ledger/records/0", "")
	require.Equal(t, http.StatusOK, w.Code)

	var rec chain.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, chain.Genesis(), rec)
}

func TestLedgerGetRecord_404(t *testing.T) {
	router := setupLedgerRouter(t, chain.New())
	w := do(t, router, http.MethodGet, "/api/v1/ledger/records/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLedgerGetRecord_400_invalidPosition(t *testing.T) {
	router := setupLedgerRouter(t, chain.New())
	w := do(t, router, http.MethodGet, "/api/v1/ledger/records/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestID_propagatesInbound(t *testing.T) {
	router := setupLedgerRouter(t, chain.New())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ledger", bytes.NewReader(nil))
	req.Header.Set(handler.RequestIDHeader, "listing-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "listing-42", w.Header().Get(handler.RequestIDHeader))
}
