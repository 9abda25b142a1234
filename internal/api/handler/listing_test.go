package handler_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/listingledger/internal/api/handler"
	"github.com/jmerrifield20/listingledger/internal/chain"
	"github.com/jmerrifield20/listingledger/internal/listing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const mapoAddress = "World Cup-ro 10, Mapo-gu, Seoul"

func setupListingRouter(t *testing.T, ledger chain.Ledger) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handler.RequestID(), handler.BodyLimit(1024))
	h := handler.NewListingHandler(listing.NewService(ledger), zap.NewNop())
	h.Register(r.Group("/api/v1"))
	return r
}

func addListing(t *testing.T, router http.Handler, owner, price string) map[string]any {
	t.Helper()
	body := `{"address":"` + mapoAddress + `","owner":"` + owner + `","price":"` + price + `"}`
	w := do(t, router, http.MethodPost, "/api/v1/listings", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)
}

func TestListingAdd_201(t *testing.T) {
	router := setupListingRouter(t, chain.New())

	resp := addListing(t, router, "Kim", "500000000")
	l := resp["listing"].(map[string]any)
	assert.Equal(t, listing.PropertyID(mapoAddress), l["id"])
	assert.Equal(t, "Kim", l["owner"])
	rec := resp["record"].(map[string]any)
	assert.Equal(t, float64(1), rec["position"])
}

func TestListingAdd_repeatExtendsHistory(t *testing.T) {
	ledger := chain.New()
	router := setupListingRouter(t, ledger)
	addListing(t, router, "Kim", "500000000")
	resp := addListing(t, router, "Lee", "550000000")

	l := resp["listing"].(map[string]any)
	assert.Equal(t, "Lee", l["owner"])
	assert.Len(t, l["price_history"], 2)
	assert.Len(t, l["owner_history"], 2)
	assert.NoError(t, ledger.Verify(context.Background()))
}

func TestListingAdd_400_missingFields(t *testing.T) {
	ledger := chain.New()
	router := setupListingRouter(t, ledger)

	w := do(t, router, http.MethodPost, "/api/v1/listings", `{"address":"`+mapoAddress+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/listings", `{bad`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	n, _ := ledger.Len(context.Background())
	assert.Equal(t, 1, n)
}

func TestListingAdd_413_tooLarge(t *testing.T) {
	router := setupListingRouter(t, chain.New())
	body := `{"address":"` + strings.Repeat("x", 2048) + `","owner":"a","price":"1"}`
	w := do(t, router, http.MethodPost, "/api/v1/listings", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestListingAdd_500(t *testing.T) {
	router := setupListingRouter(t, failingLedger{chain.New()})
	w := do(t, router, http.MethodPost, "/api/v1/listings",
		`{"address":"`+mapoAddress+`","owner":"Kim","price":"1"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListingList_200(t *testing.T) {
	ledger := chain.New()
	router := setupListingRouter(t, ledger)

	w := do(t, router, http.MethodGet, "/api/v1/listings", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, float64(0), resp["total"])
	assert.Equal(t, []any{}, resp["listings"])

	_, _ = ledger.Append(context.Background(), "free-form listing text")
	addListing(t, router, "Kim", "1")
	addListing(t, router, "Lee", "2")

	resp = decode(t, do(t, router, http.MethodGet, "/api/v1/listings", ""))
	assert.Equal(t, float64(1), resp["total"])
}

func TestListingGet_200_and_404(t *testing.T) {
	router := setupListingRouter(t, chain.New())
	addListing(t, router, "Kim", "1")

	id := listing.PropertyID(mapoAddress)
	w := do(t, router, http.MethodGet, "/api/v1/listings/"+id, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, mapoAddress, decode(t, w)["address"])

	w = do(t, router, http.MethodGet, "/api/v1/listings/"+strings.ToUpper(id), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/listings/"+listing.PropertyID("nowhere"), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListingHistory_200_and_404(t *testing.T) {
	router := setupListingRouter(t, chain.New())
	addListing(t, router, "Kim", "1")
	addListing(t, router, "Lee", "2")

	id := listing.PropertyID(mapoAddress)
	w := do(t, router, http.MethodGet, "/api/v1/listings/"+id+"/history", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Equal(t, id, resp["id"])
	history := resp["history"].([]any)
	require.Len(t, history, 2)
	assert.Equal(t, "Lee", history[1].(map[string]any)["owner"])
	assert.Equal(t, float64(2), history[1].(map[string]any)["position"])

	w = do(t, router, http.MethodGet, "/api/v1/listings/unknown/history", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
