package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/listingledger/internal/chain"
	"go.uber.org/zap"
)

// Pagination limits for GET /ledger/records.
const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// LedgerHandler exposes HTTP endpoints for the listing ledger.
type LedgerHandler struct {
	ledger chain.Ledger
	cache  VerifyCache
	logger *zap.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledger chain.Ledger, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, cache: noopVerifyCache{}, logger: logger}
}

// SetVerifyCache configures the cache consulted by Verify.
func (h *LedgerHandler) SetVerifyCache(c VerifyCache) {
	if c != nil {
		h.cache = c
	}
}

// Register mounts the ledger routes on the given router group.
func (h *LedgerHandler) Register(rg *gin.RouterGroup) {
	l := rg.Group("/ledger")
	{
		l.GET("", h.Overview)
		l.GET("/verify", h.Verify)
		l.GET("/records", h.ListRecords)
		l.POST("/records", h.AppendRecord)
		l.GET("/records/:position", h.GetRecord)
	}
}

// Overview handles GET /ledger — returns the chain length and current root hash.
func (h *LedgerHandler) Overview(c *gin.Context) {
	ctx := c.Request.Context()

	count, err := h.ledger.Len(ctx)
	if err != nil {
		h.logger.Error("ledger Len", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query ledger"})
		return
	}

	root, err := h.ledger.Root(ctx)
	if err != nil {
		h.logger.Error("ledger Root", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query ledger root"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": count,
		"root":    root,
	})
}

// Verify handles GET /ledger/verify — walks the full chain and reports integrity.
func (h *LedgerHandler) Verify(c *gin.Context) {
	ctx := c.Request.Context()

	root, err := h.ledger.Root(ctx)
	if err != nil {
		h.logger.Error("ledger Root", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query ledger root"})
		return
	}
	if h.cache.Verified(root) {
		recordVerifyCache(true)
		c.JSON(http.StatusOK, gin.H{"valid": true, "root": root})
		return
	}
	recordVerifyCache(false)

	if err := h.ledger.Verify(ctx); err != nil {
		h.logger.Warn("ledger integrity check failed", zap.Error(err))
		resp := gin.H{"valid": false, "error": err.Error()}
		var ie *chain.IntegrityError
		if errors.As(err, &ie) {
			resp["position"] = ie.Position
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	h.cache.MarkVerified(root)
	c.JSON(http.StatusOK, gin.H{"valid": true, "root": root})
}

// ListRecords handles GET /ledger/records — returns a page of records in chain order.
func (h *LedgerHandler) ListRecords(c *gin.Context) {
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
		return
	}
	limit, err := queryInt(c, "limit", defaultListLimit)
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	records, err := h.ledger.Records(c.Request.Context())
	if err != nil {
		h.logger.Error("ledger Records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list records"})
		return
	}

	total := len(records)
	page := []chain.Record{}
	if offset < total {
		end := min(offset+limit, total)
		page = records[offset:end]
	}

	c.JSON(http.StatusOK, gin.H{
		"records": page,
		"total":   total,
		"offset":  offset,
		"limit":   limit,
	})
}

// GetRecord handles GET /ledger/records/:position — returns a single record.
func (h *LedgerHandler) GetRecord(c *gin.Context) {
	pos, err := strconv.Atoi(c.Param("position"))
	if err != nil || pos < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "position must be a non-negative integer"})
		return
	}

	rec, err := h.ledger.Get(c.Request.Context(), pos)
	if err != nil {
		if errors.Is(err, chain.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		h.logger.Error("ledger Get", zap.Int("position", pos), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get record"})
		return
	}

	c.JSON(http.StatusOK, rec)
}

type appendRequest struct {
	Payload *string `json:"payload"`
}

// AppendRecord handles POST /ledger/records — appends a listing payload.
func (h *LedgerHandler) AppendRecord(c *gin.Context) {
	var req appendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if req.Payload == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload is required"})
		return
	}

	ctx := c.Request.Context()
	rec, err := h.ledger.Append(ctx, *req.Payload)
	if err != nil {
		h.logger.Error("ledger Append", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to append record"})
		return
	}
	RecordAppend(rec.Position + 1)

	h.logger.Info("record appended",
		zap.Int("position", rec.Position),
		zap.String("hash", rec.Hash),
		zap.String("request_id", c.GetString(RequestIDKey)),
	)
	c.JSON(http.StatusCreated, rec)
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	s := c.Query(key)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
