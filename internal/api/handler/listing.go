package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/listingledger/internal/listing"
	"go.uber.org/zap"
)

// ListingHandler exposes the structured listing view of the chain.
type ListingHandler struct {
	svc    *listing.Service
	logger *zap.Logger
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(svc *listing.Service, logger *zap.Logger) *ListingHandler {
	return &ListingHandler{svc: svc, logger: logger}
}

// Register mounts the listing routes on the given router group.
func (h *ListingHandler) Register(rg *gin.RouterGroup) {
	l := rg.Group("/listings")
	{
		l.GET("", h.List)
		l.POST("", h.Add)
		l.GET("/:id", h.Get)
		l.GET("/:id/history", h.History)
	}
}

// List handles GET /listings.
func (h *ListingHandler) List(c *gin.Context) {
	all, err := h.svc.All(c.Request.Context())
	if err != nil {
		h.logger.Error("listing All", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list listings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": all, "total": len(all)})
}

// Get handles GET /listings/:id.
func (h *ListingHandler) Get(c *gin.Context) {
	id := strings.ToLower(c.Param("id"))
	l, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.lookupError(c, id, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// History handles GET /listings/:id/history.
func (h *ListingHandler) History(c *gin.Context) {
	id := strings.ToLower(c.Param("id"))
	events, err := h.svc.History(c.Request.Context(), id)
	if err != nil {
		h.lookupError(c, id, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "history": events})
}

// Add handles POST /listings. A repeated address extends the listing's history.
func (h *ListingHandler) Add(c *gin.Context) {
	var req listing.AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	l, rec, err := h.svc.Add(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, listing.ErrInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("listing Add", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add listing"})
		return
	}
	RecordAppend(rec.Position + 1)

	h.logger.Info("listing event appended",
		zap.String("listing_id", l.ID),
		zap.Int("position", rec.Position),
		zap.String("request_id", c.GetString(RequestIDKey)),
	)
	c.JSON(http.StatusCreated, gin.H{"listing": l, "record": rec})
}

func (h *ListingHandler) lookupError(c *gin.Context, id string, err error) {
	if errors.Is(err, listing.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		return
	}
	h.logger.Error("listing lookup", zap.String("listing_id", id), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read listing"})
}
