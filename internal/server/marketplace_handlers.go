package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/flightline-labs/discstash/internal/marketplace"
)

type listingPayload struct {
	DiscID      string `json:"disc_id"`
	ListingType string `json:"listing_type"`
	PriceCents  int64  `json:"price_cents"`
	Description string `json:"description"`
}

func (h *httpHandler) handleListListings(c *gin.Context) {
	listings, err := h.marketplace.ListListings(c.Request.Context(), marketplace.Filters{
		Type:           c.Query("type"),
		ManufacturerID: c.Query("manufacturer_id"),
		DiscType:       c.Query("disc_type"),
		MinPriceCents:  queryInt64(c, "min_price_cents"),
		MaxPriceCents:  queryInt64(c, "max_price_cents"),
		Search:         c.Query("search"),
	})
	if err != nil {
		h.logger.Error("failed to list marketplace listings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "marketplace_list_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": listings})
}

func (h *httpHandler) handleCreateListing(c *gin.Context) {
	var request listingPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	userID := c.GetString(userIDContextKey)
	listing, err := h.marketplace.CreateListing(c.Request.Context(), userID, marketplace.CreateListingInput{
		DiscID:      request.DiscID,
		ListingType: request.ListingType,
		PriceCents:  request.PriceCents,
		Description: request.Description,
	})
	if err != nil {
		h.respondMarketplaceError(c, err, "failed to create listing")
		return
	}
	c.JSON(http.StatusCreated, listing)
}

func (h *httpHandler) handleGetListing(c *gin.Context) {
	listing, err := h.marketplace.GetListing(c.Request.Context(), trimmedParam(c, "id"))
	if err != nil {
		h.respondMarketplaceError(c, err, "failed to load listing")
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *httpHandler) handleDeactivateListing(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	if err := h.marketplace.Deactivate(c.Request.Context(), userID, trimmedParam(c, "id")); err != nil {
		h.respondMarketplaceError(c, err, "failed to deactivate listing")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) respondMarketplaceError(c *gin.Context, err error, logMessage string) {
	switch {
	case errors.Is(err, marketplace.ErrListingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "listing_not_found"})
	case errors.Is(err, marketplace.ErrDiscNotOwned):
		c.JSON(http.StatusForbidden, gin.H{"error": "disc_not_owned"})
	case errors.Is(err, marketplace.ErrDiscAlreadyListed):
		c.JSON(http.StatusConflict, gin.H{"error": "disc_already_listed"})
	case errors.Is(err, marketplace.ErrInvalidPrice), errors.Is(err, marketplace.ErrUnknownListingType):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
	default:
		h.logger.Error(logMessage, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "marketplace_failed"})
	}
}

func queryInt64(c *gin.Context, name string) int64 {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return value
}
