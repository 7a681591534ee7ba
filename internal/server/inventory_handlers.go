package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/flightline-labs/discstash/internal/inventory"
)

type discPayload struct {
	DiscModelID       string `json:"disc_model_id"`
	StorageLocationID string `json:"storage_location_id"`
	Condition         string `json:"condition"`
	Color             string `json:"color"`
	WeightGrams       int    `json:"weight_grams"`
	Notes             string `json:"notes"`
}

func (h *httpHandler) handleListDiscs(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	discs, err := h.inventory.ListDiscs(c.Request.Context(), userID, inventory.Filters{
		Search:         c.Query("search"),
		ManufacturerID: c.Query("manufacturer_id"),
		DiscType:       c.Query("disc_type"),
		Condition:      c.Query("condition"),
		LocationID:     c.Query("location_id"),
	})
	if err != nil {
		h.logger.Error("failed to list discs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "inventory_list_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"discs": discs})
}

func (h *httpHandler) handleAddDisc(c *gin.Context) {
	var request discPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	userID := c.GetString(userIDContextKey)
	disc, err := h.inventory.AddDisc(c.Request.Context(), userID, inventory.AddDiscInput{
		DiscModelID:       request.DiscModelID,
		StorageLocationID: request.StorageLocationID,
		Condition:         request.Condition,
		Color:             request.Color,
		WeightGrams:       request.WeightGrams,
		Notes:             request.Notes,
	})
	if err != nil {
		h.respondInventoryError(c, err, "failed to add disc")
		return
	}
	c.JSON(http.StatusCreated, disc)
}

func (h *httpHandler) handleGetDisc(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	disc, err := h.inventory.GetDisc(c.Request.Context(), userID, trimmedParam(c, "id"))
	if err != nil {
		h.respondInventoryError(c, err, "failed to load disc")
		return
	}
	c.JSON(http.StatusOK, disc)
}

func (h *httpHandler) handleUpdateDisc(c *gin.Context) {
	var request discPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	userID := c.GetString(userIDContextKey)
	disc, err := h.inventory.UpdateDisc(c.Request.Context(), userID, trimmedParam(c, "id"), inventory.UpdateDiscInput{
		StorageLocationID: request.StorageLocationID,
		Condition:         request.Condition,
		Color:             request.Color,
		WeightGrams:       request.WeightGrams,
		Notes:             request.Notes,
	})
	if err != nil {
		h.respondInventoryError(c, err, "failed to update disc")
		return
	}
	c.JSON(http.StatusOK, disc)
}

func (h *httpHandler) handleRemoveDisc(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	if err := h.inventory.RemoveDisc(c.Request.Context(), userID, trimmedParam(c, "id")); err != nil {
		h.respondInventoryError(c, err, "failed to remove disc")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleUploadDiscImage(c *gin.Context) {
	if h.images == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "image_uploads_disabled"})
		return
	}

	userID := c.GetString(userIDContextKey)
	discID := trimmedParam(c, "id")
	if _, err := h.inventory.GetDisc(c.Request.Context(), userID, discID); err != nil {
		h.respondInventoryError(c, err, "failed to load disc for image upload")
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_file_required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_image_file"})
		return
	}
	defer file.Close()

	imageURL, err := h.images.Save(file, fileHeader.Filename)
	if err != nil {
		if errors.Is(err, inventory.ErrImageTooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image_too_large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_image"})
		return
	}
	if err := h.inventory.SetDiscImage(c.Request.Context(), userID, discID, imageURL); err != nil {
		h.respondInventoryError(c, err, "failed to attach disc image")
		return
	}
	c.JSON(http.StatusOK, gin.H{"image_url": imageURL})
}

func (h *httpHandler) handleListManufacturers(c *gin.Context) {
	manufacturers, err := h.inventory.ListManufacturers(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list manufacturers", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "catalog_list_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"manufacturers": manufacturers})
}

func (h *httpHandler) handleListModels(c *gin.Context) {
	models, err := h.inventory.ListModels(c.Request.Context(), c.Query("manufacturer_id"))
	if err != nil {
		h.logger.Error("failed to list disc models", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "catalog_list_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}

func (h *httpHandler) handleAddLocation(c *gin.Context) {
	var request struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&request); err != nil || request.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	userID := c.GetString(userIDContextKey)
	location, err := h.inventory.AddLocation(c.Request.Context(), userID, request.Name)
	if err != nil {
		h.logger.Error("failed to add storage location", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "location_add_failed"})
		return
	}
	c.JSON(http.StatusCreated, location)
}

func (h *httpHandler) handleListLocations(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	locations, err := h.inventory.ListLocations(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list storage locations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "location_list_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locations})
}

func (h *httpHandler) respondInventoryError(c *gin.Context, err error, logMessage string) {
	switch {
	case errors.Is(err, inventory.ErrDiscNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "disc_not_found"})
	case errors.Is(err, inventory.ErrUnknownDiscModel):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_disc_model"})
	case errors.Is(err, inventory.ErrUnknownLocation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_storage_location"})
	case errors.Is(err, inventory.ErrInvalidAttribute):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
	default:
		h.logger.Error(logMessage, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "inventory_failed"})
	}
}
