package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/flightline-labs/discstash/internal/profiles"
)

type profileUpdatePayload struct {
	Username            string `json:"username"`
	FullName            string `json:"full_name"`
	Bio                 string `json:"bio"`
	FavoriteDisc        string `json:"favorite_disc"`
	FavoriteGolfer      string `json:"favorite_golfer"`
	Phone               string `json:"phone"`
	InventoryVisibility string `json:"inventory_visibility"`
}

func (h *httpHandler) handleGetProfile(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	profile, err := h.profiles.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, profiles.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile_not_found"})
			return
		}
		h.logger.Error("failed to load profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_load_failed"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *httpHandler) handleUpdateProfile(c *gin.Context) {
	var request profileUpdatePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	userID := c.GetString(userIDContextKey)
	visibility := request.InventoryVisibility
	if visibility == "" {
		current, err := h.profiles.GetByID(c.Request.Context(), userID)
		if err == nil {
			visibility = current.InventoryVisibility
		}
	}
	if _, err := profiles.ParseVisibility(visibility); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_visibility"})
		return
	}

	profile, err := h.profiles.Apply(c.Request.Context(), userID, profiles.Update{
		Username:            request.Username,
		FullName:            request.FullName,
		Bio:                 request.Bio,
		FavoriteDisc:        request.FavoriteDisc,
		FavoriteGolfer:      request.FavoriteGolfer,
		Phone:               request.Phone,
		InventoryVisibility: visibility,
	})
	if err != nil {
		if errors.Is(err, profiles.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile_not_found"})
			return
		}
		h.logger.Error("failed to update profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_update_failed"})
		return
	}
	c.JSON(http.StatusOK, profile)
}
