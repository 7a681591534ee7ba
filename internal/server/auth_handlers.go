package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/flightline-labs/discstash/internal/identity"
	"github.com/flightline-labs/discstash/internal/signup"
)

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionPayload struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (h *httpHandler) handleSignUp(c *gin.Context) {
	var request credentialsPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	result, err := h.signupService.SignUp(c.Request.Context(), signup.Credentials{
		Email:    request.Email,
		Password: request.Password,
	})
	if err != nil {
		status := signup.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("signup failed", zap.Error(err))
		}
		c.JSON(status, gin.H{"error": signup.UserMessage(err)})
		return
	}

	c.JSON(http.StatusCreated, sessionPayload{
		UserID:      result.IdentityID,
		Email:       result.Email,
		AccessToken: result.AccessToken,
		ExpiresIn:   result.ExpiresIn,
		TokenType:   "Bearer",
	})
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request credentialsPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	session, err := h.identity.SignIn(c.Request.Context(), request.Email, request.Password)
	if err != nil {
		var serviceErr *identity.ServiceError
		if errors.As(err, &serviceErr) && serviceErr.Status < http.StatusInternalServerError {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login_failed"})
		return
	}

	c.JSON(http.StatusOK, sessionPayload{
		UserID:      session.IdentityID,
		Email:       session.Email,
		AccessToken: session.AccessToken,
		ExpiresIn:   session.ExpiresIn,
		TokenType:   "Bearer",
	})
}

func (h *httpHandler) handleLogout(c *gin.Context) {
	token := bearerToken(c)
	if err := h.identity.SignOut(c.Request.Context(), token); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout_failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleSession(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	email := c.GetString(emailContextKey)
	profile, err := h.profiles.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "email": email})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "email": email, "profile": profile})
}

func trimmedParam(c *gin.Context, name string) string {
	return strings.TrimSpace(c.Param(name))
}
