package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/flightline-labs/discstash/internal/marketplace"
	"github.com/flightline-labs/discstash/internal/messaging"
)

const streamHeartbeatInterval = 25 * time.Second

func (h *httpHandler) handleListConversations(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	conversations, err := h.messaging.ListConversations(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list conversations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "conversation_list_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

func (h *httpHandler) handleStartConversation(c *gin.Context) {
	var request struct {
		ListingID string `json:"listing_id"`
	}
	if err := c.ShouldBindJSON(&request); err != nil || request.ListingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	userID := c.GetString(userIDContextKey)
	conversation, err := h.messaging.StartConversation(c.Request.Context(), userID, request.ListingID)
	if err != nil {
		h.respondMessagingError(c, err, "failed to start conversation")
		return
	}
	c.JSON(http.StatusCreated, conversation)
}

func (h *httpHandler) handleListMessages(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	messages, err := h.messaging.ListMessages(c.Request.Context(), trimmedParam(c, "id"), userID)
	if err != nil {
		h.respondMessagingError(c, err, "failed to list messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *httpHandler) handleSendMessage(c *gin.Context) {
	var request struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	userID := c.GetString(userIDContextKey)
	message, err := h.messaging.SendMessage(c.Request.Context(), trimmedParam(c, "id"), userID, request.Content)
	if err != nil {
		h.respondMessagingError(c, err, "failed to send message")
		return
	}
	c.JSON(http.StatusCreated, message)
}

func (h *httpHandler) handleMarkRead(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	if err := h.messaging.MarkRead(c.Request.Context(), trimmedParam(c, "id"), userID); err != nil {
		h.respondMessagingError(c, err, "failed to mark conversation read")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleUnreadCount(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	count, err := h.messaging.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to count unread messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unread_count_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

type streamEventPayload struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
	SenderID       string `json:"senderId"`
	Timestamp      string `json:"timestamp"`
}

// handleMessageStream serves an SSE feed of message events for the
// authenticated user. Heartbeats keep intermediaries from closing the
// connection.
func (h *httpHandler) handleMessageStream(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	events, cleanup := h.messaging.Dispatcher().Subscribe(c.Request.Context(), userID)
	defer cleanup()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.Flush()

	heartbeat := time.NewTicker(streamHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-heartbeat.C:
			c.SSEvent("heartbeat", gin.H{"timestamp": time.Now().UTC().Format(time.RFC3339)})
			c.Writer.Flush()
		case event, ok := <-events:
			if !ok {
				return
			}
			c.SSEvent(event.EventType, streamEventPayload{
				ConversationID: event.ConversationID,
				MessageID:      event.MessageID,
				SenderID:       event.SenderID,
				Timestamp:      event.Timestamp.UTC().Format(time.RFC3339),
			})
			c.Writer.Flush()
		}
	}
}

func (h *httpHandler) respondMessagingError(c *gin.Context, err error, logMessage string) {
	switch {
	case errors.Is(err, messaging.ErrConversationNotFound), errors.Is(err, marketplace.ErrListingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, messaging.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": "not_a_participant"})
	case errors.Is(err, messaging.ErrOwnListing), errors.Is(err, messaging.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
	default:
		h.logger.Error(logMessage, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "messaging_failed"})
	}
}
