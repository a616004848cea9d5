package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"github.com/easeplatform/buddy-chat/backend/internal/realtime"
	"github.com/easeplatform/buddy-chat/backend/internal/repositories"
	"github.com/easeplatform/buddy-chat/backend/pkg/apperrors"
	"github.com/labstack/echo/v4"
)

// MessageHandler handles message thread HTTP requests and the send_message
// procedure.
type MessageHandler struct {
	messageRepository      repositories.MessageRepository
	conversationRepository repositories.ConversationRepository
	hub                    *realtime.Hub
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(msgRepo repositories.MessageRepository, convRepo repositories.ConversationRepository, hub *realtime.Hub) *MessageHandler {
	return &MessageHandler{
		messageRepository:      msgRepo,
		conversationRepository: convRepo,
		hub:                    hub,
	}
}

// RegisterMessageRoutes registers message routes
func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.GET("/messages/:otherUserID", h.GetThread)
	g.POST("/messages", h.SendMessage)
}

// GetThread returns the thread between the current user and the given
// counterpart, sent_at ascending. Membership is the participant pair in
// either direction, so both members see the identical sequence.
func (h *MessageHandler) GetThread(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	otherUserID := c.Param("otherUserID")
	if otherUserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing counterpart user ID")
	}

	messages, err := h.messageRepository.GetThread(c.Request().Context(), userID, otherUserID)
	if err != nil {
		return respondAppError(c, apperrors.Transport("failed to load messages", err))
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return c.JSON(http.StatusOK, messages)
}

// SendMessage is the send_message procedure: append the message, bump the
// conversation's recency, and publish both change events. Whitespace-only
// content is rejected before anything is written.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return respondAppError(c, apperrors.ErrEmptyMessage)
	}

	message := &models.Message{
		SenderID:    userID,
		RecipientID: req.RecipientID,
		Content:     content,
		MessageType: req.MessageType,
		SentAt:      time.Now(),
	}
	ctx := c.Request().Context()
	if err := h.messageRepository.InsertMessage(ctx, message); err != nil {
		return respondAppError(c, apperrors.SendFailed("Failed to send message", err))
	}

	conversation, err := h.conversationRepository.TouchLastActivity(ctx, userID, req.RecipientID, message.SentAt)
	if err != nil {
		// The message is durable; recency is refreshed on the next send.
		c.Logger().Errorf("failed to touch conversation for %s: %v", userID, err)
	}

	h.hub.Publish("messages", realtime.EventInsert, map[string]string{
		"sender_id":    message.SenderID,
		"recipient_id": message.RecipientID,
	}, message)
	if conversation != nil {
		h.hub.Publish("conversations", realtime.EventUpdate, map[string]string{
			"participant1_id": conversation.Participant1ID,
			"participant2_id": conversation.Participant2ID,
		}, conversation)
	}

	return c.JSON(http.StatusCreated, message)
}
