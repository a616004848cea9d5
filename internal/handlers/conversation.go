package handlers

import (
	"net/http"

	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"github.com/easeplatform/buddy-chat/backend/internal/repositories"
	"github.com/easeplatform/buddy-chat/backend/pkg/apperrors"
	"github.com/labstack/echo/v4"
)

// ConversationHandler handles conversation list HTTP requests
type ConversationHandler struct {
	conversationRepository repositories.ConversationRepository
	profileRepository      repositories.ProfileRepository
}

// NewConversationHandler creates a new ConversationHandler
func NewConversationHandler(convRepo repositories.ConversationRepository, profileRepo repositories.ProfileRepository) *ConversationHandler {
	return &ConversationHandler{conversationRepository: convRepo, profileRepository: profileRepo}
}

// RegisterConversationRoutes registers conversation routes
func (h *ConversationHandler) RegisterConversationRoutes(g *echo.Group) {
	g.GET("/conversations", h.ListConversations)
}

// ListConversations returns the user's conversations ordered by
// last_activity descending, each annotated with the counterpart's display
// name. All counterpart names are resolved with one batched profile query,
// never one query per conversation.
func (h *ConversationHandler) ListConversations(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	conversations, err := h.conversationRepository.GetConversationsForUser(c.Request().Context(), userID)
	if err != nil {
		return respondAppError(c, apperrors.Transport("failed to load conversations", err))
	}

	counterpartIDs := make([]string, 0, len(conversations))
	for _, conv := range conversations {
		counterpartIDs = append(counterpartIDs, conv.CounterpartID(userID))
	}

	names := map[string]string{}
	if len(counterpartIDs) > 0 {
		profiles, err := h.profileRepository.GetProfilesByUserIDs(counterpartIDs)
		if err != nil {
			return respondAppError(c, apperrors.Transport("failed to load buddy profiles", err))
		}
		for _, p := range profiles {
			names[p.UserID] = p.DisplayName
		}
	}

	views := make([]models.ConversationView, 0, len(conversations))
	for _, conv := range conversations {
		counterpartID := conv.CounterpartID(userID)
		views = append(views, models.ConversationView{
			Conversation:    conv,
			CounterpartID:   counterpartID,
			CounterpartName: displayNameOrFallback(names, counterpartID),
		})
	}
	return c.JSON(http.StatusOK, views)
}

// displayNameOrFallback mirrors the UI's "Buddy a1b2c3d4" placeholder for
// counterparts without a profile.
func displayNameOrFallback(names map[string]string, userID string) string {
	if name, ok := names[userID]; ok && name != "" {
		return name
	}
	short := userID
	if len(short) > 8 {
		short = short[:8]
	}
	return "Buddy " + short
}
