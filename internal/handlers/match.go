package handlers

import (
	"net/http"

	"github.com/easeplatform/buddy-chat/backend/internal/matching"
	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// MatchHandler handles buddy matching HTTP requests
type MatchHandler struct {
	matcher *matching.Matcher
}

// NewMatchHandler creates a new MatchHandler
func NewMatchHandler(matcher *matching.Matcher) *MatchHandler {
	return &MatchHandler{matcher: matcher}
}

// RegisterMatchRoutes registers matching routes
func (h *MatchHandler) RegisterMatchRoutes(g *echo.Group) {
	g.POST("/buddies/find", h.FindCandidate)
	g.POST("/buddies/pair", h.CreatePair)
	g.POST("/buddies/match", h.Match)
}

// FindCandidate returns an eligible counterpart id without creating a pair
func (h *MatchHandler) FindCandidate(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	candidateID, err := h.matcher.FindCandidate(c.Request().Context(), userID)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"candidate_id": candidateID})
}

// CreatePair creates a buddy pair with a specific counterpart
func (h *MatchHandler) CreatePair(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.MatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	pair, err := h.matcher.CreatePair(c.Request().Context(), userID, req.OtherUserID)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(http.StatusCreated, pair)
}

// Match runs the full find-buddy flow for the "Find Buddy" button
func (h *MatchHandler) Match(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	result, err := h.matcher.Match(c.Request().Context(), userID)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
