package handlers

import (
	"net/http"

	"github.com/easeplatform/buddy-chat/backend/internal/auth"
	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"github.com/easeplatform/buddy-chat/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// AuthHandler handles authentication-related HTTP requests. The configured
// auth.Service decides whether credentials are checked locally or
// delegated to the identity provider; the routes are identical either way.
type AuthHandler struct {
	authService    auth.Service
	userRepository repositories.UserRepository
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService auth.Service, userRepo repositories.UserRepository) *AuthHandler {
	return &AuthHandler{authService: authService, userRepository: userRepo}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	g.POST("/firebase-login", h.FirebaseLogin)
	g.POST("/signout", h.SignOut)
}

// RegisterSessionRoutes registers the authenticated session routes
func (h *AuthHandler) RegisterSessionRoutes(g *echo.Group) {
	g.GET("/auth/me", h.Me)
}

// Signup handles user registration
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	resp, err := h.authService.Signup(c.Request().Context(), req)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// SignIn handles email + password authentication
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SigninRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	resp, err := h.authService.SigninWithPassword(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// FirebaseLogin exchanges an identity-provider ID token for a local session
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	resp, err := h.authService.SigninWithIDToken(c.Request().Context(), req.IDToken)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// SignOut acknowledges a sign-out. Sessions are stateless JWTs, so the
// client discards its session record; nothing is revoked server-side.
func (h *AuthHandler) SignOut(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// Me reports the current session's user, for auth status checks
func (h *AuthHandler) Me(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	user, err := h.userRepository.GetUserByID(userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusUnauthorized, "User no longer exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"authenticated": true,
		"user":          user,
	})
}
