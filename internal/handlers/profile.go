package handlers

import (
	"net/http"

	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"github.com/easeplatform/buddy-chat/backend/internal/repositories"
	"github.com/easeplatform/buddy-chat/backend/pkg/apperrors"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ProfileHandler handles buddy profile HTTP requests
type ProfileHandler struct {
	profileRepository repositories.ProfileRepository
	userRepository    repositories.UserRepository
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profileRepo repositories.ProfileRepository, userRepo repositories.UserRepository) *ProfileHandler {
	return &ProfileHandler{profileRepository: profileRepo, userRepository: userRepo}
}

// RegisterProfileRoutes registers profile routes
func (h *ProfileHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.SaveProfile)
}

// GetProfile retrieves the authenticated user's buddy profile. A missing
// profile is not an error: the response carries setup_state "setup" and a
// null profile so the UI shows the setup card instead of the management
// card.
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	profile, err := h.profileRepository.GetProfileByUserID(userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(http.StatusOK, models.ProfileResponse{Profile: nil, SetupState: "setup"})
		}
		return respondAppError(c, apperrors.Transport("failed to load profile", err))
	}
	return c.JSON(http.StatusOK, models.ProfileResponse{Profile: profile, SetupState: "manage"})
}

// SaveProfile creates or updates the user's one profile. The flow checks
// existence first; an insert that still loses the race to the unique
// constraint is retried as an update rather than surfaced as a failure.
func (h *ProfileHandler) SaveProfile(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.ProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	profile := h.profileFromRequest(userID, req)

	existing, err := h.profileRepository.GetProfileByUserID(userID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return respondAppError(c, apperrors.Transport("failed to check existing profile", err))
	}

	created := existing == nil
	if created {
		err = h.profileRepository.CreateProfile(profile)
		if err == repositories.ErrProfileExists {
			// Lost an insert race; the row exists now, so update it.
			created = false
			err = h.profileRepository.UpdateProfile(profile)
		}
	} else {
		err = h.profileRepository.UpdateProfile(profile)
	}
	if err != nil {
		return respondAppError(c, apperrors.Transport("failed to save profile", err))
	}

	saved, err := h.profileRepository.GetProfileByUserID(userID)
	if err != nil {
		return respondAppError(c, apperrors.Transport("failed to reload profile", err))
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, models.ProfileResponse{Profile: saved, SetupState: "manage"})
}

// profileFromRequest builds the profile row, deriving a display name from
// the user record when the form left it blank.
func (h *ProfileHandler) profileFromRequest(userID string, req models.ProfileRequest) *models.Profile {
	displayName := req.DisplayName
	if displayName == "" {
		if user, err := h.userRepository.GetUserByID(userID); err == nil {
			displayName = user.DisplayName()
		} else {
			displayName = "User"
		}
	}

	return &models.Profile{
		UserID:                 userID,
		DisplayName:            displayName,
		Bio:                    req.Bio,
		AgeRange:               req.AgeRange,
		Timezone:               req.Timezone,
		PreferredCommunication: req.PreferredCommunication,
		Interests:              req.Interests,
		SupportGoals:           req.SupportGoals,
		IsSeekingBuddy:         req.IsSeekingBuddy,
		IsAvailableAsBuddy:     req.IsAvailableAsBuddy,
	}
}
