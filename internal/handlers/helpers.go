package handlers

import (
	"net/http"

	"github.com/easeplatform/buddy-chat/backend/pkg/apperrors"
	"github.com/labstack/echo/v4"
)

// getUserIDFromContext returns the authenticated user's id set by the JWT
// middleware, or "" when unauthenticated.
func getUserIDFromContext(c echo.Context) string {
	userID, _ := c.Get("userID").(string)
	return userID
}

// respondAppError renders a categorized failure as JSON so clients can
// translate the stable code, never the raw backend error string.
func respondAppError(c echo.Context, err error) error {
	code := apperrors.CodeOf(err)
	return c.JSON(httpStatusOf(code), map[string]string{
		"code":    string(code),
		"message": userMessageOf(err),
	})
}

func httpStatusOf(code apperrors.Code) int {
	switch code {
	case apperrors.CodeDuplicateAccount, apperrors.CodeProfileAlreadyExists:
		return http.StatusConflict
	case apperrors.CodeInvalidCredentials, apperrors.CodeUnconfirmedEmail:
		return http.StatusUnauthorized
	case apperrors.CodeWeakPassword, apperrors.CodeSendFailed:
		return http.StatusBadRequest
	case apperrors.CodeProfileNotFound:
		return http.StatusNotFound
	case apperrors.CodeMatchCreationFailed:
		return http.StatusUnprocessableEntity
	case apperrors.CodeTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func userMessageOf(err error) string {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr.Message
	}
	return "An unexpected error occurred. Please try again."
}
