// Package auth collapses the platform's duplicate signup/signin flows into
// one interface with two backing strategies: local password digests in the
// users table, or delegation to the Firebase identity service. Callers are
// agnostic to which strategy is configured.
package auth

import (
	"context"
	"time"

	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
)

// Service is the authentication contract shared by both strategies.
// Failures carry stable apperrors codes (duplicate account, invalid
// credentials, unconfirmed email, weak password) rather than raw backend
// error strings.
type Service interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error)
	SigninWithPassword(ctx context.Context, email, password string) (*models.AuthResponse, error)
	SigninWithIDToken(ctx context.Context, idToken string) (*models.AuthResponse, error)
}

// MinPasswordLength mirrors the identity service's own minimum so both
// strategies reject the same passwords.
const MinPasswordLength = 6

const tokenTTL = 72 * time.Hour

// tokenIssuer signs the session JWTs returned by either strategy
type tokenIssuer struct {
	secret string
}

func (t tokenIssuer) issue(user *models.User) (string, error) {
	claims := &models.JwtCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(t.secret))
}
