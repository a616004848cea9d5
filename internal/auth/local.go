package auth

import (
	"context"

	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"github.com/easeplatform/buddy-chat/backend/internal/repositories"
	"github.com/easeplatform/buddy-chat/backend/pkg/apperrors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LocalService authenticates against password digests stored in the users
// table. This is the legacy variant; the digest comparison happens here so
// it exposes the exact same contract as the delegating variant.
type LocalService struct {
	users  repositories.UserRepository
	issuer tokenIssuer
}

// NewLocalService creates a LocalService
func NewLocalService(users repositories.UserRepository, jwtSecret string) *LocalService {
	return &LocalService{users: users, issuer: tokenIssuer{secret: jwtSecret}}
}

// Signup registers a new user with a bcrypt password digest
func (s *LocalService) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	if len(req.Password) < MinPasswordLength {
		return nil, apperrors.ErrWeakPassword
	}

	// Check if user with this email already exists
	if _, err := s.users.GetUserByEmail(req.Email); err == nil {
		return nil, apperrors.ErrDuplicateAccount
	} else if err != gorm.ErrRecordNotFound {
		return nil, apperrors.Transport("failed to check existing account", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Unexpected("failed to hash password", err)
	}

	user := &models.User{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hashedPassword),
	}
	if err := s.users.CreateUser(user); err != nil {
		// The unique index on email resolves signup races; translate the
		// violation the same way as the pre-check.
		if isDuplicateEmail(err) {
			return nil, apperrors.ErrDuplicateAccount
		}
		return nil, apperrors.Transport("failed to create account", err)
	}

	token, err := s.issuer.issue(user)
	if err != nil {
		return nil, apperrors.Unexpected("failed to generate token after signup", err)
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

// SigninWithPassword compares the stored digest for the given email
func (s *LocalService) SigninWithPassword(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Transport("failed to look up account", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.issuer.issue(user)
	if err != nil {
		return nil, apperrors.Unexpected("failed to generate token", err)
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

// SigninWithIDToken is not available for the local variant
func (s *LocalService) SigninWithIDToken(ctx context.Context, idToken string) (*models.AuthResponse, error) {
	return nil, apperrors.InvalidCredentials("Identity provider login is not enabled.")
}

func isDuplicateEmail(err error) bool {
	return err == gorm.ErrDuplicatedKey ||
		(err != nil && containsUniqueViolation(err.Error()))
}
