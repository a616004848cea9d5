package auth

import (
	"context"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"github.com/easeplatform/buddy-chat/backend/internal/repositories"
	"github.com/easeplatform/buddy-chat/backend/pkg/apperrors"
	"gorm.io/gorm"
)

// FirebaseService delegates credentials to the Firebase identity service;
// passwords never touch application code. Verified identities are mirrored
// into the users table and a local session JWT is issued.
type FirebaseService struct {
	users        repositories.UserRepository
	firebaseAuth *fbauth.Client
	issuer       tokenIssuer
}

// NewFirebaseService creates a FirebaseService
func NewFirebaseService(users repositories.UserRepository, firebaseAuth *fbauth.Client, jwtSecret string) *FirebaseService {
	return &FirebaseService{
		users:        users,
		firebaseAuth: firebaseAuth,
		issuer:       tokenIssuer{secret: jwtSecret},
	}
}

// Signup creates the account at the identity provider, then mirrors it
func (s *FirebaseService) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	if len(req.Password) < MinPasswordLength {
		return nil, apperrors.ErrWeakPassword
	}

	params := (&fbauth.UserToCreate{}).
		Email(req.Email).
		Password(req.Password).
		DisplayName(strings.TrimSpace(req.FirstName + " " + req.LastName))

	record, err := s.firebaseAuth.CreateUser(ctx, params)
	if err != nil {
		return nil, translateIdentityError(err)
	}

	user := &models.User{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		FirebaseUID: record.UID,
	}
	if err := s.users.CreateUser(user); err != nil {
		if isDuplicateEmail(err) {
			return nil, apperrors.ErrDuplicateAccount
		}
		return nil, apperrors.Transport("failed to create account record", err)
	}

	token, err := s.issuer.issue(user)
	if err != nil {
		return nil, apperrors.Unexpected("failed to generate token after signup", err)
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

// SigninWithPassword is not available for the delegating variant; clients
// exchange credentials with the identity provider and present its ID token.
func (s *FirebaseService) SigninWithPassword(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	return nil, apperrors.InvalidCredentials("Password sign-in is handled by the identity provider. Present an ID token instead.")
}

// SigninWithIDToken verifies a provider ID token and issues a local JWT,
// provisioning or refreshing the mirrored user record.
func (s *FirebaseService) SigninWithIDToken(ctx context.Context, idToken string) (*models.AuthResponse, error) {
	token, err := s.firebaseAuth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, apperrors.InvalidCredentials("Invalid or expired ID token.")
	}

	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)

	user, err := s.users.GetUserByFirebaseUID(token.UID)
	if err == gorm.ErrRecordNotFound {
		// Fall back to email before provisioning a fresh record.
		user, err = s.users.GetUserByEmail(email)
		if err == gorm.ErrRecordNotFound {
			user = &models.User{Email: email, FirebaseUID: token.UID}
			user.FirstName, user.LastName = splitName(name)
			if createErr := s.users.CreateUser(user); createErr != nil {
				return nil, apperrors.Transport("failed to provision user", createErr)
			}
			err = nil
		} else if err == nil {
			user.FirebaseUID = token.UID
			if updateErr := s.users.UpdateUser(user); updateErr != nil {
				return nil, apperrors.Transport("failed to link identity", updateErr)
			}
		}
	}
	if err != nil {
		return nil, apperrors.Transport("failed to look up account", err)
	}

	localJWT, err := s.issuer.issue(user)
	if err != nil {
		return nil, apperrors.Unexpected("failed to generate token", err)
	}
	return &models.AuthResponse{Token: localJWT, User: user}, nil
}

// translateIdentityError maps identity-provider faults onto the stable
// user-facing categories. Unrecognized faults stay uncategorized.
func translateIdentityError(err error) error {
	switch {
	case fbauth.IsEmailAlreadyExists(err):
		return apperrors.ErrDuplicateAccount
	case strings.Contains(err.Error(), "password must be a string at least"):
		return apperrors.ErrWeakPassword
	case strings.Contains(err.Error(), "email not confirmed"),
		strings.Contains(err.Error(), "EMAIL_NOT_VERIFIED"):
		return apperrors.ErrUnconfirmedEmail
	default:
		return apperrors.Unexpected("identity provider error", err)
	}
}

func splitName(name string) (first, last string) {
	parts := strings.SplitN(strings.TrimSpace(name), " ", 2)
	first = parts[0]
	if len(parts) > 1 {
		last = parts[1]
	}
	return first, last
}

func containsUniqueViolation(msg string) bool {
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
