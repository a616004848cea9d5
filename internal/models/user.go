package models

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is one registered person. IDs are UUIDs so buddy pairs and messages
// can reference users created by either auth variant.
type User struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex"` // Ensure email is unique across all users
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"` // Store hashed password, ignore for JSON serialization
	FirebaseUID  string    `json:"firebase_uid,omitempty" gorm:"index"` // Link to Firebase User UID (firebase provider only)
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayName builds the "First Last" label shown next to conversations.
// Stub users created during matching fall back to "User".
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return "User"
	}
	return name
}

type SignupRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name" validate:"required,min=1,max=50"`
	LastName  string `json:"last_name" validate:"omitempty,max=50"`
}

type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// FirebaseLoginRequest defines the request body for identity-provider login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// AuthResponse is returned by signup/signin on success
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
