package auth

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"github.com/easeplatform/buddy-chat/backend/pkg/apperrors"
)

// fakeUserRepo is an in-memory UserRepository keyed by email
type fakeUserRepo struct {
	users  map[string]*models.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) CreateUser(user *models.User) error {
	if _, exists := r.users[user.Email]; exists {
		return gorm.ErrDuplicatedKey
	}
	if user.ID == "" {
		r.nextID++
		user.ID = "11111111-1111-1111-1111-00000000000" + string(rune('0'+r.nextID))
	}
	r.users[user.Email] = user
	return nil
}

func (r *fakeUserRepo) GetUserByID(id string) (*models.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetUserByEmail(email string) (*models.User, error) {
	if u, ok := r.users[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetUserByFirebaseUID(firebaseUID string) (*models.User, error) {
	for _, u := range r.users {
		if u.FirebaseUID == firebaseUID {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetUsersByIDs(ids []string) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, err := r.GetUserByID(id); err == nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateUser(user *models.User) error {
	r.users[user.Email] = user
	return nil
}

func (r *fakeUserRepo) EnsureUserExists(id string) error {
	if _, err := r.GetUserByID(id); err == nil {
		return nil
	}
	return r.CreateUser(&models.User{ID: id, Email: "user-" + id + "@placeholder.local"})
}

const testSecret = "test-secret"

func signupReq(email, password string) models.SignupRequest {
	return models.SignupRequest{
		Email:     email,
		Password:  password,
		FirstName: "Ada",
		LastName:  "Lovelace",
	}
}

func TestSignupAndSigninRoundtrip(t *testing.T) {
	svc := NewLocalService(newFakeUserRepo(), testSecret)

	resp, err := svc.Signup(context.Background(), signupReq("ada@example.com", "secret1"))
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.User.ID)
	assert.NotEqual(t, "secret1", resp.User.PasswordHash)

	signin, err := svc.SigninWithPassword(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, signin.User.ID)
}

func TestSignupRejectsWeakPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewLocalService(repo, testSecret)

	_, err := svc.Signup(context.Background(), signupReq("ada@example.com", "12345"))
	assert.Equal(t, apperrors.CodeWeakPassword, apperrors.CodeOf(err))
	assert.Empty(t, repo.users, "no account may be created for a weak password")
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	svc := NewLocalService(newFakeUserRepo(), testSecret)

	_, err := svc.Signup(context.Background(), signupReq("ada@example.com", "secret1"))
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), signupReq("ada@example.com", "another1"))
	assert.Equal(t, apperrors.CodeDuplicateAccount, apperrors.CodeOf(err))
}

func TestSignupTranslatesInsertRace(t *testing.T) {
	// the pre-check misses a concurrent insert; the unique index catches it
	repo := newFakeUserRepo()
	svc := NewLocalService(&racingUserRepo{fakeUserRepo: repo}, testSecret)

	_, err := svc.Signup(context.Background(), signupReq("ada@example.com", "secret1"))
	assert.Equal(t, apperrors.CodeDuplicateAccount, apperrors.CodeOf(err))
}

// racingUserRepo reports no user on lookup but collides on insert
type racingUserRepo struct {
	*fakeUserRepo
}

func (r *racingUserRepo) GetUserByEmail(email string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *racingUserRepo) CreateUser(user *models.User) error {
	return gorm.ErrDuplicatedKey
}

func TestSigninRejectsWrongPassword(t *testing.T) {
	svc := NewLocalService(newFakeUserRepo(), testSecret)

	_, err := svc.Signup(context.Background(), signupReq("ada@example.com", "secret1"))
	require.NoError(t, err)

	_, err = svc.SigninWithPassword(context.Background(), "ada@example.com", "wrong-password")
	assert.Equal(t, apperrors.CodeInvalidCredentials, apperrors.CodeOf(err))
}

func TestSigninUnknownEmailLooksLikeBadPassword(t *testing.T) {
	svc := NewLocalService(newFakeUserRepo(), testSecret)

	_, err := svc.SigninWithPassword(context.Background(), "nobody@example.com", "whatever1")
	assert.Equal(t, apperrors.CodeInvalidCredentials, apperrors.CodeOf(err))
}

func TestIDTokenSigninDisabledLocally(t *testing.T) {
	svc := NewLocalService(newFakeUserRepo(), testSecret)

	_, err := svc.SigninWithIDToken(context.Background(), "some-token")
	assert.Equal(t, apperrors.CodeInvalidCredentials, apperrors.CodeOf(err))
}

func TestIssuedTokenCarriesUserClaims(t *testing.T) {
	svc := NewLocalService(newFakeUserRepo(), testSecret)

	resp, err := svc.Signup(context.Background(), signupReq("ada@example.com", "secret1"))
	require.NoError(t, err)

	claims := &models.JwtCustomClaims{}
	_, err = jwt.ParseWithClaims(resp.Token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
}
