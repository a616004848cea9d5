package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"github.com/easeplatform/buddy-chat/backend/pkg/apperrors"
)

type fakeUsers struct {
	existing map[string]bool
	ensured  []string
}

func (f *fakeUsers) CreateUser(u *models.User) error { return nil }
func (f *fakeUsers) GetUserByID(id string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUsers) GetUserByEmail(e string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUsers) GetUserByFirebaseUID(u string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUsers) GetUsersByIDs(ids []string) ([]models.User, error) { return nil, nil }
func (f *fakeUsers) UpdateUser(u *models.User) error { return nil }
func (f *fakeUsers) EnsureUserExists(id string) error {
	f.ensured = append(f.ensured, id)
	return nil
}

type fakeProfiles struct {
	byUser    map[string]*models.Profile
	available []models.Profile
	rpcResult []string
	rpcErr    error
	scanned   bool
}

func (f *fakeProfiles) GetProfileByUserID(userID string) (*models.Profile, error) {
	if p, ok := f.byUser[userID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProfiles) GetProfilesByUserIDs(ids []string) ([]models.Profile, error) { return nil, nil }
func (f *fakeProfiles) CreateProfile(p *models.Profile) error                       { return nil }
func (f *fakeProfiles) UpdateProfile(p *models.Profile) error                       { return nil }

func (f *fakeProfiles) FindAvailableBuddies(excludeUserID string) ([]models.Profile, error) {
	f.scanned = true
	var out []models.Profile
	for _, p := range f.available {
		if p.UserID != excludeUserID && p.IsAvailableAsBuddy {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProfiles) FindPotentialBuddies(userID string) ([]string, error) {
	if f.rpcErr != nil {
		return nil, f.rpcErr
	}
	return f.rpcResult, nil
}

type fakePairs struct {
	pairs     []*models.BuddyPair
	createErr error
}

func (f *fakePairs) CreatePair(pair *models.BuddyPair) error {
	if f.createErr != nil {
		return f.createErr
	}
	pair.ID = "pair-1"
	f.pairs = append(f.pairs, pair)
	return nil
}

func (f *fakePairs) GetPairByUsers(a, b string) (*models.BuddyPair, error) {
	for _, p := range f.pairs {
		if (p.User1ID == a && p.User2ID == b) || (p.User1ID == b && p.User2ID == a) {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePairs) GetPairsForUser(userID string) ([]models.BuddyPair, error) { return nil, nil }

type fakeConversations struct {
	ensured [][2]string
}

func (f *fakeConversations) GetConversationsForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	return nil, nil
}

func (f *fakeConversations) EnsureConversation(ctx context.Context, a, b, pairID string) (*models.Conversation, error) {
	f.ensured = append(f.ensured, [2]string{a, b})
	return &models.Conversation{Participant1ID: a, Participant2ID: b, BuddyPairID: pairID}, nil
}

func (f *fakeConversations) TouchLastActivity(ctx context.Context, a, b string, at time.Time) (*models.Conversation, error) {
	return nil, nil
}

func newTestMatcher(profiles *fakeProfiles, pairs *fakePairs) (*Matcher, *fakeUsers, *fakeConversations) {
	users := &fakeUsers{existing: map[string]bool{}}
	conversations := &fakeConversations{}
	return NewMatcher(users, profiles, pairs, conversations), users, conversations
}

func availableProfile(userID string) models.Profile {
	return models.Profile{UserID: userID, IsAvailableAsBuddy: true}
}

func TestFindCandidatePrefersStoredProcedure(t *testing.T) {
	profiles := &fakeProfiles{rpcResult: []string{"candidate-1", "candidate-2"}}
	m, _, _ := newTestMatcher(profiles, &fakePairs{})

	id, err := m.FindCandidate(context.Background(), "me")
	require.NoError(t, err)
	assert.Equal(t, "candidate-1", id)
	assert.False(t, profiles.scanned, "scan must not run when the procedure answers")
}

func TestFindCandidateFallsBackWhenProcedureFails(t *testing.T) {
	profiles := &fakeProfiles{
		rpcErr:    errors.New(`function find_potential_buddies(uuid) does not exist`),
		available: []models.Profile{availableProfile("candidate-9")},
	}
	m, _, _ := newTestMatcher(profiles, &fakePairs{})

	id, err := m.FindCandidate(context.Background(), "me")
	require.NoError(t, err)
	assert.Equal(t, "candidate-9", id)
	assert.True(t, profiles.scanned)
}

func TestFindCandidateScanExcludesSelfAndUnavailable(t *testing.T) {
	profiles := &fakeProfiles{
		rpcErr: errors.New("unavailable"),
		available: []models.Profile{
			{UserID: "me", IsAvailableAsBuddy: true},
			{UserID: "busy", IsAvailableAsBuddy: false},
			{UserID: "free", IsAvailableAsBuddy: true},
		},
	}
	m, _, _ := newTestMatcher(profiles, &fakePairs{})

	id, err := m.FindCandidate(context.Background(), "me")
	require.NoError(t, err)
	assert.Equal(t, "free", id)
}

func TestFindCandidateNobodyAvailable(t *testing.T) {
	profiles := &fakeProfiles{rpcErr: errors.New("unavailable")}
	m, _, _ := newTestMatcher(profiles, &fakePairs{})

	id, err := m.FindCandidate(context.Background(), "me")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestCreatePairEnsuresUsersAndConversation(t *testing.T) {
	pairs := &fakePairs{}
	m, users, conversations := newTestMatcher(&fakeProfiles{}, pairs)

	pair, err := m.CreatePair(context.Background(), "user-a", "user-b")
	require.NoError(t, err)
	assert.Equal(t, "user-a", pair.User1ID)
	assert.Equal(t, "user-b", pair.User2ID)
	// both members get a user record before the pair's foreign keys bind
	assert.Equal(t, []string{"user-a", "user-b"}, users.ensured)
	require.Len(t, conversations.ensured, 1)
	assert.Equal(t, [2]string{"user-a", "user-b"}, conversations.ensured[0])
}

func TestCreatePairRejectsSelfMatch(t *testing.T) {
	m, _, _ := newTestMatcher(&fakeProfiles{}, &fakePairs{})

	_, err := m.CreatePair(context.Background(), "user-a", "user-a")
	assert.Equal(t, apperrors.CodeMatchCreationFailed, apperrors.CodeOf(err))
}

func TestCreatePairIdempotentForExistingPair(t *testing.T) {
	pairs := &fakePairs{pairs: []*models.BuddyPair{
		{ID: "pair-0", User1ID: "user-b", User2ID: "user-a"},
	}}
	m, users, conversations := newTestMatcher(&fakeProfiles{}, pairs)

	pair, err := m.CreatePair(context.Background(), "user-a", "user-b")
	require.NoError(t, err)
	assert.Equal(t, "pair-0", pair.ID)
	assert.Empty(t, users.ensured, "no new records for an already matched pair")
	assert.Len(t, conversations.ensured, 1)
}

func TestCreatePairReportsStoreFailure(t *testing.T) {
	pairs := &fakePairs{createErr: errors.New("insert or update on table \"buddy_pairs\" violates foreign key constraint")}
	m, _, _ := newTestMatcher(&fakeProfiles{}, pairs)

	_, err := m.CreatePair(context.Background(), "user-a", "user-b")
	assert.Equal(t, apperrors.CodeMatchCreationFailed, apperrors.CodeOf(err))
}

func TestMatchRequiresProfile(t *testing.T) {
	m, _, _ := newTestMatcher(&fakeProfiles{byUser: map[string]*models.Profile{}}, &fakePairs{})

	_, err := m.Match(context.Background(), "me")
	assert.Equal(t, apperrors.CodeProfileNotFound, apperrors.CodeOf(err))
}

func TestMatchFullFlow(t *testing.T) {
	profiles := &fakeProfiles{
		byUser:    map[string]*models.Profile{"me": {UserID: "me"}},
		rpcResult: []string{"candidate-1"},
	}
	m, _, _ := newTestMatcher(profiles, &fakePairs{})

	result, err := m.Match(context.Background(), "me")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, "candidate-1", result.CandidateID)
	require.NotNil(t, result.Pair)
}

func TestMatchNoCandidates(t *testing.T) {
	profiles := &fakeProfiles{
		byUser: map[string]*models.Profile{"me": {UserID: "me"}},
		rpcErr: errors.New("unavailable"),
	}
	m, _, _ := newTestMatcher(profiles, &fakePairs{})

	result, err := m.Match(context.Background(), "me")
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Empty(t, result.CandidateID)
}
