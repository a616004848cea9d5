package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"

	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"github.com/easeplatform/buddy-chat/backend/validators"
)

// fakeProfileRepo records batch lookups so tests can assert the list is
// resolved in one query.
type fakeProfileRepo struct {
	byUser       map[string]*models.Profile
	batchqueries [][]string
}

func (f *fakeProfileRepo) GetProfileByUserID(userID string) (*models.Profile, error) {
	if p, ok := f.byUser[userID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProfileRepo) GetProfilesByUserIDs(ids []string) ([]models.Profile, error) {
	f.batchqueriesAppend(ids)
	var out []models.Profile
	for _, id := range ids {
		if p, ok := f.byUser[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProfileRepo) batchqueriesAppend(ids []string) {
	f.batchqueries = append(f.batchqueries, ids)
}

func (f *fakeProfileRepo) CreateProfile(p *models.Profile) error {
	if f.byUser == nil {
		f.byUser = map[string]*models.Profile{}
	}
	f.byUser[p.UserID] = p
	return nil
}

func (f *fakeProfileRepo) UpdateProfile(p *models.Profile) error {
	f.byUser[p.UserID] = p
	return nil
}

func (f *fakeProfileRepo) FindAvailableBuddies(excludeUserID string) ([]models.Profile, error) {
	return nil, nil
}

func (f *fakeProfileRepo) FindPotentialBuddies(userID string) ([]string, error) {
	return nil, nil
}

const (
	listUserID = "cccccccc-3333-4333-8333-333333333333"
	buddyOneID = "dddddddd-4444-4444-8444-444444444444"
	buddyTwoID = "eeeeeeee-5555-4555-8555-555555555555"
)

func conversationAt(p1, p2 string, lastActivity time.Time) models.Conversation {
	return models.Conversation{
		ID:             primitive.NewObjectID(),
		Participant1ID: p1,
		Participant2ID: p2,
		LastActivity:   lastActivity,
	}
}

func TestListConversationsResolvesNamesInOneBatch(t *testing.T) {
	now := time.Now()
	convRepo := &fakeConversationRepo{conversations: []models.Conversation{
		conversationAt(listUserID, buddyOneID, now),
		conversationAt(buddyTwoID, listUserID, now.Add(-time.Hour)),
	}}
	profileRepo := &fakeProfileRepo{byUser: map[string]*models.Profile{
		buddyOneID: {UserID: buddyOneID, DisplayName: "Sam"},
		buddyTwoID: {UserID: buddyTwoID, DisplayName: "Alex"},
	}}

	e := echo.New()
	e.Validator = validators.NewValidator()
	h := NewConversationHandler(convRepo, profileRepo)

	c, rec := newTestContext(e, http.MethodGet, "/conversations", "", listUserID)
	require.NoError(t, h.ListConversations(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var views []models.ConversationView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "Sam", views[0].CounterpartName)
	assert.Equal(t, buddyOneID, views[0].CounterpartID)
	assert.Equal(t, "Alex", views[1].CounterpartName)
	assert.Equal(t, buddyTwoID, views[1].CounterpartID)

	require.Len(t, profileRepo.batchqueries, 1, "counterpart names must come from a single batched query")
	assert.ElementsMatch(t, []string{buddyOneID, buddyTwoID}, profileRepo.batchqueries[0])
}

func TestListConversationsFallbackName(t *testing.T) {
	convRepo := &fakeConversationRepo{conversations: []models.Conversation{
		conversationAt(listUserID, buddyOneID, time.Now()),
	}}
	profileRepo := &fakeProfileRepo{byUser: map[string]*models.Profile{}}

	e := echo.New()
	h := NewConversationHandler(convRepo, profileRepo)

	c, rec := newTestContext(e, http.MethodGet, "/conversations", "", listUserID)
	require.NoError(t, h.ListConversations(c))

	var views []models.ConversationView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Buddy "+buddyOneID[:8], views[0].CounterpartName)
}

func TestListConversationsEmpty(t *testing.T) {
	e := echo.New()
	h := NewConversationHandler(&fakeConversationRepo{}, &fakeProfileRepo{})

	c, rec := newTestContext(e, http.MethodGet, "/conversations", "", listUserID)
	require.NoError(t, h.ListConversations(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var views []models.ConversationView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	assert.Empty(t, views)

	assert.Empty(t, (&fakeProfileRepo{}).batchqueries)
}
