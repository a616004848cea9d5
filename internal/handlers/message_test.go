package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"github.com/easeplatform/buddy-chat/backend/internal/realtime"
	"github.com/easeplatform/buddy-chat/backend/validators"
)

type fakeMessageRepo struct {
	messages  []models.Message
	insertErr error
}

func (f *fakeMessageRepo) InsertMessage(ctx context.Context, m *models.Message) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	f.messages = append(f.messages, *m)
	return nil
}

func (f *fakeMessageRepo) GetThread(ctx context.Context, userA, userB string) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.messages {
		samePair := (m.SenderID == userA && m.RecipientID == userB) ||
			(m.SenderID == userB && m.RecipientID == userA)
		if samePair {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeConversationRepo struct {
	conversations []models.Conversation
	touched       []time.Time
	touchErr      error
}

func (f *fakeConversationRepo) GetConversationsForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, c := range f.conversations {
		if c.Participant1ID == userID || c.Participant2ID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) EnsureConversation(ctx context.Context, a, b, pairID string) (*models.Conversation, error) {
	conv := models.Conversation{
		ID:             primitive.NewObjectID(),
		Participant1ID: a,
		Participant2ID: b,
		BuddyPairID:    pairID,
	}
	f.conversations = append(f.conversations, conv)
	return &conv, nil
}

func (f *fakeConversationRepo) TouchLastActivity(ctx context.Context, a, b string, at time.Time) (*models.Conversation, error) {
	if f.touchErr != nil {
		return nil, f.touchErr
	}
	f.touched = append(f.touched, at)
	conv := models.Conversation{
		ID:             primitive.NewObjectID(),
		Participant1ID: a,
		Participant2ID: b,
		LastActivity:   at,
	}
	return &conv, nil
}

func newTestContext(e *echo.Echo, method, target, body, userID string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("userID", userID)
	return c, rec
}

func newMessageTestHandler(msgRepo *fakeMessageRepo, convRepo *fakeConversationRepo) (*MessageHandler, *echo.Echo, *realtime.Hub) {
	e := echo.New()
	e.Validator = validators.NewValidator()
	hub := realtime.NewHub()
	return NewMessageHandler(msgRepo, convRepo, hub), e, hub
}

const (
	senderID    = "aaaaaaaa-1111-4111-8111-111111111111"
	recipientID = "bbbbbbbb-2222-4222-8222-222222222222"
)

func sendBody(content string) string {
	body, _ := json.Marshal(models.SendMessageRequest{
		RecipientID: recipientID,
		Content:     content,
		MessageType: "text",
	})
	return string(body)
}

func TestSendMessageStoresAndPublishes(t *testing.T) {
	msgRepo := &fakeMessageRepo{}
	convRepo := &fakeConversationRepo{}
	h, e, hub := newMessageTestHandler(msgRepo, convRepo)

	sentToRecipient := hub.Subscribe(realtime.Filter{
		Table: "messages", Column: "recipient_id", Value: recipientID, Type: realtime.EventInsert,
	}, 4)
	defer hub.Unsubscribe(sentToRecipient)
	convUpdated := hub.Subscribe(realtime.Filter{
		Table: "conversations", Column: "participant1_id", Value: senderID, Type: realtime.EventUpdate,
	}, 4)
	defer hub.Unsubscribe(convUpdated)

	c, rec := newTestContext(e, http.MethodPost, "/messages", sendBody("hello there"), senderID)
	require.NoError(t, h.SendMessage(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, msgRepo.messages, 1)
	assert.Equal(t, "hello there", msgRepo.messages[0].Content)
	assert.Len(t, convRepo.touched, 1)
	assert.Len(t, sentToRecipient.C, 1)
	assert.Len(t, convUpdated.C, 1)
}

func TestSendMessageRejectsWhitespaceBeforeWriting(t *testing.T) {
	msgRepo := &fakeMessageRepo{}
	convRepo := &fakeConversationRepo{}
	h, e, _ := newMessageTestHandler(msgRepo, convRepo)

	c, rec := newTestContext(e, http.MethodPost, "/messages", sendBody("   \n\t  "), senderID)
	require.NoError(t, h.SendMessage(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, msgRepo.messages, "nothing may be written for blank content")
	assert.Empty(t, convRepo.touched)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "SEND_FAILED", body["code"])
}

func TestSendMessageTrimsContent(t *testing.T) {
	msgRepo := &fakeMessageRepo{}
	h, e, _ := newMessageTestHandler(msgRepo, &fakeConversationRepo{})

	c, rec := newTestContext(e, http.MethodPost, "/messages", sendBody("  hi  "), senderID)
	require.NoError(t, h.SendMessage(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, msgRepo.messages, 1)
	assert.Equal(t, "hi", msgRepo.messages[0].Content)
}

func TestSendMessageSurvivesTouchFailure(t *testing.T) {
	// recency refresh is best-effort; the stored message must still be
	// acknowledged
	msgRepo := &fakeMessageRepo{}
	convRepo := &fakeConversationRepo{touchErr: errors.New("mongo down")}
	h, e, _ := newMessageTestHandler(msgRepo, convRepo)

	c, rec := newTestContext(e, http.MethodPost, "/messages", sendBody("hello"), senderID)
	require.NoError(t, h.SendMessage(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, msgRepo.messages, 1)
}

func TestSendMessageReportsInsertFailure(t *testing.T) {
	msgRepo := &fakeMessageRepo{insertErr: errors.New("mongo down")}
	h, e, _ := newMessageTestHandler(msgRepo, &fakeConversationRepo{})

	c, rec := newTestContext(e, http.MethodPost, "/messages", sendBody("hello"), senderID)
	require.NoError(t, h.SendMessage(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "SEND_FAILED", body["code"])
}

func TestGetThreadSymmetricForBothMembers(t *testing.T) {
	msgRepo := &fakeMessageRepo{}
	h, e, _ := newMessageTestHandler(msgRepo, &fakeConversationRepo{})

	c, _ := newTestContext(e, http.MethodPost, "/messages", sendBody("first"), senderID)
	require.NoError(t, h.SendMessage(c))

	for _, viewer := range []struct{ me, other string }{
		{senderID, recipientID},
		{recipientID, senderID},
	} {
		c, rec := newTestContext(e, http.MethodGet, "/messages/"+viewer.other, "", viewer.me)
		c.SetParamNames("otherUserID")
		c.SetParamValues(viewer.other)
		require.NoError(t, h.GetThread(c))

		var thread []models.Message
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &thread))
		require.Len(t, thread, 1)
		assert.Equal(t, "first", thread[0].Content)
	}
}

func TestGetThreadEmptyIsArrayNotNull(t *testing.T) {
	h, e, _ := newMessageTestHandler(&fakeMessageRepo{}, &fakeConversationRepo{})

	c, rec := newTestContext(e, http.MethodGet, "/messages/"+recipientID, "", senderID)
	c.SetParamNames("otherUserID")
	c.SetParamValues(recipientID)
	require.NoError(t, h.GetThread(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}
