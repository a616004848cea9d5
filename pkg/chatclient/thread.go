package chatclient

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"github.com/easeplatform/buddy-chat/backend/pkg/apperrors"
)

// threadAPI is the slice of the backend surface the thread needs
type threadAPI interface {
	GetThread(ctx context.Context, otherUserID string) ([]models.Message, error)
	SendMessage(ctx context.Context, recipientID, content string) (*models.Message, error)
}

// ChatMessage is one rendered message. Pending marks an optimistic entry
// that has not been acknowledged yet; its ID is a temporary client id
// until the stored message replaces it.
type ChatMessage struct {
	ID          string
	SenderID    string
	RecipientID string
	Content     string
	MessageType string
	SentAt      time.Time
	Pending     bool
}

func fromStored(m models.Message) ChatMessage {
	return ChatMessage{
		ID:          m.ID.Hex(),
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Content:     m.Content,
		MessageType: m.MessageType,
		SentAt:      m.SentAt,
	}
}

// MessageThreadController owns the open thread with one counterpart:
// history loading, optimistic sends, and incoming realtime messages.
// Sends are serialized; a second send while one is in flight is rejected
// without touching the thread.
type MessageThreadController struct {
	api      threadAPI
	userID   string
	notifier Notifier

	mu       sync.Mutex
	otherID  string
	epoch    int
	messages []ChatMessage
	sending  bool
	draft    string

	onChange func([]ChatMessage)
}

// NewMessageThreadController creates a controller for the signed-in user
func NewMessageThreadController(api threadAPI, userID string, notifier Notifier) *MessageThreadController {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &MessageThreadController{api: api, userID: userID, notifier: notifier}
}

// OnChange registers the render callback, invoked with a snapshot of the
// thread after every mutation.
func (t *MessageThreadController) OnChange(fn func([]ChatMessage)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = fn
}

// Open switches the thread to the given counterpart and loads history,
// oldest first. A response from a previously opened thread that arrives
// after the switch is discarded.
func (t *MessageThreadController) Open(ctx context.Context, otherUserID string) ([]ChatMessage, error) {
	t.mu.Lock()
	t.otherID = otherUserID
	t.epoch++
	epoch := t.epoch
	t.messages = nil
	t.mu.Unlock()

	stored, err := t.api.GetThread(ctx, otherUserID)
	if err != nil {
		return nil, err
	}

	msgs := make([]ChatMessage, 0, len(stored))
	for _, m := range stored {
		msgs = append(msgs, fromStored(m))
	}

	t.mu.Lock()
	if t.epoch != epoch {
		t.mu.Unlock()
		return nil, nil
	}
	t.messages = msgs
	snapshot := t.snapshotLocked()
	fn := t.onChange
	t.mu.Unlock()

	if fn != nil {
		fn(snapshot)
	}
	return snapshot, nil
}

// Close clears the thread so late responses and stray events are dropped
func (t *MessageThreadController) Close() {
	t.mu.Lock()
	t.otherID = ""
	t.epoch++
	t.messages = nil
	t.sending = false
	t.mu.Unlock()
}

// Draft returns input text restored after a failed send
func (t *MessageThreadController) Draft() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.draft
}

// Messages returns a snapshot of the thread
func (t *MessageThreadController) Messages() []ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Send sends content to the open counterpart. The message appears in the
// thread immediately as pending; on acknowledgment the stored message
// replaces it, on failure it is removed and the input text is restored.
func (t *MessageThreadController) Send(ctx context.Context, content string) (*ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.ErrEmptyMessage
	}

	t.mu.Lock()
	if t.otherID == "" {
		t.mu.Unlock()
		return nil, apperrors.SendFailed("no conversation is open", nil)
	}
	if t.sending {
		t.mu.Unlock()
		return nil, apperrors.SendFailed("a message is already being sent", nil)
	}
	t.sending = true
	t.draft = ""
	otherID := t.otherID
	epoch := t.epoch

	pending := ChatMessage{
		ID:          "temp-" + uuid.New().String(),
		SenderID:    t.userID,
		RecipientID: otherID,
		Content:     content,
		MessageType: "text",
		SentAt:      time.Now(),
		Pending:     true,
	}
	t.messages = append(t.messages, pending)
	snapshot := t.snapshotLocked()
	fn := t.onChange
	t.mu.Unlock()

	if fn != nil {
		fn(snapshot)
	}

	stored, err := t.api.SendMessage(ctx, otherID, content)

	t.mu.Lock()
	t.sending = false
	if t.epoch != epoch {
		t.mu.Unlock()
		if err != nil {
			return nil, apperrors.SendFailed("Failed to send message. Please try again.", err)
		}
		return nil, nil
	}

	if err != nil {
		t.removeLocked(pending.ID)
		t.draft = content
		snapshot = t.snapshotLocked()
		fn = t.onChange
		t.mu.Unlock()

		if fn != nil {
			fn(snapshot)
		}
		t.notifier.Notify("Failed to send message. Please try again.", LevelError)
		return nil, apperrors.SendFailed("Failed to send message. Please try again.", err)
	}

	confirmed := fromStored(*stored)
	replaced := false
	for i := range t.messages {
		if t.messages[i].ID == pending.ID {
			t.messages[i] = confirmed
			replaced = true
			break
		}
	}
	if !replaced {
		// the realtime feed may have delivered it first
		if !t.containsLocked(confirmed.ID) {
			t.messages = append(t.messages, confirmed)
		}
	}
	snapshot = t.snapshotLocked()
	fn = t.onChange
	t.mu.Unlock()

	if fn != nil {
		fn(snapshot)
	}
	return &confirmed, nil
}

// HandleIncoming appends a realtime message when it belongs to the open
// thread and has not been seen. Messages for other counterparts are
// reported true so the caller can raise a passive notification instead.
func (t *MessageThreadController) HandleIncoming(m models.Message) (notifyElsewhere bool) {
	msg := fromStored(m)

	t.mu.Lock()
	if t.otherID == "" || (msg.SenderID != t.otherID && msg.RecipientID != t.otherID) {
		t.mu.Unlock()
		return msg.RecipientID == t.userID
	}
	if t.containsLocked(msg.ID) {
		t.mu.Unlock()
		return false
	}
	t.messages = append(t.messages, msg)
	snapshot := t.snapshotLocked()
	fn := t.onChange
	t.mu.Unlock()

	if fn != nil {
		fn(snapshot)
	}
	return false
}

func (t *MessageThreadController) snapshotLocked() []ChatMessage {
	out := make([]ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *MessageThreadController) containsLocked(id string) bool {
	for i := range t.messages {
		if t.messages[i].ID == id {
			return true
		}
	}
	return false
}

func (t *MessageThreadController) removeLocked(id string) {
	for i := range t.messages {
		if t.messages[i].ID == id {
			t.messages = append(t.messages[:i], t.messages[i+1:]...)
			return
		}
	}
}
