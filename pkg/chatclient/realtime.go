package chatclient

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"github.com/easeplatform/buddy-chat/backend/internal/realtime"
	"github.com/easeplatform/buddy-chat/backend/pkg/apperrors"
)

// wireEvent mirrors the server's change-feed frame with the payload left
// raw so it can be decoded per table.
type wireEvent struct {
	Table   string             `json:"table"`
	Type    realtime.EventType `json:"type"`
	Payload json.RawMessage    `json:"payload"`
}

// wireCommand is a frame sent to the change-feed socket
type wireCommand struct {
	Action string          `json:"action"`
	Filter realtime.Filter `json:"filter"`
}

// BridgeHandlers receives decoded change-feed events. All callbacks run on
// the bridge's read goroutine and must return quickly.
type BridgeHandlers struct {
	// OnMessage fires once per new message row, deduplicated by id
	OnMessage func(m models.Message)
	// OnConversationUpdate fires when a conversation the user participates
	// in changes; consumers typically reload the conversation list.
	OnConversationUpdate func(c models.Conversation)
}

// RouteEvents builds the standard event routing over the controllers.
// Every new message refreshes the conversation list order, even when the
// matching conversation-update event never arrives; the message itself is
// appended to the open thread when it belongs there, otherwise it raises a
// passive notification. Conversation updates refresh the list as well.
func RouteEvents(thread *MessageThreadController, list *ConversationListController, notifier Notifier) BridgeHandlers {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	reload := func() {
		if _, err := list.Load(context.Background()); err != nil {
			log.Printf("realtime bridge: conversation reload failed: %v", err)
		}
	}
	return BridgeHandlers{
		OnMessage: func(m models.Message) {
			if thread.HandleIncoming(m) {
				notifier.Notify("New message waiting in another conversation.", LevelInfo)
			}
			reload()
		},
		OnConversationUpdate: func(models.Conversation) {
			reload()
		},
	}
}

// Bridge maintains the websocket change feed for one signed-in user. The
// feed's filters are single-column equalities, so watching both roles of a
// table takes one subscription per column: two for messages (sender and
// recipient) and two for conversations (participant one and two).
type Bridge struct {
	userID   string
	conn     *websocket.Conn
	handlers BridgeHandlers

	mu      sync.Mutex
	seen    map[string]struct{}
	seenLog []string
	closed  bool
	writeMu sync.Mutex
}

// seenLimit bounds the dedupe window
const seenLimit = 512

// bridgeFilters returns the four subscriptions covering both directions of
// messages and both participant slots of conversations.
func bridgeFilters(userID string) []realtime.Filter {
	return []realtime.Filter{
		{Table: "messages", Column: "sender_id", Value: userID, Type: realtime.EventInsert},
		{Table: "messages", Column: "recipient_id", Value: userID, Type: realtime.EventInsert},
		{Table: "conversations", Column: "participant1_id", Value: userID, Type: realtime.EventUpdate},
		{Table: "conversations", Column: "participant2_id", Value: userID, Type: realtime.EventUpdate},
	}
}

// DialBridge connects the change feed, subscribes the user's four filters,
// and starts dispatching events to the handlers.
func DialBridge(ctx context.Context, wsURL, token, userID string, handlers BridgeHandlers) (*Bridge, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL+"?token="+token, nil)
	if err != nil {
		return nil, apperrors.Transport("could not connect to the change feed", err)
	}

	b := &Bridge{
		userID:   userID,
		conn:     conn,
		handlers: handlers,
		seen:     make(map[string]struct{}),
	}

	for _, f := range bridgeFilters(userID) {
		if err := b.write(wireCommand{Action: "subscribe", Filter: f}); err != nil {
			conn.Close()
			return nil, apperrors.Transport("could not subscribe to the change feed", err)
		}
	}

	go b.readLoop()
	return b, nil
}

// Close unsubscribes every filter and tears the connection down
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	for _, f := range bridgeFilters(b.userID) {
		if err := b.write(wireCommand{Action: "unsubscribe", Filter: f}); err != nil {
			break
		}
	}
	b.writeMu.Lock()
	err := b.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	b.writeMu.Unlock()
	if err != nil {
		return b.conn.Close()
	}
	return b.conn.Close()
}

func (b *Bridge) write(cmd wireCommand) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.conn.WriteJSON(cmd)
}

func (b *Bridge) readLoop() {
	for {
		var event wireEvent
		if err := b.conn.ReadJSON(&event); err != nil {
			b.mu.Lock()
			closed := b.closed
			b.mu.Unlock()
			if !closed {
				log.Printf("realtime bridge: read error: %v", err)
			}
			return
		}
		b.dispatch(event)
	}
}

func (b *Bridge) dispatch(event wireEvent) {
	switch {
	case event.Table == "messages" && event.Type == realtime.EventInsert:
		var m models.Message
		if err := json.Unmarshal(event.Payload, &m); err != nil {
			log.Printf("realtime bridge: bad message payload: %v", err)
			return
		}
		// two subscriptions can match the same row; deliver it once
		if !b.markSeen(m.ID.Hex()) {
			return
		}
		if b.handlers.OnMessage != nil {
			b.handlers.OnMessage(m)
		}
	case event.Table == "conversations" && event.Type == realtime.EventUpdate:
		var c models.Conversation
		if err := json.Unmarshal(event.Payload, &c); err != nil {
			log.Printf("realtime bridge: bad conversation payload: %v", err)
			return
		}
		if b.handlers.OnConversationUpdate != nil {
			b.handlers.OnConversationUpdate(c)
		}
	}
}

// markSeen records the id and reports whether it was new
func (b *Bridge) markSeen(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.seen[id]; ok {
		return false
	}
	b.seen[id] = struct{}{}
	b.seenLog = append(b.seenLog, id)
	if len(b.seenLog) > seenLimit {
		delete(b.seen, b.seenLog[0])
		b.seenLog = b.seenLog[1:]
	}
	return true
}
