// Package chatclient implements the buddy-chat client: authentication with
// a persistent local session, profile management, matching, the
// conversation list, the message thread with optimistic sends, and the
// realtime bridge. Controllers own their state and publish view-state
// signals; rendering layers (terminal or web) subscribe to those signals
// instead of being driven directly.
package chatclient

// ViewState is the signal a rendering layer switches on
type ViewState string

const (
	StateNoProfile          ViewState = "no_profile"
	StateHasProfile         ViewState = "has_profile"
	StateConversationIdle   ViewState = "conversation_idle"
	StateConversationActive ViewState = "conversation_active"
)

// Notification levels
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelError   = "error"
)

// Notifier shows transient notifications to the user. Implementations must
// not block.
type Notifier interface {
	Notify(message, level string)
}

// NopNotifier discards notifications; useful in tests and headless use.
type NopNotifier struct{}

func (NopNotifier) Notify(message, level string) {}
