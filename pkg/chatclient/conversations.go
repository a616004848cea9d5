package chatclient

import (
	"context"
	"sync"

	"github.com/easeplatform/buddy-chat/backend/internal/models"
)

// conversationAPI is the slice of the backend surface the list needs
type conversationAPI interface {
	ListConversations(ctx context.Context) ([]models.ConversationView, error)
}

// ConversationListController holds the conversation list, most recent
// activity first, with at most one conversation active at a time.
type ConversationListController struct {
	api conversationAPI

	mu        sync.Mutex
	views     []models.ConversationView
	active    *models.ConversationView
	listeners []func(ViewState)
}

// NewConversationListController creates a ConversationListController
func NewConversationListController(api conversationAPI) *ConversationListController {
	return &ConversationListController{api: api}
}

// OnStateChange registers a view-state listener
func (c *ConversationListController) OnStateChange(listener func(ViewState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, listener)
}

// Load fetches the list. Counterpart display names arrive resolved; the
// backend falls back to a short-id name when a counterpart has no profile.
func (c *ConversationListController) Load(ctx context.Context) ([]models.ConversationView, error) {
	views, err := c.api.ListConversations(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.views = views
	// keep the active selection if its conversation survived the reload
	if c.active != nil {
		var kept *models.ConversationView
		for i := range views {
			if views[i].Conversation.ID == c.active.Conversation.ID {
				kept = &views[i]
				break
			}
		}
		c.active = kept
	}
	c.mu.Unlock()

	return views, nil
}

// Conversations returns the last loaded list
func (c *ConversationListController) Conversations() []models.ConversationView {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ConversationView, len(c.views))
	copy(out, c.views)
	return out
}

// Select makes the conversation with the given counterpart active,
// replacing any previous selection. Returns false when no such
// conversation is loaded.
func (c *ConversationListController) Select(counterpartID string) (*models.ConversationView, bool) {
	c.mu.Lock()
	var found *models.ConversationView
	for i := range c.views {
		if c.views[i].CounterpartID == counterpartID {
			found = &c.views[i]
			break
		}
	}
	if found == nil {
		c.mu.Unlock()
		return nil, false
	}
	c.active = found
	c.mu.Unlock()

	c.signal(StateConversationActive)
	return found, true
}

// Deselect clears the active conversation
func (c *ConversationListController) Deselect() {
	c.mu.Lock()
	c.active = nil
	c.mu.Unlock()
	c.signal(StateConversationIdle)
}

// Active returns the selected conversation, or nil
func (c *ConversationListController) Active() *models.ConversationView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *ConversationListController) signal(state ViewState) {
	c.mu.Lock()
	listeners := make([]func(ViewState), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, listener := range listeners {
		listener(state)
	}
}
