package chatclient

import (
	"context"

	"github.com/easeplatform/buddy-chat/backend/internal/models"
)

// buddyAPI is the slice of the backend surface the matcher needs
type buddyAPI interface {
	FindCandidate(ctx context.Context) (string, error)
	CreatePair(ctx context.Context, otherUserID string) (*models.BuddyPair, error)
	Match(ctx context.Context) (*models.MatchResult, error)
}

// BuddyMatcher finds candidate buddies and pairs with them. Candidate
// ranking and fallback scanning happen server-side; this controller only
// drives the flow and surfaces the outcome.
type BuddyMatcher struct {
	api      buddyAPI
	notifier Notifier
}

// NewBuddyMatcher creates a BuddyMatcher
func NewBuddyMatcher(api buddyAPI, notifier Notifier) *BuddyMatcher {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &BuddyMatcher{api: api, notifier: notifier}
}

// FindCandidate returns the best available candidate's user id, or ""
// when nobody is available right now.
func (b *BuddyMatcher) FindCandidate(ctx context.Context) (string, error) {
	return b.api.FindCandidate(ctx)
}

// CreatePair pairs the current user with otherUserID
func (b *BuddyMatcher) CreatePair(ctx context.Context, otherUserID string) (*models.BuddyPair, error) {
	return b.api.CreatePair(ctx, otherUserID)
}

// Match runs the full find-and-pair flow and notifies the outcome
func (b *BuddyMatcher) Match(ctx context.Context) (*models.MatchResult, error) {
	result, err := b.api.Match(ctx)
	if err != nil {
		b.notifier.Notify("Could not create a buddy match. Please try again.", LevelError)
		return nil, err
	}
	if !result.Matched {
		b.notifier.Notify("No buddies are available right now. Check back soon!", LevelInfo)
		return result, nil
	}
	b.notifier.Notify("You have a new buddy! Say hello in your conversations.", LevelSuccess)
	return result, nil
}
