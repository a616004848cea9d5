// Package matching finds an eligible buddy for a user and establishes the
// pair plus its conversation.
package matching

import (
	"context"
	"log"

	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"github.com/easeplatform/buddy-chat/backend/internal/repositories"
	"github.com/easeplatform/buddy-chat/backend/pkg/apperrors"
	"gorm.io/gorm"
)

// Matcher implements candidate search and pair creation
type Matcher struct {
	users         repositories.UserRepository
	profiles      repositories.ProfileRepository
	pairs         repositories.BuddyPairRepository
	conversations repositories.ConversationRepository
}

// NewMatcher creates a Matcher
func NewMatcher(
	users repositories.UserRepository,
	profiles repositories.ProfileRepository,
	pairs repositories.BuddyPairRepository,
	conversations repositories.ConversationRepository,
) *Matcher {
	return &Matcher{
		users:         users,
		profiles:      profiles,
		pairs:         pairs,
		conversations: conversations,
	}
}

// FindCandidate returns the id of an eligible counterpart, or "" when no
// one is available. It prefers the find_potential_buddies database
// function; when that procedure is missing or failing it degrades to a
// direct profile scan, and callers cannot tell which path ran.
func (m *Matcher) FindCandidate(ctx context.Context, userID string) (string, error) {
	candidates, err := m.profiles.FindPotentialBuddies(userID)
	if err != nil {
		log.Printf("matching: find_potential_buddies unavailable, falling back to profile scan: %v", err)
		return m.scanForCandidate(userID)
	}
	if len(candidates) == 0 {
		// The procedure can miss profiles created since its snapshot;
		// the scan is the authority for "truly nobody available".
		return m.scanForCandidate(userID)
	}
	return candidates[0], nil
}

func (m *Matcher) scanForCandidate(userID string) (string, error) {
	profiles, err := m.profiles.FindAvailableBuddies(userID)
	if err != nil {
		return "", apperrors.Transport("failed to search for buddies", err)
	}
	if len(profiles) == 0 {
		return "", nil
	}
	// No compatibility scoring: first eligible profile wins.
	return profiles[0].UserID, nil
}

// CreatePair establishes the buddy pair and its conversation. Both users
// must exist as user records first; missing ones get placeholder stubs so
// the pair's foreign keys hold. Fails with MatchCreationFailed on a store
// constraint violation and never retries.
func (m *Matcher) CreatePair(ctx context.Context, userID, otherID string) (*models.BuddyPair, error) {
	if userID == otherID {
		return nil, apperrors.MatchCreationFailed("cannot match a user with themselves", nil)
	}

	if existing, err := m.pairs.GetPairByUsers(userID, otherID); err == nil {
		// Idempotent for an already-matched pair; make sure the
		// conversation is there and hand the pair back.
		if _, convErr := m.conversations.EnsureConversation(ctx, existing.User1ID, existing.User2ID, existing.ID); convErr != nil {
			return nil, apperrors.Transport("failed to ensure conversation", convErr)
		}
		return existing, nil
	} else if err != gorm.ErrRecordNotFound {
		return nil, apperrors.Transport("failed to check existing pair", err)
	}

	if err := m.users.EnsureUserExists(userID); err != nil {
		return nil, apperrors.Transport("failed to ensure user record", err)
	}
	if err := m.users.EnsureUserExists(otherID); err != nil {
		return nil, apperrors.Transport("failed to ensure user record", err)
	}

	pair := &models.BuddyPair{User1ID: userID, User2ID: otherID}
	if err := m.pairs.CreatePair(pair); err != nil {
		return nil, apperrors.MatchCreationFailed("failed to create buddy pair", err)
	}

	if _, err := m.conversations.EnsureConversation(ctx, userID, otherID, pair.ID); err != nil {
		return nil, apperrors.Transport("pair created but conversation setup failed", err)
	}
	return pair, nil
}

// Match runs the whole find-buddy flow: require a profile, find a
// candidate, create the pair.
func (m *Matcher) Match(ctx context.Context, userID string) (*models.MatchResult, error) {
	if _, err := m.profiles.GetProfileByUserID(userID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrProfileNotFound
		}
		return nil, apperrors.Transport("failed to check profile", err)
	}

	candidateID, err := m.FindCandidate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if candidateID == "" {
		return &models.MatchResult{Matched: false}, nil
	}

	pair, err := m.CreatePair(ctx, userID, candidateID)
	if err != nil {
		return nil, err
	}
	return &models.MatchResult{Matched: true, CandidateID: candidateID, Pair: pair}, nil
}
