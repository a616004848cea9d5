package models

import "time"

// BuddyPair records two matched users. Immutable once created.
type BuddyPair struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	User1ID   string    `json:"user1_id" gorm:"type:uuid;index"`
	User2ID   string    `json:"user2_id" gorm:"type:uuid;index"`
	Status    string    `json:"status" gorm:"type:varchar(20);default:'active'"`
	CreatedAt time.Time `json:"created_at"`
}

// MatchRequest asks for a pair with a specific counterpart
type MatchRequest struct {
	OtherUserID string `json:"other_user_id" validate:"required,uuid4"`
}

// MatchResult reports the outcome of a find-buddy attempt
type MatchResult struct {
	Matched     bool       `json:"matched"`
	CandidateID string     `json:"candidate_id,omitempty"`
	Pair        *BuddyPair `json:"pair,omitempty"`
}
