package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is the chat context between the two members of a buddy pair.
// A user's conversations are looked up by "current user is either
// participant"; messages carry no conversation foreign key and belong to a
// thread by participant-pair match.
type Conversation struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Participant1ID string             `json:"participant1_id" bson:"participant1_id"`
	Participant2ID string             `json:"participant2_id" bson:"participant2_id"`
	BuddyPairID    string             `json:"buddy_pair_id,omitempty" bson:"buddy_pair_id,omitempty"`
	LastActivity   time.Time          `json:"last_activity" bson:"last_activity"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}

// CounterpartID returns the other participant from userID's point of view.
func (c *Conversation) CounterpartID(userID string) string {
	if c.Participant1ID == userID {
		return c.Participant2ID
	}
	return c.Participant1ID
}

// ConversationView is a conversation annotated with the counterpart's
// display name for list rendering.
type ConversationView struct {
	Conversation    Conversation `json:"conversation"`
	CounterpartID   string       `json:"counterpart_id"`
	CounterpartName string       `json:"counterpart_name"`
}
