package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is append-only; threads are ordered by sent_at ascending as
// stored, never re-sorted by readers.
type Message struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SenderID    string             `json:"sender_id" bson:"sender_id"`
	RecipientID string             `json:"recipient_id" bson:"recipient_id"`
	Content     string             `json:"content" bson:"content"`
	MessageType string             `json:"message_type" bson:"message_type"`
	SentAt      time.Time          `json:"sent_at" bson:"sent_at"`
}

// SendMessageRequest is the payload of the send_message procedure
type SendMessageRequest struct {
	RecipientID string `json:"recipient_id" validate:"required,uuid4"`
	Content     string `json:"content" validate:"required"`
	MessageType string `json:"message_type" validate:"omitempty,oneof=text system"`
}
