package repositories

import (
	"context"
	"time"

	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConversationRepository defines the interface for conversation data operations
type ConversationRepository interface {
	GetConversationsForUser(ctx context.Context, userID string) ([]models.Conversation, error)
	EnsureConversation(ctx context.Context, participant1ID, participant2ID, buddyPairID string) (*models.Conversation, error)
	TouchLastActivity(ctx context.Context, participantA, participantB string, at time.Time) (*models.Conversation, error)
}

// MongoConversationRepository implements ConversationRepository for MongoDB
type MongoConversationRepository struct {
	collection *mongo.Collection
}

// NewMongoConversationRepository creates a new MongoConversationRepository
func NewMongoConversationRepository(db *mongo.Database) *MongoConversationRepository {
	return &MongoConversationRepository{collection: db.Collection("conversations")}
}

// pairFilter matches a conversation by its unordered participant pair
func pairFilter(a, b string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"participant1_id": a, "participant2_id": b},
		bson.M{"participant1_id": b, "participant2_id": a},
	}}
}

// GetConversationsForUser retrieves every conversation the user takes part
// in, most recently active first.
func (r *MongoConversationRepository) GetConversationsForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"participant1_id": userID},
		bson.M{"participant2_id": userID},
	}}
	findOptions := options.Find().SetSort(bson.D{{Key: "last_activity", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var conversations []models.Conversation
	if err = cursor.All(ctx, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// EnsureConversation returns the conversation for the given pair, creating
// it if none exists yet.
func (r *MongoConversationRepository) EnsureConversation(ctx context.Context, participant1ID, participant2ID, buddyPairID string) (*models.Conversation, error) {
	var existing models.Conversation
	err := r.collection.FindOne(ctx, pairFilter(participant1ID, participant2ID)).Decode(&existing)
	if err == nil {
		return &existing, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	now := time.Now()
	conversation := &models.Conversation{
		ID:             primitive.NewObjectID(),
		Participant1ID: participant1ID,
		Participant2ID: participant2ID,
		BuddyPairID:    buddyPairID,
		LastActivity:   now,
		CreatedAt:      now,
	}
	if _, err := r.collection.InsertOne(ctx, conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

// TouchLastActivity bumps the pair's conversation recency and returns the
// updated document. The conversation is created on the fly when a message
// arrives for a pair without one.
func (r *MongoConversationRepository) TouchLastActivity(ctx context.Context, participantA, participantB string, at time.Time) (*models.Conversation, error) {
	update := bson.M{
		"$set": bson.M{"last_activity": at},
		"$setOnInsert": bson.M{
			"participant1_id": participantA,
			"participant2_id": participantB,
			"created_at":      at,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var conversation models.Conversation
	err := r.collection.FindOneAndUpdate(ctx, pairFilter(participantA, participantB), update, opts).Decode(&conversation)
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}
