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

// MessageRepository defines the interface for message data operations.
// Messages are append-only; there is no update or delete path.
type MessageRepository interface {
	InsertMessage(ctx context.Context, message *models.Message) error
	GetThread(ctx context.Context, userA, userB string) ([]models.Message, error)
}

// MongoMessageRepository implements MessageRepository for MongoDB
type MongoMessageRepository struct {
	collection *mongo.Collection
}

// NewMongoMessageRepository creates a new MongoMessageRepository
func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{collection: db.Collection("messages")}
}

// InsertMessage appends a message, assigning its server id and timestamp
func (r *MongoMessageRepository) InsertMessage(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	if message.SentAt.IsZero() {
		message.SentAt = time.Now()
	}
	if message.MessageType == "" {
		message.MessageType = "text"
	}
	_, err := r.collection.InsertOne(ctx, message)
	return err
}

// GetThread retrieves the messages between two users in sent_at ascending
// order. Membership is the (sender, recipient) pair matching the two users
// in either direction, so the result is identical whichever of them asks.
func (r *MongoMessageRepository) GetThread(ctx context.Context, userA, userB string) ([]models.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": userA, "recipient_id": userB},
		bson.M{"sender_id": userB, "recipient_id": userA},
	}}
	findOptions := options.Find().SetSort(bson.D{{Key: "sent_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
