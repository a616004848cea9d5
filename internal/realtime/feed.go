package realtime

import (
	"context"
	"log"
	"time"

	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChangeFeed tails the message and conversation collections and republishes
// their changes into the hub. Handlers also publish directly after writes;
// the feed exists so changes made by other server instances reach this
// hub's subscribers too. Duplicate notifications are acceptable because
// every consumer dedupes by id.
type ChangeFeed struct {
	db  *mongo.Database
	hub *Hub
}

// NewChangeFeed creates a ChangeFeed over the given database
func NewChangeFeed(db *mongo.Database, hub *Hub) *ChangeFeed {
	return &ChangeFeed{db: db, hub: hub}
}

// Run watches both collections until ctx is cancelled, restarting a watch
// after transient stream errors.
func (f *ChangeFeed) Run(ctx context.Context) {
	go f.watchMessages(ctx)
	go f.watchConversations(ctx)
}

func (f *ChangeFeed) watchMessages(ctx context.Context) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"operationType": "insert"}}},
	}
	for {
		stream, err := f.db.Collection("messages").Watch(ctx, pipeline)
		if err != nil {
			if !f.retry(ctx, "messages", err) {
				return
			}
			continue
		}

		for stream.Next(ctx) {
			var change struct {
				FullDocument models.Message `bson:"fullDocument"`
			}
			if err := stream.Decode(&change); err != nil {
				log.Printf("realtime: failed to decode message change: %v", err)
				continue
			}
			msg := change.FullDocument
			f.hub.Publish("messages", EventInsert, map[string]string{
				"sender_id":    msg.SenderID,
				"recipient_id": msg.RecipientID,
			}, msg)
		}
		streamErr := stream.Err()
		stream.Close(context.Background())
		if !f.retry(ctx, "messages", streamErr) {
			return
		}
	}
}

func (f *ChangeFeed) watchConversations(ctx context.Context) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"operationType": bson.M{"$in": bson.A{"update", "replace"}},
		}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	for {
		stream, err := f.db.Collection("conversations").Watch(ctx, pipeline, opts)
		if err != nil {
			if !f.retry(ctx, "conversations", err) {
				return
			}
			continue
		}

		for stream.Next(ctx) {
			var change struct {
				FullDocument models.Conversation `bson:"fullDocument"`
			}
			if err := stream.Decode(&change); err != nil {
				log.Printf("realtime: failed to decode conversation change: %v", err)
				continue
			}
			conv := change.FullDocument
			f.hub.Publish("conversations", EventUpdate, map[string]string{
				"participant1_id": conv.Participant1ID,
				"participant2_id": conv.Participant2ID,
			}, conv)
		}
		streamErr := stream.Err()
		stream.Close(context.Background())
		if !f.retry(ctx, "conversations", streamErr) {
			return
		}
	}
}

func (f *ChangeFeed) retry(ctx context.Context, collection string, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		log.Printf("realtime: %s change stream error, restarting: %v", collection, err)
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(2 * time.Second):
		return true
	}
}
