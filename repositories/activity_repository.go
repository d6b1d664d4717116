package repositories

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stakevault/stakevault_backend/config"
	"github.com/stakevault/stakevault_backend/models"
)

// ActivityRepository writes the human-readable audit trail. It implements
// salary.ActivityLogger; failures are logged, never surfaced, so an audit
// hiccup cannot block a money-moving path.
type ActivityRepository struct {
	collection *mongo.Collection
}

func NewActivityRepository(client *mongo.Client) *ActivityRepository {
	return &ActivityRepository{
		collection: config.GetCollection(client, "activity_logs"),
	}
}

func (r *ActivityRepository) Log(ctx context.Context, userID primitive.ObjectID, action, details string) {
	entry := models.ActivityLog{
		UserID:    userID,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		log.Printf("activity log: failed to record %s for %s: %v", action, userID.Hex(), err)
	}
}

// Recent returns the latest entries for one user, newest first.
func (r *ActivityRepository) Recent(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.ActivityLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.ActivityLog
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
