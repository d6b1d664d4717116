package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityLog is one line of the audit trail.
type ActivityLog struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"userId" bson:"userId"`
	Action    string             `json:"action" bson:"action"`
	Details   string             `json:"details" bson:"details"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}
