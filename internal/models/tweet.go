package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tweet represents a tweet stored in MongoDB. The tweets service owns this
// collection; the notification service only reads it to resolve references.
type Tweet struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AuthorID      uint               `json:"author_id" bson:"author_id"`
	Content       string             `json:"content" bson:"content"`
	LikesCount    int                `json:"likes_count" bson:"likes_count"`
	RepliesCount  int                `json:"replies_count" bson:"replies_count"`
	RetweetsCount int                `json:"retweets_count" bson:"retweets_count"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}
