package repositories

import (
	"context"
	"errors"

	"github.com/mehedi89/chirper/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrTweetNotFound is returned when a referenced tweet does not exist.
var ErrTweetNotFound = errors.New("tweet not found")

// TweetRepository defines the read-only tweet operations this service needs.
// The tweets service owns the collection.
type TweetRepository interface {
	GetTweetByID(ctx context.Context, id string) (*models.Tweet, error)
}

// MongoTweetRepository implements TweetRepository for MongoDB
type MongoTweetRepository struct {
	collection *mongo.Collection
}

// NewMongoTweetRepository creates a new MongoTweetRepository
func NewMongoTweetRepository(db *mongo.Database) *MongoTweetRepository {
	return &MongoTweetRepository{collection: db.Collection("tweets")}
}

// GetTweetByID retrieves a tweet by ID from MongoDB
func (r *MongoTweetRepository) GetTweetByID(ctx context.Context, id string) (*models.Tweet, error) {
	// A malformed hex ID cannot reference any tweet.
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrTweetNotFound
	}

	var tweet models.Tweet
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&tweet)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTweetNotFound
		}
		return nil, err
	}
	return &tweet, nil
}
