package models

import "time"

// NotificationKind enumerates the interactions that can produce a notification.
type NotificationKind string

const (
	KindLike    NotificationKind = "like"
	KindRetweet NotificationKind = "retweet"
	KindReply   NotificationKind = "reply"
	KindFollow  NotificationKind = "follow"
	KindMention NotificationKind = "mention"
)

// Valid reports whether k is one of the known notification kinds.
func (k NotificationKind) Valid() bool {
	switch k {
	case KindLike, KindRetweet, KindReply, KindFollow, KindMention:
		return true
	}
	return false
}

// Notification represents a user notification (PostgreSQL).
// The kind is fixed at creation; only the read flag is ever mutated, false to true.
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RecipientID uint      `json:"recipient_user_id" gorm:"index"`
	Kind        string    `json:"kind" gorm:"size:20;index"` // like, retweet, reply, follow, mention
	ActorID     uint      `json:"related_user_id,omitempty"` // user who triggered the notification, if any
	TweetID     string    `json:"tweet_id,omitempty"`        // MongoDB hex ID of the related tweet, if any
	IsRead      bool      `json:"read" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}

// CreateNotificationRequest defines the request body for creating a notification.
// RecipientUserID may be omitted for mentions that reference a tweet; the
// recipient is then derived from the tweet's author.
type CreateNotificationRequest struct {
	RecipientUserID uint   `json:"recipient_user_id"`
	Kind            string `json:"kind" validate:"required"`
	RelatedUserID   uint   `json:"related_user_id,omitempty"`
	TweetID         string `json:"tweet_id,omitempty"`
}
