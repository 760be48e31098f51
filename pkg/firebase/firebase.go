package firebase

import (
	"context"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// App holds the initialized Firebase app and messaging client
type App struct {
	FirebaseApp     *firebase.App
	MessagingClient *messaging.Client
}

// InitFirebase initializes the Firebase application and messaging client
func InitFirebase(ctx context.Context, credentialsPath string) (*App, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("Firebase credentials path not provided")
	}

	// Check if the credentials file exists
	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("Firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)

	firebaseApp, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	messagingClient, err := firebaseApp.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase messaging client: %w", err)
	}

	log.Println("Firebase app and messaging client initialized successfully!")
	return &App{FirebaseApp: firebaseApp, MessagingClient: messagingClient}, nil
}

var pushTitles = map[string]string{
	"like":    "New like",
	"retweet": "New retweet",
	"reply":   "New reply",
	"follow":  "New follower",
	"mention": "You were mentioned",
}

// SendPush delivers a push for a notification kind to a device token.
func (a *App) SendPush(ctx context.Context, token, kind, tweetID string) error {
	title, ok := pushTitles[kind]
	if !ok {
		title = "New notification"
	}

	msg := &messaging.Message{
		Token:        token,
		Notification: &messaging.Notification{Title: title},
		Data:         map[string]string{"kind": kind},
	}
	if tweetID != "" {
		msg.Data["tweet_id"] = tweetID
	}

	_, err := a.MessagingClient.Send(ctx, msg)
	return err
}
