package router

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/mehedi89/chirper/backend/internal/handlers"
	"github.com/mehedi89/chirper/backend/internal/middleware"
	"github.com/mehedi89/chirper/backend/internal/models"
	"github.com/mehedi89/chirper/backend/internal/realtime"
	"github.com/mehedi89/chirper/backend/internal/repositories"
	"github.com/mehedi89/chirper/backend/pkg/firebase"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies.
// push may be nil; offline delivery is then disabled.
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, push *firebase.App, logger *zap.Logger) {
	// The users table is owned by the users service; only notifications are
	// migrated here.
	if err := pgdb.AutoMigrate(&models.Notification{}); err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migration completed.")

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	tweetRepo := repositories.NewMongoTweetRepository(mgClient.Database("chirper"))
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)

	// --- Realtime delivery ---
	registry := realtime.NewRegistry()
	dispatcher := realtime.NewDispatcher(registry, logger, offlinePush(userRepo, push, logger))
	hub := realtime.NewHub(registry, dispatcher, logger)

	// Health and realtime endpoints - always accessible
	e.GET("/health", handlers.HealthCheck)
	e.GET("/socket-health", handlers.SocketHealth(registry))
	e.GET("/ws", hub.ServeWS)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	notificationHandler := handlers.NewNotificationHandler(notificationRepo, tweetRepo, userRepo, dispatcher)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")
}

// offlinePush hands undeliverable notifications to FCM when a push client and
// a device token exist. Returns nil when push is not configured.
func offlinePush(userRepo repositories.UserRepository, push *firebase.App, logger *zap.Logger) realtime.OfflineFunc {
	if push == nil {
		return nil
	}
	return func(userID string, notification *models.Notification) {
		id, err := strconv.ParseUint(userID, 10, 32)
		if err != nil {
			return
		}
		user, err := userRepo.GetUserByID(uint(id))
		if err != nil || user.DeviceToken == "" {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := push.SendPush(ctx, user.DeviceToken, notification.Kind, notification.TweetID); err != nil {
			logger.Warn("fcm push failed",
				zap.String("user_id", userID), zap.Error(err))
		}
	}
}
