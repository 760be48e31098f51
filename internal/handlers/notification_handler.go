package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/mehedi89/chirper/backend/internal/models"
	"github.com/mehedi89/chirper/backend/internal/realtime"
	"github.com/mehedi89/chirper/backend/internal/repositories"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	tweetRepository        repositories.TweetRepository
	userRepository         repositories.UserRepository
	dispatcher             *realtime.Dispatcher
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(
	notifRepo repositories.NotificationRepository,
	tweetRepo repositories.TweetRepository,
	userRepo repositories.UserRepository,
	dispatcher *realtime.Dispatcher,
) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		tweetRepository:        tweetRepo,
		userRepository:         userRepo,
		dispatcher:             dispatcher,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.POST("/notifications", h.CreateNotification)
	g.GET("/notifications/:id", h.GetNotifications)
	g.GET("/notifications/:id/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/:id/read-all", h.MarkAllAsRead)
}

// EnrichedNotification includes actor info
type EnrichedNotification struct {
	models.Notification
	Actor *models.UserCompact `json:"actor,omitempty"`
}

func (h *NotificationHandler) enrichNotifications(notifications []models.Notification) []EnrichedNotification {
	enriched := make([]EnrichedNotification, len(notifications))
	userCache := make(map[uint]*models.UserCompact)

	for i, n := range notifications {
		enriched[i] = EnrichedNotification{Notification: n}
		if n.ActorID == 0 {
			continue
		}
		if actor, ok := userCache[n.ActorID]; ok {
			enriched[i].Actor = actor
			continue
		}
		user, err := h.userRepository.GetUserByID(n.ActorID)
		if err == nil {
			compact := user.ToCompact()
			userCache[n.ActorID] = &compact
			enriched[i].Actor = &compact
		}
	}
	return enriched
}

// CreateNotification persists a notification and triggers best-effort
// realtime delivery. For mentions that reference a tweet without an explicit
// recipient, the recipient is the tweet's author.
func (h *NotificationHandler) CreateNotification(c echo.Context) error {
	var req models.CreateNotificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if !models.NotificationKind(req.Kind).Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification kind")
	}

	recipientID := req.RecipientUserID
	if req.TweetID != "" {
		tweet, err := h.tweetRepository.GetTweetByID(c.Request().Context(), req.TweetID)
		if err != nil {
			if errors.Is(err, repositories.ErrTweetNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "Referenced tweet not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if req.Kind == string(models.KindMention) && recipientID == 0 {
			recipientID = tweet.AuthorID
		}
	}
	if recipientID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Recipient user ID is required")
	}

	notification := &models.Notification{
		RecipientID: recipientID,
		Kind:        req.Kind,
		ActorID:     req.RelatedUserID,
		TweetID:     req.TweetID,
	}
	if err := h.notificationRepository.CreateNotification(notification); err != nil {
		if errors.Is(err, repositories.ErrInvalidKind) || errors.Is(err, repositories.ErrSelfNotification) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Push happens off the request path; the created record is the response
	// either way, delivery is best-effort.
	if h.dispatcher != nil {
		go h.dispatcher.Dispatch(strconv.FormatUint(uint64(notification.RecipientID), 10), notification)
	}

	return c.JSON(http.StatusCreated, notification)
}

// GetNotifications returns a user's notifications, newest first. Unknown
// users get an empty array, never an error.
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	notifications, err := h.notificationRepository.GetByRecipientID(uint(userID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, h.enrichNotifications(notifications))
}

// GetUnreadCount returns the unread notification count for a user
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	count, err := h.notificationRepository.GetUnreadCount(uint(userID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead marks a notification as read. Marking an already-read
// notification succeeds and returns the record unchanged.
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	notifID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	notification, err := h.notificationRepository.MarkAsRead(uint(notifID))
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, notification)
}

// MarkAllAsRead marks all of a user's notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	if err := h.notificationRepository.MarkAllAsRead(uint(userID)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
