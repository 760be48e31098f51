package repositories

import (
	"errors"

	"github.com/mehedi89/chirper/backend/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrInvalidKind is returned when a notification kind is outside the closed enumeration.
	ErrInvalidKind = errors.New("invalid notification kind")
	// ErrSelfNotification is returned when a mention would notify its own actor.
	ErrSelfNotification = errors.New("cannot create a self-notification")
	// ErrNotificationNotFound is returned when a notification ID does not exist.
	ErrNotificationNotFound = errors.New("notification not found")
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(notification *models.Notification) error
	GetByRecipientID(recipientID uint) ([]models.Notification, error)
	MarkAsRead(notificationID uint) (*models.Notification, error)
	GetUnreadCount(recipientID uint) (int64, error)
	MarkAllAsRead(recipientID uint) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

// CreateNotification validates and persists a notification. The kind must be
// one of the closed enumeration. The self-notification guard applies to
// mentions only; other kinds are filtered by the services that trigger them.
func (r *postgresNotificationRepository) CreateNotification(notification *models.Notification) error {
	if !models.NotificationKind(notification.Kind).Valid() {
		return ErrInvalidKind
	}
	if notification.Kind == string(models.KindMention) &&
		notification.ActorID != 0 && notification.ActorID == notification.RecipientID {
		return ErrSelfNotification
	}
	return r.db.Create(notification).Error
}

// GetByRecipientID returns the recipient's notifications newest-first. An
// unknown recipient yields an empty slice, not an error.
func (r *postgresNotificationRepository) GetByRecipientID(recipientID uint) ([]models.Notification, error) {
	notifications := make([]models.Notification, 0)
	err := r.db.Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

// MarkAsRead sets the read flag and returns the updated record. Marking an
// already-read notification is a no-op that still succeeds.
func (r *postgresNotificationRepository) MarkAsRead(notificationID uint) (*models.Notification, error) {
	var notification models.Notification
	if err := r.db.First(&notification, notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}

	if !notification.IsRead {
		if err := r.db.Model(&notification).Update("is_read", true).Error; err != nil {
			return nil, err
		}
		notification.IsRead = true
	}
	return &notification, nil
}

func (r *postgresNotificationRepository) GetUnreadCount(recipientID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).Where("recipient_id = ? AND is_read = false", recipientID).Count(&count).Error
	return count, err
}

func (r *postgresNotificationRepository) MarkAllAsRead(recipientID uint) error {
	return r.db.Model(&models.Notification{}).Where("recipient_id = ? AND is_read = false", recipientID).Update("is_read", true).Error
}
