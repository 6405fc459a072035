package services

import (
	"gorm.io/gorm"

	"github.com/craftlink-lk/craftlink-api/models"
)

// DefaultNotificationPageSize caps a notification listing
const DefaultNotificationPageSize = 50

// NotificationService reads and acknowledges notification records. Writes
// happen inside workflow transactions; delivery is by client poll.
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a notification service bound to a database handle
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Notify writes one notification record for a user
func (s *NotificationService) Notify(userID uint, typ models.NotificationType, title, message, link string) (*models.Notification, error) {
	n := models.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
		Link:    link,
	}
	if err := s.db.Create(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// List returns the user's notifications, most recent first, capped
func (s *NotificationService) List(userID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > DefaultNotificationPageSize {
		limit = DefaultNotificationPageSize
	}
	var notifications []models.Notification
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

// UnreadCount returns how many unread notifications the user has
func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead marks one notification read. A no-op if already read or not
// owned by the user.
func (s *NotificationService) MarkRead(userID, notificationID uint) error {
	return s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND read = ?", notificationID, userID, false).
		Update("read", true).Error
}

// MarkAllRead marks every unread notification read. Idempotent.
func (s *NotificationService) MarkAllRead(userID uint) error {
	return s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
}
