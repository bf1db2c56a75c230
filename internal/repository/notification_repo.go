package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-study-api/internal/models"
)

// NotificationRepository handles persistence for scheduled notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.ScheduledNotification) error
	// ListDue returns unsent notifications with scheduled_at <= now, oldest first.
	ListDue(ctx context.Context, now time.Time) ([]models.ScheduledNotification, error)
	// MarkSent flips is_sent once. It reports false when the row was already sent.
	MarkSent(ctx context.Context, id uint, at time.Time) (bool, error)
	FindByID(ctx context.Context, id uint) (models.ScheduledNotification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository constructs a repository backed by GORM.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.ScheduledNotification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) ListDue(ctx context.Context, now time.Time) ([]models.ScheduledNotification, error) {
	var notifications []models.ScheduledNotification
	if err := r.db.WithContext(ctx).
		Where("is_sent = ? AND scheduled_at <= ?", false, now.UTC()).
		Order("scheduled_at ASC").
		Order("id ASC").
		Find(&notifications).Error; err != nil {
		return nil, err
	}

	return notifications, nil
}

func (r *notificationRepository) MarkSent(ctx context.Context, id uint, at time.Time) (bool, error) {
	sentAt := at.UTC()
	result := r.db.WithContext(ctx).
		Model(&models.ScheduledNotification{}).
		Where("id = ? AND is_sent = ?", id, false).
		Updates(map[string]interface{}{"is_sent": true, "sent_at": &sentAt})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *notificationRepository) FindByID(ctx context.Context, id uint) (models.ScheduledNotification, error) {
	var notification models.ScheduledNotification
	if err := r.db.WithContext(ctx).First(&notification, id).Error; err != nil {
		return models.ScheduledNotification{}, err
	}
	return notification, nil
}
