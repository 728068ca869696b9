package repositories

import (
	"context"

	"github.com/opengram/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification records.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	// ListByUser returns one newest-first page of a user's notifications,
	// filtered by the isMine flag (own activity vs. follower-feed copies).
	ListByUser(ctx context.Context, userName string, isMine bool, offset, limit int) ([]models.Notification, error)
	CountByUser(ctx context.Context, userName string, isMine bool) (int64, error)
	UnreadCount(ctx context.Context, userName string) (int64, error)
	MarkRead(ctx context.Context, ids []uint) error
	// DeleteByEventID removes every notification derived from an event and
	// returns the handles of the recipients whose rows were removed.
	DeleteByEventID(ctx context.Context, eventID string) ([]string, error)
}

// PostgresNotificationRepository implements NotificationRepository for PostgreSQL
type PostgresNotificationRepository struct {
	db *gorm.DB
}

// NewPostgresNotificationRepository creates a new PostgresNotificationRepository
func NewPostgresNotificationRepository(db *gorm.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func (r *PostgresNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *PostgresNotificationRepository) ListByUser(ctx context.Context, userName string, isMine bool, offset, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.WithContext(ctx).
		Where("user_name = ? AND is_mine = ?", userName, isMine).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *PostgresNotificationRepository) CountByUser(ctx context.Context, userName string, isMine bool) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_name = ? AND is_mine = ?", userName, isMine).
		Count(&count).Error
	return count, err
}

func (r *PostgresNotificationRepository) UnreadCount(ctx context.Context, userName string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_name = ? AND is_read = false", userName).
		Count(&count).Error
	return count, err
}

func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id IN ?", ids).
		Update("is_read", true).Error
}

func (r *PostgresNotificationRepository) DeleteByEventID(ctx context.Context, eventID string) ([]string, error) {
	var recipients []string
	if err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("event_id = ?", eventID).
		Distinct().
		Pluck("user_name", &recipients).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Delete(&models.Notification{}).Error; err != nil {
		return nil, err
	}
	return recipients, nil
}
