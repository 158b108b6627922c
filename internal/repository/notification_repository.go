package repository

import (
	"context"
	"time"

	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	var notification domain.Notification
	err := r.db.WithContext(ctx).First(&notification, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

// ListByUser returns the user's inbox, newest first. Expired notifications are hidden.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, filters domain.NotificationFilters, now time.Time, page, limit int) ([]domain.Notification, int64, error) {
	var notifications []domain.Notification
	var total int64

	query := r.visible(r.db.WithContext(ctx).Model(&domain.Notification{}), userID, now)

	if filters.UnreadOnly {
		query = query.Where("read = ?", false)
	}

	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Scopes(paginate(page, limit)).Order("created_at DESC").Find(&notifications).Error

	return notifications, total, err
}

// MarkAsRead marks one of the user's notifications as read. Returns false when
// the notification does not exist or belongs to someone else.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"read":    true,
			"read_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Updates(map[string]interface{}{
			"read":    true,
			"read_at": now,
		})
	return result.RowsAffected, result.Error
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var count int64
	err := r.visible(r.db.WithContext(ctx).Model(&domain.Notification{}), userID, now).
		Where("read = ?", false).
		Count(&count).Error
	return count, err
}

// DeleteExpired removes notifications whose expiry has passed
func (r *NotificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Delete(&domain.Notification{})
	return result.RowsAffected, result.Error
}

func (r *NotificationRepository) visible(query *gorm.DB, userID uuid.UUID, now time.Time) *gorm.DB {
	return query.
		Where("user_id = ?", userID).
		Where("(expires_at IS NULL OR expires_at > ?)", now)
}
