package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"smartcity/internal/pkg/pagination"
)

type Repository interface {
	CreateBatch(ctx context.Context, items []Notification) error
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, p pagination.Params) ([]Notification, int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	SetRead(ctx context.Context, id uuid.UUID, read bool) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteReadOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CreateBatch writes every row in one INSERT.
func (r *repository) CreateBatch(ctx context.Context, items []Notification) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, p pagination.Params) ([]Notification, int64, error) {
	q := r.db.WithContext(ctx).Model(&Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []Notification
	err := q.Order("created_at DESC").
		Limit(p.Limit).Offset(p.Offset()).
		Find(&items).Error
	return items, total, err
}

func (r *repository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	var n Notification
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *repository) SetRead(ctx context.Context, id uuid.UUID, read bool) error {
	return r.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ?", id).
		Update("is_read", read).Error
}

func (r *repository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// DeleteReadOlderThan removes read notifications created before now-age.
// Unread rows are kept regardless of age.
func (r *repository) DeleteReadOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, time.Now().Add(-age)).
		Delete(&Notification{})
	return res.RowsAffected, res.Error
}
