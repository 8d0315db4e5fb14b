package repository

import (
	"beacon-api/internal/models"
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequestLogRepository interface {
	Create(ctx context.Context, log *models.RequestLog) error
	CountByAppSince(ctx context.Context, appID uuid.UUID, since time.Time) (int64, error)
	CountByOrgBetween(ctx context.Context, orgID uuid.UUID, from, to time.Time) (int64, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type requestLogRepository struct {
	db *gorm.DB
}

func NewRequestLogRepository(db *gorm.DB) RequestLogRepository {
	return &requestLogRepository{db: db}
}

func (r *requestLogRepository) Create(ctx context.Context, log *models.RequestLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *requestLogRepository) CountByAppSince(ctx context.Context, appID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RequestLog{}).
		Where("app_id = ? AND timestamp >= ?", appID, since).
		Count(&count).Error
	return count, err
}

// CountByOrgBetween counts requests across all of an organization's apps in
// [from, to). Used by the usage reporter against a billing period.
func (r *requestLogRepository) CountByOrgBetween(ctx context.Context, orgID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RequestLog{}).
		Joins("JOIN apps ON apps.id = request_logs.app_id").
		Where("apps.org_id = ? AND request_logs.timestamp >= ? AND request_logs.timestamp < ?", orgID, from, to).
		Count(&count).Error
	return count, err
}

func (r *requestLogRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("timestamp < ?", cutoff).
		Delete(&models.RequestLog{})
	return result.RowsAffected, result.Error
}
