package repository

import (
	"beacon-api/internal/models"
	"context"
	"time"

	"gorm.io/gorm"
)

type AuthAttemptRepository interface {
	Create(ctx context.Context, attempt *models.AuthAttempt) error
	CountFailures(ctx context.Context, ip string, since time.Time) (int64, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type authAttemptRepository struct {
	db *gorm.DB
}

func NewAuthAttemptRepository(db *gorm.DB) AuthAttemptRepository {
	return &authAttemptRepository{db: db}
}

func (r *authAttemptRepository) Create(ctx context.Context, attempt *models.AuthAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *authAttemptRepository) CountFailures(ctx context.Context, ip string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AuthAttempt{}).
		Where("ip = ? AND success = ? AND timestamp >= ?", ip, false, since).
		Count(&count).Error
	return count, err
}

func (r *authAttemptRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("timestamp < ?", cutoff).
		Delete(&models.AuthAttempt{})
	return result.RowsAffected, result.Error
}
