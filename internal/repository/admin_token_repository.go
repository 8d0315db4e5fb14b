package repository

import (
	"beacon-api/internal/errors"
	"beacon-api/internal/models"
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdminTokenRepository interface {
	Create(ctx context.Context, token *models.AdminToken) error
	GetByToken(ctx context.Context, token string, class models.TokenClass) (*models.AdminToken, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.AdminToken, error)
	ListByOwner(ctx context.Context, class models.TokenClass, ownerID uuid.UUID) ([]*models.AdminToken, error)
	Revoke(ctx context.Context, id uuid.UUID) error
}

type adminTokenRepository struct {
	db *gorm.DB
}

func NewAdminTokenRepository(db *gorm.DB) AdminTokenRepository {
	return &adminTokenRepository{db: db}
}

func (r *adminTokenRepository) Create(ctx context.Context, token *models.AdminToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return errors.Wrap(err, "failed to create admin token")
	}
	return nil
}

// GetByToken looks up a non-revoked token of the given class. Revoked rows
// stay in the table but are invisible here.
func (r *adminTokenRepository) GetByToken(ctx context.Context, token string, class models.TokenClass) (*models.AdminToken, error) {
	var adminToken models.AdminToken
	err := r.db.WithContext(ctx).
		Where("token = ? AND owner_type = ? AND revoked = ?", token, class, false).
		First(&adminToken).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get admin token")
	}
	return &adminToken, nil
}

func (r *adminTokenRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AdminToken, error) {
	var adminToken models.AdminToken
	err := r.db.WithContext(ctx).First(&adminToken, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get admin token by id")
	}
	return &adminToken, nil
}

func (r *adminTokenRepository) ListByOwner(ctx context.Context, class models.TokenClass, ownerID uuid.UUID) ([]*models.AdminToken, error) {
	var tokens []*models.AdminToken
	err := r.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", class, ownerID).
		Order("created_at DESC").
		Find(&tokens).Error
	return tokens, err
}

// Revoke soft-revokes a token. Tokens are never hard-deleted.
func (r *adminTokenRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.AdminToken{}).
		Where("id = ? AND revoked = ?", id, false).
		Updates(map[string]interface{}{
			"revoked":    true,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to revoke admin token")
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound
	}
	return nil
}
