package repository

import (
	"beacon-api/internal/errors"
	"beacon-api/internal/models"
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppRepository interface {
	Create(ctx context.Context, app *models.App) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.App, error)
	GetByPublicKey(ctx context.Context, key string) (*models.App, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.App, error)
	UpdatePublicKey(ctx context.Context, id uuid.UUID, key string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type appRepository struct {
	db *gorm.DB
}

func NewAppRepository(db *gorm.DB) AppRepository {
	return &appRepository{db: db}
}

func (r *appRepository) Create(ctx context.Context, app *models.App) error {
	if err := r.db.WithContext(ctx).Create(app).Error; err != nil {
		return errors.Wrap(err, "failed to create app")
	}
	return nil
}

func (r *appRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.App, error) {
	var app models.App
	err := r.db.WithContext(ctx).First(&app, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get app")
	}
	return &app, nil
}

func (r *appRepository) GetByPublicKey(ctx context.Context, key string) (*models.App, error) {
	var app models.App
	err := r.db.WithContext(ctx).First(&app, "public_key = ?", key).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get app by public key")
	}
	return &app, nil
}

func (r *appRepository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.App, error) {
	var apps []*models.App
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at ASC").
		Find(&apps).Error
	return apps, err
}

func (r *appRepository) UpdatePublicKey(ctx context.Context, id uuid.UUID, key string) error {
	result := r.db.WithContext(ctx).Model(&models.App{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"public_key": key,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to rotate public key")
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (r *appRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.App{}, "id = ?", id)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete app")
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound
	}
	return nil
}
