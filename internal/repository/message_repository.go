package repository

import (
	"beacon-api/internal/errors"
	"beacon-api/internal/models"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListByApp(ctx context.Context, appID uuid.UUID) ([]*models.Message, error)
	ListActiveByApp(ctx context.Context, appID uuid.UUID) ([]*models.Message, error)
	Update(ctx context.Context, message *models.Message) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return errors.Wrap(err, "failed to create message")
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).First(&message, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get message")
	}
	return &message, nil
}

func (r *messageRepository) ListByApp(ctx context.Context, appID uuid.UUID) ([]*models.Message, error) {
	var messages []*models.Message
	err := r.db.WithContext(ctx).
		Where("app_id = ?", appID).
		Order("created_at DESC").
		Find(&messages).Error
	return messages, err
}

func (r *messageRepository) ListActiveByApp(ctx context.Context, appID uuid.UUID) ([]*models.Message, error) {
	var messages []*models.Message
	err := r.db.WithContext(ctx).
		Where("app_id = ? AND active = ?", appID, true).
		Order("created_at DESC").
		Find(&messages).Error
	return messages, err
}

func (r *messageRepository) Update(ctx context.Context, message *models.Message) error {
	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ?", message.ID).
		Updates(map[string]interface{}{
			"title":  message.Title,
			"body":   message.Body,
			"active": message.Active,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update message")
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (r *messageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Message{}, "id = ?", id)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete message")
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound
	}
	return nil
}
