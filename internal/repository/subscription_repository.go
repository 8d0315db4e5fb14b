package repository

import (
	"beacon-api/internal/errors"
	"beacon-api/internal/models"
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *models.Subscription) error
	GetByStripeID(ctx context.Context, stripeID string) (*models.Subscription, error)
	GetActiveByOrgID(ctx context.Context, orgID uuid.UUID) (*models.Subscription, error)
	UpdatePeriod(ctx context.Context, id uuid.UUID, start, end time.Time) error
	MarkDeleted(ctx context.Context, id uuid.UUID) error
	ListActive(ctx context.Context) ([]*models.Subscription, error)
}

var (
	ErrSubscriptionNotFound = errors.ErrNotFound
)

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(ctx context.Context, subscription *models.Subscription) error {
	if err := r.db.WithContext(ctx).Create(subscription).Error; err != nil {
		return errors.Wrap(err, "failed to create subscription")
	}
	return nil
}

func (r *subscriptionRepository) GetByStripeID(ctx context.Context, stripeID string) (*models.Subscription, error) {
	var subscription models.Subscription
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&subscription, "stripe_subscription_id = ?", stripeID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get subscription by stripe id")
	}
	return &subscription, nil
}

// GetActiveByOrgID returns the org's single non-deleted subscription, or
// ErrNotFound for organizations on the free tier.
func (r *subscriptionRepository) GetActiveByOrgID(ctx context.Context, orgID uuid.UUID) (*models.Subscription, error) {
	var subscription models.Subscription
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("org_id = ? AND is_deleted = ?", orgID, false).
		Order("created_at DESC").
		First(&subscription).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get active subscription")
	}
	return &subscription, nil
}

func (r *subscriptionRepository) UpdatePeriod(ctx context.Context, id uuid.UUID, start, end time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"period_start": start,
			"period_end":   end,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update billing period")
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound
	}
	return nil
}

// MarkDeleted is terminal. A deleted subscription is never revived; a new
// checkout produces a new row.
func (r *subscriptionRepository) MarkDeleted(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to mark subscription deleted")
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (r *subscriptionRepository) ListActive(ctx context.Context) ([]*models.Subscription, error) {
	var subscriptions []*models.Subscription
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("is_deleted = ?", false).
		Order("created_at ASC").
		Find(&subscriptions).Error
	return subscriptions, err
}
