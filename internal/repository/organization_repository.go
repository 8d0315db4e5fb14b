package repository

import (
	"beacon-api/internal/errors"
	"beacon-api/internal/models"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrganizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*models.Organization, error)
	SetStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error
	List(ctx context.Context) ([]*models.Organization, error)
}

type organizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) Create(ctx context.Context, org *models.Organization) error {
	if err := r.db.WithContext(ctx).Create(org).Error; err != nil {
		return errors.Wrap(err, "failed to create organization")
	}
	return nil
}

func (r *organizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get organization")
	}
	return &org, nil
}

func (r *organizationRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*models.Organization, error) {
	var org models.Organization
	err := r.db.WithContext(ctx).First(&org, "stripe_customer_id = ?", customerID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get organization by customer id")
	}
	return &org, nil
}

// SetStripeCustomerID stamps the provider customer id on an organization that
// does not have one yet. First writer wins; an existing id is never
// overwritten.
func (r *organizationRepository) SetStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	result := r.db.WithContext(ctx).Model(&models.Organization{}).
		Where("id = ? AND (stripe_customer_id IS NULL OR stripe_customer_id = '')", id).
		Update("stripe_customer_id", customerID)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to set stripe customer id")
	}
	return nil
}

func (r *organizationRepository) List(ctx context.Context) ([]*models.Organization, error) {
	var orgs []*models.Organization
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&orgs).Error
	return orgs, err
}
