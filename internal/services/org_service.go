package services

import (
	"beacon-api/internal/models"
	"beacon-api/internal/repository"
	"context"

	"github.com/google/uuid"
)

type OrgService interface {
	CreateOrg(ctx context.Context, name string) (*models.Organization, error)
	GetOrg(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

type orgService struct {
	orgRepo repository.OrganizationRepository
}

func NewOrgService(orgRepo repository.OrganizationRepository) OrgService {
	return &orgService{orgRepo: orgRepo}
}

func (s *orgService) CreateOrg(ctx context.Context, name string) (*models.Organization, error) {
	org := &models.Organization{
		ID:   uuid.New(),
		Name: name,
	}

	if err := s.orgRepo.Create(ctx, org); err != nil {
		return nil, err
	}

	return org, nil
}

func (s *orgService) GetOrg(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	return s.orgRepo.GetByID(ctx, id)
}
