package services

import (
	"beacon-api/internal/models"
	"beacon-api/internal/repository"
	"context"

	"github.com/google/uuid"
)

type AppService interface {
	CreateApp(ctx context.Context, orgID uuid.UUID, name string) (*models.App, error)
	GetApp(ctx context.Context, id uuid.UUID) (*models.App, error)
	GetAppByPublicKey(ctx context.Context, key string) (*models.App, error)
	ListApps(ctx context.Context, orgID uuid.UUID) ([]*models.App, error)
	RotatePublicKey(ctx context.Context, id uuid.UUID) (string, error)
	DeleteApp(ctx context.Context, id uuid.UUID) error
}

type appService struct {
	appRepo repository.AppRepository
}

func NewAppService(appRepo repository.AppRepository) AppService {
	return &appService{appRepo: appRepo}
}

func (s *appService) CreateApp(ctx context.Context, orgID uuid.UUID, name string) (*models.App, error) {
	app := &models.App{
		ID:        uuid.New(),
		OrgID:     orgID,
		Name:      name,
		PublicKey: generatePublicKey(),
	}

	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, err
	}

	return app, nil
}

func (s *appService) GetApp(ctx context.Context, id uuid.UUID) (*models.App, error) {
	return s.appRepo.GetByID(ctx, id)
}

func (s *appService) GetAppByPublicKey(ctx context.Context, key string) (*models.App, error) {
	return s.appRepo.GetByPublicKey(ctx, key)
}

func (s *appService) ListApps(ctx context.Context, orgID uuid.UUID) ([]*models.App, error) {
	return s.appRepo.ListByOrg(ctx, orgID)
}

func (s *appService) RotatePublicKey(ctx context.Context, id uuid.UUID) (string, error) {
	key := generatePublicKey()
	if err := s.appRepo.UpdatePublicKey(ctx, id, key); err != nil {
		return "", err
	}
	return key, nil
}

func (s *appService) DeleteApp(ctx context.Context, id uuid.UUID) error {
	return s.appRepo.Delete(ctx, id)
}

// Public keys are random and never reused across apps.
func generatePublicKey() string {
	return "pk_" + generateSecureToken(24)
}
