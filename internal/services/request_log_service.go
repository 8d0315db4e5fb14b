package services

import (
	"beacon-api/internal/models"
	"beacon-api/internal/repository"
	"context"
	"time"

	"github.com/google/uuid"
)

type RequestLogService interface {
	// LogRequest records one successfully-gated public API call. It must be
	// called only after the request is confirmed servable.
	LogRequest(ctx context.Context, appID uuid.UUID, ip string) error
}

type requestLogService struct {
	repo repository.RequestLogRepository
}

func NewRequestLogService(repo repository.RequestLogRepository) RequestLogService {
	return &requestLogService{repo: repo}
}

func (s *requestLogService) LogRequest(ctx context.Context, appID uuid.UUID, ip string) error {
	log := &models.RequestLog{
		AppID:     appID,
		IP:        ip,
		Timestamp: time.Now(),
	}
	return s.repo.Create(ctx, log)
}
