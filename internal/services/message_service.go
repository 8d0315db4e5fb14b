package services

import (
	"beacon-api/internal/models"
	"beacon-api/internal/repository"
	"context"

	"github.com/google/uuid"
)

type MessageService interface {
	CreateMessage(ctx context.Context, appID uuid.UUID, title, body string, active bool) (*models.Message, error)
	GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListMessages(ctx context.Context, appID uuid.UUID) ([]*models.Message, error)
	ListActiveMessages(ctx context.Context, appID uuid.UUID) ([]*models.Message, error)
	UpdateMessage(ctx context.Context, message *models.Message) error
	DeleteMessage(ctx context.Context, id uuid.UUID) error
}

type messageService struct {
	messageRepo repository.MessageRepository
}

func NewMessageService(messageRepo repository.MessageRepository) MessageService {
	return &messageService{messageRepo: messageRepo}
}

func (s *messageService) CreateMessage(ctx context.Context, appID uuid.UUID, title, body string, active bool) (*models.Message, error) {
	message := &models.Message{
		ID:     uuid.New(),
		AppID:  appID,
		Title:  title,
		Body:   body,
		Active: active,
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	return message, nil
}

func (s *messageService) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	return s.messageRepo.GetByID(ctx, id)
}

func (s *messageService) ListMessages(ctx context.Context, appID uuid.UUID) ([]*models.Message, error) {
	return s.messageRepo.ListByApp(ctx, appID)
}

func (s *messageService) ListActiveMessages(ctx context.Context, appID uuid.UUID) ([]*models.Message, error) {
	return s.messageRepo.ListActiveByApp(ctx, appID)
}

func (s *messageService) UpdateMessage(ctx context.Context, message *models.Message) error {
	return s.messageRepo.Update(ctx, message)
}

func (s *messageService) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	return s.messageRepo.Delete(ctx, id)
}
