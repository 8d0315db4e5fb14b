package services

import (
	apperrors "beacon-api/internal/errors"
	"beacon-api/internal/models"
	"beacon-api/internal/repository"
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenIdentity is the validated result of presenting a bearer token.
type TokenIdentity struct {
	Class   models.TokenClass
	OwnerID uuid.UUID
	Role    string
}

type TokenService interface {
	Issue(ctx context.Context, class models.TokenClass, ownerID uuid.UUID, role, label string, expiresAt *time.Time) (*models.AdminToken, error)
	// Verify validates a raw bearer string against an expected token class
	// and returns the owning identity, or a typed failure.
	Verify(ctx context.Context, bearer string, class models.TokenClass) (*TokenIdentity, error)
	Get(ctx context.Context, id uuid.UUID) (*models.AdminToken, error)
	ListByOwner(ctx context.Context, class models.TokenClass, ownerID uuid.UUID) ([]*models.AdminToken, error)
	Revoke(ctx context.Context, id uuid.UUID) error
}

type tokenService struct {
	tokenRepo repository.AdminTokenRepository
}

func NewTokenService(tokenRepo repository.AdminTokenRepository) TokenService {
	return &tokenService{tokenRepo: tokenRepo}
}

func (s *tokenService) Issue(ctx context.Context, class models.TokenClass, ownerID uuid.UUID, role, label string, expiresAt *time.Time) (*models.AdminToken, error) {
	if class != models.TokenClassOrg && class != models.TokenClassApp {
		return nil, apperrors.ErrInvalidInput
	}

	token := &models.AdminToken{
		ID:        uuid.New(),
		Token:     models.EncodeToken(generateSecureToken(32), class),
		OwnerType: class,
		OwnerID:   ownerID,
		Role:      role,
		Label:     label,
		ExpiresAt: expiresAt,
	}

	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return nil, err
	}

	return token, nil
}

func (s *tokenService) Verify(ctx context.Context, bearer string, class models.TokenClass) (*TokenIdentity, error) {
	encoded := strings.TrimPrefix(bearer, "Bearer ")
	if encoded == "" {
		return nil, apperrors.ErrInvalidToken
	}

	tokenClass, _, ok := models.DecodeToken(encoded)
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}

	// Wrong class signals a caller bug, not an invalid credential; it is a
	// distinct failure so handlers can surface a different message.
	if tokenClass != class {
		return nil, apperrors.ErrWrongTokenClass
	}

	token, err := s.tokenRepo.GetByToken(ctx, encoded, class)
	if err != nil {
		if err == apperrors.ErrNotFound {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, err
	}

	if token.OwnerType == models.TokenClassApp && token.ExpiresAt != nil && !token.ExpiresAt.After(time.Now()) {
		return nil, apperrors.ErrTokenExpired
	}

	return &TokenIdentity{
		Class:   token.OwnerType,
		OwnerID: token.OwnerID,
		Role:    token.Role,
	}, nil
}

func (s *tokenService) Get(ctx context.Context, id uuid.UUID) (*models.AdminToken, error) {
	return s.tokenRepo.GetByID(ctx, id)
}

func (s *tokenService) ListByOwner(ctx context.Context, class models.TokenClass, ownerID uuid.UUID) ([]*models.AdminToken, error) {
	return s.tokenRepo.ListByOwner(ctx, class, ownerID)
}

func (s *tokenService) Revoke(ctx context.Context, id uuid.UUID) error {
	return s.tokenRepo.Revoke(ctx, id)
}

func generateSecureToken(length int) string {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return hex.EncodeToString(b)
}
