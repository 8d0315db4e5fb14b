package services

import (
	"beacon-api/internal/config"
	apperrors "beacon-api/internal/errors"
	"beacon-api/internal/logger"
	"beacon-api/internal/models"
	"beacon-api/internal/repository"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// AuthService wraps token verification with per-IP abuse throttling. The
// failure counter is per-IP, not per-token: one IP trying many tokens gets
// throttled, one token failing from many IPs does not.
type AuthService interface {
	Authenticate(ctx context.Context, ip, bearer string, class models.TokenClass) (*TokenIdentity, error)
	// RetryAfter is the duration callers should wait once throttled.
	RetryAfter() time.Duration
}

type authService struct {
	tokens   TokenService
	attempts repository.AuthAttemptRepository
	cfg      *config.QuotaConfig
}

func NewAuthService(tokens TokenService, attempts repository.AuthAttemptRepository, cfg *config.QuotaConfig) AuthService {
	return &authService{
		tokens:   tokens,
		attempts: attempts,
		cfg:      cfg,
	}
}

func (s *authService) Authenticate(ctx context.Context, ip, bearer string, class models.TokenClass) (*TokenIdentity, error) {
	// Throttle before touching the token table; the short-circuit is a cost
	// saving, not just an extra check. A missing IP skips throttling but
	// never rejects on its own.
	if ip != "" {
		count, err := s.attempts.CountFailures(ctx, ip, time.Now().Add(-s.cfg.ThrottleWindow))
		if err != nil {
			// A stale count is acceptable; always-block is not.
			logger.LogEvent(logrus.WarnLevel, "Failed to count auth failures", logrus.Fields{
				"ip":    ip,
				"error": err,
			})
		} else if count >= s.cfg.ThrottleLimit {
			// Throttled requests are not recorded as attempts: the token
			// was never verified, and logging them would let a steady
			// stream of rejections extend the lockout forever.
			return nil, apperrors.ErrTooManyAttempts
		}
	}

	identity, err := s.tokens.Verify(ctx, bearer, class)
	s.recordAttempt(ctx, ip, bearer, err == nil)
	if err != nil {
		return nil, err
	}

	return identity, nil
}

func (s *authService) RetryAfter() time.Duration {
	return s.cfg.ThrottleRetry
}

func (s *authService) recordAttempt(ctx context.Context, ip, token string, success bool) {
	attempt := &models.AuthAttempt{
		IP:        ip,
		Token:     token,
		Success:   success,
		Timestamp: time.Now(),
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		logger.LogEvent(logrus.ErrorLevel, "Failed to record auth attempt", logrus.Fields{
			"ip":    ip,
			"error": err,
		})
	}
}
