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

type UsageStats struct {
	CurrentCount      int64     `json:"current_count"`
	Limit             int64     `json:"limit"`
	RemainingRequests int64     `json:"remaining_requests"`
	Metered           bool      `json:"metered"`
	WindowStart       time.Time `json:"window_start"`
}

// QuotaService decides whether a request against an app may proceed, before
// the request is logged. The check and the eventual request-log write are not
// atomic; concurrent requests near the boundary can over-admit by a bounded
// amount, which is accepted over locking every request.
type QuotaService interface {
	Check(ctx context.Context, app *models.App) error
	CurrentUsage(ctx context.Context, app *models.App) (*UsageStats, error)
}

type quotaService struct {
	subscriptionRepo repository.SubscriptionRepository
	requestLogRepo   repository.RequestLogRepository
	products         ProductService
	cfg              *config.QuotaConfig
}

func NewQuotaService(
	subscriptionRepo repository.SubscriptionRepository,
	requestLogRepo repository.RequestLogRepository,
	products ProductService,
	cfg *config.QuotaConfig,
) QuotaService {
	return &quotaService{
		subscriptionRepo: subscriptionRepo,
		requestLogRepo:   requestLogRepo,
		products:         products,
		cfg:              cfg,
	}
}

func (s *quotaService) Check(ctx context.Context, app *models.App) error {
	stats, err := s.CurrentUsage(ctx, app)
	if err != nil {
		return err
	}

	if stats.Metered {
		return nil
	}

	if stats.CurrentCount >= stats.Limit {
		return apperrors.ErrQuotaExceeded
	}

	return nil
}

func (s *quotaService) CurrentUsage(ctx context.Context, app *models.App) (*UsageStats, error) {
	subscription, err := s.subscriptionRepo.GetActiveByOrgID(ctx, app.OrgID)
	if err != nil && err != apperrors.ErrNotFound {
		return nil, err
	}

	// Metered subscriptions are never denied locally; the provider bills
	// exact usage, so a local count would double-account.
	if subscription != nil && subscription.HasMeteredItem() {
		return &UsageStats{Metered: true}, nil
	}

	windowStart := s.windowStart(subscription)

	count, err := s.requestLogRepo.CountByAppSince(ctx, app.ID, windowStart)
	if err != nil {
		return nil, err
	}

	limit, err := s.allowance(ctx, subscription)
	if err != nil {
		return nil, err
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &UsageStats{
		CurrentCount:      count,
		Limit:             limit,
		RemainingRequests: remaining,
		WindowStart:       windowStart,
	}, nil
}

// windowStart picks the counting window: the billing-period start for
// subscribed orgs (advanced only by the reconciler), a rolling window for
// free-tier orgs.
func (s *quotaService) windowStart(subscription *models.Subscription) time.Time {
	if subscription != nil {
		return subscription.PeriodStart
	}
	return time.Now().Add(-s.cfg.FreeTierWindow)
}

func (s *quotaService) allowance(ctx context.Context, subscription *models.Subscription) (int64, error) {
	if subscription == nil {
		return s.cfg.FreeTierLimit, nil
	}

	base := subscription.BaseItem()
	if base == nil {
		// An unmetered subscription without a base item has nothing to
		// grant beyond the free tier.
		logger.LogEvent(logrus.WarnLevel, "Subscription has no base item", logrus.Fields{
			"subscription_id": subscription.ID,
		})
		return s.cfg.FreeTierLimit, nil
	}

	product, err := s.products.GetProduct(ctx, base.ProductID)
	if err != nil {
		return 0, err
	}

	return product.RequestAllowance, nil
}
