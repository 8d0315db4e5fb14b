package services

import (
	"beacon-api/internal/billing"
	"beacon-api/internal/config"
	apperrors "beacon-api/internal/errors"
	"beacon-api/internal/logger"
	"beacon-api/internal/models"
	"beacon-api/internal/repository"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v72"
)

// SweepResult summarizes one run of the periodic usage sweep.
type SweepResult struct {
	Processed      int   `json:"processed"`
	Reported       int   `json:"reported"`
	Failed         int   `json:"failed"`
	PrunedAttempts int64 `json:"pruned_attempts"`
	PrunedRequests int64 `json:"pruned_requests"`
}

// BillingService reconciles local subscription state against billing-provider
// lifecycle events and reports overage usage back to the provider. Every
// handler is idempotent: the provider may redeliver any event, and running a
// handler twice with identical input must produce identical end state.
type BillingService interface {
	HandleCheckoutCompleted(ctx context.Context, session stripe.CheckoutSession) error
	HandleSubscriptionUpdated(ctx context.Context, sub stripe.Subscription) error
	HandleSubscriptionDeleted(ctx context.Context, sub stripe.Subscription) error
	RunUsageSweep(ctx context.Context) (*SweepResult, error)
}

const sweepOrgTimeout = 30 * time.Second

type billingService struct {
	orgRepo        repository.OrganizationRepository
	subRepo        repository.SubscriptionRepository
	requestLogRepo repository.RequestLogRepository
	attemptRepo    repository.AuthAttemptRepository
	products       ProductService
	provider       billing.Provider
	cfg            *config.QuotaConfig
}

func NewBillingService(
	orgRepo repository.OrganizationRepository,
	subRepo repository.SubscriptionRepository,
	requestLogRepo repository.RequestLogRepository,
	attemptRepo repository.AuthAttemptRepository,
	products ProductService,
	provider billing.Provider,
	cfg *config.QuotaConfig,
) BillingService {
	return &billingService{
		orgRepo:        orgRepo,
		subRepo:        subRepo,
		requestLogRepo: requestLogRepo,
		attemptRepo:    attemptRepo,
		products:       products,
		provider:       provider,
		cfg:            cfg,
	}
}

// HandleCheckoutCompleted creates the local subscription for a completed
// checkout. The idempotency key is the provider's subscription id; a
// redelivered event is a no-op.
func (s *billingService) HandleCheckoutCompleted(ctx context.Context, session stripe.CheckoutSession) error {
	if session.Subscription == nil || session.Subscription.ID == "" {
		return fmt.Errorf("checkout session %s has no subscription", session.ID)
	}

	stripeSubID := session.Subscription.ID
	if existing, err := s.subRepo.GetByStripeID(ctx, stripeSubID); err == nil && existing != nil {
		logger.LogEvent(logrus.InfoLevel, "Checkout event redelivered, subscription exists", logrus.Fields{
			"stripe_subscription_id": stripeSubID,
		})
		return nil
	} else if err != nil && err != apperrors.ErrNotFound {
		return err
	}

	org, err := s.resolveOrg(ctx, session)
	if err != nil {
		return err
	}

	info, err := s.provider.GetSubscription(ctx, stripeSubID)
	if err != nil {
		return fmt.Errorf("fetching subscription %s: %w", stripeSubID, err)
	}

	if session.Customer != nil && org.StripeCustomerID == "" {
		if err := s.orgRepo.SetStripeCustomerID(ctx, org.ID, session.Customer.ID); err != nil {
			return err
		}
	}

	subscription := &models.Subscription{
		ID:                   uuid.New(),
		OrgID:                org.ID,
		StripeSubscriptionID: info.ID,
		PeriodStart:          info.PeriodStart,
		PeriodEnd:            info.PeriodEnd,
	}
	for _, item := range info.Items {
		subscription.Items = append(subscription.Items, models.SubscriptionItem{
			StripeItemID: item.ID,
			ProductID:    item.ProductID,
			Metered:      item.Metered,
		})
	}

	if err := s.subRepo.Create(ctx, subscription); err != nil {
		return err
	}

	logger.LogEvent(logrus.InfoLevel, "Subscription created", logrus.Fields{
		"org_id":                 org.ID,
		"stripe_subscription_id": info.ID,
		"items":                  len(info.Items),
	})
	return nil
}

// HandleSubscriptionUpdated detects billing-period rollovers. On rollover the
// ending period's overage is reported before the new boundaries are
// persisted, so it is reported exactly once against that period. If the
// subscription will not renew, the rollover report is skipped; deletion will
// report instead.
func (s *billingService) HandleSubscriptionUpdated(ctx context.Context, sub stripe.Subscription) error {
	local, err := s.subRepo.GetByStripeID(ctx, sub.ID)
	if err != nil {
		if err == apperrors.ErrNotFound {
			logger.LogEvent(logrus.WarnLevel, "Update event for unknown subscription", logrus.Fields{
				"stripe_subscription_id": sub.ID,
			})
			return nil
		}
		return err
	}

	periodStart := time.Unix(sub.CurrentPeriodStart, 0).UTC()
	periodEnd := time.Unix(sub.CurrentPeriodEnd, 0).UTC()

	if periodStart.Equal(local.PeriodStart) && periodEnd.Equal(local.PeriodEnd) {
		// Nothing changed; no report, no write.
		return nil
	}

	if !sub.CancelAtPeriodEnd {
		if err := s.reportPeriodUsage(ctx, local, local.PeriodStart, local.PeriodEnd); err != nil {
			return err
		}
	}

	if err := s.subRepo.UpdatePeriod(ctx, local.ID, periodStart, periodEnd); err != nil {
		return err
	}

	logger.LogEvent(logrus.InfoLevel, "Billing period advanced", logrus.Fields{
		"org_id":       local.OrgID,
		"period_start": periodStart,
		"period_end":   periodEnd,
	})
	return nil
}

// HandleSubscriptionDeleted reports final usage for the then-current period,
// regardless of period boundaries, then marks the subscription deleted. The
// mark is terminal.
func (s *billingService) HandleSubscriptionDeleted(ctx context.Context, sub stripe.Subscription) error {
	local, err := s.subRepo.GetByStripeID(ctx, sub.ID)
	if err != nil {
		if err == apperrors.ErrNotFound {
			logger.LogEvent(logrus.WarnLevel, "Delete event for unknown subscription", logrus.Fields{
				"stripe_subscription_id": sub.ID,
			})
			return nil
		}
		return err
	}

	if local.IsDeleted {
		return nil
	}

	if err := s.reportPeriodUsage(ctx, local, local.PeriodStart, local.PeriodEnd); err != nil {
		return err
	}

	if err := s.subRepo.MarkDeleted(ctx, local.ID); err != nil {
		return err
	}

	logger.LogEvent(logrus.InfoLevel, "Subscription deleted", logrus.Fields{
		"org_id":                 local.OrgID,
		"stripe_subscription_id": sub.ID,
	})
	return nil
}

// RunUsageSweep reports current-period usage for every active subscription
// and prunes append-only logs that fell outside every counting window. One
// broken org never aborts the batch; partial success beats all-or-nothing.
func (s *billingService) RunUsageSweep(ctx context.Context) (*SweepResult, error) {
	subscriptions, err := s.subRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{}
	for _, subscription := range subscriptions {
		result.Processed++

		orgCtx, cancel := context.WithTimeout(ctx, sweepOrgTimeout)
		err := s.reportPeriodUsage(orgCtx, subscription, subscription.PeriodStart, subscription.PeriodEnd)
		cancel()

		if err != nil {
			result.Failed++
			logger.LogEvent(logrus.ErrorLevel, "Usage sweep failed for org", logrus.Fields{
				"org_id": subscription.OrgID,
				"error":  err,
			})
			continue
		}
		result.Reported++
	}

	if pruned, err := s.attemptRepo.DeleteBefore(ctx, time.Now().Add(-s.cfg.AttemptRetention)); err != nil {
		logger.LogEvent(logrus.ErrorLevel, "Failed to prune auth attempts", logrus.Fields{"error": err})
	} else {
		result.PrunedAttempts = pruned
	}

	if pruned, err := s.requestLogRepo.DeleteBefore(ctx, time.Now().Add(-s.cfg.RequestRetention)); err != nil {
		logger.LogEvent(logrus.ErrorLevel, "Failed to prune request logs", logrus.Fields{"error": err})
	} else {
		result.PrunedRequests = pruned
	}

	return result, nil
}

// reportPeriodUsage counts the org's requests in [start, end) and submits the
// count above the included allowance to the provider, keyed on the metered
// item. The provider's own idempotency (absolute quantities per item and
// timestamp) keeps a double run from double-billing.
func (s *billingService) reportPeriodUsage(ctx context.Context, subscription *models.Subscription, start, end time.Time) error {
	metered := subscription.MeteredItem()
	if metered == nil {
		logger.LogEvent(logrus.DebugLevel, "No metered item, nothing to report", logrus.Fields{
			"org_id": subscription.OrgID,
		})
		return nil
	}

	count, err := s.requestLogRepo.CountByOrgBetween(ctx, subscription.OrgID, start, end)
	if err != nil {
		return err
	}

	var allowance int64
	if base := subscription.BaseItem(); base != nil {
		product, err := s.products.GetProduct(ctx, base.ProductID)
		if err != nil {
			return err
		}
		allowance = product.RequestAllowance
	}

	overage := count - allowance
	if overage <= 0 {
		return nil
	}

	// Stamp the record just inside the period it belongs to, so rollover
	// reports land on the ending period.
	at := end.Add(-time.Second)
	if now := time.Now(); at.After(now) {
		at = now
	}

	if err := s.provider.ReportUsage(ctx, metered.StripeItemID, overage, at); err != nil {
		return fmt.Errorf("reporting usage for org %s: %w", subscription.OrgID, err)
	}

	logger.LogEvent(logrus.InfoLevel, "Overage reported", logrus.Fields{
		"org_id":       subscription.OrgID,
		"overage":      overage,
		"period_start": start,
		"period_end":   end,
	})
	return nil
}

func (s *billingService) resolveOrg(ctx context.Context, session stripe.CheckoutSession) (*models.Organization, error) {
	if session.ClientReferenceID != "" {
		orgID, err := uuid.Parse(session.ClientReferenceID)
		if err == nil {
			return s.orgRepo.GetByID(ctx, orgID)
		}
	}

	if session.Customer != nil {
		return s.orgRepo.GetByStripeCustomerID(ctx, session.Customer.ID)
	}

	return nil, fmt.Errorf("checkout session %s has no organization reference", session.ID)
}
