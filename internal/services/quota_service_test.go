package services

import (
	"beacon-api/internal/billing"
	apperrors "beacon-api/internal/errors"
	"beacon-api/internal/models"
	"beacon-api/internal/repository"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type quotaFixture struct {
	db       *gorm.DB
	quota    QuotaService
	logs     RequestLogService
	subs     repository.SubscriptionRepository
	provider *fakeProvider
	org      *models.Organization
	app      *models.App
}

func newQuotaFixture(t *testing.T) *quotaFixture {
	t.Helper()
	db := newTestDB(t)
	ctx := context.Background()

	org := &models.Organization{ID: uuid.New(), Name: "acme"}
	require.NoError(t, repository.NewOrganizationRepository(db).Create(ctx, org))

	appSvc := NewAppService(repository.NewAppRepository(db))
	app, err := appSvc.CreateApp(ctx, org.ID, "dashboard")
	require.NoError(t, err)

	provider := newFakeProvider()
	products := NewProductService(provider, nil, time.Minute)
	subs := repository.NewSubscriptionRepository(db)
	logRepo := repository.NewRequestLogRepository(db)

	return &quotaFixture{
		db:       db,
		quota:    NewQuotaService(subs, logRepo, products, testQuotaConfig()),
		logs:     NewRequestLogService(logRepo),
		subs:     subs,
		provider: provider,
		org:      org,
		app:      app,
	}
}

func (f *quotaFixture) logRequests(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, f.logs.LogRequest(context.Background(), f.app.ID, "192.0.2.1"))
	}
}

func TestFreeTierBoundary(t *testing.T) {
	f := newQuotaFixture(t)
	ctx := context.Background()

	// Allowance is 10: the 10th request is admitted, the 11th is denied.
	f.logRequests(t, 9)
	assert.NoError(t, f.quota.Check(ctx, f.app))

	f.logRequests(t, 1)
	assert.ErrorIs(t, f.quota.Check(ctx, f.app), apperrors.ErrQuotaExceeded)
}

func TestFreeTierRollingWindow(t *testing.T) {
	f := newQuotaFixture(t)
	ctx := context.Background()

	// Requests older than the rolling window never count.
	old := time.Now().Add(-40 * 24 * time.Hour)
	for i := 0; i < 20; i++ {
		require.NoError(t, f.db.Create(&models.RequestLog{
			AppID:     f.app.ID,
			IP:        "192.0.2.1",
			Timestamp: old,
		}).Error)
	}

	stats, err := f.quota.CurrentUsage(ctx, f.app)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.CurrentCount)
	assert.NoError(t, f.quota.Check(ctx, f.app))
}

func TestMeteredSubscriptionNeverDenied(t *testing.T) {
	f := newQuotaFixture(t)
	ctx := context.Background()

	sub := &models.Subscription{
		ID:                   uuid.New(),
		OrgID:                f.org.ID,
		StripeSubscriptionID: "sub_metered",
		PeriodStart:          time.Now().Add(-10 * 24 * time.Hour),
		PeriodEnd:            time.Now().Add(20 * 24 * time.Hour),
		Items: []models.SubscriptionItem{
			{StripeItemID: "si_base", ProductID: "prod_base", Metered: false},
			{StripeItemID: "si_over", ProductID: "prod_over", Metered: true},
		},
	}
	require.NoError(t, f.subs.Create(ctx, sub))

	f.logRequests(t, 500)
	assert.NoError(t, f.quota.Check(ctx, f.app))

	stats, err := f.quota.CurrentUsage(ctx, f.app)
	require.NoError(t, err)
	assert.True(t, stats.Metered)
}

func TestUnmeteredSubscriptionUsesBillingPeriodWindow(t *testing.T) {
	f := newQuotaFixture(t)
	ctx := context.Background()

	periodStart := time.Now().Add(-5 * 24 * time.Hour)
	sub := &models.Subscription{
		ID:                   uuid.New(),
		OrgID:                f.org.ID,
		StripeSubscriptionID: "sub_unmetered",
		PeriodStart:          periodStart,
		PeriodEnd:            time.Now().Add(25 * 24 * time.Hour),
		Items: []models.SubscriptionItem{
			{StripeItemID: "si_base", ProductID: "prod_base", Metered: false},
		},
	}
	require.NoError(t, f.subs.Create(ctx, sub))

	f.provider.products["prod_base"] = &billing.Product{
		ID:               "prod_base",
		RequestAllowance: 5,
	}

	// Requests before the billing period start are outside the window.
	require.NoError(t, f.db.Create(&models.RequestLog{
		AppID:     f.app.ID,
		Timestamp: periodStart.Add(-time.Hour),
	}).Error)

	f.logRequests(t, 4)
	assert.NoError(t, f.quota.Check(ctx, f.app))

	f.logRequests(t, 1)
	assert.ErrorIs(t, f.quota.Check(ctx, f.app), apperrors.ErrQuotaExceeded)

	stats, err := f.quota.CurrentUsage(ctx, f.app)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.CurrentCount)
	assert.Equal(t, int64(5), stats.Limit)
	assert.Equal(t, int64(0), stats.RemainingRequests)
}
