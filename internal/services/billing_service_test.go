package services

import (
	"beacon-api/internal/billing"
	"beacon-api/internal/models"
	"beacon-api/internal/repository"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v72"
	"gorm.io/gorm"
)

type billingFixture struct {
	db       *gorm.DB
	billing  BillingService
	orgs     repository.OrganizationRepository
	subs     repository.SubscriptionRepository
	provider *fakeProvider
	org      *models.Organization
	app      *models.App
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()
	db := newTestDB(t)
	ctx := context.Background()

	orgs := repository.NewOrganizationRepository(db)
	org := &models.Organization{ID: uuid.New(), Name: "acme"}
	require.NoError(t, orgs.Create(ctx, org))

	app, err := NewAppService(repository.NewAppRepository(db)).CreateApp(ctx, org.ID, "dashboard")
	require.NoError(t, err)

	provider := newFakeProvider()
	subs := repository.NewSubscriptionRepository(db)
	logRepo := repository.NewRequestLogRepository(db)
	attempts := repository.NewAuthAttemptRepository(db)
	products := NewProductService(provider, nil, time.Minute)

	return &billingFixture{
		db:       db,
		billing:  NewBillingService(orgs, subs, logRepo, attempts, products, provider, testQuotaConfig()),
		orgs:     orgs,
		subs:     subs,
		provider: provider,
		org:      org,
		app:      app,
	}
}

func (f *billingFixture) seedProviderSubscription(id string, start, end time.Time) {
	f.provider.subscriptions[id] = &billing.SubscriptionInfo{
		ID:          id,
		CustomerID:  "cus_1",
		PeriodStart: start,
		PeriodEnd:   end,
		Items: []billing.SubscriptionItemInfo{
			{ID: "si_base", ProductID: "prod_base", Metered: false},
			{ID: "si_over", ProductID: "prod_over", Metered: true},
		},
	}
	f.provider.products["prod_base"] = &billing.Product{ID: "prod_base", RequestAllowance: 5}
}

func (f *billingFixture) logRequestsAt(t *testing.T, n int, at time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, f.db.Create(&models.RequestLog{
			AppID:     f.app.ID,
			Timestamp: at,
		}).Error)
	}
}

func checkoutSession(orgID uuid.UUID, subID string) stripe.CheckoutSession {
	return stripe.CheckoutSession{
		ID:                "cs_1",
		ClientReferenceID: orgID.String(),
		Customer:          &stripe.Customer{ID: "cus_1"},
		Subscription:      &stripe.Subscription{ID: subID},
	}
}

func TestCheckoutCompletedCreatesSubscription(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	start := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	end := start.Add(30 * 24 * time.Hour)
	f.seedProviderSubscription("sub_1", start, end)

	require.NoError(t, f.billing.HandleCheckoutCompleted(ctx, checkoutSession(f.org.ID, "sub_1")))

	sub, err := f.subs.GetByStripeID(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, f.org.ID, sub.OrgID)
	assert.Len(t, sub.Items, 2)
	assert.True(t, sub.HasMeteredItem())

	org, err := f.orgs.GetByID(ctx, f.org.ID)
	require.NoError(t, err)
	assert.Equal(t, "cus_1", org.StripeCustomerID)
}

func TestCheckoutCompletedIsIdempotent(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	start := time.Now().UTC().Truncate(time.Second)
	f.seedProviderSubscription("sub_1", start, start.Add(30*24*time.Hour))

	session := checkoutSession(f.org.ID, "sub_1")
	require.NoError(t, f.billing.HandleCheckoutCompleted(ctx, session))
	require.NoError(t, f.billing.HandleCheckoutCompleted(ctx, session))

	var count int64
	require.NoError(t, f.db.Model(&models.Subscription{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var items int64
	require.NoError(t, f.db.Model(&models.SubscriptionItem{}).Count(&items).Error)
	assert.Equal(t, int64(2), items)
}

func TestCheckoutDoesNotOverwriteCustomerID(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	require.NoError(t, f.orgs.SetStripeCustomerID(ctx, f.org.ID, "cus_original"))

	start := time.Now().UTC().Truncate(time.Second)
	f.seedProviderSubscription("sub_1", start, start.Add(30*24*time.Hour))
	require.NoError(t, f.billing.HandleCheckoutCompleted(ctx, checkoutSession(f.org.ID, "sub_1")))

	org, err := f.orgs.GetByID(ctx, f.org.ID)
	require.NoError(t, err)
	assert.Equal(t, "cus_original", org.StripeCustomerID)
}

func TestSubscriptionUpdatedUnchangedPeriodIsNoop(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	start := time.Now().Add(-10 * 24 * time.Hour).UTC().Truncate(time.Second)
	end := start.Add(30 * 24 * time.Hour)
	f.seedProviderSubscription("sub_1", start, end)
	require.NoError(t, f.billing.HandleCheckoutCompleted(ctx, checkoutSession(f.org.ID, "sub_1")))

	f.logRequestsAt(t, 20, start.Add(time.Hour))

	event := stripe.Subscription{
		ID:                 "sub_1",
		CurrentPeriodStart: start.Unix(),
		CurrentPeriodEnd:   end.Unix(),
	}
	require.NoError(t, f.billing.HandleSubscriptionUpdated(ctx, event))

	// No boundary change means no usage report and no write.
	assert.Equal(t, 0, f.provider.reportCount())

	sub, err := f.subs.GetByStripeID(ctx, "sub_1")
	require.NoError(t, err)
	assert.True(t, sub.PeriodStart.Equal(start))
	assert.True(t, sub.PeriodEnd.Equal(end))
}

func TestSubscriptionUpdatedRolloverReportsEndingPeriod(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	start := time.Now().Add(-31 * 24 * time.Hour).UTC().Truncate(time.Second)
	end := time.Now().Add(-1 * 24 * time.Hour).UTC().Truncate(time.Second)
	f.seedProviderSubscription("sub_1", start, end)
	require.NoError(t, f.billing.HandleCheckoutCompleted(ctx, checkoutSession(f.org.ID, "sub_1")))

	// 8 requests in the ending period against an allowance of 5.
	f.logRequestsAt(t, 8, start.Add(time.Hour))
	// Requests outside the ending period must not be reported against it.
	f.logRequestsAt(t, 3, end.Add(time.Hour))

	newStart := end
	newEnd := end.Add(30 * 24 * time.Hour)
	event := stripe.Subscription{
		ID:                 "sub_1",
		CurrentPeriodStart: newStart.Unix(),
		CurrentPeriodEnd:   newEnd.Unix(),
	}
	require.NoError(t, f.billing.HandleSubscriptionUpdated(ctx, event))

	require.Equal(t, 1, f.provider.reportCount())
	report := f.provider.reports[0]
	assert.Equal(t, "si_over", report.ItemID)
	assert.Equal(t, int64(3), report.Quantity)
	assert.True(t, report.At.Before(end), "report must land inside the ending period")

	sub, err := f.subs.GetByStripeID(ctx, "sub_1")
	require.NoError(t, err)
	assert.True(t, sub.PeriodStart.Equal(newStart))
	assert.True(t, sub.PeriodEnd.Equal(newEnd))
}

func TestSubscriptionUpdatedCancelAtPeriodEndSkipsReport(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	start := time.Now().Add(-31 * 24 * time.Hour).UTC().Truncate(time.Second)
	end := time.Now().Add(-1 * 24 * time.Hour).UTC().Truncate(time.Second)
	f.seedProviderSubscription("sub_1", start, end)
	require.NoError(t, f.billing.HandleCheckoutCompleted(ctx, checkoutSession(f.org.ID, "sub_1")))

	f.logRequestsAt(t, 8, start.Add(time.Hour))

	event := stripe.Subscription{
		ID:                 "sub_1",
		CurrentPeriodStart: end.Unix(),
		CurrentPeriodEnd:   end.Add(30 * 24 * time.Hour).Unix(),
		CancelAtPeriodEnd:  true,
	}
	require.NoError(t, f.billing.HandleSubscriptionUpdated(ctx, event))

	// Deletion will report instead; reporting here would double-bill.
	assert.Equal(t, 0, f.provider.reportCount())
}

func TestSubscriptionDeletedReportsOnceAndIsTerminal(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	start := time.Now().Add(-10 * 24 * time.Hour).UTC().Truncate(time.Second)
	end := start.Add(30 * 24 * time.Hour)
	f.seedProviderSubscription("sub_1", start, end)
	require.NoError(t, f.billing.HandleCheckoutCompleted(ctx, checkoutSession(f.org.ID, "sub_1")))

	f.logRequestsAt(t, 8, start.Add(time.Hour))

	event := stripe.Subscription{ID: "sub_1"}
	require.NoError(t, f.billing.HandleSubscriptionDeleted(ctx, event))
	assert.Equal(t, 1, f.provider.reportCount())
	assert.Equal(t, int64(3), f.provider.reports[0].Quantity)

	sub, err := f.subs.GetByStripeID(ctx, "sub_1")
	require.NoError(t, err)
	assert.True(t, sub.IsDeleted)

	// Redelivery of the delete event is a no-op.
	require.NoError(t, f.billing.HandleSubscriptionDeleted(ctx, event))
	assert.Equal(t, 1, f.provider.reportCount())

	// The deleted subscription is invisible to the quota gate's lookup.
	_, err = f.subs.GetActiveByOrgID(ctx, f.org.ID)
	assert.Error(t, err)
}

func TestUnknownSubscriptionEventsAreAcknowledged(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	event := stripe.Subscription{ID: "sub_unknown", CurrentPeriodStart: 100, CurrentPeriodEnd: 200}
	assert.NoError(t, f.billing.HandleSubscriptionUpdated(ctx, event))
	assert.NoError(t, f.billing.HandleSubscriptionDeleted(ctx, event))
	assert.Equal(t, 0, f.provider.reportCount())
}

func TestUsageSweepReportsAndPrunes(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	start := time.Now().Add(-10 * 24 * time.Hour).UTC().Truncate(time.Second)
	end := start.Add(30 * 24 * time.Hour)
	f.seedProviderSubscription("sub_1", start, end)
	require.NoError(t, f.billing.HandleCheckoutCompleted(ctx, checkoutSession(f.org.ID, "sub_1")))

	f.logRequestsAt(t, 8, start.Add(time.Hour))

	// Rows outside every counting window are pruned by the sweep.
	require.NoError(t, f.db.Create(&models.AuthAttempt{
		IP:        "192.0.2.1",
		Timestamp: time.Now().Add(-72 * time.Hour),
	}).Error)
	f.logRequestsAt(t, 2, time.Now().Add(-90*24*time.Hour))

	result, err := f.billing.RunUsageSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Reported)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, int64(1), result.PrunedAttempts)
	assert.Equal(t, int64(2), result.PrunedRequests)
	assert.Equal(t, 1, f.provider.reportCount())
}

func TestUsageSweepContinuesAfterOrgFailure(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	start := time.Now().Add(-10 * 24 * time.Hour).UTC().Truncate(time.Second)
	end := start.Add(30 * 24 * time.Hour)

	// Two orgs with overage; the provider rejects every report.
	f.seedProviderSubscription("sub_1", start, end)
	require.NoError(t, f.billing.HandleCheckoutCompleted(ctx, checkoutSession(f.org.ID, "sub_1")))
	f.logRequestsAt(t, 8, start.Add(time.Hour))

	org2 := &models.Organization{ID: uuid.New(), Name: "globex"}
	require.NoError(t, f.orgs.Create(ctx, org2))
	f.seedProviderSubscription("sub_2", start, end)
	require.NoError(t, f.billing.HandleCheckoutCompleted(ctx, stripe.CheckoutSession{
		ID:                "cs_2",
		ClientReferenceID: org2.ID.String(),
		Customer:          &stripe.Customer{ID: "cus_2"},
		Subscription:      &stripe.Subscription{ID: "sub_2"},
	}))

	f.provider.reportErr = assert.AnError

	result, err := f.billing.RunUsageSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Reported)
}
