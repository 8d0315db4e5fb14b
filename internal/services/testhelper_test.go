package services

import (
	"beacon-api/internal/billing"
	"beacon-api/internal/config"
	"beacon-api/internal/database"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	return db
}

func testQuotaConfig() *config.QuotaConfig {
	return &config.QuotaConfig{
		FreeTierLimit:    10,
		FreeTierWindow:   31 * 24 * time.Hour,
		ThrottleLimit:    5,
		ThrottleWindow:   24 * time.Hour,
		ThrottleRetry:    24 * time.Hour,
		AttemptRetention: 48 * time.Hour,
		RequestRetention: 62 * 24 * time.Hour,
	}
}

type usageReport struct {
	ItemID   string
	Quantity int64
	At       time.Time
}

// fakeProvider is an in-memory billing.Provider for reconciler and quota
// tests.
type fakeProvider struct {
	mu            sync.Mutex
	products      map[string]*billing.Product
	subscriptions map[string]*billing.SubscriptionInfo
	reports       []usageReport
	reportErr     error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		products:      make(map[string]*billing.Product),
		subscriptions: make(map[string]*billing.SubscriptionInfo),
	}
}

func (f *fakeProvider) GetProduct(ctx context.Context, id string) (*billing.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[id]
	if !ok {
		return nil, errors.New("no such product")
	}
	return product, nil
}

func (f *fakeProvider) GetSubscription(ctx context.Context, id string) (*billing.SubscriptionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.subscriptions[id]
	if !ok {
		return nil, errors.New("no such subscription")
	}
	return info, nil
}

func (f *fakeProvider) ReportUsage(ctx context.Context, subscriptionItemID string, quantity int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reportErr != nil {
		return f.reportErr
	}
	f.reports = append(f.reports, usageReport{ItemID: subscriptionItemID, Quantity: quantity, At: at})
	return nil
}

func (f *fakeProvider) reportCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reports)
}
