package billing

import (
	"context"
	"time"
)

// Product is the provider-side product metadata the quota gate and usage
// reporter care about. It is fetched from the billing provider and cached
// with a bounded TTL; it is not authoritative local state.
type Product struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	RequestAllowance int64  `json:"request_allowance"`
	OverageProductID string `json:"overage_product_id,omitempty"`
}

type SubscriptionItemInfo struct {
	ID        string
	ProductID string
	Metered   bool
}

type SubscriptionInfo struct {
	ID                string
	CustomerID        string
	PeriodStart       time.Time
	PeriodEnd         time.Time
	CancelAtPeriodEnd bool
	Items             []SubscriptionItemInfo
}

// Provider abstracts the billing provider so the reconciler and quota gate
// stay independently testable. Implementations must be safe for concurrent
// use.
type Provider interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
	GetSubscription(ctx context.Context, id string) (*SubscriptionInfo, error)
	// ReportUsage submits an absolute usage quantity for a metered
	// subscription item at the given timestamp. Submitting the same value
	// twice for the same item and period must not double-bill.
	ReportUsage(ctx context.Context, subscriptionItemID string, quantity int64, at time.Time) error
}
