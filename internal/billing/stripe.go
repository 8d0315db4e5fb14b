package billing

import (
	"context"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

// Product metadata keys on the Stripe side.
const (
	MetadataRequestAllowance = "request_allowance"
	MetadataOverageProduct   = "overage_product_id"
)

type StripeProvider struct {
	api *client.API
}

func NewStripeProvider(apiKey string) *StripeProvider {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeProvider{api: api}
}

func (p *StripeProvider) GetProduct(ctx context.Context, id string) (*Product, error) {
	params := &stripe.ProductParams{}
	params.Context = ctx

	product, err := p.api.Products.Get(id, params)
	if err != nil {
		return nil, err
	}

	return &Product{
		ID:               product.ID,
		Name:             product.Name,
		RequestAllowance: parseAllowance(product.Metadata[MetadataRequestAllowance]),
		OverageProductID: product.Metadata[MetadataOverageProduct],
	}, nil
}

func (p *StripeProvider) GetSubscription(ctx context.Context, id string) (*SubscriptionInfo, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Get(id, params)
	if err != nil {
		return nil, err
	}

	info := &SubscriptionInfo{
		ID:                sub.ID,
		PeriodStart:       time.Unix(sub.CurrentPeriodStart, 0).UTC(),
		PeriodEnd:         time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		info.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			info.Items = append(info.Items, subscriptionItemInfo(item))
		}
	}

	return info, nil
}

// ReportUsage uses action=set so a resubmission for the same item and period
// overwrites with the same value instead of incrementing.
func (p *StripeProvider) ReportUsage(ctx context.Context, subscriptionItemID string, quantity int64, at time.Time) error {
	params := &stripe.UsageRecordParams{
		SubscriptionItem: stripe.String(subscriptionItemID),
		Quantity:         stripe.Int64(quantity),
		Timestamp:        stripe.Int64(at.Unix()),
		Action:           stripe.String(stripe.UsageRecordActionSet),
	}
	params.Context = ctx

	_, err := p.api.UsageRecords.New(params)
	return err
}

func subscriptionItemInfo(item *stripe.SubscriptionItem) SubscriptionItemInfo {
	info := SubscriptionItemInfo{ID: item.ID}
	if item.Price != nil {
		if item.Price.Product != nil {
			info.ProductID = item.Price.Product.ID
		}
		if item.Price.Recurring != nil {
			info.Metered = item.Price.Recurring.UsageType == stripe.PriceRecurringUsageTypeMetered
		}
	}
	return info
}

func parseAllowance(raw string) int64 {
	if raw == "" {
		return 0
	}
	allowance, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return allowance
}
