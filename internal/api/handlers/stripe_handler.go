package handlers

import (
	"beacon-api/internal/logger"
	"beacon-api/internal/services"
	"encoding/json"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/webhook"
)

type StripeHandler struct {
	billingService services.BillingService
	webhookSecret  string
}

func NewStripeHandler(billingService services.BillingService, webhookSecret string) *StripeHandler {
	return &StripeHandler{
		billingService: billingService,
		webhookSecret:  webhookSecret,
	}
}

// HandleStripeWebhook verifies the event signature and dispatches recognized
// lifecycle events to the billing reconciler. Handler failures return 5xx so
// the provider redelivers; the reconciler is idempotent, so redelivery is
// safe. Unrecognized event types are acknowledged and ignored.
func (h *StripeHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	const MaxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		logger.LogEvent(logrus.ErrorLevel, "Error reading webhook body", logrus.Fields{"error": err})
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		logger.LogEvent(logrus.WarnLevel, "Webhook signature verification failed", logrus.Fields{"error": err})
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.dispatch(r, event); err != nil {
		// Never drop a billing event silently; local and provider state
		// would desynchronize permanently.
		logger.LogEvent(logrus.ErrorLevel, "Webhook handler failed", logrus.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
			"error":      err,
		})
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *StripeHandler) dispatch(r *http.Request, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return err
		}
		return h.billingService.HandleCheckoutCompleted(r.Context(), session)
	case "customer.subscription.updated":
		var subscription stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
			return err
		}
		return h.billingService.HandleSubscriptionUpdated(r.Context(), subscription)
	case "customer.subscription.deleted":
		var subscription stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
			return err
		}
		return h.billingService.HandleSubscriptionDeleted(r.Context(), subscription)
	default:
		logger.LogEvent(logrus.DebugLevel, "Ignoring unhandled event type", logrus.Fields{
			"event_type": event.Type,
		})
		return nil
	}
}
