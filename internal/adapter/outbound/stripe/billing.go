// Package stripe adapts the Stripe API to the billing port.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pixelgate/server/internal/port/outbound"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Config holds Stripe configuration.
type Config struct {
	SecretKey     string
	WebhookSecret string

	// BaseURL overrides the API endpoint, used against stripe-mock.
	BaseURL string
}

// Provider implements outbound.BillingProviderPort.
type Provider struct {
	api           *client.API
	webhookSecret string
}

// NewProvider creates a Stripe billing provider.
func NewProvider(cfg Config, httpClient *http.Client) *Provider {
	backendCfg := &stripe.BackendConfig{
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripe.String(cfg.BaseURL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)

	api := &client.API{}
	api.Init(cfg.SecretKey, &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})

	return &Provider{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
	}
}

// ConstructEvent verifies the Stripe-Signature header and decodes the event.
// Events must use the API version stripe-go is pinned to (stripe.APIVersion);
// the webhook endpoint in the Stripe dashboard has to be created with it.
func (p *Provider) ConstructEvent(payload []byte, signature string) (*outbound.BillingEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", outbound.ErrInvalidWebhook, err)
	}

	out := &outbound.BillingEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	switch out.Type {
	case outbound.BillingEventCheckoutCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("%w: decode checkout session: %v", outbound.ErrInvalidWebhook, err)
		}
		out.UserID = session.Metadata["userId"]
		if session.Customer != nil {
			out.CustomerID = session.Customer.ID
		}
		if session.Subscription != nil {
			out.SubscriptionID = session.Subscription.ID
		}
	case outbound.BillingEventInvoicePaid:
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("%w: decode invoice: %v", outbound.ErrInvalidWebhook, err)
		}
		if inv.Customer != nil {
			out.CustomerID = inv.Customer.ID
		}
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
	}

	return out, nil
}

// GetSubscription fetches a subscription by ID.
func (p *Provider) GetSubscription(ctx context.Context, subscriptionID string) (*outbound.BillingSubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return mapSubscription(sub), nil
}

func mapSubscription(sub *stripe.Subscription) *outbound.BillingSubscription {
	out := &outbound.BillingSubscription{
		ID: sub.ID,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.CurrentPeriodEnd > 0 {
		out.CurrentPeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		out.PriceID = sub.Items.Data[0].Price.ID
	}
	return out
}

var _ outbound.BillingProviderPort = (*Provider)(nil)
