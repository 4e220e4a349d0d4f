package services

import (
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/paymentintent"
	"github.com/stripe/stripe-go/v79/subscription"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/buildhive/buildhive-backend/internal/config"
	"github.com/buildhive/buildhive-backend/internal/models"
)

// PaymentService wraps the Stripe SDK. It is optional: when no API key is
// configured the service stays nil and payment routes answer 503.
type PaymentService struct {
	webhookSecret string
	prices        map[models.SubscriptionPlan]string
}

func NewPaymentService(cfg *config.Config) (*PaymentService, error) {
	if cfg.StripeSecretKey == "" {
		return nil, errors.New("stripe secret key not configured")
	}
	stripe.Key = cfg.StripeSecretKey

	return &PaymentService{
		webhookSecret: cfg.StripeWebhookSecret,
		prices: map[models.SubscriptionPlan]string{
			models.PlanBasic:      cfg.StripePriceBasic,
			models.PlanPremium:    cfg.StripePricePremium,
			models.PlanEnterprise: cfg.StripePriceEnterprise,
		},
	}, nil
}

// CreateCustomer registers the user with Stripe and returns the customer id.
// The caller persists the id on the user document.
func (p *PaymentService) CreateCustomer(u *models.User) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(u.Email),
		Name:  stripe.String(u.Name),
	}
	params.AddMetadata("user_id", u.ID.Hex())

	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe customer: %w", err)
	}
	return c.ID, nil
}

// CreateIntent creates a payment intent; amount is in the currency's
// smallest unit (cents).
func (p *PaymentService) CreateIntent(amount int64, currency, customerID string, metadata map[string]string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if customerID != "" {
		params.Customer = stripe.String(customerID)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	return paymentintent.New(params)
}

func (p *PaymentService) RetrieveIntent(id string) (*stripe.PaymentIntent, error) {
	return paymentintent.Get(id, nil)
}

// CreateSubscription starts a plan subscription for an existing customer.
func (p *PaymentService) CreateSubscription(customerID string, plan models.SubscriptionPlan) (*stripe.Subscription, error) {
	priceID, ok := p.prices[plan]
	if !ok || priceID == "" {
		return nil, fmt.Errorf("no price configured for plan %q", plan)
	}

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
	}
	params.AddExpand("latest_invoice.payment_intent")
	return subscription.New(params)
}

// VerifyWebhook checks the shared-secret signature on a webhook payload.
// Fails closed: an unconfigured secret rejects every event.
func (p *PaymentService) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	if p.webhookSecret == "" {
		return stripe.Event{}, errors.New("webhook secret not configured")
	}
	return webhook.ConstructEvent(payload, sigHeader, p.webhookSecret)
}
