package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Clean-PRO/backend/models"
	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
)

// ChargeResult is what a gateway reports for a new payment attempt.
type ChargeResult struct {
	Status      string
	ReferenceID string
	URL         string
}

type PaymentGateway interface {
	Name() string
	Charge(ctx context.Context, order *models.Order) (*ChargeResult, error)
}

// ManualGateway accepts every payment immediately. Money is collected by the cleaner.
type ManualGateway struct{}

func (ManualGateway) Name() string { return models.PaymentMethodManual }

func (ManualGateway) Charge(_ context.Context, order *models.Order) (*ChargeResult, error) {
	return &ChargeResult{
		Status:      models.PaymentStatusSuccess,
		ReferenceID: "manual-" + strconv.FormatUint(uint64(order.ID), 10),
	}, nil
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	Currency      string
}

// StripeGateway opens a Stripe Checkout session per order. The payment stays
// pending until the checkout.session.completed webhook arrives.
type StripeGateway struct {
	config   *StripeConfig
	sessions *checkoutsession.Client
}

func NewStripeGateway(cfg *StripeConfig) (*StripeGateway, error) {
	g := &StripeGateway{config: cfg}
	if err := g.ValidateConfig(); err != nil {
		return nil, err
	}
	if g.config.Currency == "" {
		g.config.Currency = string(stripe.CurrencyRUB)
	}
	g.sessions = &checkoutsession.Client{B: stripe.GetBackend(stripe.APIBackend), Key: cfg.SecretKey}
	return g, nil
}

func (g *StripeGateway) ValidateConfig() error {
	if g.config == nil {
		return errors.New("stripe config is missing")
	}
	if g.config.SecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is not set")
	}
	if g.config.WebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is not set")
	}
	if g.config.SuccessURL == "" {
		return fmt.Errorf("STRIPE_SUCCESS_URL is not set")
	}
	if g.config.CancelURL == "" {
		return fmt.Errorf("STRIPE_CANCEL_URL is not set")
	}
	return nil
}

func (g *StripeGateway) Name() string { return models.PaymentMethodStripe }

func (g *StripeGateway) WebhookSecret() string { return g.config.WebhookSecret }

func (g *StripeGateway) Charge(ctx context.Context, order *models.Order) (*ChargeResult, error) {
	orderID := strconv.FormatUint(uint64(order.ID), 10)
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.config.SuccessURL),
		CancelURL:         stripe.String(g.config.CancelURL),
		ClientReferenceID: stripe.String(orderID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(g.config.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("CleanPro order #" + orderID),
					},
					// Stripe amounts are in minor units.
					UnitAmount: stripe.Int64(int64(order.TotalSum) * 100),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{"order_id": orderID},
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String("order-" + orderID + "-" + strconv.FormatInt(order.UpdatedAt.Unix(), 10))

	sess, err := g.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &ChargeResult{
		Status:      models.PaymentStatusPending,
		ReferenceID: sess.ID,
		URL:         sess.URL,
	}, nil
}
