// Package payment adapts hosted checkout providers.
package payment

import (
	"context"
	"errors"
	"math"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"

	"github.com/spec-kit/grocery-storefront/internal/config"
	"github.com/spec-kit/grocery-storefront/internal/domain"
)

// ErrNotConfigured is returned when no provider secret is set.
var ErrNotConfigured = errors.New("payment provider not configured")

// CheckoutRequest describes the hosted payment page to open.
type CheckoutRequest struct {
	Reference string
	UserID    string
	Email     string
	Items     []domain.OrderItem
	// TaxAmount is charged as its own line so the page total matches the order.
	TaxAmount float64
}

// Session is a created hosted checkout.
type Session struct {
	ID  string
	URL string
}

// Stripe opens Stripe Checkout sessions.
type Stripe struct {
	cfg config.StripeConfig
}

// NewStripe configures the client key. The returned provider reports
// ErrNotConfigured when the key is empty.
func NewStripe(cfg config.StripeConfig) *Stripe {
	if cfg.SecretKey != "" {
		stripe.Key = cfg.SecretKey
	}
	return &Stripe{cfg: cfg}
}

// CreateSession opens a payment-mode checkout with one line per item.
func (s *Stripe) CreateSession(_ context.Context, req CheckoutRequest) (*Session, error) {
	if s.cfg.SecretKey == "" {
		return nil, ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(s.cfg.SuccessURL),
		CancelURL:         stripe.String(s.cfg.CancelURL),
		ClientReferenceID: stripe.String(req.Reference),
		LineItems:         LineItems(s.cfg.Currency, req.Items, req.TaxAmount),
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.AddMetadata("reference", req.Reference)
	params.AddMetadata("userId", req.UserID)

	cs, err := session.New(params)
	if err != nil {
		return nil, err
	}
	return &Session{ID: cs.ID, URL: cs.URL}, nil
}

// SessionPaid reports whether the checkout has been paid.
func (s *Stripe) SessionPaid(_ context.Context, sessionID string) (bool, error) {
	if s.cfg.SecretKey == "" {
		return false, ErrNotConfigured
	}
	cs, err := session.Get(sessionID, nil)
	if err != nil {
		return false, err
	}
	return cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid, nil
}

// LineItems converts order lines to Stripe price data in minor units.
func LineItems(currency string, items []domain.OrderItem, tax float64) []*stripe.CheckoutSessionLineItemParams {
	lines := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items)+1)
	for _, item := range items {
		lines = append(lines, lineItem(currency, item.Name, item.Price, item.Quantity))
	}
	if tax > 0 {
		lines = append(lines, lineItem(currency, "Tax", tax, 1))
	}
	return lines
}

func lineItem(currency, name string, unit float64, qty int) *stripe.CheckoutSessionLineItemParams {
	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency: stripe.String(currency),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(name),
			},
			UnitAmount: stripe.Int64(MinorUnits(unit)),
		},
		Quantity: stripe.Int64(int64(qty)),
	}
}

// MinorUnits converts a dollar amount to cents.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
