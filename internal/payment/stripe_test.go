package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/grocery-storefront/internal/config"
	"github.com/spec-kit/grocery-storefront/internal/domain"
)

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{0, 0},
		{1.99, 199},
		{0.1 + 0.2, 30},
		{12.345, 1235},
	}
	for _, tt := range tests {
		if got := MinorUnits(tt.in); got != tt.want {
			t.Errorf("MinorUnits(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestLineItems_UnitPricesAndTax(t *testing.T) {
	items := []domain.OrderItem{
		{Name: "Apple", Quantity: 3, Price: 1.25},
		{Name: "Milk", Quantity: 1, Price: 2.40},
	}
	lines := LineItems("usd", items, 0.12)
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	if got := *lines[0].PriceData.UnitAmount; got != 125 {
		t.Errorf("apple unit = %d, want 125", got)
	}
	if got := *lines[0].Quantity; got != 3 {
		t.Errorf("apple qty = %d, want 3", got)
	}
	if got := *lines[2].PriceData.ProductData.Name; got != "Tax" {
		t.Errorf("last line = %q, want Tax", got)
	}
	if got := *lines[2].PriceData.UnitAmount; got != 12 {
		t.Errorf("tax = %d, want 12", got)
	}

	if got := LineItems("usd", items, 0); len(got) != 2 {
		t.Errorf("zero tax should add no line, got %d lines", len(got))
	}
}

func TestStripe_NotConfigured(t *testing.T) {
	s := NewStripe(config.StripeConfig{})
	if _, err := s.CreateSession(context.Background(), CheckoutRequest{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("CreateSession = %v, want ErrNotConfigured", err)
	}
	if _, err := s.SessionPaid(context.Background(), "cs_1"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("SessionPaid = %v, want ErrNotConfigured", err)
	}
}
