package service

import (
	"context"

	"github.com/spec-kit/grocery-storefront/internal/domain"
	"github.com/spec-kit/grocery-storefront/internal/repository"
	apperrors "github.com/spec-kit/grocery-storefront/pkg/util"
)

// CartService owns the server copy of each user's cart.
type CartService struct {
	carts repository.CartRepository
}

// NewCartService constructs the service.
func NewCartService(carts repository.CartRepository) *CartService {
	return &CartService{carts: carts}
}

// Get returns the stored snapshot, empty when none exists.
func (s *CartService) Get(ctx context.Context, userID string) (domain.CartSnapshot, error) {
	return s.carts.Get(ctx, userID)
}

// Replace overwrites the stored cart. Negative quantities are rejected and
// zero entries are dropped.
func (s *CartService) Replace(ctx context.Context, userID string, cart domain.CartSnapshot) error {
	var negative []string
	for id, qty := range cart {
		if qty < 0 {
			negative = append(negative, id)
		}
	}
	if len(negative) > 0 {
		return apperrors.NewValidationError("Quantities must not be negative", map[string]any{"items": negative})
	}
	return s.carts.Put(ctx, userID, cart.Clone())
}

// Clear removes the stored cart.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	return s.carts.Delete(ctx, userID)
}
