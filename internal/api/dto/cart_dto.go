package dto

import "github.com/spec-kit/grocery-storefront/internal/domain"

// CartUpdateRequest overwrites the caller's remote cart.
type CartUpdateRequest struct {
	CartData domain.CartSnapshot `json:"cartData"`
}
