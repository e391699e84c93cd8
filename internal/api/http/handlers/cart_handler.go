package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grocery-storefront/internal/api/dto"
	"github.com/spec-kit/grocery-storefront/internal/domain"
	apperrors "github.com/spec-kit/grocery-storefront/pkg/util"
)

// CartService is what the cart endpoints need.
type CartService interface {
	Get(ctx context.Context, userID string) (domain.CartSnapshot, error)
	Replace(ctx context.Context, userID string, cart domain.CartSnapshot) error
}

// CartHandler serves the caller's remote cart.
type CartHandler struct {
	carts CartService
}

// NewCartHandler constructs handler.
func NewCartHandler(carts CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// Get handles GET /cart/get and returns the bare {id: qty} map.
func (h *CartHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	cart, err := h.carts.Get(c.UserContext(), p.User.ID)
	if err != nil {
		return err
	}
	if cart == nil {
		cart = domain.CartSnapshot{}
	}
	return c.JSON(cart)
}

// Update handles POST /cart/update.
func (h *CartHandler) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CartUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.carts.Replace(c.UserContext(), p.User.ID, req.CartData); err != nil {
		return err
	}
	return c.JSON(dto.SuccessResponse{Success: true, Message: "Cart Updated"})
}
