package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grocery-storefront/internal/api/dto"
	"github.com/spec-kit/grocery-storefront/internal/domain"
	"github.com/spec-kit/grocery-storefront/internal/service"
	apperrors "github.com/spec-kit/grocery-storefront/pkg/util"
)

// OrderService is what the order endpoints need.
type OrderService interface {
	Place(ctx context.Context, userID string, input service.PlaceOrderInput) (*domain.Order, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context, limit, offset int) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
}

// OrderHandler serves order placement and tracking.
type OrderHandler struct {
	orders OrderService
}

// NewOrderHandler constructs handler.
func NewOrderHandler(orders OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Place handles POST /order/place.
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.PlaceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	order, err := h.orders.Place(c.UserContext(), p.User.ID, service.PlaceOrderInput{
		Items:         req.Items,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Address:       req.Address,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.PlaceOrderResponse{
		Success: true,
		Message: "Order Placed Successfully",
		Order:   order,
	})
}

// UserOrders handles GET /order/user-orders.
func (h *OrderHandler) UserOrders(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	orders, err := h.orders.ListForUser(c.UserContext(), p.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(orders)
}

// List handles GET /order/list for sellers.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	orders, err := h.orders.ListAll(c.UserContext(), c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return c.JSON(orders)
}

// UpdateStatus handles POST /order/status for sellers.
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.OrderID == "" {
		return apperrors.NewValidationError("orderId is required", nil)
	}
	if err := h.orders.UpdateStatus(c.UserContext(), req.OrderID, req.Status); err != nil {
		return err
	}
	return c.JSON(dto.SuccessResponse{Success: true, Message: "Status Updated"})
}
