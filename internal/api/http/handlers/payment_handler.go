package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grocery-storefront/internal/api/dto"
	"github.com/spec-kit/grocery-storefront/internal/domain"
	"github.com/spec-kit/grocery-storefront/internal/service"
	apperrors "github.com/spec-kit/grocery-storefront/pkg/util"
)

// PaymentService is what the online checkout endpoints need.
type PaymentService interface {
	CreateCheckout(ctx context.Context, user *domain.User, items []domain.OrderItem, address string) (*service.CheckoutResult, error)
	VerifySession(ctx context.Context, userID, sessionID string) (*service.VerifyResult, error)
}

// PaymentHandler serves hosted checkout sessions.
type PaymentHandler struct {
	payments PaymentService
}

// NewPaymentHandler constructs handler.
func NewPaymentHandler(payments PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreateCheckoutSession handles POST /payment/create-checkout-session.
func (h *PaymentHandler) CreateCheckoutSession(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CheckoutSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	res, err := h.payments.CreateCheckout(c.UserContext(), p.User, req.Items, req.Address)
	if err != nil {
		return err
	}
	return c.JSON(dto.CheckoutSessionResponse{Success: true, SessionID: res.SessionID, URL: res.URL})
}

// VerifySession handles POST /payment/verify-session.
func (h *PaymentHandler) VerifySession(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.VerifySessionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	res, err := h.payments.VerifySession(c.UserContext(), p.User.ID, req.SessionID)
	if err != nil {
		return err
	}
	return c.JSON(dto.VerifySessionResponse{Success: true, AlreadyExists: res.AlreadyExists, Order: res.Order})
}
