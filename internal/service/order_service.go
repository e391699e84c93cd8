package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/grocery-storefront/internal/domain"
	"github.com/spec-kit/grocery-storefront/internal/events"
	"github.com/spec-kit/grocery-storefront/internal/pricing"
	"github.com/spec-kit/grocery-storefront/internal/repository"
	apperrors "github.com/spec-kit/grocery-storefront/pkg/util"
)

// OrderService places and tracks orders.
type OrderService struct {
	orders     repository.OrderRepository
	products   repository.ProductRepository
	carts      repository.CartRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// OrderDependencies bundles repositories for the order service.
type OrderDependencies struct {
	OrderRepo   repository.OrderRepository
	ProductRepo repository.ProductRepository
	CartRepo    repository.CartRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// PlaceOrderInput is the client's order request. Prices and amount are
// advisory; the server reprices against the active catalog.
type PlaceOrderInput struct {
	Items         []domain.OrderItem
	Amount        float64
	PaymentMethod domain.PaymentMethod
	Address       string
}

// NewOrderService constructs the service.
func NewOrderService(deps OrderDependencies) *OrderService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orders:     deps.OrderRepo,
		products:   deps.ProductRepo,
		carts:      deps.CartRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Place records a cash-on-delivery order for userID and clears their cart.
func (s *OrderService) Place(ctx context.Context, userID string, input PlaceOrderInput) (*domain.Order, error) {
	if input.PaymentMethod != "" && input.PaymentMethod != domain.PaymentCOD {
		return nil, apperrors.NewValidationError("Only cash on delivery orders can be placed directly", nil)
	}
	address := strings.TrimSpace(input.Address)
	if address == "" {
		return nil, apperrors.NewValidationError("Delivery address is required", nil)
	}

	quote, err := s.Reprice(ctx, input.Items)
	if err != nil {
		return nil, err
	}
	if diff := quote.Total - input.Amount; input.Amount > 0 && (diff > 0.01 || diff < -0.01) {
		s.logger.Info("client amount differs from catalog price",
			zap.String("user_id", userID),
			zap.Float64("client_amount", input.Amount),
			zap.Float64("amount", quote.Total))
	}

	order := &domain.Order{
		UserID:        userID,
		Items:         quote.Items(),
		Amount:        quote.Total,
		Address:       address,
		Status:        domain.OrderStatusPlaced,
		PaymentMethod: domain.PaymentCOD,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	s.afterPlacement(ctx, order, events.EventOrderPlaced, events.OrderPlacedPayload{
		Items:         order.Items,
		Amount:        order.Amount,
		PaymentMethod: order.PaymentMethod,
	})
	return order, nil
}

// Reprice builds a quote for items from the active catalog. Unknown or
// inactive products and non-positive quantities are rejected.
func (s *OrderService) Reprice(ctx context.Context, items []domain.OrderItem) (pricing.Quote, error) {
	if len(items) == 0 {
		return pricing.Quote{}, apperrors.NewValidationError("Cart is empty", nil)
	}

	products, err := s.products.List(ctx, true)
	if err != nil {
		return pricing.Quote{}, err
	}
	known := make(map[string]struct{}, len(products))
	for _, p := range products {
		known[p.CartKey()] = struct{}{}
	}

	cart := domain.CartSnapshot{}
	var unknown []string
	for _, item := range items {
		if item.Quantity <= 0 {
			return pricing.Quote{}, apperrors.NewValidationError("Quantities must be positive", map[string]any{"item": item.Name})
		}
		if _, ok := known[item.Name]; !ok {
			unknown = append(unknown, item.Name)
			continue
		}
		cart[item.Name] += item.Quantity
	}
	if len(unknown) > 0 {
		return pricing.Quote{}, apperrors.NewValidationError("Some products are unavailable", map[string]any{"items": unknown})
	}

	return pricing.Build(cart, products), nil
}

// ListForUser returns the caller's orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// ListAll returns every order for the seller view.
func (s *OrderService) ListAll(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	orders, err := s.orders.ListAll(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// UpdateStatus moves an order to status.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	if !status.Valid() {
		return apperrors.NewValidationError("Unknown order status", map[string]any{"status": status})
	}
	if err := s.orders.UpdateStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("order", map[string]any{"id": orderID})
		}
		return err
	}
	s.publish(ctx, events.New(events.EventOrderStatusChanged, orderID, "", events.OrderStatusChangedPayload{NewStatus: status}))
	return nil
}

// afterPlacement clears the remote cart and announces the order. Neither
// step can fail the already-recorded order.
func (s *OrderService) afterPlacement(ctx context.Context, order *domain.Order, eventType events.EventType, payload any) {
	if err := s.carts.Delete(ctx, order.UserID); err != nil {
		s.logger.Warn("failed to clear cart after order",
			zap.String("user_id", order.UserID),
			zap.String("order_id", order.ID),
			zap.Error(err))
	}
	s.publish(ctx, events.New(eventType, order.ID, order.UserID, payload))
}

func (s *OrderService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
