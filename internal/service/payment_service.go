package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/grocery-storefront/internal/domain"
	"github.com/spec-kit/grocery-storefront/internal/events"
	"github.com/spec-kit/grocery-storefront/internal/payment"
	"github.com/spec-kit/grocery-storefront/internal/repository"
	apperrors "github.com/spec-kit/grocery-storefront/pkg/util"
)

// PaymentProvider opens and inspects hosted checkout sessions.
type PaymentProvider interface {
	CreateSession(ctx context.Context, req payment.CheckoutRequest) (*payment.Session, error)
	SessionPaid(ctx context.Context, sessionID string) (bool, error)
}

// PaymentService runs the online checkout flow: price, open a session,
// then turn a paid session into an order exactly once.
type PaymentService struct {
	orders   *OrderService
	repo     repository.OrderRepository
	pending  repository.PendingCheckoutRepository
	provider PaymentProvider
	logger   *zap.Logger
	now      func() time.Time
}

// NewPaymentService constructs the service.
func NewPaymentService(orders *OrderService, pending repository.PendingCheckoutRepository, provider PaymentProvider, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		orders:   orders,
		repo:     orders.orders,
		pending:  pending,
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

// CheckoutResult is returned to the client to redirect to the payment page.
type CheckoutResult struct {
	SessionID string
	URL       string
}

// VerifyResult reports the order for a paid session.
type VerifyResult struct {
	Order         *domain.Order
	AlreadyExists bool
}

// CreateCheckout prices the items and opens a hosted payment page.
func (s *PaymentService) CreateCheckout(ctx context.Context, user *domain.User, items []domain.OrderItem, address string) (*CheckoutResult, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, apperrors.NewValidationError("Delivery address is required", nil)
	}

	quote, err := s.orders.Reprice(ctx, items)
	if err != nil {
		return nil, err
	}

	req := payment.CheckoutRequest{
		Reference: uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		Items:     quote.Items(),
		TaxAmount: quote.Tax,
	}
	sess, err := s.provider.CreateSession(ctx, req)
	if errors.Is(err, payment.ErrNotConfigured) {
		return nil, apperrors.NewUnavailable("Online payment is not available")
	}
	if err != nil {
		return nil, err
	}

	draft := repository.PendingCheckout{
		SessionID: sess.ID,
		UserID:    user.ID,
		Items:     req.Items,
		Amount:    quote.Total,
		Address:   address,
		CreatedAt: s.now().UTC(),
	}
	if err := s.pending.Save(ctx, draft); err != nil {
		return nil, err
	}
	return &CheckoutResult{SessionID: sess.ID, URL: sess.URL}, nil
}

// VerifySession records the order for a paid session. Repeated calls for
// the same session return the existing order with AlreadyExists set.
func (s *PaymentService) VerifySession(ctx context.Context, userID, sessionID string) (*VerifyResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperrors.NewValidationError("Session ID is required", nil)
	}

	if existing, err := s.existing(ctx, userID, sessionID); err != nil || existing != nil {
		return existing, err
	}

	draft, err := s.pending.Get(ctx, sessionID)
	if errors.Is(err, repository.ErrPendingNotFound) {
		return nil, apperrors.NewNotFound("checkout session", map[string]any{"sessionId": sessionID})
	}
	if err != nil {
		return nil, err
	}
	if draft.UserID != userID {
		return nil, apperrors.NewForbidden("checkout session belongs to another user")
	}

	paid, err := s.provider.SessionPaid(ctx, sessionID)
	if errors.Is(err, payment.ErrNotConfigured) {
		return nil, apperrors.NewUnavailable("Online payment is not available")
	}
	if err != nil {
		return nil, err
	}
	if !paid {
		return nil, apperrors.NewValidationError("Payment not completed", nil)
	}

	ref := sessionID
	order := &domain.Order{
		UserID:        userID,
		Items:         draft.Items,
		Amount:        draft.Amount,
		Address:       draft.Address,
		Status:        domain.OrderStatusPlaced,
		PaymentMethod: domain.PaymentStripe,
		Paid:          true,
		PaymentRef:    &ref,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		if repository.IsUniqueViolation(err) {
			// A concurrent verification won the insert.
			existing, lookupErr := s.existing(ctx, userID, sessionID)
			if lookupErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	if err := s.pending.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("failed to drop pending checkout", zap.String("session_id", sessionID), zap.Error(err))
	}
	s.orders.afterPlacement(ctx, order, events.EventPaymentVerified, events.PaymentVerifiedPayload{
		SessionID: sessionID,
		Amount:    order.Amount,
	})
	return &VerifyResult{Order: order}, nil
}

func (s *PaymentService) existing(ctx context.Context, userID, sessionID string) (*VerifyResult, error) {
	order, err := s.repo.GetByPaymentRef(ctx, sessionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperrors.NewForbidden("checkout session belongs to another user")
	}
	return &VerifyResult{Order: order, AlreadyExists: true}, nil
}
