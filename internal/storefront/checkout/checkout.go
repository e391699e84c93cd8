// Package checkout turns the cart into an order: validation before any
// network call, then cash-on-delivery placement or an online payment.
package checkout

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/grocery-storefront/internal/api/dto"
	"github.com/spec-kit/grocery-storefront/internal/domain"
	"github.com/spec-kit/grocery-storefront/internal/pricing"
	"github.com/spec-kit/grocery-storefront/internal/storefront/gateway"
	"github.com/spec-kit/grocery-storefront/internal/storefront/notify"
	"github.com/spec-kit/grocery-storefront/internal/storefront/session"
)

// Method selects how the customer pays.
type Method string

const (
	MethodCOD    Method = "cod"
	MethodOnline Method = "online"
)

var (
	ErrLoginRequired   = errors.New("checkout: login required")
	ErrEmptyCart       = errors.New("checkout: cart is empty")
	ErrAddressRequired = errors.New("checkout: delivery address required")
	ErrUnknownMethod   = errors.New("checkout: unsupported payment method")
	ErrInvalidSession  = errors.New("checkout: invalid payment session")
)

// notices maps validation failures to what the customer is shown.
var notices = map[error]string{
	ErrLoginRequired:   "Please login to place order",
	ErrEmptyCart:       "Your cart is empty",
	ErrAddressRequired: "Please add a delivery address",
	ErrUnknownMethod:   "Unsupported payment method",
	ErrInvalidSession:  "Invalid payment session",
}

// Error is a remote checkout failure with a display message.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Gateway is the subset of the API checkout needs.
type Gateway interface {
	PlaceOrder(ctx context.Context, token string, req dto.PlaceOrderRequest) (*domain.Order, error)
	CreateCheckoutSession(ctx context.Context, token string, req dto.CheckoutSessionRequest) (*dto.CheckoutSessionResponse, error)
	VerifyPayment(ctx context.Context, token, sessionID string) (*dto.VerifySessionResponse, error)
}

// Sessions exposes the current session.
type Sessions interface {
	State() session.State
}

// Cart exposes the cart contents and the reset after a successful order.
type Cart interface {
	Items() domain.CartSnapshot
	ReplaceAll(domain.CartSnapshot)
	Flush(ctx context.Context) error
}

// Result is the outcome of PlaceOrder. Exactly one of Order or
// RedirectURL is set.
type Result struct {
	Order       *domain.Order
	RedirectURL string
	SessionID   string
}

// Service places orders for the signed-in customer.
type Service struct {
	gateway        Gateway
	sessions       Sessions
	cart           Cart
	notifier       notify.Notifier
	logger         *zap.Logger
	defaultAddress string
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier routes notices to n.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithDefaultAddress is used when the profile has no address.
func WithDefaultAddress(addr string) Option {
	return func(s *Service) { s.defaultAddress = strings.TrimSpace(addr) }
}

// NewService builds a checkout service.
func NewService(gw Gateway, sessions Sessions, cart Cart, opts ...Option) *Service {
	s := &Service{
		gateway:  gw,
		sessions: sessions,
		cart:     cart,
		notifier: notify.Discard,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Quote prices the current cart against products.
func (s *Service) Quote(products []domain.Product) pricing.Quote {
	return pricing.Build(s.cart.Items(), products)
}

// PlaceOrder validates locally, then submits. The cart is cleared only
// after the API confirms a cash-on-delivery order; online payments clear
// it in ConfirmPayment.
func (s *Service) PlaceOrder(ctx context.Context, products []domain.Product, method Method) (*Result, error) {
	st := s.sessions.State()
	if !st.Authenticated() {
		return nil, s.reject(ErrLoginRequired)
	}
	if method != MethodCOD && method != MethodOnline {
		return nil, s.reject(ErrUnknownMethod)
	}
	quote := s.Quote(products)
	if quote.Count() == 0 {
		return nil, s.reject(ErrEmptyCart)
	}
	address := s.deliveryAddress(st.User)
	if address == "" {
		return nil, s.reject(ErrAddressRequired)
	}

	if err := s.settleCart(ctx); err != nil {
		return nil, err
	}
	if method == MethodOnline {
		return s.startPayment(ctx, st.Token, quote, address)
	}

	order, err := s.gateway.PlaceOrder(ctx, st.Token, dto.PlaceOrderRequest{
		Items:         quote.Items(),
		Amount:        quote.Total,
		PaymentMethod: domain.PaymentCOD,
		Address:       address,
	})
	if err != nil {
		return nil, s.remoteFailure(err, "Order placement failed")
	}

	s.cart.ReplaceAll(domain.CartSnapshot{})
	notify.Success(s.notifier, "Order Placed Successfully!")
	return &Result{Order: order}, nil
}

// ConfirmPayment verifies a returned checkout session and clears the cart
// once the API has recorded the order.
func (s *Service) ConfirmPayment(ctx context.Context, sessionID string) (*domain.Order, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, s.reject(ErrInvalidSession)
	}
	st := s.sessions.State()
	if !st.Authenticated() {
		return nil, s.reject(ErrLoginRequired)
	}

	if err := s.settleCart(ctx); err != nil {
		return nil, err
	}
	resp, err := s.gateway.VerifyPayment(ctx, st.Token, sessionID)
	if err != nil {
		return nil, s.remoteFailure(err, "Payment verification failed")
	}

	s.cart.ReplaceAll(domain.CartSnapshot{})
	if !resp.AlreadyExists {
		notify.Success(s.notifier, "Payment successful! Order placed.")
	}
	return resp.Order, nil
}

func (s *Service) startPayment(ctx context.Context, token string, quote pricing.Quote, address string) (*Result, error) {
	resp, err := s.gateway.CreateCheckoutSession(ctx, token, dto.CheckoutSessionRequest{
		Items:   quote.Items(),
		Amount:  quote.Total,
		Address: address,
	})
	if err != nil {
		return nil, s.remoteFailure(err, "Payment initialization failed")
	}
	if resp.URL == "" {
		return nil, s.remoteFailure(errors.New("empty checkout url"), "Failed to create payment session")
	}
	return &Result{RedirectURL: resp.URL, SessionID: resp.SessionID}, nil
}

// settleCart waits for queued cart pushes, so none can land after the API
// has cleared the remote cart for the new order.
func (s *Service) settleCart(ctx context.Context) error {
	if err := s.cart.Flush(ctx); err != nil {
		return s.remoteFailure(err, "Cart is still saving, please try again")
	}
	return nil
}

func (s *Service) deliveryAddress(user *domain.User) string {
	if user != nil && user.Address != nil {
		if line := user.Address.OneLine(); line != "" {
			return line
		}
	}
	return s.defaultAddress
}

func (s *Service) reject(err error) error {
	notify.Error(s.notifier, notices[err])
	return err
}

func (s *Service) remoteFailure(err error, fallback string) error {
	msg := gateway.MessageOf(err, fallback)
	s.logger.Warn("checkout request failed", zap.String("message", msg), zap.Error(err))
	notify.Error(s.notifier, msg)
	return &Error{Message: msg, Err: err}
}
