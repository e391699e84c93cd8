// Package gateway is the storefront's REST client for the grocery API.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grocery-storefront/internal/api/dto"
	"github.com/spec-kit/grocery-storefront/internal/domain"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == fiber.StatusUnauthorized
}

// MessageOf returns the server-supplied message carried by err, or fallback.
func MessageOf(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// Client calls the API over fasthttp via fiber's Agent.
type Client struct {
	baseURL string
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout caps every call that has no earlier context deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New returns a client for baseURL, e.g. "http://127.0.0.1:5000/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{baseURL: baseURL, timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	var resp dto.AuthResponse
	err := c.do(ctx, fiber.MethodPost, "/auth/login", "", dto.LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	if err := expectToken(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Signup creates an account and authenticates it.
func (c *Client) Signup(ctx context.Context, name, email, password string) (*dto.AuthResponse, error) {
	var resp dto.AuthResponse
	err := c.do(ctx, fiber.MethodPost, "/auth/signup", "", dto.SignupRequest{Name: name, Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	if err := expectToken(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchProfile resolves token to the user profile.
func (c *Client) FetchProfile(ctx context.Context, token string) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, fiber.MethodGet, "/auth/user", token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateAddress stores the shipping address on the caller's profile.
func (c *Client) UpdateAddress(ctx context.Context, token string, addr domain.Address) error {
	var resp dto.SuccessResponse
	if err := c.do(ctx, fiber.MethodPut, "/auth/update-address", token, dto.UpdateAddressRequest{Address: addr}, &resp); err != nil {
		return err
	}
	return expectSuccess(resp.Success, resp.Message)
}

// GetCart fetches the caller's authoritative cart.
func (c *Client) GetCart(ctx context.Context, token string) (domain.CartSnapshot, error) {
	snap := domain.CartSnapshot{}
	if err := c.do(ctx, fiber.MethodGet, "/cart/get", token, nil, &snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// UpdateCart overwrites the caller's remote cart with snap.
func (c *Client) UpdateCart(ctx context.Context, token string, snap domain.CartSnapshot) error {
	var resp dto.SuccessResponse
	if err := c.do(ctx, fiber.MethodPost, "/cart/update", token, dto.CartUpdateRequest{CartData: snap}, &resp); err != nil {
		return err
	}
	return expectSuccess(resp.Success, resp.Message)
}

// PlaceOrder submits a cash-on-delivery order.
func (c *Client) PlaceOrder(ctx context.Context, token string, req dto.PlaceOrderRequest) (*domain.Order, error) {
	var resp dto.PlaceOrderResponse
	if err := c.do(ctx, fiber.MethodPost, "/order/place", token, req, &resp); err != nil {
		return nil, err
	}
	if err := expectSuccess(resp.Success, resp.Message); err != nil {
		return nil, err
	}
	return resp.Order, nil
}

// ListOrders returns the caller's orders.
func (c *Client) ListOrders(ctx context.Context, token string) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.do(ctx, fiber.MethodGet, "/order/user-orders", token, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CreateCheckoutSession starts an online payment and returns its session.
func (c *Client) CreateCheckoutSession(ctx context.Context, token string, req dto.CheckoutSessionRequest) (*dto.CheckoutSessionResponse, error) {
	var resp dto.CheckoutSessionResponse
	if err := c.do(ctx, fiber.MethodPost, "/payment/create-checkout-session", token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyPayment confirms a checkout session was paid.
func (c *Client) VerifyPayment(ctx context.Context, token, sessionID string) (*dto.VerifySessionResponse, error) {
	var resp dto.VerifySessionResponse
	if err := c.do(ctx, fiber.MethodPost, "/payment/verify-session", token, dto.VerifySessionRequest{SessionID: sessionID}, &resp); err != nil {
		return nil, err
	}
	if err := expectSuccess(resp.Success, ""); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListActiveProducts returns products available for sale.
func (c *Client) ListActiveProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.do(ctx, fiber.MethodGet, "/product/active", "", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ListCategories returns every category.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := c.do(ctx, fiber.MethodGet, "/category/list", "", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func expectSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return &APIError{Status: fiber.StatusOK, Code: "UNSUCCESSFUL", Message: message}
}

// expectToken rejects an auth response that reports failure or carries no
// token, whatever the HTTP status was.
func expectToken(resp *dto.AuthResponse) error {
	if err := expectSuccess(resp.Success, resp.Message); err != nil {
		return err
	}
	if resp.Token == "" {
		return &APIError{Status: fiber.StatusOK, Code: "MISSING_TOKEN"}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if body != nil {
		a.JSON(body)
	}
	if timeout := c.timeoutFor(ctx); timeout > 0 {
		a.Timeout(timeout)
	}
	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	status, respBody, errs := a.Bytes()
	if len(errs) > 0 {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%s %s: %w", method, path, errors.Join(errs...))
	}
	if status >= fiber.StatusBadRequest {
		return decodeError(status, respBody)
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// timeoutFor picks the earlier of the context deadline and the client timeout.
func (c *Client) timeoutFor(ctx context.Context) time.Duration {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	if timeout < time.Millisecond && timeout != 0 {
		timeout = time.Millisecond
	}
	return timeout
}

func decodeError(status int, body []byte) error {
	apiErr := &APIError{Status: status}
	var payload dto.ErrorResponse
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message
	}
	return apiErr
}
