package dto

import "github.com/spec-kit/grocery-storefront/internal/domain"

// PlaceOrderRequest creates an order from the caller's cart.
type PlaceOrderRequest struct {
	Items         []domain.OrderItem   `json:"items"`
	Amount        float64              `json:"amount"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	Address       string               `json:"address"`
}

// PlaceOrderResponse acknowledges a placed order.
type PlaceOrderResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Order   *domain.Order `json:"order,omitempty"`
}

// UpdateOrderStatusRequest is sent by admins.
type UpdateOrderStatusRequest struct {
	OrderID string             `json:"orderId"`
	Status  domain.OrderStatus `json:"status"`
}

// CheckoutSessionRequest starts an online payment.
type CheckoutSessionRequest struct {
	Items   []domain.OrderItem `json:"items"`
	Amount  float64            `json:"amount"`
	Address string             `json:"address"`
}

// CheckoutSessionResponse carries the payment page URL.
type CheckoutSessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// VerifySessionRequest confirms an online payment.
type VerifySessionRequest struct {
	SessionID string `json:"sessionId"`
}

// VerifySessionResponse reports the order created for a paid session.
// AlreadyExists is set when an earlier verification recorded it.
type VerifySessionResponse struct {
	Success       bool          `json:"success"`
	AlreadyExists bool          `json:"alreadyExists"`
	Order         *domain.Order `json:"order,omitempty"`
}
