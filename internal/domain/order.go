package domain

import "time"

// PaymentMethod identifies how an order is paid.
type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "COD"
	PaymentStripe PaymentMethod = "Stripe"
)

// OrderStatus enumerates fulfilment states.
type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "Order Placed"
	OrderStatusPacking        OrderStatus = "Packing"
	OrderStatusShipped        OrderStatus = "Shipped"
	OrderStatusOutForDelivery OrderStatus = "Out for delivery"
	OrderStatusDelivered      OrderStatus = "Delivered"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPlaced, OrderStatusPacking, OrderStatusShipped, OrderStatusOutForDelivery, OrderStatusDelivered:
		return true
	}
	return false
}

// OrderItem is one line of a placed order; Price is the unit price.
type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Size     string  `json:"size,omitempty"`
}

// Order is a placed order.
type Order struct {
	ID            string        `json:"id"`
	UserID        string        `json:"userId"`
	Items         []OrderItem   `json:"items"`
	Amount        float64       `json:"amount"`
	Address       string        `json:"address"`
	Status        OrderStatus   `json:"status"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Paid          bool          `json:"payment"`
	PaymentRef    *string       `json:"paymentRef,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}
