package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order. Only pending orders may
// be cancelled; paid is stamped orthogonally by the status-update endpoint.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusShipping  OrderStatus = "shipping"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusShipping, OrderStatusDelivered,
		OrderStatusPaid, OrderStatusCancelled:
		return true
	}
	return false
}

// ShippingAddress is the delivery information captured at checkout.
// Phone must be exactly 10 digits.
type ShippingAddress struct {
	FullName   string `json:"fullname" db:"fullname"`
	Address    string `json:"address" db:"address"`
	Phone      string `json:"phone" db:"phone"`
	City       string `json:"city,omitempty" db:"city"`
	PostalCode string `json:"postalCode,omitempty" db:"postal_code"`
}

// OrderItem is an immutable snapshot of a purchased product at
// order-creation time, decoupled from later catalog changes.
type OrderItem struct {
	ProductID uuid.UUID `json:"productId" db:"product_id"`
	Name      string    `json:"name" db:"name"`
	Image     string    `json:"image" db:"image"`
	Price     float64   `json:"price" db:"price"`
	Quantity  int       `json:"quantity" db:"quantity"`
}

// Order is the record of a completed checkout. Items and TotalPrice are
// fixed at creation; only Status (and its timestamps) change afterwards.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          uuid.UUID       `json:"userId" db:"user_id"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod,omitempty" db:"payment_method"`
	TotalPrice      float64         `json:"totalPrice" db:"total_price"`
	Status          OrderStatus     `json:"status" db:"status"`
	OrderDate       time.Time       `json:"orderDate" db:"order_date"`
	PaidAt          *time.Time      `json:"paidAt,omitempty" db:"paid_at"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty" db:"delivered_at"`
}
