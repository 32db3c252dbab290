package domain

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is a denormalized snapshot of a product taken when it was added
// to the cart. At most one item per product within a user's cart.
type CartItem struct {
	ProductID uuid.UUID `json:"productId" db:"product_id"`
	Name      string    `json:"name" db:"name"`
	Image     string    `json:"image" db:"image"`
	Price     float64   `json:"price" db:"price"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"-" db:"created_at"`
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}

// Cart is a user's set of cart items. An empty cart is represented by the
// absence of items, never persisted as an empty record.
type Cart struct {
	UserID     uuid.UUID  `json:"userId"`
	Items      []CartItem `json:"items"`
	TotalPrice float64    `json:"totalPrice"`
}

// CartTotal computes the sum of price*quantity across items.
func CartTotal(items []CartItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}
