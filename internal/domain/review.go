package domain

import (
	"time"

	"github.com/google/uuid"
)

// Review is a customer's rating of a product. One review per user per
// product; the product carries the rolled-up average and count.
type Review struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	ProductID uuid.UUID `json:"productId" db:"product_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
