package domain

import (
	"time"

	"github.com/google/uuid"
)

// Price holds the pricing of a product. SellPrice is the price customers
// actually pay; Discount is a percentage off OriginPrice.
type Price struct {
	OriginPrice float64 `json:"origin_price" db:"origin_price"`
	Discount    float64 `json:"discount" db:"discount"`
	SellPrice   float64 `json:"sell_price" db:"sell_price"`
}

// Product represents a product in the catalog. Stock is never negative;
// it is decremented by checkout and incremented by cancellation.
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Category    string    `json:"category" db:"category"`
	Description string    `json:"description" db:"description"`
	ImageURL    string    `json:"image" db:"image_url"`
	ImageAlt    string    `json:"imageAlt,omitempty" db:"image_alt"`
	Price       Price     `json:"price"`
	Stock       int       `json:"stock" db:"stock"`
	AvgRating   float64   `json:"avgRating" db:"avg_rating"`
	NumReviews  int       `json:"numReviews" db:"num_reviews"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
