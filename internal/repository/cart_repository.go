package repository

import (
	"context"
	"errors"
	"fmt"

	"shoply/internal/domain"

	"github.com/google/uuid"
)

var ErrCartItemNotFound = errors.New("cart item not found")

// CartRepository defines the interface for cart data access. A cart is the
// set of cart_items rows for a user; zero rows is the empty cart, so there
// is no separate cart record to create or delete.
type CartRepository interface {
	GetItems(ctx context.Context, userID uuid.UUID) ([]domain.CartItem, error)
	UpsertItem(ctx context.Context, userID uuid.UUID, item domain.CartItem) error
	ReplaceItems(ctx context.Context, userID uuid.UUID, items []domain.CartItem) error
	UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type cartRepository struct {
	db DBTX
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db DBTX) CartRepository {
	return &cartRepository{db: db}
}

// GetItems retrieves all cart items for a user, oldest first.
func (r *cartRepository) GetItems(ctx context.Context, userID uuid.UUID) ([]domain.CartItem, error) {
	query := `
		SELECT product_id, name, image, price, quantity, created_at, updated_at
		FROM cart_items
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart items: %w", err)
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		err := rows.Scan(
			&item.ProductID,
			&item.Name,
			&item.Image,
			&item.Price,
			&item.Quantity,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

// UpsertItem inserts a cart item or overwrites the existing row for the
// same product, preserving the at-most-one-item-per-product invariant.
func (r *cartRepository) UpsertItem(ctx context.Context, userID uuid.UUID, item domain.CartItem) error {
	query := `
		INSERT INTO cart_items (user_id, product_id, name, image, price, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET name = $3, image = $4, price = $5, quantity = $6, updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query, userID, item.ProductID, item.Name, item.Image, item.Price, item.Quantity)
	if err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}

	return nil
}

// ReplaceItems swaps the user's whole cart for the given item list.
func (r *cartRepository) ReplaceItems(ctx context.Context, userID uuid.UUID, items []domain.CartItem) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear cart for replace: %w", err)
	}

	for _, item := range items {
		if err := r.UpsertItem(ctx, userID, item); err != nil {
			return err
		}
	}

	return nil
}

// UpdateQuantity sets the quantity of a single cart item.
func (r *cartRepository) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	query := `
		UPDATE cart_items
		SET quantity = $3, updated_at = NOW()
		WHERE user_id = $1 AND product_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, userID, productID, quantity)
	if err != nil {
		return fmt.Errorf("failed to update cart item quantity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

// RemoveItem deletes a single product from the user's cart.
func (r *cartRepository) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

// Clear deletes the user's cart entirely. Clearing an absent cart succeeds.
func (r *cartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
