package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shoply/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderNotPending = errors.New("order is no longer pending")
)

// OrderRepository defines the interface for order data access. Orders are
// append-mostly: items and total are immutable after Create, only status
// and its timestamps change.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
	MarkCancelled(ctx context.Context, id uuid.UUID) error
}

type orderRepository struct {
	db DBTX
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db DBTX) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, user_id, fullname, address, phone, city, postal_code,
	payment_method, total_price, status, order_date, paid_at, delivered_at`

func scanOrder(row interface{ Scan(dest ...interface{}) error }) (*domain.Order, error) {
	o := &domain.Order{}
	var city, postalCode, paymentMethod sql.NullString
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.ShippingAddress.FullName,
		&o.ShippingAddress.Address,
		&o.ShippingAddress.Phone,
		&city,
		&postalCode,
		&paymentMethod,
		&o.TotalPrice,
		&o.Status,
		&o.OrderDate,
		&o.PaidAt,
		&o.DeliveredAt,
	)
	if err != nil {
		return nil, err
	}
	o.ShippingAddress.City = city.String
	o.ShippingAddress.PostalCode = postalCode.String
	o.PaymentMethod = paymentMethod.String
	return o, nil
}

// Create inserts an order and its item snapshots. Callers that need the
// insert to be atomic with stock reservation run it through Store.ExecTx.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (id, user_id, fullname, address, phone, city, postal_code,
			payment_method, total_price, status, order_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		order.ID,
		order.UserID,
		order.ShippingAddress.FullName,
		order.ShippingAddress.Address,
		order.ShippingAddress.Phone,
		nullString(order.ShippingAddress.City),
		nullString(order.ShippingAddress.PostalCode),
		nullString(order.PaymentMethod),
		order.TotalPrice,
		order.Status,
		order.OrderDate,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, name, image, price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, item := range order.Items {
		_, err := r.db.ExecContext(ctx, itemQuery, order.ID, item.ProductID, item.Name, item.Image, item.Price, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	return nil
}

// FindByID retrieves an order with its items.
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	items, err := r.itemsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// ListByUser retrieves a user's orders, newest first, items included.
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE user_id = $1 ORDER BY order_date DESC`, orderColumns)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	for _, order := range orders {
		items, err := r.itemsFor(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}

	return orders, nil
}

// UpdateStatus sets the order status, stamping paid_at or delivered_at when
// the transition calls for it, and returns the updated order.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	query := `
		UPDATE orders
		SET status = $2,
		    paid_at = CASE WHEN $2 = 'paid' THEN NOW() ELSE paid_at END,
		    delivered_at = CASE WHEN $2 = 'delivered' THEN NOW() ELSE delivered_at END
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrOrderNotFound
	}

	return r.FindByID(ctx, id)
}

// MarkCancelled flips a pending order to cancelled. The status guard is in
// the WHERE clause so a concurrent transition cannot be overwritten.
func (r *orderRepository) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE orders
		SET status = $2
		WHERE id = $1 AND status = $3
	`

	result, err := r.db.ExecContext(ctx, query, id, domain.OrderStatusCancelled, domain.OrderStatusPending)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrderNotPending
	}

	return nil
}

func (r *orderRepository) itemsFor(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	query := `
		SELECT product_id, name, image, price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Image, &item.Price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
