package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"shoply/internal/domain"
	"shoply/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidShippingAddress = errors.New("shipping address must include full name, address, and a 10-digit phone number")
	ErrEmptyCart              = errors.New("cart is empty")
	ErrInvalidQuantity        = errors.New("quantity must be a positive integer")
	ErrNotOwner               = errors.New("resource belongs to another user")
	ErrUnknownStatus          = errors.New("unknown order status")
	ErrOrderFinalization      = errors.New("failed to finalize order")
	ErrCancellation           = errors.New("failed to cancel order")
)

// ProductNotFoundError names the missing product so multi-item checkout
// failures tell the caller which cart entry went stale.
type ProductNotFoundError struct {
	ProductID uuid.UUID
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product with ID %s no longer exists", e.ProductID)
}

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// OrderService defines the interface for order business logic: the checkout
// and cancellation workflows plus order reads and status updates.
type OrderService interface {
	CheckoutCart(ctx context.Context, userID uuid.UUID, address domain.ShippingAddress, paymentMethod string) (*domain.Order, error)
	BuyNow(ctx context.Context, userID, productID uuid.UUID, quantity int, address domain.ShippingAddress, paymentMethod string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	Get(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error)
	Cancel(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error)
	SetStatus(ctx context.Context, orderID, userID uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
}

type orderService struct {
	store repository.Store
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(store repository.Store) OrderService {
	return &orderService{store: store}
}

// CheckoutCart turns the user's whole cart into a pending order.
//
// Preconditions run before any mutation: shipping address shape, non-empty
// cart, and per-item product existence and stock. The mutation itself is a
// single transaction over order creation, per-item stock reservation, and
// cart deletion, so a failure leaves no half-committed order behind.
// Items are priced from the live product at this moment, not from the price
// cached on the cart when the item was added.
func (s *orderService) CheckoutCart(ctx context.Context, userID uuid.UUID, address domain.ShippingAddress, paymentMethod string) (*domain.Order, error) {
	if err := validateShippingAddress(address); err != nil {
		return nil, err
	}

	cartItems, err := s.store.Carts().GetItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cartItems) == 0 {
		return nil, ErrEmptyCart
	}

	orderItems := make([]domain.OrderItem, 0, len(cartItems))
	for _, item := range cartItems {
		snapshot, err := s.snapshotItem(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}
		orderItems = append(orderItems, *snapshot)
	}

	order := newOrder(userID, orderItems, address, paymentMethod)

	err = s.store.ExecTx(ctx, func(tx repository.Store) error {
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := tx.Products().Reserve(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return tx.Carts().Clear(ctx, userID)
	})
	if err != nil {
		return nil, classifyCheckoutErr(err)
	}

	return order, nil
}

// BuyNow creates a pending order for a single product directly, bypassing
// the cart. Same address validation and transactional reservation as the
// cart path, minus the cart deletion.
func (s *orderService) BuyNow(ctx context.Context, userID, productID uuid.UUID, quantity int, address domain.ShippingAddress, paymentMethod string) (*domain.Order, error) {
	if err := validateShippingAddress(address); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	snapshot, err := s.snapshotItem(ctx, productID, quantity)
	if err != nil {
		return nil, err
	}

	order := newOrder(userID, []domain.OrderItem{*snapshot}, address, paymentMethod)

	err = s.store.ExecTx(ctx, func(tx repository.Store) error {
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		return tx.Products().Reserve(ctx, productID, quantity)
	})
	if err != nil {
		return nil, classifyCheckoutErr(err)
	}

	return order, nil
}

// ListByUser retrieves the user's orders, newest first.
func (s *orderService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	orders, err := s.store.Orders().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Get retrieves an order, enforcing that the requester owns it.
func (s *orderService) Get(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error) {
	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrNotOwner
	}
	return order, nil
}

// Cancel reverses a pending order: the status flip and every per-item stock
// release commit together or not at all. Only the owner may cancel, and
// only while the order is still pending.
func (s *orderService) Cancel(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error) {
	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrNotOwner
	}
	if order.Status != domain.OrderStatusPending {
		return nil, &InvalidStatusError{Status: order.Status}
	}

	err = s.store.ExecTx(ctx, func(tx repository.Store) error {
		if err := tx.Orders().MarkCancelled(ctx, orderID); err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := tx.Products().Release(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotPending) {
			// Lost a race with a concurrent status change; report the
			// status the order actually has now.
			if current, findErr := s.store.Orders().FindByID(ctx, orderID); findErr == nil {
				return nil, &InvalidStatusError{Status: current.Status}
			}
			return nil, &InvalidStatusError{Status: order.Status}
		}
		return nil, fmt.Errorf("%w: %v", ErrCancellation, err)
	}

	order.Status = domain.OrderStatusCancelled
	return order, nil
}

// SetStatus is the permissive administrative override across all statuses:
// no pending-only restriction and no inventory side effects. Transitioning
// to paid or delivered stamps the matching timestamp.
func (s *orderService) SetStatus(ctx context.Context, orderID, userID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, ErrUnknownStatus
	}

	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrNotOwner
	}

	updated, err := s.store.Orders().UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return updated, nil
}

// InvalidStatusError reports a cancellation attempt against an order that
// is no longer pending, echoing its current status.
type InvalidStatusError struct {
	Status domain.OrderStatus
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("cannot cancel an order in status '%s'; only pending orders can be cancelled", e.Status)
}

// snapshotItem verifies the product exists with enough stock and freezes an
// OrderItem from its current name, image, and sell price.
func (s *orderService) snapshotItem(ctx context.Context, productID uuid.UUID, quantity int) (*domain.OrderItem, error) {
	product, err := s.store.Products().FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, &ProductNotFoundError{ProductID: productID}
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	if product.Stock < quantity {
		return nil, &repository.InsufficientStockError{
			ProductID: product.ID,
			Name:      product.Name,
			Requested: quantity,
			Available: product.Stock,
		}
	}

	return &domain.OrderItem{
		ProductID: product.ID,
		Name:      product.Name,
		Image:     product.ImageURL,
		Price:     product.Price.SellPrice,
		Quantity:  quantity,
	}, nil
}

func newOrder(userID uuid.UUID, items []domain.OrderItem, address domain.ShippingAddress, paymentMethod string) *domain.Order {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}

	return &domain.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Items:           items,
		ShippingAddress: address,
		PaymentMethod:   paymentMethod,
		TotalPrice:      total,
		Status:          domain.OrderStatusPending,
		OrderDate:       time.Now(),
	}
}

func validateShippingAddress(address domain.ShippingAddress) error {
	if address.FullName == "" || address.Address == "" || !phonePattern.MatchString(address.Phone) {
		return ErrInvalidShippingAddress
	}
	return nil
}

// classifyCheckoutErr keeps stock and existence failures intact (a racing
// reservation inside the transaction is still an insufficient-stock answer)
// and folds everything else into the finalization error after rollback.
func classifyCheckoutErr(err error) error {
	var insufficient *repository.InsufficientStockError
	if errors.As(err, &insufficient) {
		return err
	}
	if errors.Is(err, repository.ErrProductNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrOrderFinalization, err)
}
