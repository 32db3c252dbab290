package service

import (
	"context"
	"errors"
	"fmt"

	"shoply/internal/domain"
	"shoply/internal/repository"

	"github.com/google/uuid"
)

// ErrDuplicateCartItem rejects a replacement payload that lists the same
// product more than once.
var ErrDuplicateCartItem = errors.New("cart lists the same product more than once")

// CartService defines the interface for cart business logic. Every item a
// cart holds is a snapshot of the live product taken when it went in; the
// cart itself is just the user's set of items, and an empty cart is the
// absence of items.
type CartService interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.Cart, error)
	Replace(ctx context.Context, userID uuid.UUID, items []domain.CartItem) (*domain.Cart, error)
	UpdateItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*domain.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// Get returns the user's cart with its computed total. An absent cart is
// rendered as an empty item list, never an error.
func (s *cartService) Get(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	items, err := s.cartRepo.GetItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &domain.Cart{
		UserID:     userID,
		Items:      items,
		TotalPrice: domain.CartTotal(items),
	}, nil
}

// AddItem puts quantity units of a product into the cart, merging with an
// existing entry for the same product. The merged quantity is capped by
// the product's current stock, and the snapshot (name, image, price) is
// refreshed from the live product.
func (s *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	newQuantity := quantity
	items, err := s.cartRepo.GetItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	for _, item := range items {
		if item.ProductID == productID {
			newQuantity += item.Quantity
			break
		}
	}

	if product.Stock < newQuantity {
		return nil, &repository.InsufficientStockError{
			ProductID: product.ID,
			Name:      product.Name,
			Requested: newQuantity,
			Available: product.Stock,
		}
	}

	err = s.cartRepo.UpsertItem(ctx, userID, domain.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		Image:     product.ImageURL,
		Price:     product.Price.SellPrice,
		Quantity:  newQuantity,
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

// Replace swaps the whole cart for the given item list. Entries with a
// non-positive quantity are dropped; every remaining entry is revalidated
// against the live product and repriced. Replacing with an empty list
// deletes the cart.
func (s *cartService) Replace(ctx context.Context, userID uuid.UUID, items []domain.CartItem) (*domain.Cart, error) {
	validated := make([]domain.CartItem, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		if seen[item.ProductID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCartItem, item.ProductID)
		}
		seen[item.ProductID] = true

		product, err := s.findProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if product.Stock < item.Quantity {
			return nil, &repository.InsufficientStockError{
				ProductID: product.ID,
				Name:      product.Name,
				Requested: item.Quantity,
				Available: product.Stock,
			}
		}

		validated = append(validated, domain.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.ImageURL,
			Price:     product.Price.SellPrice,
			Quantity:  item.Quantity,
		})
	}

	if err := s.cartRepo.ReplaceItems(ctx, userID, validated); err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

// UpdateItemQuantity sets the quantity of one cart item. A non-positive
// quantity removes the item instead.
func (s *cartService) UpdateItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Stock < quantity {
		return nil, &repository.InsufficientStockError{
			ProductID: product.ID,
			Name:      product.Name,
			Requested: quantity,
			Available: product.Stock,
		}
	}

	if err := s.cartRepo.UpdateQuantity(ctx, userID, productID, quantity); err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

// RemoveItem deletes one product from the cart.
func (s *cartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*domain.Cart, error) {
	if err := s.cartRepo.RemoveItem(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// Clear deletes the whole cart.
func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.cartRepo.Clear(ctx, userID)
}

func (s *cartService) findProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, &ProductNotFoundError{ProductID: productID}
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return product, nil
}
