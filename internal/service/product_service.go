package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shoply/internal/domain"
	"shoply/internal/repository"

	"github.com/google/uuid"
)

// ProductService defines the interface for catalog business logic.
type ProductService interface {
	List(ctx context.Context, filter repository.ProductFilter, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error)
	Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

// List retrieves products with filtering, pagination, and sorting.
func (s *productService) List(ctx context.Context, filter repository.ProductFilter, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return s.productRepo.List(ctx, filter, page, pageSize, sortBy, sortOrder)
}

// Search finds products by name.
func (s *productService) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return s.productRepo.Search(ctx, query, page, pageSize)
}

// Get retrieves a single product.
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Create adds a product to the catalog, deriving the sell price from the
// origin price and discount when the caller did not supply one, and the
// slug from the name when absent.
func (s *productService) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	product.ID = uuid.New()
	if product.Slug == "" {
		product.Slug = slugify(product.Name)
	}
	if product.Price.SellPrice == 0 {
		product.Price.SellPrice = product.Price.OriginPrice * (1 - product.Price.Discount/100)
	}
	product.AvgRating = 0
	product.NumReviews = 0
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Update rewrites a product's catalog fields. Stock and the review rollup
// are managed elsewhere and are not touched here.
func (s *productService) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if product.Slug == "" {
		product.Slug = slugify(product.Name)
	}
	if product.Price.SellPrice == 0 {
		product.Price.SellPrice = product.Price.OriginPrice * (1 - product.Price.Discount/100)
	}
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return s.productRepo.FindByID(ctx, product.ID)
}

// Delete removes a product from the catalog.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, id)
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '-'
		}
		return -1
	}, slug)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = fmt.Sprintf("product-%d", time.Now().UnixNano())
	}
	return slug
}
