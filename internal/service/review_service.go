package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shoply/internal/domain"
	"shoply/internal/repository"

	"github.com/google/uuid"
)

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// ReviewService defines the interface for product review business logic.
// Every write goes through a transaction that also recomputes the product's
// rating rollup, so avg_rating and num_reviews never drift from the rows.
type ReviewService interface {
	Create(ctx context.Context, userID, productID uuid.UUID, rating int, comment string) (*domain.Review, error)
	Update(ctx context.Context, reviewID, userID uuid.UUID, rating int, comment string) (*domain.Review, error)
	Delete(ctx context.Context, reviewID, userID uuid.UUID, isAdmin bool) error
	ListByProduct(ctx context.Context, productID uuid.UUID, page, pageSize int) ([]*domain.Review, int, error)
}

type reviewService struct {
	store repository.Store
}

// NewReviewService creates a new instance of ReviewService
func NewReviewService(store repository.Store) ReviewService {
	return &reviewService{store: store}
}

// Create adds a review for a product. One review per user per product.
func (s *reviewService) Create(ctx context.Context, userID, productID uuid.UUID, rating int, comment string) (*domain.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	if _, err := s.store.Products().FindByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, &ProductNotFoundError{ProductID: productID}
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	review := &domain.Review{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	err := s.store.ExecTx(ctx, func(tx repository.Store) error {
		if err := tx.Reviews().Create(ctx, review); err != nil {
			return err
		}
		return refreshRating(ctx, tx, productID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrReviewAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	return review, nil
}

// Update changes the rating or comment of the caller's own review.
func (s *reviewService) Update(ctx context.Context, reviewID, userID uuid.UUID, rating int, comment string) (*domain.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	review, err := s.store.Reviews().FindByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != userID {
		return nil, ErrNotOwner
	}

	review.Rating = rating
	review.Comment = comment
	review.UpdatedAt = time.Now()

	err = s.store.ExecTx(ctx, func(tx repository.Store) error {
		if err := tx.Reviews().Update(ctx, review); err != nil {
			return err
		}
		return refreshRating(ctx, tx, review.ProductID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	return review, nil
}

// Delete removes a review. Admins may delete any review, users only their own.
func (s *reviewService) Delete(ctx context.Context, reviewID, userID uuid.UUID, isAdmin bool) error {
	review, err := s.store.Reviews().FindByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if !isAdmin && review.UserID != userID {
		return ErrNotOwner
	}

	err = s.store.ExecTx(ctx, func(tx repository.Store) error {
		if err := tx.Reviews().Delete(ctx, reviewID); err != nil {
			return err
		}
		return refreshRating(ctx, tx, review.ProductID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	return nil
}

// ListByProduct retrieves a product's reviews with pagination.
func (s *reviewService) ListByProduct(ctx context.Context, productID uuid.UUID, page, pageSize int) ([]*domain.Review, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return s.store.Reviews().ListByProduct(ctx, productID, page, pageSize)
}

func refreshRating(ctx context.Context, tx repository.Store, productID uuid.UUID) error {
	avg, count, err := tx.Reviews().AggregateForProduct(ctx, productID)
	if err != nil {
		return err
	}
	return tx.Products().SetRating(ctx, productID, avg, count)
}
