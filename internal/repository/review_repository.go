package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"shoply/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrReviewNotFound      = errors.New("review not found")
	ErrReviewAlreadyExists = errors.New("user has already reviewed this product")
)

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	Update(ctx context.Context, review *domain.Review) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, page, pageSize int) ([]*domain.Review, int, error)
	AggregateForProduct(ctx context.Context, productID uuid.UUID) (avgRating float64, numReviews int, err error)
}

type reviewRepository struct {
	db DBTX
}

// NewReviewRepository creates a new instance of ReviewRepository
func NewReviewRepository(db DBTX) ReviewRepository {
	return &reviewRepository{db: db}
}

const reviewColumns = `id, user_id, product_id, rating, comment, created_at, updated_at`

func scanReview(row interface{ Scan(dest ...interface{}) error }) (*domain.Review, error) {
	rv := &domain.Review{}
	err := row.Scan(
		&rv.ID,
		&rv.UserID,
		&rv.ProductID,
		&rv.Rating,
		&rv.Comment,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	return rv, err
}

// Create inserts a review; the unique (user_id, product_id) constraint
// enforces one review per user per product.
func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (id, user_id, product_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		review.ID,
		review.UserID,
		review.ProductID,
		review.Rating,
		review.Comment,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "reviews_user_product_key") {
			return ErrReviewAlreadyExists
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// Update rewrites the rating and comment of a review.
func (r *reviewRepository) Update(ctx context.Context, review *domain.Review) error {
	query := `
		UPDATE reviews
		SET rating = $2, comment = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, review.ID, review.Rating, review.Comment, review.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// Delete removes a review.
func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// FindByID retrieves a review by ID.
func (r *reviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE id = $1`, reviewColumns)

	review, err := scanReview(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to find review by ID: %w", err)
	}

	return review, nil
}

// ListByProduct retrieves reviews for a product with pagination, newest first.
func (r *reviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID, page, pageSize int) ([]*domain.Review, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews WHERE product_id = $1`, productID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`
		SELECT %s
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, reviewColumns)

	rows, err := r.db.QueryContext(ctx, query, productID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*domain.Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, total, nil
}

// AggregateForProduct computes the average rating (one decimal place) and
// the review count for a product.
func (r *reviewRepository) AggregateForProduct(ctx context.Context, productID uuid.UUID) (float64, int, error) {
	query := `
		SELECT COALESCE(ROUND(AVG(rating)::numeric, 1), 0), COUNT(*)
		FROM reviews
		WHERE product_id = $1
	`

	var avg float64
	var count int
	if err := r.db.QueryRowContext(ctx, query, productID).Scan(&avg, &count); err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate reviews: %w", err)
	}

	return avg, count, nil
}
