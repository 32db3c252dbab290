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
	ErrBlogNotFound   = errors.New("blog post not found")
	ErrBlogSlugExists = errors.New("blog post with this slug already exists")
)

// BlogRepository defines the interface for blog data access.
type BlogRepository interface {
	Create(ctx context.Context, blog *domain.Blog) error
	Update(ctx context.Context, blog *domain.Blog) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Blog, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Blog, error)
	List(ctx context.Context, page, pageSize int) ([]*domain.Blog, int, error)
}

type blogRepository struct {
	db DBTX
}

// NewBlogRepository creates a new instance of BlogRepository
func NewBlogRepository(db DBTX) BlogRepository {
	return &blogRepository{db: db}
}

const blogColumns = `id, title, slug, tag, content, author_id, author, published_at, updated_at`

func scanBlog(row interface{ Scan(dest ...interface{}) error }) (*domain.Blog, error) {
	b := &domain.Blog{}
	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Slug,
		&b.Tag,
		&b.Content,
		&b.AuthorID,
		&b.Author,
		&b.PublishedAt,
		&b.UpdatedAt,
	)
	return b, err
}

// Create inserts a new blog post.
func (r *blogRepository) Create(ctx context.Context, blog *domain.Blog) error {
	query := `
		INSERT INTO blogs (id, title, slug, tag, content, author_id, author, published_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		blog.ID,
		blog.Title,
		blog.Slug,
		blog.Tag,
		blog.Content,
		blog.AuthorID,
		blog.Author,
		blog.PublishedAt,
		blog.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "blogs_slug_key") {
			return ErrBlogSlugExists
		}
		return fmt.Errorf("failed to create blog post: %w", err)
	}

	return nil
}

// Update rewrites the mutable fields of a blog post.
func (r *blogRepository) Update(ctx context.Context, blog *domain.Blog) error {
	query := `
		UPDATE blogs
		SET title = $2, slug = $3, tag = $4, content = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, blog.ID, blog.Title, blog.Slug, blog.Tag, blog.Content, blog.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "blogs_slug_key") {
			return ErrBlogSlugExists
		}
		return fmt.Errorf("failed to update blog post: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrBlogNotFound
	}

	return nil
}

// Delete removes a blog post.
func (r *blogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete blog post: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrBlogNotFound
	}

	return nil
}

// FindByID retrieves a blog post by ID.
func (r *blogRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Blog, error) {
	query := fmt.Sprintf(`SELECT %s FROM blogs WHERE id = $1`, blogColumns)

	blog, err := scanBlog(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBlogNotFound
		}
		return nil, fmt.Errorf("failed to find blog post by ID: %w", err)
	}

	return blog, nil
}

// FindBySlug retrieves a blog post by its URL slug.
func (r *blogRepository) FindBySlug(ctx context.Context, slug string) (*domain.Blog, error) {
	query := fmt.Sprintf(`SELECT %s FROM blogs WHERE slug = $1`, blogColumns)

	blog, err := scanBlog(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBlogNotFound
		}
		return nil, fmt.Errorf("failed to find blog post by slug: %w", err)
	}

	return blog, nil
}

// List retrieves blog posts with pagination, newest first.
func (r *blogRepository) List(ctx context.Context, page, pageSize int) ([]*domain.Blog, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blogs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count blog posts: %w", err)
	}

	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`
		SELECT %s
		FROM blogs
		ORDER BY published_at DESC
		LIMIT $1 OFFSET $2
	`, blogColumns)

	rows, err := r.db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list blog posts: %w", err)
	}
	defer rows.Close()

	blogs := []*domain.Blog{}
	for rows.Next() {
		blog, err := scanBlog(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan blog post: %w", err)
		}
		blogs = append(blogs, blog)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating blog posts: %w", err)
	}

	return blogs, total, nil
}
