package service

import (
	"context"
	"fmt"
	"time"

	"shoply/internal/domain"
	"shoply/internal/repository"

	"github.com/google/uuid"
)

// BlogService defines the interface for blog business logic.
type BlogService interface {
	Create(ctx context.Context, author *domain.User, title, tag, content string) (*domain.Blog, error)
	Update(ctx context.Context, blogID uuid.UUID, title, tag, content string) (*domain.Blog, error)
	Delete(ctx context.Context, blogID uuid.UUID) error
	Get(ctx context.Context, blogID uuid.UUID) (*domain.Blog, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Blog, error)
	List(ctx context.Context, page, pageSize int) ([]*domain.Blog, int, error)
}

type blogService struct {
	blogRepo repository.BlogRepository
}

// NewBlogService creates a new instance of BlogService
func NewBlogService(blogRepo repository.BlogRepository) BlogService {
	return &blogService{blogRepo: blogRepo}
}

// Create publishes a blog post, deriving the slug from the title and the
// display author from the writing user's name.
func (s *blogService) Create(ctx context.Context, author *domain.User, title, tag, content string) (*domain.Blog, error) {
	blog := &domain.Blog{
		ID:          uuid.New(),
		Title:       title,
		Slug:        slugify(title),
		Tag:         tag,
		Content:     content,
		AuthorID:    author.ID,
		Author:      fmt.Sprintf("%s %s", author.FirstName, author.LastName),
		PublishedAt: time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.blogRepo.Create(ctx, blog); err != nil {
		return nil, err
	}
	return blog, nil
}

// Update rewrites a post's title, tag, and content. The slug follows the
// title so published URLs stay readable.
func (s *blogService) Update(ctx context.Context, blogID uuid.UUID, title, tag, content string) (*domain.Blog, error) {
	blog, err := s.blogRepo.FindByID(ctx, blogID)
	if err != nil {
		return nil, err
	}

	blog.Title = title
	blog.Slug = slugify(title)
	blog.Tag = tag
	blog.Content = content
	blog.UpdatedAt = time.Now()

	if err := s.blogRepo.Update(ctx, blog); err != nil {
		return nil, err
	}
	return blog, nil
}

// Delete removes a blog post.
func (s *blogService) Delete(ctx context.Context, blogID uuid.UUID) error {
	return s.blogRepo.Delete(ctx, blogID)
}

// Get retrieves a blog post by ID.
func (s *blogService) Get(ctx context.Context, blogID uuid.UUID) (*domain.Blog, error) {
	return s.blogRepo.FindByID(ctx, blogID)
}

// GetBySlug retrieves a blog post by its URL slug.
func (s *blogService) GetBySlug(ctx context.Context, slug string) (*domain.Blog, error) {
	return s.blogRepo.FindBySlug(ctx, slug)
}

// List retrieves blog posts with pagination, newest first.
func (s *blogService) List(ctx context.Context, page, pageSize int) ([]*domain.Blog, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return s.blogRepo.List(ctx, page, pageSize)
}
