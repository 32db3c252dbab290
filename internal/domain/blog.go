package domain

import (
	"time"

	"github.com/google/uuid"
)

// Blog is a published article on the storefront blog.
type Blog struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Slug        string    `json:"slug" db:"slug"`
	Tag         string    `json:"tag" db:"tag"`
	Content     string    `json:"content" db:"content"`
	AuthorID    uuid.UUID `json:"authorId" db:"author_id"`
	Author      string    `json:"author" db:"author"`
	PublishedAt time.Time `json:"publishedAt" db:"published_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
