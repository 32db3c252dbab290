package transport

import (
	"errors"
	"net/http"

	"shoply/internal/domain"
	"shoply/internal/middleware"
	"shoply/internal/repository"
	"shoply/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BlogRequest represents the create/update blog post payload
type BlogRequest struct {
	Title   string `json:"title" validate:"required"`
	Tag     string `json:"tag"`
	Content string `json:"content" validate:"required"`
}

// BlogListResponse pairs a page of blog posts with the total count
type BlogListResponse struct {
	Blogs    []*domain.Blog `json:"blogs"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// BlogHandler handles HTTP requests for blog posts
type BlogHandler struct {
	blogService service.BlogService
	userService service.UserService
	logger      *zap.Logger
}

// NewBlogHandler creates a new BlogHandler
func NewBlogHandler(blogService service.BlogService, userService service.UserService, logger *zap.Logger) *BlogHandler {
	return &BlogHandler{
		blogService: blogService,
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers all blog routes. Reads are public; writes require
// an admin.
func (h *BlogHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/blogs", func(r chi.Router) {
		r.Get("/", h.ListBlogs)
		r.Get("/{idOrSlug}", h.GetBlog)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(adminMiddleware)
			r.Post("/", h.CreateBlog)
			r.Put("/{id}", h.UpdateBlog)
			r.Delete("/{id}", h.DeleteBlog)
		})
	})
}

// ListBlogs returns a page of blog posts, newest first
func (h *BlogHandler) ListBlogs(w http.ResponseWriter, r *http.Request) {
	page, pageSize := paginationParams(r)

	blogs, total, err := h.blogService.List(r.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list blog posts", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list blog posts")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, "blog posts retrieved", BlogListResponse{
		Blogs:    blogs,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// GetBlog returns one blog post, looked up by ID when the path segment
// parses as a UUID and by slug otherwise
func (h *BlogHandler) GetBlog(w http.ResponseWriter, r *http.Request) {
	idOrSlug := chi.URLParam(r, "idOrSlug")

	var blog *domain.Blog
	var err error
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		blog, err = h.blogService.Get(r.Context(), id)
	} else {
		blog, err = h.blogService.GetBySlug(r.Context(), idOrSlug)
	}

	if err != nil {
		if errors.Is(err, repository.ErrBlogNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "blog post not found")
			return
		}
		h.logger.Error("Failed to get blog post", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get blog post")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, "blog post retrieved", blog)
}

// CreateBlog publishes a blog post (admin only)
func (h *BlogHandler) CreateBlog(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req BlogRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	author, err := h.userService.GetUserByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load author", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create blog post")
		return
	}

	blog, err := h.blogService.Create(r.Context(), author, req.Title, req.Tag, req.Content)
	if err != nil {
		if errors.Is(err, repository.ErrBlogSlugExists) {
			middleware.RespondWithError(w, http.StatusConflict, "blog post with this title already exists")
			return
		}
		h.logger.Error("Failed to create blog post", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create blog post")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, "blog post created", blog)
}

// UpdateBlog rewrites a blog post (admin only)
func (h *BlogHandler) UpdateBlog(w http.ResponseWriter, r *http.Request) {
	blogID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid blog post ID")
		return
	}

	var req BlogRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	blog, err := h.blogService.Update(r.Context(), blogID, req.Title, req.Tag, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBlogNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "blog post not found")
		case errors.Is(err, repository.ErrBlogSlugExists):
			middleware.RespondWithError(w, http.StatusConflict, "blog post with this title already exists")
		default:
			h.logger.Error("Failed to update blog post", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update blog post")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, "blog post updated", blog)
}

// DeleteBlog removes a blog post (admin only)
func (h *BlogHandler) DeleteBlog(w http.ResponseWriter, r *http.Request) {
	blogID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid blog post ID")
		return
	}

	if err := h.blogService.Delete(r.Context(), blogID); err != nil {
		if errors.Is(err, repository.ErrBlogNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "blog post not found")
			return
		}
		h.logger.Error("Failed to delete blog post", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete blog post")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, "blog post deleted", nil)
}
