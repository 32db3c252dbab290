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

// ReviewRequest represents the create/update review payload
type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// ReviewListResponse pairs a page of reviews with the total count
type ReviewListResponse struct {
	Reviews  []*domain.Review `json:"reviews"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

// ReviewHandler handles HTTP requests for product reviews
type ReviewHandler struct {
	reviewService service.ReviewService
	logger        *zap.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviewService service.ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		logger:        logger,
	}
}

// RegisterRoutes registers all review routes. Listing is public; writing
// requires authentication.
func (h *ReviewHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/products/{productId}/reviews", h.ListReviews)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/products/{productId}/reviews", h.CreateReview)
		r.Put("/reviews/{id}", h.UpdateReview)
		r.Delete("/reviews/{id}", h.DeleteReview)
	})
}

// ListReviews returns a page of a product's reviews, newest first
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	page, pageSize := paginationParams(r)

	reviews, total, err := h.reviewService.ListByProduct(r.Context(), productID, page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list reviews", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list reviews")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, "reviews retrieved", ReviewListResponse{
		Reviews:  reviews,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// CreateReview adds the caller's review of a product
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req ReviewRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	review, err := h.reviewService.Create(r.Context(), userID, productID, req.Rating, req.Comment)
	if err != nil {
		h.respondReviewError(w, err, "failed to create review")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, "review created", review)
}

// UpdateReview changes the caller's own review
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	reviewID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid review ID")
		return
	}

	var req ReviewRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	review, err := h.reviewService.Update(r.Context(), reviewID, userID, req.Rating, req.Comment)
	if err != nil {
		h.respondReviewError(w, err, "failed to update review")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, "review updated", review)
}

// DeleteReview removes a review; admins may remove any review
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	reviewID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid review ID")
		return
	}

	role, _ := middleware.GetUserRole(r.Context())

	if err := h.reviewService.Delete(r.Context(), reviewID, userID, role == "admin"); err != nil {
		h.respondReviewError(w, err, "failed to delete review")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, "review deleted", nil)
}

func (h *ReviewHandler) respondReviewError(w http.ResponseWriter, err error, fallback string) {
	var productNotFound *service.ProductNotFoundError

	switch {
	case errors.Is(err, service.ErrInvalidRating):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrReviewAlreadyExists):
		middleware.RespondWithError(w, http.StatusConflict, "you have already reviewed this product")
	case errors.Is(err, repository.ErrReviewNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "review not found")
	case errors.As(err, &productNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, productNotFound.Error())
	case errors.Is(err, service.ErrNotOwner):
		middleware.RespondWithError(w, http.StatusForbidden, "you do not have access to this review")
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
