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

// AddCartItemRequest represents the add-to-cart payload
type AddCartItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// ReplaceCartRequest represents the full-cart replacement payload
type ReplaceCartRequest struct {
	Items []ReplaceCartItem `json:"items"`
}

// ReplaceCartItem is one entry of a cart replacement
type ReplaceCartItem struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity"`
}

// UpdateCartItemRequest represents the quantity update payload
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// CartHandler handles HTTP requests for the shopping cart
type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

// RegisterRoutes registers all cart routes. Every route requires
// authentication; the cart is always the caller's own.
func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/cart", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetCart)
		r.Put("/", h.ReplaceCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productId}", h.UpdateItem)
		r.Delete("/items/{productId}", h.RemoveItem)
	})
}

// GetCart returns the caller's cart; an absent cart reads as empty
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	cart, err := h.cartService.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get cart", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, "cart retrieved", cart)
}

// AddItem adds a product to the cart, merging with an existing entry
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req AddCartItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	cart, err := h.cartService.AddItem(r.Context(), userID, productID, req.Quantity)
	if err != nil {
		h.respondCartError(w, err, "failed to add item to cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, "item added to cart", cart)
}

// ReplaceCart swaps the whole cart for the submitted item list
func (h *CartHandler) ReplaceCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ReplaceCartRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]domain.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
			return
		}
		items = append(items, domain.CartItem{ProductID: productID, Quantity: item.Quantity})
	}

	cart, err := h.cartService.Replace(r.Context(), userID, items)
	if err != nil {
		h.respondCartError(w, err, "failed to replace cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, "cart updated", cart)
}

// UpdateItem sets the quantity of one cart item; zero removes it
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
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

	var req UpdateCartItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cart, err := h.cartService.UpdateItemQuantity(r.Context(), userID, productID, req.Quantity)
	if err != nil {
		h.respondCartError(w, err, "failed to update cart item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, "cart updated", cart)
}

// RemoveItem deletes one product from the cart
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
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

	cart, err := h.cartService.RemoveItem(r.Context(), userID, productID)
	if err != nil {
		h.respondCartError(w, err, "failed to remove cart item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, "item removed from cart", cart)
}

// ClearCart deletes the caller's whole cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.cartService.Clear(r.Context(), userID); err != nil {
		h.logger.Error("Failed to clear cart", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, "cart cleared", nil)
}

func (h *CartHandler) respondCartError(w http.ResponseWriter, err error, fallback string) {
	var insufficientStock *repository.InsufficientStockError
	var productNotFound *service.ProductNotFoundError

	switch {
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrDuplicateCartItem):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &insufficientStock):
		middleware.RespondWithError(w, http.StatusBadRequest, insufficientStock.Error())
	case errors.As(err, &productNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, productNotFound.Error())
	case errors.Is(err, repository.ErrCartItemNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "item not found in cart")
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
