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

// CheckoutRequest represents the cart checkout payload
type CheckoutRequest struct {
	ShippingAddress domain.ShippingAddress `json:"shippingAddress" validate:"required"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

// BuyNowRequest represents the single-product checkout payload
type BuyNowRequest struct {
	ProductID       string                 `json:"productId" validate:"required,uuid"`
	Quantity        int                    `json:"quantity" validate:"required"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress" validate:"required"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

// UpdateStatusRequest represents the status override payload
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderHandler handles HTTP requests for orders: checkout, cancellation,
// status updates, and order reads.
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers all order routes. Every route requires
// authentication.
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Checkout)
		r.Post("/buy-now", h.BuyNow)
		r.Get("/my-orders", h.ListMyOrders)
		r.Get("/{id}", h.GetOrder)
		r.Put("/{id}/cancel", h.CancelOrder)
		r.Put("/{id}/status", h.UpdateStatus)
	})
}

// Checkout converts the caller's cart into a pending order
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orderService.CheckoutCart(r.Context(), userID, req.ShippingAddress, req.PaymentMethod)
	if err != nil {
		h.respondCheckoutError(w, err)
		return
	}

	h.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Float64("total", order.TotalPrice),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, "order placed", order)
}

// BuyNow places an order for a single product without touching the cart
func (h *OrderHandler) BuyNow(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req BuyNowRequest
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

	order, err := h.orderService.BuyNow(r.Context(), userID, productID, req.Quantity, req.ShippingAddress, req.PaymentMethod)
	if err != nil {
		h.respondCheckoutError(w, err)
		return
	}

	h.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Float64("total", order.TotalPrice),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, "order placed", order)
}

// ListMyOrders returns the caller's orders, newest first
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.orderService.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, "orders retrieved", orders)
}

// GetOrder returns one of the caller's orders
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.orderService.Get(r.Context(), orderID, userID)
	if err != nil {
		h.respondOrderError(w, err, "failed to get order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, "order retrieved", order)
}

// CancelOrder cancels one of the caller's pending orders and restores the
// reserved stock
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.orderService.Cancel(r.Context(), orderID, userID)
	if err != nil {
		var invalidStatus *service.InvalidStatusError
		if errors.As(err, &invalidStatus) {
			middleware.RespondWithError(w, http.StatusBadRequest, invalidStatus.Error())
			return
		}
		h.respondOrderError(w, err, "failed to cancel order")
		return
	}

	h.logger.Info("Order cancelled",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusOK, "order cancelled", order)
}

// UpdateStatus sets an order's status directly; paid and delivered pick up
// their timestamps
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req UpdateStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orderService.SetStatus(r.Context(), orderID, userID, domain.OrderStatus(req.Status))
	if err != nil {
		if errors.Is(err, service.ErrUnknownStatus) {
			middleware.RespondWithError(w, http.StatusBadRequest, "unknown order status")
			return
		}
		h.respondOrderError(w, err, "failed to update order status")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, "order status updated", order)
}

// respondCheckoutError maps checkout failures onto status codes. Stock and
// existence problems are client errors; a finalization failure after the
// preconditions passed is a server error.
func (h *OrderHandler) respondCheckoutError(w http.ResponseWriter, err error) {
	var insufficientStock *repository.InsufficientStockError
	var productNotFound *service.ProductNotFoundError

	switch {
	case errors.Is(err, service.ErrInvalidShippingAddress),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidQuantity):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &insufficientStock):
		middleware.RespondWithError(w, http.StatusBadRequest, insufficientStock.Error())
	case errors.As(err, &productNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, productNotFound.Error())
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	default:
		h.logger.Error("Checkout failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to place order")
	}
}

func (h *OrderHandler) respondOrderError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, service.ErrNotOwner):
		middleware.RespondWithError(w, http.StatusForbidden, "you do not have access to this order")
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
