package transport

import (
	"errors"
	"net/http"
	"strconv"

	"shoply/internal/domain"
	"shoply/internal/middleware"
	"shoply/internal/repository"
	"shoply/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductRequest represents the create/update product payload
type ProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Slug        string  `json:"slug"`
	Category    string  `json:"category" validate:"required"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	ImageAlt    string  `json:"imageAlt"`
	OriginPrice float64 `json:"originPrice" validate:"required,gt=0"`
	Discount    float64 `json:"discount" validate:"gte=0,lte=100"`
	SellPrice   float64 `json:"sellPrice" validate:"gte=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
}

// ProductListResponse pairs a page of products with the total match count
type ProductListResponse struct {
	Products []*domain.Product `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

// ProductHandler handles HTTP requests for the product catalog
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes. Reads are public; writes
// require an admin.
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/search", h.SearchProducts)
		r.Get("/{id}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(adminMiddleware)
			r.Post("/", h.CreateProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})
	})
}

// ListProducts returns a filtered, sorted page of the catalog
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, pageSize := paginationParams(r)

	filter := repository.ProductFilter{Category: q.Get("category")}
	if v := q.Get("minPrice"); v != "" {
		if min, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinPrice = &min
		}
	}
	if v := q.Get("maxPrice"); v != "" {
		if max, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MaxPrice = &max
		}
	}
	if v := q.Get("inStock"); v != "" {
		if inStock, err := strconv.ParseBool(v); err == nil {
			filter.InStock = &inStock
		}
	}

	sortOrder := repository.SortOrderAsc
	if q.Get("sortOrder") == "desc" {
		sortOrder = repository.SortOrderDesc
	}

	products, total, err := h.productService.List(r.Context(), filter, page, pageSize, q.Get("sortBy"), sortOrder)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, "products retrieved", ProductListResponse{
		Products: products,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// SearchProducts finds products whose name matches the query
func (h *ProductHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "search query is required")
		return
	}

	page, pageSize := paginationParams(r)

	products, total, err := h.productService.Search(r.Context(), query, page, pageSize)
	if err != nil {
		h.logger.Error("Failed to search products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to search products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, "products retrieved", ProductListResponse{
		Products: products,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// GetProduct returns a single product
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to get product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, "product retrieved", product)
}

// CreateProduct adds a product to the catalog (admin only)
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.productService.Create(r.Context(), productFromRequest(req))
	if err != nil {
		if errors.Is(err, repository.ErrProductSlugExists) {
			middleware.RespondWithError(w, http.StatusConflict, "product with this slug already exists")
			return
		}
		h.logger.Error("Failed to create product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, "product created", product)
}

// UpdateProduct rewrites a product's catalog fields (admin only)
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product := productFromRequest(req)
	product.ID = id

	updated, err := h.productService.Update(r.Context(), product)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, repository.ErrProductSlugExists):
			middleware.RespondWithError(w, http.StatusConflict, "product with this slug already exists")
		default:
			h.logger.Error("Failed to update product", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, "product updated", updated)
}

// DeleteProduct removes a product from the catalog (admin only)
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to delete product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	middleware.RespondWithJSON(w, http.StatusOK, "product deleted", nil)
}

func productFromRequest(req ProductRequest) *domain.Product {
	return &domain.Product{
		Name:        req.Name,
		Slug:        req.Slug,
		Category:    req.Category,
		Description: req.Description,
		ImageURL:    req.Image,
		ImageAlt:    req.ImageAlt,
		Price: domain.Price{
			OriginPrice: req.OriginPrice,
			Discount:    req.Discount,
			SellPrice:   req.SellPrice,
		},
		Stock: req.Stock,
	}
}

func paginationParams(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 {
		pageSize = 10
	}
	return page, pageSize
}
