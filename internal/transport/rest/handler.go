// Package rest provides HTTP handlers for product-related operations.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	perrors "github.com/abgdnv/inventory/internal/errors"
	"github.com/abgdnv/inventory/internal/service"
	"github.com/abgdnv/inventory/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// ProductsPath is the resource root of the product API.
const ProductsPath = "/api/v1/products"

type Handler struct {
	service  service.ProductService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new product Handler backed by the provided service.
func NewHandler(service service.ProductService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: web.NewValidator(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the product API.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route(ProductsPath, func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Post("/", h.Create)
		r.Get("/search", h.Search)
		r.Get("/stock-level", h.FindByStockLevel)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Put("/", h.Update)
			r.Delete("/", h.DeleteByID)
			r.Put("/decrement-stock/{quantity}", h.DecreaseStock)
			r.Put("/add-to-stock/{quantity}", h.IncreaseStock)
		})
	})
}

// FindAll retrieves a list of all products.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received request to find all products")
	list, err := h.service.FindAll(r.Context())
	if err != nil {
		web.RespondInternalError(w, r, h.logger, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Retrieved products", "count", len(list))
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// FindByID retrieves a product by its ID.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}

	h.logger.DebugContext(r.Context(), "Received request to find product by ID", "ID", id)
	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		h.respondError(w, r, id, err)
		return
	}
	h.logger.DebugContext(r.Context(), "Successfully retrieved product", "ID", found.ID, "Name", found.Name)
	web.RespondJSON(w, h.logger, http.StatusOK, found)
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var productCreateDto service.ProductCreateDto
	if !h.decodeAndValidate(w, r, &productCreateDto) {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to create product", "Name", productCreateDto.Name)

	newProduct, err := h.service.Create(r.Context(), productCreateDto)
	if err != nil {
		h.respondError(w, r, 0, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Product created successfully", "ID", newProduct.ID, "Name", newProduct.Name)
	w.Header().Set("Location", fmt.Sprintf("%s/%d", ProductsPath, newProduct.ID))
	web.RespondJSON(w, h.logger, http.StatusCreated, newProduct)
}

// Update replaces the name and stock of an existing product.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to update product", "ID", id)
	var productDTO service.ProductDto
	if !h.decodeAndValidate(w, r, &productDTO) {
		return
	}
	if productDTO.ID != id {
		h.logger.WarnContext(r.Context(), "Product ID mismatch", "path_id", id, "body_id", productDTO.ID)
		web.RespondError(w, h.logger, http.StatusBadRequest, fmt.Sprintf("Product ID in path (%d) does not match ID in body (%d)", id, productDTO.ID))
		return
	}

	updated, err := h.service.Update(r.Context(), productDTO)
	if err != nil {
		h.respondError(w, r, id, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Name", updated.Name)
	web.RespondJSON(w, h.logger, http.StatusOK, updated)
}

// DeleteByID deletes a product by its ID.
func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to delete product", "ID", id)
	deleted, err := h.service.DeleteByID(r.Context(), id)
	if err != nil {
		h.respondError(w, r, id, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Product deleted successfully", "ID", deleted.ID, "Name", deleted.Name)
	w.WriteHeader(http.StatusNoContent)
}

// IncreaseStock adds the quantity from the path to the product stock.
func (h *Handler) IncreaseStock(w http.ResponseWriter, r *http.Request) {
	h.adjustStock(w, r, "increase", h.service.IncreaseStock)
}

// DecreaseStock subtracts the quantity from the path from the product stock.
func (h *Handler) DecreaseStock(w http.ResponseWriter, r *http.Request) {
	h.adjustStock(w, r, "decrease", h.service.DecreaseStock)
}

type stockAdjuster func(ctx context.Context, id int32, quantity int32) (*service.ProductDto, error)

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request, direction string, adjust stockAdjuster) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	quantity, ok := web.ParsePathInt32(w, r, h.logger, "quantity")
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to adjust stock", "ID", id, "direction", direction, "quantity", quantity)

	updated, err := adjust(r.Context(), id, quantity)
	if err != nil {
		h.respondError(w, r, id, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Stock adjusted successfully",
		"ID", updated.ID, "direction", direction, "quantity", quantity, "NewStock", *updated.Stock)
	web.RespondJSON(w, h.logger, http.StatusOK, updated)
}

// Search retrieves the products whose name contains the name url parameter.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		web.RespondError(w, h.logger, http.StatusBadRequest, "name url parameter is required")
		return
	}
	if !web.ValidText(name) {
		h.logger.WarnContext(r.Context(), "Invalid name url parameter", "name", name)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid name url parameter")
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to search products", "name", name)
	list, err := h.service.FindByName(r.Context(), name)
	if errors.Is(err, perrors.ErrInvalidProduct) {
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid name url parameter")
		return
	}
	if err != nil {
		web.RespondInternalError(w, r, h.logger, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Searched products", "name", name, "count", len(list))
	respondList(w, h.logger, list)
}

// FindByStockLevel retrieves the products whose stock lies between the min and max url parameters, inclusive.
func (h *Handler) FindByStockLevel(w http.ResponseWriter, r *http.Request) {
	minStock, ok := web.ParseQueryInt32(w, r, h.logger, "min")
	if !ok {
		return
	}
	maxStock, ok := web.ParseQueryInt32(w, r, h.logger, "max")
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to find products by stock level", "min", minStock, "max", maxStock)
	list, err := h.service.FindByStockRange(r.Context(), minStock, maxStock)
	if err != nil {
		web.RespondInternalError(w, r, h.logger, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Retrieved products by stock level", "min", minStock, "max", maxStock, "count", len(list))
	respondList(w, h.logger, list)
}

// respondList answers 204 for an empty filter result and 200 with the products otherwise.
func respondList(w http.ResponseWriter, logger *slog.Logger, list []service.ProductDto) {
	if len(list) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	web.RespondJSON(w, logger, http.StatusOK, list)
}

// decodeAndValidate decodes the JSON body into dst and validates it.
// On failure it writes a 400 response and returns false.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				// fieldErr.Tag() returns "required", "max", etc.
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			h.logger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, h.logger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		h.logger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// respondError maps service errors to HTTP responses.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, id int32, err error) {
	switch {
	case errors.Is(err, perrors.ErrProductNotFound):
		h.logger.WarnContext(r.Context(), "Product not found", "ID", id)
		web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
	case errors.Is(err, perrors.ErrProductConflict):
		h.logger.WarnContext(r.Context(), "Product already exists", "error", err)
		web.RespondError(w, h.logger, http.StatusConflict, "Product already exists")
	case errors.Is(err, perrors.ErrStockOutOfRange):
		h.logger.WarnContext(r.Context(), "Stock out of range", "ID", id, "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Stock quantity out of range")
	case errors.Is(err, perrors.ErrInvalidProduct):
		h.logger.WarnContext(r.Context(), "Invalid product", "ID", id, "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid product")
	default:
		web.RespondInternalError(w, r, h.logger, err)
	}
}
