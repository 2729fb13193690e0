// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	perrors "github.com/abgdnv/inventory/internal/errors"
	"github.com/abgdnv/inventory/internal/store"
	"github.com/abgdnv/inventory/pkg/messaging"
	"github.com/abgdnv/inventory/pkg/messaging/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const stockAdjustmentsMetric = "inventory_stock_adjustments"

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// FindAll returns all available products.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]ProductDto, error)

	// FindByName returns the products whose name contains the given text.
	FindByName(ctx context.Context, name string) ([]ProductDto, error)

	// FindByStockRange returns the products with minStock <= stock <= maxStock.
	FindByStockRange(ctx context.Context, minStock, maxStock int32) ([]ProductDto, error)

	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int32) (*ProductDto, error)

	// Create adds a new product to the system.
	// Returns error if the product cannot be created.
	Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error)

	// Update modifies an existing product's details.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, product ProductDto) (*ProductDto, error)

	// DeleteByID removes a product by its ID and returns the removed product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id int32) (*ProductDto, error)

	// IncreaseStock adds quantity to the stock of a product.
	IncreaseStock(ctx context.Context, id int32, quantity int32) (*ProductDto, error)

	// DecreaseStock subtracts quantity from the stock of a product. Stock may become negative.
	DecreaseStock(ctx context.Context, id int32, quantity int32) (*ProductDto, error)
}

// Service implements ProductService and provides methods to manage products.
type Service struct {
	repository  store.ProductStore
	publisher   messaging.Publisher
	adjustments metric.Int64Counter
	logger      *slog.Logger
}

// NewService creates a new instance of ProductService with the provided repository.
// Stock changes are published through publisher and counted with a meter instrument.
func NewService(repo store.ProductStore, publisher messaging.Publisher, meter metric.Meter, logger *slog.Logger) (*Service, error) {
	adjustments, err := meter.Int64Counter(
		stockAdjustmentsMetric,
		metric.WithDescription("Number of successful stock adjustments"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s counter: %w", stockAdjustmentsMetric, err)
	}
	return &Service{
		repository:  repo,
		publisher:   publisher,
		adjustments: adjustments,
		logger:      logger.With("component", "service"),
	}, nil
}

// ProductCreateDto represents the data transfer object for creating a new product.
type ProductCreateDto struct {
	Name  string `json:"name"  validate:"required,pgtext"`
	Stock *int32 `json:"stock" validate:"required"`
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID    int32  `json:"id"    validate:"required,min=100000,max=999999"`
	Name  string `json:"name"  validate:"required,pgtext"`
	Stock *int32 `json:"stock" validate:"required"`
}

// FindAll retrieves a list of all products and returns them as ProductDTOs.
// Returns an empty slice if no products exist or error if the retrieval fails.
func (s *Service) FindAll(ctx context.Context) ([]ProductDto, error) {
	products, err := s.repository.FindAll(ctx, store.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return toDtos(products), nil
}

// FindByName retrieves the products whose name contains name.
func (s *Service) FindByName(ctx context.Context, name string) ([]ProductDto, error) {
	products, err := s.repository.FindAll(ctx, store.Filter{Name: &name})
	if err != nil {
		return nil, fmt.Errorf("failed to search products by name %q: %w", name, err)
	}
	return toDtos(products), nil
}

// FindByStockRange retrieves the products whose stock lies in [minStock, maxStock].
func (s *Service) FindByStockRange(ctx context.Context, minStock, maxStock int32) ([]ProductDto, error) {
	products, err := s.repository.FindAll(ctx, store.Filter{MinStock: &minStock, MaxStock: &maxStock})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products with stock between %d and %d: %w", minStock, maxStock, err)
	}
	return toDtos(products), nil
}

// FindByID retrieves a product by its ID and returns it as a ProductDto.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) FindByID(ctx context.Context, id int32) (*ProductDto, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}
	return toDto(product), nil
}

// Create creates a new product and returns it as a ProductDto.
// Returns an error if the product cannot be created.
func (s *Service) Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	if product.Stock == nil {
		return nil, fmt.Errorf("failed to create product: %w", perrors.ErrInvalidProduct)
	}
	p, err := s.repository.Create(ctx, &store.Product{Name: product.Name, Stock: *product.Stock})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return toDto(p), nil
}

// Update modifies an existing product's details and returns the updated product as a ProductDto.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) Update(ctx context.Context, product ProductDto) (*ProductDto, error) {
	if product.Stock == nil {
		return nil, fmt.Errorf("failed to update product with ID %d: %w", product.ID, perrors.ErrInvalidProduct)
	}
	updated, err := s.repository.Update(ctx, &store.Product{ID: product.ID, Name: product.Name, Stock: *product.Stock})
	if err != nil {
		return nil, fmt.Errorf("failed to update product with ID %d: %w", product.ID, err)
	}
	return toDto(updated), nil
}

// DeleteByID deletes a product by its ID.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) DeleteByID(ctx context.Context, id int32) (*ProductDto, error) {
	deleted, err := s.repository.DeleteByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete product with ID %d: %w", id, err)
	}
	return toDto(deleted), nil
}

// IncreaseStock adds quantity to the stock of the product.
func (s *Service) IncreaseStock(ctx context.Context, id int32, quantity int32) (*ProductDto, error) {
	return s.adjustStock(ctx, id, quantity, "increase")
}

// DecreaseStock subtracts quantity from the stock of the product.
func (s *Service) DecreaseStock(ctx context.Context, id int32, quantity int32) (*ProductDto, error) {
	if quantity == math.MinInt32 {
		return nil, fmt.Errorf("failed to decrease stock for product with ID %d: %w", id, perrors.ErrStockOutOfRange)
	}
	return s.adjustStock(ctx, id, -quantity, "decrease")
}

func (s *Service) adjustStock(ctx context.Context, id int32, delta int32, direction string) (*ProductDto, error) {
	product, err := s.repository.AdjustStock(ctx, id, delta)
	if err != nil {
		return nil, fmt.Errorf("failed to %s stock for product with ID %d: %w", direction, id, err)
	}

	s.adjustments.Add(ctx, 1, metric.WithAttributes(attribute.String("direction", direction)))

	event := events.StockChangedEvent{
		ProductID: product.ID,
		Delta:     delta,
		Stock:     product.Stock,
		ChangedAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish stock changed event", "product_id", id, "error", err)
	}

	return toDto(product), nil
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	stock := product.Stock
	return &ProductDto{
		ID:    product.ID,
		Name:  product.Name,
		Stock: &stock,
	}
}

// toDtos converts a slice of store.Product to ProductDTOs.
func toDtos(products []store.Product) []ProductDto {
	productDTOs := make([]ProductDto, len(products))
	for i := range products {
		productDTOs[i] = *toDto(&products[i])
	}
	return productDTOs
}
