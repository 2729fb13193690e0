// Package store provides an interface for product storage operations.
package store

import (
	"context"
)

// Product represents a product record in the store.
type Product struct {
	ID    int32  `db:"id"`
	Name  string `db:"name"`
	Stock int32  `db:"stock"`
}

// Filter narrows down the result of FindAll. Nil fields are not applied.
// Stock bounds are inclusive.
type Filter struct {
	Name     *string
	MinStock *int32
	MaxStock *int32
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type ProductStore interface {
	// FindAll returns the products matching the filter, ordered by ID.
	// Returns an empty slice if no products match.
	FindAll(ctx context.Context, filter Filter) ([]Product, error)

	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int32) (*Product, error)

	// Create adds a new product to the system. A zero ID is assigned by the store's sequence.
	// Returns ErrInvalidProduct for a nil product and ErrProductConflict if the ID is already taken.
	Create(ctx context.Context, product *Product) (*Product, error)

	// Update overwrites the name and stock of an existing product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, product *Product) (*Product, error)

	// AdjustStock adds delta to the stock of a product in a single statement.
	// Returns ErrProductNotFound if no product exists with the given ID
	// and ErrStockOutOfRange if the result does not fit the stock column.
	AdjustStock(ctx context.Context, id int32, delta int32) (*Product, error)

	// DeleteByID removes a product by its ID and returns the removed record.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id int32) (*Product, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
