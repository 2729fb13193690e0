package store

import (
	"context"
	"errors"
	"fmt"

	perrors "github.com/abgdnv/inventory/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL error codes the store translates into domain errors.
const (
	pgUniqueViolation   = "23505"
	pgCheckViolation    = "23514"
	pgNumericOutOfRange = "22003"
	pgBadEncoding       = "22021"
)

const (
	findAllQuery = `
SELECT id, name, stock
FROM products
WHERE ($1::text IS NULL OR strpos(name, $1) > 0)
  AND ($2::integer IS NULL OR stock >= $2)
  AND ($3::integer IS NULL OR stock <= $3)
ORDER BY id`

	findByIDQuery = `SELECT id, name, stock FROM products WHERE id = $1`

	createQuery = `
INSERT INTO products (id, name, stock)
VALUES (COALESCE($1::integer, nextval('product_id_seq')::integer), $2, $3)
RETURNING id, name, stock`

	updateQuery = `
UPDATE products
SET name = $2, stock = $3
WHERE id = $1
RETURNING id, name, stock`

	adjustStockQuery = `
UPDATE products
SET stock = stock + $2
WHERE id = $1
RETURNING id, name, stock`

	deleteQuery = `DELETE FROM products WHERE id = $1 RETURNING id, name, stock`
)

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

// FindAll retrieves the products matching the filter.
// It returns a slice of products, which may be empty if nothing matches.
func (p *PgStore) FindAll(ctx context.Context, filter Filter) ([]Product, error) {
	rows, err := p.db.Query(ctx, findAllQuery, filter.Name, filter.MinStock, filter.MaxStock)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", translate(err))
	}
	products, err := pgx.CollectRows(rows, pgx.RowToStructByName[Product])
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", translate(err))
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

// FindByID retrieves a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) FindByID(ctx context.Context, id int32) (*Product, error) {
	product, err := p.queryOne(ctx, findByIDQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return product, nil
}

// Create adds a new product to the system.
// A zero ID is replaced by the next value of the product ID sequence.
func (p *PgStore) Create(ctx context.Context, product *Product) (*Product, error) {
	if product == nil {
		return nil, perrors.ErrInvalidProduct
	}
	var id *int32
	if product.ID != 0 {
		id = &product.ID
	}
	created, err := p.queryOne(ctx, createQuery, id, product.Name, product.Stock)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return created, nil
}

// Update modifies an existing product's name and stock.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) Update(ctx context.Context, product *Product) (*Product, error) {
	if product == nil {
		return nil, perrors.ErrInvalidProduct
	}
	updated, err := p.queryOne(ctx, updateQuery, product.ID, product.Name, product.Stock)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return updated, nil
}

// AdjustStock adds delta (which may be negative) to the stock of a product.
// The read and the write happen in one statement, so concurrent adjustments are not lost.
func (p *PgStore) AdjustStock(ctx context.Context, id int32, delta int32) (*Product, error) {
	adjusted, err := p.queryOne(ctx, adjustStockQuery, id, delta)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust product stock: %w", err)
	}
	return adjusted, nil
}

// DeleteByID removes a product by its unique identifier and returns the deleted record.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) DeleteByID(ctx context.Context, id int32) (*Product, error) {
	deleted, err := p.queryOne(ctx, deleteQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete product by ID: %w", err)
	}
	return deleted, nil
}

// Ping checks the database connection.
func (p *PgStore) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

// queryOne runs a statement returning a single product row and translates driver errors.
func (p *PgStore) queryOne(ctx context.Context, sql string, args ...any) (*Product, error) {
	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(err)
	}
	product, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[Product])
	if err != nil {
		return nil, translate(err)
	}
	return product, nil
}

// translate maps PostgreSQL errors onto the domain errors.
func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return perrors.ErrProductNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", perrors.ErrProductConflict, pgErr.Detail)
		case pgCheckViolation, pgBadEncoding:
			return fmt.Errorf("%w: %s", perrors.ErrInvalidProduct, pgErr.Message)
		case pgNumericOutOfRange:
			return fmt.Errorf("%w: %s", perrors.ErrStockOutOfRange, pgErr.Message)
		}
	}
	return err
}
