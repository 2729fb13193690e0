// Package errors provides custom error types for product-related operations.
package errors

import "errors"

var ErrProductNotFound = errors.New("product not found")
var ErrProductConflict = errors.New("product with this ID already exists")
var ErrInvalidProduct = errors.New("invalid product")
var ErrStockOutOfRange = errors.New("stock quantity out of range")
