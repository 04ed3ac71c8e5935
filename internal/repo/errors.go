package repo

import "errors"

var (
	// ErrProductNotFound is returned when a product is not found in the repository.
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock is returned when a sale asks for more units than are on hand.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInactiveProduct is returned when writing stock or sales for a blacklisted or deleted product.
	ErrInactiveProduct = errors.New("product is blacklisted or deleted")
	// ErrInvalidQuantity is returned for non-positive sale quantities.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrDuplicatedValueUnique is returned when a unique column already holds the value.
	ErrDuplicatedValueUnique = errors.New("duplicated value for unique field")
	ErrUserNotFound          = errors.New("user not found")
)
