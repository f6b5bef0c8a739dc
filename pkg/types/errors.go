package types

import "errors"

// Validation errors for menu items
var (
	ErrMissingID       = errors.New("item id is required")
	ErrMissingName     = errors.New("item name is required")
	ErrMissingCategory = errors.New("item category is required")
)
