package catalog

import "errors"

// Common errors returned by the catalog service.
var (
	ErrProductNotFound     = errors.New("product not found")
	ErrInvalidTitle        = errors.New("invalid product title")
	ErrInvalidDescription  = errors.New("invalid product description")
	ErrInvalidPrice        = errors.New("invalid product price")
	ErrInvalidCategory     = errors.New("invalid product category")
	ErrNotDraft            = errors.New("product is not a draft")
	ErrProductArchived     = errors.New("product is archived")
	ErrFileNotFound        = errors.New("file not found")
	ErrFileAlreadyAttached = errors.New("file already attached to product")
)
