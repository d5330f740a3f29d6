package social

import "errors"

// Common errors returned by the social service.
var (
	ErrPostNotFound      = errors.New("post not found")
	ErrEmptyContent      = errors.New("post content is empty")
	ErrContentTooLong    = errors.New("post content exceeds maximum length")
	ErrInvalidVisibility = errors.New("invalid visibility")
	ErrParentNotFound    = errors.New("parent post not found")
)
