package filevault

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrObjectNotFound indicates the object does not exist, is soft-deleted,
	// or belongs to another owner. The three cases are deliberately
	// indistinguishable so that storage keys cannot be enumerated.
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidContentType indicates a content type outside the allow-list.
	ErrInvalidContentType = errors.New("content type not allowed")

	// ErrEmptyFileName indicates an upload without a file name.
	ErrEmptyFileName = errors.New("file name is required")

	// ErrPayloadTooLarge indicates an upload exceeding the configured cap.
	ErrPayloadTooLarge = errors.New("payload exceeds size limit")

	// ErrSizeMismatch indicates the declared size did not match the bytes
	// actually uploaded.
	ErrSizeMismatch = errors.New("declared size does not match uploaded bytes")
)

// StorageError wraps a backend fault (network, disk, remote service). These
// are transient from the caller's point of view; the service never retries
// them internally.
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsInvalidInput reports whether err belongs to the client-fault class:
// rejected before any side effect took place.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidContentType) ||
		errors.Is(err, ErrEmptyFileName) ||
		errors.Is(err, ErrSizeMismatch)
}

// IsStorageUnavailable reports whether err originated in the storage backend
// and may succeed on retry.
func IsStorageUnavailable(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
