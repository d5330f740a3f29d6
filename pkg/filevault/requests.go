package filevault

import "github.com/google/uuid"

// StoreRequest contains parameters for storing a new object. OwnerID comes
// from the authenticated principal, never from the request body.
type StoreRequest struct {
	OwnerID      uuid.UUID
	OriginalName string
	ContentType  string

	// DeclaredSize is the size the uploader claims, in bytes. Zero or
	// negative means unknown; when positive it must match the bytes actually
	// uploaded or the store fails with ErrSizeMismatch.
	DeclaredSize int64
}
