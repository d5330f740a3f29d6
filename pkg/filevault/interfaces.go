package filevault

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// BlobStore is the payload side of the vault: a chunked blob store addressed
// by storage key. Implementations must return ErrObjectNotFound for missing
// keys and are trusted to serialize conflicting writes to the same key.
type BlobStore interface {
	// Upload streams the reader's bytes under params.ObjectKey. The reader is
	// consumed exactly once; implementations must not require the full
	// payload in a single contiguous buffer.
	Upload(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download returns a streamed read of the payload. Interrupting the
	// returned reader leaves the stored object unaffected.
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete removes the payload permanently.
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves backend-side metadata for an object.
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)
}

// ObjectMeta contains backend-side metadata about a stored payload.
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
}

// UploadParams contains parameters for uploading a payload.
type UploadParams struct {
	ObjectKey   string
	ContentType string
}

// Repository is the metadata side of the vault: one record per stored
// object, addressed by storage key.
type Repository interface {
	// CreateObject persists a new metadata record.
	CreateObject(ctx context.Context, obj *StoredObject) error

	// GetByStorageKey returns the record for a key, including soft-deleted
	// records. Visibility filtering is the service's job.
	GetByStorageKey(ctx context.Context, storageKey string) (*StoredObject, error)

	// ListByOwner returns the owner's non-deleted records, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*StoredObject, error)

	// MarkDeleted flips the record to the deleted state. Returns
	// ErrObjectNotFound if the record is absent or already deleted.
	MarkDeleted(ctx context.Context, storageKey string, deletedAt time.Time) error

	// ListDeletedBefore returns soft-deleted records whose deletion time is
	// at or before the cutoff, from a consistent snapshot.
	ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]*StoredObject, error)

	// RemoveObject erases a metadata record permanently.
	RemoveObject(ctx context.Context, id uuid.UUID) error
}
