package filevault

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// Service is the blob storage core: it owns the lifecycle of uploaded
// objects from streamed upload through soft deletion to physical purge.
// Every operation is stateless and safe for unbounded concurrent use.
type Service interface {
	// Store streams an upload into the blob store and persists its metadata
	// record. Either both the payload and the record are durable on return,
	// or neither is.
	Store(ctx context.Context, reader io.Reader, req StoreRequest) (*StoredObject, error)

	// List returns the owner's non-deleted objects, newest first, with
	// derived download URLs.
	List(ctx context.Context, ownerID uuid.UUID) ([]*ObjectSummary, error)

	// Fetch returns a streamed read of the payload plus the metadata needed
	// for response headers. The caller must close the reader.
	Fetch(ctx context.Context, storageKey string, requesterID uuid.UUID) (io.ReadCloser, *StoredObject, error)

	// Inspect returns the metadata record without touching the payload.
	Inspect(ctx context.Context, storageKey string, requesterID uuid.UUID) (*StoredObject, error)

	// SoftDelete marks the object deleted. The payload stays in the blob
	// store until the retention sweep purges it. Deleting an already-deleted
	// object fails with ErrObjectNotFound, matching the read path.
	SoftDelete(ctx context.Context, storageKey string, requesterID uuid.UUID) error

	// PurgeDeletedOlderThan physically erases payload and metadata of
	// objects soft-deleted at least retention ago. Returns the number of
	// objects purged. A record whose payload delete fails is left for the
	// next sweep.
	PurgeDeletedOlderThan(ctx context.Context, retention time.Duration) (int, error)
}
