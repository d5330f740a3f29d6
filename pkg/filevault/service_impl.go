package filevault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// MaxPayloadBytes is the default hard cap on upload size (50 MiB).
const MaxPayloadBytes = 50 << 20

// DefaultDownloadURLPrefix is prepended to storage keys when deriving
// download URLs for listings.
const DefaultDownloadURLPrefix = "/api/files/download"

// allowedContentTypes is the upload allow-list: web template archives and
// assets plus common image formats.
var allowedContentTypes = map[string]struct{}{
	"application/zip":              {},
	"application/x-zip-compressed": {},
	"application/x-rar-compressed": {},
	"text/html":                    {},
	"text/css":                     {},
	"application/javascript":       {},
	"application/json":             {},
	"text/plain":                   {},
	"image/jpeg":                   {},
	"image/png":                    {},
	"image/gif":                    {},
	"image/webp":                   {},
}

// AllowedContentType reports whether ct is accepted for upload. The check is
// MIME-based only; file extensions play no part.
func AllowedContentType(ct string) bool {
	_, ok := allowedContentTypes[ct]
	return ok
}

// service implements the Service interface.
type service struct {
	repository  Repository
	store       BlobStore
	backendName string
	namespace   string
	maxBytes    int64
	urlPrefix   string
}

// Option represents a functional option for configuring the service.
type Option func(*service)

// WithRepository sets the metadata repository.
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the payload backend. The name is used in error
// reporting only.
func WithBlobStore(name string, store BlobStore) Option {
	return func(s *service) {
		s.backendName = name
		s.store = store
	}
}

// WithNamespace overrides the storage key prefix.
func WithNamespace(ns string) Option {
	return func(s *service) {
		s.namespace = ns
	}
}

// WithMaxPayloadBytes overrides the upload size cap.
func WithMaxPayloadBytes(n int64) Option {
	return func(s *service) {
		s.maxBytes = n
	}
}

// WithDownloadURLPrefix overrides the prefix used to derive download URLs.
func WithDownloadURLPrefix(prefix string) Option {
	return func(s *service) {
		s.urlPrefix = prefix
	}
}

// New creates a new vault service. A repository and a blob store are
// required; both are injected here and shared read-only across concurrent
// operations.
func New(options ...Option) (Service, error) {
	s := &service{
		namespace: DefaultNamespace,
		maxBytes:  MaxPayloadBytes,
		urlPrefix: DefaultDownloadURLPrefix,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.store == nil {
		return nil, fmt.Errorf("blob store is required")
	}

	return s, nil
}

// capReader counts bytes and fails the stream once the cap is exceeded, so
// an oversized upload is aborted mid-transfer instead of being buffered.
type capReader struct {
	r        io.Reader
	max      int64
	n        int64
	exceeded bool
}

func (c *capReader) Read(p []byte) (int, error) {
	if c.n > c.max {
		c.exceeded = true
		return 0, ErrPayloadTooLarge
	}
	n, err := c.r.Read(p)
	c.n += int64(n)
	if c.n > c.max {
		c.exceeded = true
		return n, ErrPayloadTooLarge
	}
	return n, err
}

func (s *service) Store(ctx context.Context, reader io.Reader, req StoreRequest) (*StoredObject, error) {
	// All input validation happens before a single byte is written.
	if req.OriginalName == "" {
		return nil, ErrEmptyFileName
	}
	if !AllowedContentType(req.ContentType) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidContentType, req.ContentType)
	}
	if req.DeclaredSize > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes declared, limit is %d", ErrPayloadTooLarge, req.DeclaredSize, s.maxBytes)
	}

	now := time.Now().UTC()
	key := NewStorageKey(s.namespace, req.OriginalName, now)

	cr := &capReader{r: reader, max: s.maxBytes}
	if err := s.store.Upload(ctx, cr, UploadParams{ObjectKey: key, ContentType: req.ContentType}); err != nil {
		// Whatever partial chunk sequence the backend committed must go.
		s.discard(ctx, key)
		if cr.exceeded || errors.Is(err, ErrPayloadTooLarge) {
			return nil, ErrPayloadTooLarge
		}
		return nil, &StorageError{Backend: s.backendName, Key: key, Op: "upload", Err: err}
	}

	if req.DeclaredSize > 0 && cr.n != req.DeclaredSize {
		s.discard(ctx, key)
		return nil, fmt.Errorf("%w: declared %d, received %d", ErrSizeMismatch, req.DeclaredSize, cr.n)
	}

	obj := &StoredObject{
		ID:           uuid.New(),
		StorageKey:   key,
		OwnerID:      req.OwnerID,
		OriginalName: req.OriginalName,
		ContentType:  req.ContentType,
		SizeBytes:    cr.n,
		CreatedAt:    now,
	}

	if err := s.repository.CreateObject(ctx, obj); err != nil {
		// No payload-without-metadata outcome: roll the payload back.
		s.discard(ctx, key)
		return nil, fmt.Errorf("create object record: %w", err)
	}

	return obj, nil
}

// discard removes a payload best-effort during upload rollback. A failure
// here leaves an orphaned payload with no metadata record; it is unreachable
// through any public operation.
func (s *service) discard(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, ErrObjectNotFound) {
		// Nothing more to do; the original error is what the caller sees.
		_ = err
	}
}

func (s *service) List(ctx context.Context, ownerID uuid.UUID) ([]*ObjectSummary, error) {
	objects, err := s.repository.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}

	summaries := make([]*ObjectSummary, 0, len(objects))
	for _, obj := range objects {
		summaries = append(summaries, &ObjectSummary{
			StoredObject: *obj,
			DownloadURL:  s.urlPrefix + "/" + obj.StorageKey,
		})
	}
	return summaries, nil
}

func (s *service) Fetch(ctx context.Context, storageKey string, requesterID uuid.UUID) (io.ReadCloser, *StoredObject, error) {
	obj, err := s.lookup(ctx, storageKey, requesterID)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.store.Download(ctx, obj.StorageKey)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, nil, ErrObjectNotFound
		}
		return nil, nil, &StorageError{Backend: s.backendName, Key: obj.StorageKey, Op: "download", Err: err}
	}
	return rc, obj, nil
}

func (s *service) Inspect(ctx context.Context, storageKey string, requesterID uuid.UUID) (*StoredObject, error) {
	return s.lookup(ctx, storageKey, requesterID)
}

func (s *service) SoftDelete(ctx context.Context, storageKey string, requesterID uuid.UUID) error {
	obj, err := s.lookup(ctx, storageKey, requesterID)
	if err != nil {
		return err
	}

	// The transition is one-directional; losing a race to another delete of
	// the same key surfaces as ErrObjectNotFound from the repository.
	if err := s.repository.MarkDeleted(ctx, obj.StorageKey, time.Now().UTC()); err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("mark deleted: %w", err)
	}
	return nil
}

func (s *service) PurgeDeletedOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-retention)
	records, err := s.repository.ListDeletedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list deleted objects: %w", err)
	}

	var purged int
	var errs error
	for _, obj := range records {
		// Payload first: if this fails the record stays and the next sweep
		// retries, so no record ever outlives its payload.
		if err := s.store.Delete(ctx, obj.StorageKey); err != nil && !errors.Is(err, ErrObjectNotFound) {
			errs = errors.Join(errs, &StorageError{Backend: s.backendName, Key: obj.StorageKey, Op: "delete", Err: err})
			continue
		}
		if err := s.repository.RemoveObject(ctx, obj.ID); err != nil {
			errs = errors.Join(errs, fmt.Errorf("remove object record %s: %w", obj.ID, err))
			continue
		}
		purged++
	}
	return purged, errs
}

// lookup resolves a storage key and applies the ownership guard. Absent,
// soft-deleted and foreign objects all report ErrObjectNotFound so that no
// operation leaks the existence of another user's files.
func (s *service) lookup(ctx context.Context, storageKey string, requesterID uuid.UUID) (*StoredObject, error) {
	obj, err := s.repository.GetByStorageKey(ctx, storageKey)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("get object record: %w", err)
	}
	if err := authorize(obj, requesterID); err != nil {
		return nil, err
	}
	return obj, nil
}

// authorize is the single access-control guard applied before any payload
// access. Ownership mismatch collapses into ErrObjectNotFound.
func authorize(obj *StoredObject, requesterID uuid.UUID) error {
	if obj == nil || obj.Deleted || obj.OwnerID != requesterID {
		return ErrObjectNotFound
	}
	return nil
}
