package memory

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/wbkost/backend/pkg/filevault"
)

// Backend is an in-memory implementation of the filevault.BlobStore
// interface, intended for tests and development.
type Backend struct {
	mu       sync.RWMutex
	payloads map[string][]byte
	types    map[string]string
	updated  map[string]time.Time
}

// New creates a new in-memory storage backend.
func New() filevault.BlobStore {
	return &Backend{
		payloads: make(map[string][]byte),
		types:    make(map[string]string),
		updated:  make(map[string]time.Time),
	}
}

// Upload reads the stream fully into memory under the object key.
func (b *Backend) Upload(ctx context.Context, reader io.Reader, params filevault.UploadParams) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.payloads[params.ObjectKey] = data
	b.types[params.ObjectKey] = params.ContentType
	b.updated[params.ObjectKey] = time.Now().UTC()
	return nil
}

// Download returns a reader over a copy-free view of the payload.
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.payloads[objectKey]
	if !exists {
		return nil, filevault.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes the payload.
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.payloads[objectKey]; !exists {
		return filevault.ErrObjectNotFound
	}
	delete(b.payloads, objectKey)
	delete(b.types, objectKey)
	delete(b.updated, objectKey)
	return nil
}

// GetObjectMeta retrieves metadata for an object in memory.
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*filevault.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.payloads[objectKey]
	if !exists {
		return nil, filevault.ErrObjectNotFound
	}

	return &filevault.ObjectMeta{
		Key:         objectKey,
		Size:        int64(len(data)),
		ContentType: b.types[objectKey],
		UpdatedAt:   b.updated[objectKey],
	}, nil
}
