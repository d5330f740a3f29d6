package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wbkost/backend/pkg/filevault"
)

// Repository implements filevault.Repository using in-memory storage.
type Repository struct {
	mu       sync.RWMutex
	objects  map[uuid.UUID]*filevault.StoredObject
	keyIndex map[string]uuid.UUID // storage_key -> object id
}

// New creates a new in-memory repository.
func New() filevault.Repository {
	return &Repository{
		objects:  make(map[uuid.UUID]*filevault.StoredObject),
		keyIndex: make(map[string]uuid.UUID),
	}
}

func (r *Repository) CreateObject(ctx context.Context, obj *filevault.StoredObject) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Copy to avoid external modifications.
	objCopy := *obj
	r.objects[obj.ID] = &objCopy
	r.keyIndex[obj.StorageKey] = obj.ID
	return nil
}

func (r *Repository) GetByStorageKey(ctx context.Context, storageKey string) (*filevault.StoredObject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.keyIndex[storageKey]
	if !exists {
		return nil, filevault.ErrObjectNotFound
	}
	obj, exists := r.objects[id]
	if !exists {
		return nil, filevault.ErrObjectNotFound
	}

	objCopy := *obj
	return &objCopy, nil
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*filevault.StoredObject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*filevault.StoredObject
	for _, obj := range r.objects {
		if obj.OwnerID == ownerID && !obj.Deleted {
			objCopy := *obj
			result = append(result, &objCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *Repository) MarkDeleted(ctx context.Context, storageKey string, deletedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, exists := r.keyIndex[storageKey]
	if !exists {
		return filevault.ErrObjectNotFound
	}
	obj, exists := r.objects[id]
	if !exists || obj.Deleted {
		return filevault.ErrObjectNotFound
	}

	obj.Deleted = true
	obj.DeletedAt = &deletedAt
	return nil
}

func (r *Repository) ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]*filevault.StoredObject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*filevault.StoredObject
	for _, obj := range r.objects {
		if obj.Deleted && obj.DeletedAt != nil && !obj.DeletedAt.After(cutoff) {
			objCopy := *obj
			result = append(result, &objCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].DeletedAt.Before(*result[j].DeletedAt)
	})
	return result, nil
}

func (r *Repository) RemoveObject(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	obj, exists := r.objects[id]
	if !exists {
		return filevault.ErrObjectNotFound
	}
	delete(r.keyIndex, obj.StorageKey)
	delete(r.objects, id)
	return nil
}
