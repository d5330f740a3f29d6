package filevault

import (
	"time"

	"github.com/google/uuid"
)

// ObjectState is the domain type for stored-object lifecycle states.
type ObjectState string

// Object state constants. The only allowed transition is active -> deleted;
// deleted objects are physically removed by the purge sweep.
const (
	ObjectStateActive  ObjectState = "active"
	ObjectStateDeleted ObjectState = "deleted"
)

// StoredObject is the metadata record for one uploaded blob. The payload
// itself lives in a BlobStore under StorageKey.
type StoredObject struct {
	ID           uuid.UUID  `json:"id"`
	StorageKey   string     `json:"storage_key"`
	OwnerID      uuid.UUID  `json:"owner_id"`
	OriginalName string     `json:"original_name"`
	ContentType  string     `json:"content_type"`
	SizeBytes    int64      `json:"size_bytes"`
	CreatedAt    time.Time  `json:"created_at"`
	Deleted      bool       `json:"deleted"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// State returns the lifecycle state derived from the Deleted flag.
func (o *StoredObject) State() ObjectState {
	if o.Deleted {
		return ObjectStateDeleted
	}
	return ObjectStateActive
}

// ObjectSummary is a listing entry for an owner's files. IsInUse is always
// false at this layer; callers that track references (e.g. product listings)
// set it before returning the summary to a client.
type ObjectSummary struct {
	StoredObject
	DownloadURL string `json:"download_url"`
	IsInUse     bool   `json:"is_in_use"`
}
