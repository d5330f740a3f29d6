package filevault

import (
	"fmt"
	"math/rand"
	"regexp"
	"time"
)

// DefaultNamespace is the storage key prefix used when no namespace is
// configured on the service.
const DefaultNamespace = "wbkost"

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9.\-]`)

// SanitizeFileName replaces every character outside [A-Za-z0-9.-] with an
// underscore, producing a filesystem- and URL-safe token. The original name
// is preserved separately on the metadata record for display.
func SanitizeFileName(name string) string {
	return unsafeKeyChars.ReplaceAllString(name, "_")
}

// NewStorageKey derives a globally unique key of the form
//
//	{namespace}_{unixMillis}{salt}_{sanitizedName}
//
// The millisecond timestamp plus a random salt gives practical uniqueness
// without any coordination between concurrent uploads. Keys are never reused,
// even after the object is purged.
func NewStorageKey(namespace, originalName string, now time.Time) string {
	salt := rand.Int63n(1_000_000_000)
	return fmt.Sprintf("%s_%d%09d_%s", namespace, now.UnixMilli(), salt, SanitizeFileName(originalName))
}
