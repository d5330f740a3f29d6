package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies what kind of digital product is being sold.
type Category string

// Product categories.
const (
	CategoryWebsite   Category = "website"
	CategoryTemplate  Category = "template"
	CategoryComponent Category = "component"
	CategoryPlugin    Category = "plugin"
	CategoryMobile    Category = "mobile"
	CategoryOther     Category = "other"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryWebsite, CategoryTemplate, CategoryComponent, CategoryPlugin, CategoryMobile, CategoryOther:
		return true
	}
	return false
}

// Status is the product lifecycle state.
type Status string

// Product statuses. Products start as drafts; only published products are
// visible to buyers.
const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Product is one marketplace listing. FileKeys reference uploaded blobs by
// storage key; a referenced blob is considered in use and shows up as such
// in the seller's file listing.
type Product struct {
	ID          uuid.UUID `json:"id"`
	SellerID    uuid.UUID `json:"seller_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Category    Category  `json:"category"`
	Status      Status    `json:"status"`
	FileKeys    []string  `json:"file_keys"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
