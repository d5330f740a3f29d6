package social

import (
	"time"

	"github.com/google/uuid"
)

// Visibility controls who can see a post.
type Visibility string

// Visibility constants.
const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is a known visibility value.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Post is one published message. Hashtags and Mentions are extracted from
// the content at creation time and stored denormalized for lookups.
type Post struct {
	ID         uuid.UUID  `json:"id"`
	AuthorID   uuid.UUID  `json:"author_id"`
	Content    string     `json:"content"`
	Hashtags   []string   `json:"hashtags"`
	Mentions   []string   `json:"mentions"`
	ParentID   *uuid.UUID `json:"parent_id,omitempty"`
	Visibility Visibility `json:"visibility"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IsReply reports whether the post is a reply to another post.
func (p *Post) IsReply() bool {
	return p.ParentID != nil
}
