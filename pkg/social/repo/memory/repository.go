package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/wbkost/backend/pkg/social"
)

// Repository implements social.Repository using in-memory storage.
type Repository struct {
	mu    sync.RWMutex
	posts map[uuid.UUID]*social.Post
}

// New creates a new in-memory repository.
func New() social.Repository {
	return &Repository{posts: make(map[uuid.UUID]*social.Post)}
}

func (r *Repository) CreatePost(ctx context.Context, post *social.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	postCopy := *post
	r.posts[post.ID] = &postCopy
	return nil
}

func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*social.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, exists := r.posts[id]
	if !exists {
		return nil, social.ErrPostNotFound
	}
	postCopy := *post
	return &postCopy, nil
}

func (r *Repository) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*social.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*social.Post
	for _, post := range r.posts {
		if post.AuthorID == authorID {
			postCopy := *post
			result = append(result, &postCopy)
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (r *Repository) ListRecent(ctx context.Context, limit int) ([]*social.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*social.Post
	for _, post := range r.posts {
		if post.Visibility == social.VisibilityPublic {
			postCopy := *post
			result = append(result, &postCopy)
		}
	}
	sortNewestFirst(result)
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func sortNewestFirst(posts []*social.Post) {
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
