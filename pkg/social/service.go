package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxContentLength is the maximum post length in characters (not bytes).
const MaxContentLength = 280

// DefaultTimelineLimit is used when a timeline request does not specify a
// limit, and caps requested limits.
const DefaultTimelineLimit = 50

// CreatePostRequest carries the inputs for creating a post. Hashtags and
// mentions are derived from Content, never supplied by the caller.
type CreatePostRequest struct {
	AuthorID   uuid.UUID
	Content    string
	ParentID   *uuid.UUID
	Visibility Visibility // empty defaults to public
}

// Repository defines persistence for posts.
type Repository interface {
	CreatePost(ctx context.Context, post *Post) error
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*Post, error)
	ListRecent(ctx context.Context, limit int) ([]*Post, error)
}

// Service provides post operations.
type Service interface {
	CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error)
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*Post, error)
	Timeline(ctx context.Context, limit int) ([]*Post, error)
}

type service struct {
	repository Repository
}

// New creates a new social service.
func New(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	return &service{repository: repo}, nil
}

func (s *service) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if n := utf8.RuneCountInString(content); n > MaxContentLength {
		return nil, fmt.Errorf("%w: %d characters, limit is %d", ErrContentTooLong, n, MaxContentLength)
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = VisibilityPublic
	}
	if !visibility.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVisibility, req.Visibility)
	}

	if req.ParentID != nil {
		if _, err := s.repository.GetPost(ctx, *req.ParentID); err != nil {
			if errors.Is(err, ErrPostNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, fmt.Errorf("get parent post: %w", err)
		}
	}

	post := &Post{
		ID:         uuid.New(),
		AuthorID:   req.AuthorID,
		Content:    content,
		Hashtags:   ExtractHashtags(content),
		Mentions:   ExtractMentions(content),
		ParentID:   req.ParentID,
		Visibility: visibility,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repository.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

func (s *service) GetPost(ctx context.Context, id uuid.UUID) (*Post, error) {
	post, err := s.repository.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

func (s *service) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*Post, error) {
	posts, err := s.repository.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (s *service) Timeline(ctx context.Context, limit int) ([]*Post, error) {
	if limit <= 0 || limit > DefaultTimelineLimit {
		limit = DefaultTimelineLimit
	}
	posts, err := s.repository.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent posts: %w", err)
	}
	return posts, nil
}
