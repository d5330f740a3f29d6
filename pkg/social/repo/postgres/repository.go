package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wbkost/backend/pkg/social"
)

// DBTX allows using either a connection pool or a transaction.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements social.Repository using PostgreSQL.
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository.
func New(db DBTX) social.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with a connection pool.
func NewWithPool(pool *pgxpool.Pool) social.Repository {
	return &Repository{db: pool}
}

func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503": // foreign_key_violation
			return social.ErrParentNotFound
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return social.ErrPostNotFound
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

const postColumns = `id, author_id, content, hashtags, mentions, parent_id, visibility, created_at`

func (r *Repository) CreatePost(ctx context.Context, post *social.Post) error {
	query := `
		INSERT INTO posts (` + postColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		post.ID, post.AuthorID, post.Content, post.Hashtags,
		post.Mentions, post.ParentID, post.Visibility, post.CreatedAt)
	if err != nil {
		return handlePostgresError("create post", err)
	}
	return nil
}

func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*social.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, handlePostgresError("get post", err)
	}
	return post, nil
}

func (r *Repository) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*social.Post, error) {
	query := `
		SELECT ` + postColumns + ` FROM posts
		WHERE author_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, authorID)
	if err != nil {
		return nil, handlePostgresError("list posts", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

func (r *Repository) ListRecent(ctx context.Context, limit int) ([]*social.Post, error) {
	query := `
		SELECT ` + postColumns + ` FROM posts
		WHERE visibility = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, social.VisibilityPublic, limit)
	if err != nil {
		return nil, handlePostgresError("list recent posts", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

func scanPost(row pgx.Row) (*social.Post, error) {
	var post social.Post
	err := row.Scan(
		&post.ID, &post.AuthorID, &post.Content, &post.Hashtags,
		&post.Mentions, &post.ParentID, &post.Visibility, &post.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func scanPosts(rows pgx.Rows) ([]*social.Post, error) {
	var result []*social.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, post)
	}
	return result, rows.Err()
}
