package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wbkost/backend/pkg/filevault"
)

// DBTX allows using either a connection pool or a transaction.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements filevault.Repository using PostgreSQL.
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository.
func New(db DBTX) filevault.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with a connection pool.
func NewWithPool(pool *pgxpool.Pool) filevault.Repository {
	return &Repository{db: pool}
}

func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("storage key already exists")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return filevault.ErrObjectNotFound
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

const objectColumns = `id, storage_key, owner_id, original_name, content_type, size_bytes, created_at, deleted, deleted_at`

func (r *Repository) CreateObject(ctx context.Context, obj *filevault.StoredObject) error {
	query := `
		INSERT INTO stored_objects (` + objectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		obj.ID, obj.StorageKey, obj.OwnerID, obj.OriginalName,
		obj.ContentType, obj.SizeBytes, obj.CreatedAt, obj.Deleted, obj.DeletedAt)
	if err != nil {
		return handlePostgresError("create object", err)
	}
	return nil
}

func (r *Repository) GetByStorageKey(ctx context.Context, storageKey string) (*filevault.StoredObject, error) {
	query := `SELECT ` + objectColumns + ` FROM stored_objects WHERE storage_key = $1`

	var obj filevault.StoredObject
	err := r.db.QueryRow(ctx, query, storageKey).Scan(
		&obj.ID, &obj.StorageKey, &obj.OwnerID, &obj.OriginalName,
		&obj.ContentType, &obj.SizeBytes, &obj.CreatedAt, &obj.Deleted, &obj.DeletedAt)
	if err != nil {
		return nil, handlePostgresError("get object", err)
	}
	return &obj, nil
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*filevault.StoredObject, error) {
	query := `
		SELECT ` + objectColumns + ` FROM stored_objects
		WHERE owner_id = $1 AND deleted = FALSE
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, handlePostgresError("list objects", err)
	}
	defer rows.Close()

	return scanObjects(rows)
}

func (r *Repository) MarkDeleted(ctx context.Context, storageKey string, deletedAt time.Time) error {
	// Conditional write: a concurrent delete of the same key wins the race
	// and this call reports not found, matching the read path.
	query := `
		UPDATE stored_objects SET deleted = TRUE, deleted_at = $2
		WHERE storage_key = $1 AND deleted = FALSE`

	tag, err := r.db.Exec(ctx, query, storageKey, deletedAt)
	if err != nil {
		return handlePostgresError("mark deleted", err)
	}
	if tag.RowsAffected() == 0 {
		return filevault.ErrObjectNotFound
	}
	return nil
}

func (r *Repository) ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]*filevault.StoredObject, error) {
	query := `
		SELECT ` + objectColumns + ` FROM stored_objects
		WHERE deleted = TRUE AND deleted_at <= $1
		ORDER BY deleted_at ASC`

	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, handlePostgresError("list deleted objects", err)
	}
	defer rows.Close()

	return scanObjects(rows)
}

func (r *Repository) RemoveObject(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM stored_objects WHERE id = $1`, id)
	if err != nil {
		return handlePostgresError("remove object", err)
	}
	if tag.RowsAffected() == 0 {
		return filevault.ErrObjectNotFound
	}
	return nil
}

func scanObjects(rows pgx.Rows) ([]*filevault.StoredObject, error) {
	var result []*filevault.StoredObject
	for rows.Next() {
		var obj filevault.StoredObject
		if err := rows.Scan(
			&obj.ID, &obj.StorageKey, &obj.OwnerID, &obj.OriginalName,
			&obj.ContentType, &obj.SizeBytes, &obj.CreatedAt, &obj.Deleted, &obj.DeletedAt); err != nil {
			return nil, err
		}
		result = append(result, &obj)
	}
	return result, rows.Err()
}
