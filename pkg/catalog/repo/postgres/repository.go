package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wbkost/backend/pkg/catalog"
)

// DBTX allows using either a connection pool or a transaction.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements catalog.Repository using PostgreSQL.
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository.
func New(db DBTX) catalog.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with a connection pool.
func NewWithPool(pool *pgxpool.Pool) catalog.Repository {
	return &Repository{db: pool}
}

func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.ErrProductNotFound
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

const productColumns = `id, seller_id, title, description, price_cents, category, status, file_keys, created_at, updated_at`

func (r *Repository) CreateProduct(ctx context.Context, product *catalog.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		product.ID, product.SellerID, product.Title, product.Description,
		product.PriceCents, product.Category, product.Status, product.FileKeys,
		product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return handlePostgresError("create product", err)
	}
	return nil
}

func (r *Repository) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, handlePostgresError("get product", err)
	}
	return product, nil
}

func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*catalog.Product, error) {
	query := `
		SELECT ` + productColumns + ` FROM products
		WHERE seller_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, sellerID)
	if err != nil {
		return nil, handlePostgresError("list products", err)
	}
	defer rows.Close()

	var result []*catalog.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, product)
	}
	return result, rows.Err()
}

func (r *Repository) UpdateProduct(ctx context.Context, product *catalog.Product) error {
	query := `
		UPDATE products
		SET title = $2, description = $3, price_cents = $4, category = $5,
		    status = $6, file_keys = $7, updated_at = $8
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		product.ID, product.Title, product.Description, product.PriceCents,
		product.Category, product.Status, product.FileKeys, product.UpdatedAt)
	if err != nil {
		return handlePostgresError("update product", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

func (r *Repository) ListFileKeysBySeller(ctx context.Context, sellerID uuid.UUID) ([]string, error) {
	query := `
		SELECT unnest(file_keys) FROM products
		WHERE seller_id = $1 AND status <> $2`

	rows, err := r.db.Query(ctx, query, sellerID, catalog.StatusArchived)
	if err != nil {
		return nil, handlePostgresError("list file keys", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func scanProduct(row pgx.Row) (*catalog.Product, error) {
	var product catalog.Product
	err := row.Scan(
		&product.ID, &product.SellerID, &product.Title, &product.Description,
		&product.PriceCents, &product.Category, &product.Status, &product.FileKeys,
		&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &product, nil
}
