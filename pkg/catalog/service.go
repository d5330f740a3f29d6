package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/wbkost/backend/pkg/filevault"
)

// Validation limits for product fields.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 1000
)

// FileVault is the slice of the file service the catalog needs: resolving a
// storage key under the seller's identity. Ownership is enforced by the
// vault itself.
type FileVault interface {
	Inspect(ctx context.Context, storageKey string, requesterID uuid.UUID) (*filevault.StoredObject, error)
}

// CreateProductRequest carries the inputs for creating a product.
type CreateProductRequest struct {
	SellerID    uuid.UUID
	Title       string
	Description string
	PriceCents  int64
	Category    Category
}

// UpdateProductRequest carries the new field values for a product update.
// All fields are replaced, not merged.
type UpdateProductRequest struct {
	Title       string
	Description string
	PriceCents  int64
	Category    Category
}

// Repository defines persistence for products.
type Repository interface {
	CreateProduct(ctx context.Context, product *Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*Product, error)
	UpdateProduct(ctx context.Context, product *Product) error
	ListFileKeysBySeller(ctx context.Context, sellerID uuid.UUID) ([]string, error)
}

// Service provides marketplace product operations.
type Service interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*Product, error)
	UpdateProduct(ctx context.Context, productID, sellerID uuid.UUID, req UpdateProductRequest) (*Product, error)
	Publish(ctx context.Context, productID, sellerID uuid.UUID) (*Product, error)

	// DeleteProduct archives the product. Archived products stay readable
	// but accept no further changes, and their attached files no longer
	// count as in use.
	DeleteProduct(ctx context.Context, productID, sellerID uuid.UUID) error

	AttachFile(ctx context.Context, productID, sellerID uuid.UUID, storageKey string) (*Product, error)

	// FileKeysInUse returns the set of storage keys referenced by any of the
	// seller's non-archived products.
	FileKeysInUse(ctx context.Context, sellerID uuid.UUID) (map[string]bool, error)
}

type service struct {
	repository Repository
	vault      FileVault
}

// New creates a new catalog service.
func New(repo Repository, vault FileVault) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if vault == nil {
		return nil, fmt.Errorf("file vault is required")
	}
	return &service{repository: repo, vault: vault}, nil
}

// validateFields checks the shared field rules for create and update. It
// returns the trimmed title.
func validateFields(title, description string, priceCents int64, category Category) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > MaxTitleLength {
		return "", fmt.Errorf("%w: must be 1-%d characters", ErrInvalidTitle, MaxTitleLength)
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidDescription, MaxDescriptionLength)
	}
	if priceCents < 0 {
		return "", fmt.Errorf("%w: must not be negative", ErrInvalidPrice)
	}
	if !category.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	return title, nil
}

func (s *service) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	title, err := validateFields(req.Title, req.Description, req.PriceCents, req.Category)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &Product{
		ID:          uuid.New(),
		SellerID:    req.SellerID,
		Title:       title,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Category:    req.Category,
		Status:      StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repository.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	product, err := s.repository.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*Product, error) {
	products, err := s.repository.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *service) UpdateProduct(ctx context.Context, productID, sellerID uuid.UUID, req UpdateProductRequest) (*Product, error) {
	product, err := s.ownedProduct(ctx, productID, sellerID)
	if err != nil {
		return nil, err
	}
	if product.Status == StatusArchived {
		return nil, ErrProductArchived
	}

	title, err := validateFields(req.Title, req.Description, req.PriceCents, req.Category)
	if err != nil {
		return nil, err
	}

	product.Title = title
	product.Description = req.Description
	product.PriceCents = req.PriceCents
	product.Category = req.Category
	product.UpdatedAt = time.Now().UTC()
	if err := s.repository.UpdateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

func (s *service) DeleteProduct(ctx context.Context, productID, sellerID uuid.UUID) error {
	product, err := s.ownedProduct(ctx, productID, sellerID)
	if err != nil {
		return err
	}
	if product.Status == StatusArchived {
		return ErrProductArchived
	}

	product.Status = StatusArchived
	product.UpdatedAt = time.Now().UTC()
	if err := s.repository.UpdateProduct(ctx, product); err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (s *service) Publish(ctx context.Context, productID, sellerID uuid.UUID) (*Product, error) {
	product, err := s.ownedProduct(ctx, productID, sellerID)
	if err != nil {
		return nil, err
	}
	if product.Status != StatusDraft {
		return nil, fmt.Errorf("%w: status is %s", ErrNotDraft, product.Status)
	}

	product.Status = StatusPublished
	product.UpdatedAt = time.Now().UTC()
	if err := s.repository.UpdateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

func (s *service) AttachFile(ctx context.Context, productID, sellerID uuid.UUID, storageKey string) (*Product, error) {
	product, err := s.ownedProduct(ctx, productID, sellerID)
	if err != nil {
		return nil, err
	}
	if product.Status == StatusArchived {
		return nil, ErrProductArchived
	}

	// The vault resolves the key under the seller's identity, so a key owned
	// by someone else comes back as not found.
	if _, err := s.vault.Inspect(ctx, storageKey, sellerID); err != nil {
		if errors.Is(err, filevault.ErrObjectNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("inspect file: %w", err)
	}

	if slices.Contains(product.FileKeys, storageKey) {
		return nil, ErrFileAlreadyAttached
	}

	product.FileKeys = append(product.FileKeys, storageKey)
	product.UpdatedAt = time.Now().UTC()
	if err := s.repository.UpdateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

func (s *service) FileKeysInUse(ctx context.Context, sellerID uuid.UUID) (map[string]bool, error) {
	keys, err := s.repository.ListFileKeysBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list file keys: %w", err)
	}

	inUse := make(map[string]bool, len(keys))
	for _, key := range keys {
		inUse[key] = true
	}
	return inUse, nil
}

// ownedProduct resolves a product and applies the seller guard. Foreign
// products report ErrProductNotFound.
func (s *service) ownedProduct(ctx context.Context, productID, sellerID uuid.UUID) (*Product, error) {
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.SellerID != sellerID {
		return nil, ErrProductNotFound
	}
	return product, nil
}
