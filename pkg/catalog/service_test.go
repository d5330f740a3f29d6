package catalog_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbkost/backend/pkg/catalog"
	catalogrepo "github.com/wbkost/backend/pkg/catalog/repo/memory"
	"github.com/wbkost/backend/pkg/filevault"
	vaultrepo "github.com/wbkost/backend/pkg/filevault/repo/memory"
	vaultstore "github.com/wbkost/backend/pkg/filevault/storage/memory"
)

func newTestServices(t *testing.T) (catalog.Service, filevault.Service) {
	t.Helper()

	vault, err := filevault.New(
		filevault.WithRepository(vaultrepo.New()),
		filevault.WithBlobStore("memory", vaultstore.New()),
	)
	require.NoError(t, err)

	svc, err := catalog.New(catalogrepo.New(), vault)
	require.NoError(t, err)
	return svc, vault
}

func createDraft(t *testing.T, svc catalog.Service, seller uuid.UUID) *catalog.Product {
	t.Helper()

	product, err := svc.CreateProduct(context.Background(), catalog.CreateProductRequest{
		SellerID:    seller,
		Title:       "Portfolio template",
		Description: "A clean single-page portfolio.",
		PriceCents:  1999,
		Category:    catalog.CategoryTemplate,
	})
	require.NoError(t, err)
	return product
}

func uploadFile(t *testing.T, vault filevault.Service, owner uuid.UUID, name string) *filevault.StoredObject {
	t.Helper()

	obj, err := vault.Store(context.Background(), bytes.NewReader([]byte("zip bytes")), filevault.StoreRequest{
		OwnerID:      owner,
		OriginalName: name,
		ContentType:  "application/zip",
	})
	require.NoError(t, err)
	return obj
}

func TestCreateProduct(t *testing.T) {
	svc, _ := newTestServices(t)
	seller := uuid.New()

	product := createDraft(t, svc, seller)
	assert.NotEqual(t, uuid.Nil, product.ID)
	assert.Equal(t, seller, product.SellerID)
	assert.Equal(t, catalog.StatusDraft, product.Status)
	assert.Empty(t, product.FileKeys)

	got, err := svc.GetProduct(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.Title, got.Title)
}

func TestCreateProduct_Validation(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	seller := uuid.New()

	base := catalog.CreateProductRequest{
		SellerID:   seller,
		Title:      "ok",
		PriceCents: 100,
		Category:   catalog.CategoryWebsite,
	}

	tests := []struct {
		name    string
		mutate  func(*catalog.CreateProductRequest)
		wantErr error
	}{
		{"empty title", func(r *catalog.CreateProductRequest) { r.Title = "  " }, catalog.ErrInvalidTitle},
		{"title too long", func(r *catalog.CreateProductRequest) { r.Title = strings.Repeat("a", 101) }, catalog.ErrInvalidTitle},
		{"description too long", func(r *catalog.CreateProductRequest) { r.Description = strings.Repeat("a", 1001) }, catalog.ErrInvalidDescription},
		{"negative price", func(r *catalog.CreateProductRequest) { r.PriceCents = -1 }, catalog.ErrInvalidPrice},
		{"unknown category", func(r *catalog.CreateProductRequest) { r.Category = "furniture" }, catalog.ErrInvalidCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := svc.CreateProduct(ctx, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// Free products are allowed.
	free := base
	free.PriceCents = 0
	_, err := svc.CreateProduct(ctx, free)
	assert.NoError(t, err)
}

func TestUpdateProduct(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	seller := uuid.New()

	product := createDraft(t, svc, seller)

	updated, err := svc.UpdateProduct(ctx, product.ID, seller, catalog.UpdateProductRequest{
		Title:       "Portfolio template v2",
		Description: "Now with a dark mode.",
		PriceCents:  2999,
		Category:    catalog.CategoryWebsite,
	})
	require.NoError(t, err)
	assert.Equal(t, "Portfolio template v2", updated.Title)
	assert.Equal(t, int64(2999), updated.PriceCents)
	assert.Equal(t, catalog.CategoryWebsite, updated.Category)
	assert.Equal(t, catalog.StatusDraft, updated.Status)

	got, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Portfolio template v2", got.Title)
}

func TestUpdateProduct_Validation(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	seller := uuid.New()

	product := createDraft(t, svc, seller)

	_, err := svc.UpdateProduct(ctx, product.ID, seller, catalog.UpdateProductRequest{
		Title:    "  ",
		Category: catalog.CategoryTemplate,
	})
	assert.ErrorIs(t, err, catalog.ErrInvalidTitle)

	_, err = svc.UpdateProduct(ctx, product.ID, seller, catalog.UpdateProductRequest{
		Title:      "ok",
		PriceCents: -1,
		Category:   catalog.CategoryTemplate,
	})
	assert.ErrorIs(t, err, catalog.ErrInvalidPrice)

	// A failed update leaves the product untouched.
	got, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Portfolio template", got.Title)
}

func TestUpdateProduct_ForeignProductIsNotFound(t *testing.T) {
	svc, _ := newTestServices(t)
	product := createDraft(t, svc, uuid.New())

	_, err := svc.UpdateProduct(context.Background(), product.ID, uuid.New(), catalog.UpdateProductRequest{
		Title:    "hijacked",
		Category: catalog.CategoryTemplate,
	})
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestDeleteProduct(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	seller := uuid.New()

	product := createDraft(t, svc, seller)

	require.NoError(t, svc.DeleteProduct(ctx, product.ID, seller))

	// The product stays readable but is archived and immutable.
	got, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusArchived, got.Status)

	assert.ErrorIs(t, svc.DeleteProduct(ctx, product.ID, seller), catalog.ErrProductArchived)
	_, err = svc.UpdateProduct(ctx, product.ID, seller, catalog.UpdateProductRequest{
		Title:    "too late",
		Category: catalog.CategoryTemplate,
	})
	assert.ErrorIs(t, err, catalog.ErrProductArchived)
	_, err = svc.Publish(ctx, product.ID, seller)
	assert.ErrorIs(t, err, catalog.ErrNotDraft)
}

func TestDeleteProduct_ForeignProductIsNotFound(t *testing.T) {
	svc, _ := newTestServices(t)
	product := createDraft(t, svc, uuid.New())

	err := svc.DeleteProduct(context.Background(), product.ID, uuid.New())
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestDeleteProduct_ReleasesFileKeys(t *testing.T) {
	svc, vault := newTestServices(t)
	ctx := context.Background()
	seller := uuid.New()

	product := createDraft(t, svc, seller)
	obj := uploadFile(t, vault, seller, "theme.zip")
	_, err := svc.AttachFile(ctx, product.ID, seller, obj.StorageKey)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, product.ID, seller))

	// Archived products no longer hold their files in use.
	inUse, err := svc.FileKeysInUse(ctx, seller)
	require.NoError(t, err)
	assert.False(t, inUse[obj.StorageKey])

	_, err = svc.AttachFile(ctx, product.ID, seller, obj.StorageKey)
	assert.ErrorIs(t, err, catalog.ErrProductArchived)
}

func TestPublish(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	seller := uuid.New()

	product := createDraft(t, svc, seller)

	published, err := svc.Publish(ctx, product.ID, seller)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusPublished, published.Status)
	assert.True(t, published.UpdatedAt.After(product.CreatedAt) || published.UpdatedAt.Equal(product.CreatedAt))

	// Publishing twice fails; the product is no longer a draft.
	_, err = svc.Publish(ctx, product.ID, seller)
	assert.ErrorIs(t, err, catalog.ErrNotDraft)
}

func TestPublish_ForeignProductIsNotFound(t *testing.T) {
	svc, _ := newTestServices(t)
	product := createDraft(t, svc, uuid.New())

	_, err := svc.Publish(context.Background(), product.ID, uuid.New())
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestAttachFile(t *testing.T) {
	svc, vault := newTestServices(t)
	ctx := context.Background()
	seller := uuid.New()

	product := createDraft(t, svc, seller)
	obj := uploadFile(t, vault, seller, "theme.zip")

	updated, err := svc.AttachFile(ctx, product.ID, seller, obj.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, []string{obj.StorageKey}, updated.FileKeys)

	// Attaching the same key twice is rejected.
	_, err = svc.AttachFile(ctx, product.ID, seller, obj.StorageKey)
	assert.ErrorIs(t, err, catalog.ErrFileAlreadyAttached)
}

func TestAttachFile_RejectsForeignFile(t *testing.T) {
	svc, vault := newTestServices(t)
	ctx := context.Background()
	seller := uuid.New()

	product := createDraft(t, svc, seller)

	// The file belongs to a different user; the vault hides it from the
	// seller, so attaching fails.
	foreign := uploadFile(t, vault, uuid.New(), "stolen.zip")
	_, err := svc.AttachFile(ctx, product.ID, seller, foreign.StorageKey)
	assert.ErrorIs(t, err, catalog.ErrFileNotFound)

	_, err = svc.AttachFile(ctx, product.ID, seller, "wbkost_0_missing.zip")
	assert.ErrorIs(t, err, catalog.ErrFileNotFound)
}

func TestAttachFile_RejectsDeletedFile(t *testing.T) {
	svc, vault := newTestServices(t)
	ctx := context.Background()
	seller := uuid.New()

	product := createDraft(t, svc, seller)
	obj := uploadFile(t, vault, seller, "theme.zip")
	require.NoError(t, vault.SoftDelete(ctx, obj.StorageKey, seller))

	_, err := svc.AttachFile(ctx, product.ID, seller, obj.StorageKey)
	assert.ErrorIs(t, err, catalog.ErrFileNotFound)
}

func TestFileKeysInUse(t *testing.T) {
	svc, vault := newTestServices(t)
	ctx := context.Background()
	seller := uuid.New()

	product := createDraft(t, svc, seller)
	attached := uploadFile(t, vault, seller, "used.zip")
	loose := uploadFile(t, vault, seller, "unused.zip")

	_, err := svc.AttachFile(ctx, product.ID, seller, attached.StorageKey)
	require.NoError(t, err)

	inUse, err := svc.FileKeysInUse(ctx, seller)
	require.NoError(t, err)
	assert.True(t, inUse[attached.StorageKey])
	assert.False(t, inUse[loose.StorageKey])
}

func TestListBySeller(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	seller := uuid.New()

	createDraft(t, svc, seller)
	createDraft(t, svc, seller)
	createDraft(t, svc, uuid.New())

	products, err := svc.ListBySeller(ctx, seller)
	require.NoError(t, err)
	assert.Len(t, products, 2)
}
