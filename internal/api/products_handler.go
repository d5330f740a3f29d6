package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wbkost/backend/pkg/catalog"
)

// ProductsHandler handles marketplace product endpoints.
type ProductsHandler struct {
	products catalog.Service
}

// NewProductsHandler creates a new products handler.
func NewProductsHandler(products catalog.Service) *ProductsHandler {
	return &ProductsHandler{products: products}
}

// Routes returns the router for product endpoints.
func (h *ProductsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/mine", h.Mine)
	r.Get("/{productID}", h.Get)
	r.Put("/{productID}", h.Update)
	r.Delete("/{productID}", h.Delete)
	r.Post("/{productID}/publish", h.Publish)
	r.Post("/{productID}/files", h.AttachFile)
	return r
}

type createProductRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Category    string `json:"category"`
}

// Create registers a new draft product for the token holder.
func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	requesterID, err := RequesterID(r)
	if err != nil {
		respondError(w, r, http.StatusUnauthorized, "invalid token subject")
		return
	}

	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.products.CreateProduct(r.Context(), catalog.CreateProductRequest{
		SellerID:    requesterID,
		Title:       req.Title,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Category:    catalog.Category(req.Category),
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, product)
}

// Get returns one product by ID.
func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.products.GetProduct(r.Context(), productID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, product)
}

// Mine returns the requester's own products.
func (h *ProductsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	requesterID, err := RequesterID(r)
	if err != nil {
		respondError(w, r, http.StatusUnauthorized, "invalid token subject")
		return
	}

	products, err := h.products.ListBySeller(r.Context(), requesterID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, products)
}

// Update replaces the product's editable fields.
func (h *ProductsHandler) Update(w http.ResponseWriter, r *http.Request) {
	requesterID, err := RequesterID(r)
	if err != nil {
		respondError(w, r, http.StatusUnauthorized, "invalid token subject")
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid product id")
		return
	}

	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.products.UpdateProduct(r.Context(), productID, requesterID, catalog.UpdateProductRequest{
		Title:       req.Title,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Category:    catalog.Category(req.Category),
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, product)
}

// Delete archives the product.
func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requesterID, err := RequesterID(r)
	if err != nil {
		respondError(w, r, http.StatusUnauthorized, "invalid token subject")
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.products.DeleteProduct(r.Context(), productID, requesterID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]string{"id": productID.String()})
}

// Publish moves a draft product to the published state.
func (h *ProductsHandler) Publish(w http.ResponseWriter, r *http.Request) {
	requesterID, err := RequesterID(r)
	if err != nil {
		respondError(w, r, http.StatusUnauthorized, "invalid token subject")
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.products.Publish(r.Context(), productID, requesterID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, product)
}

type attachFileRequest struct {
	StorageKey string `json:"storage_key"`
}

// AttachFile references one of the seller's uploaded files from the product.
func (h *ProductsHandler) AttachFile(w http.ResponseWriter, r *http.Request) {
	requesterID, err := RequesterID(r)
	if err != nil {
		respondError(w, r, http.StatusUnauthorized, "invalid token subject")
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid product id")
		return
	}

	var req attachFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StorageKey == "" {
		respondError(w, r, http.StatusBadRequest, "storage_key is required")
		return
	}

	product, err := h.products.AttachFile(r.Context(), productID, requesterID, req.StorageKey)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, product)
}
