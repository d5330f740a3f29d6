package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wbkost/backend/pkg/catalog"
	"github.com/wbkost/backend/pkg/filevault"
)

// uploadFormMemory is how much of a multipart body is buffered in memory
// before spilling to temp files.
const uploadFormMemory = 4 << 20

// FilesHandler handles file upload and management endpoints.
type FilesHandler struct {
	vault    filevault.Service
	products catalog.Service
}

// NewFilesHandler creates a new files handler. The catalog service is
// consulted to flag files referenced by product listings.
func NewFilesHandler(vault filevault.Service, products catalog.Service) *FilesHandler {
	return &FilesHandler{vault: vault, products: products}
}

// Routes returns the router for file endpoints.
func (h *FilesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/upload", h.Upload)
	r.Get("/my-files", h.MyFiles)
	r.Get("/download/{storageKey}", h.Download)
	r.Get("/info/{storageKey}", h.Info)
	r.Delete("/{storageKey}", h.Delete)
	return r
}

// Upload accepts a multipart form with a single "file" part and stores it.
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	requesterID, err := RequesterID(r)
	if err != nil {
		respondError(w, r, http.StatusUnauthorized, "invalid token subject")
		return
	}

	if err := r.ParseMultipartForm(uploadFormMemory); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	obj, err := h.vault.Store(r.Context(), file, filevault.StoreRequest{
		OwnerID:      requesterID,
		OriginalName: header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		DeclaredSize: header.Size,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	slog.Info("file uploaded", "storage_key", obj.StorageKey, "owner_id", obj.OwnerID, "size", obj.SizeBytes)
	respond(w, r, http.StatusCreated, obj)
}

// MyFiles lists the requester's active files, newest first, flagging the
// ones attached to product listings.
func (h *FilesHandler) MyFiles(w http.ResponseWriter, r *http.Request) {
	requesterID, err := RequesterID(r)
	if err != nil {
		respondError(w, r, http.StatusUnauthorized, "invalid token subject")
		return
	}

	summaries, err := h.vault.List(r.Context(), requesterID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	inUse, err := h.products.FileKeysInUse(r.Context(), requesterID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	for _, s := range summaries {
		s.IsInUse = inUse[s.StorageKey]
	}

	respond(w, r, http.StatusOK, summaries)
}

// Download streams the file payload with its original name and type.
func (h *FilesHandler) Download(w http.ResponseWriter, r *http.Request) {
	requesterID, err := RequesterID(r)
	if err != nil {
		respondError(w, r, http.StatusUnauthorized, "invalid token subject")
		return
	}
	storageKey := chi.URLParam(r, "storageKey")

	rc, obj, err := h.vault.Fetch(r.Context(), storageKey, requesterID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", obj.OriginalName))
	w.Header().Set("Content-Length", strconv.FormatInt(obj.SizeBytes, 10))

	if _, err := io.Copy(w, rc); err != nil {
		// Headers are already out; all we can do is log the broken stream.
		slog.Error("download stream interrupted", "storage_key", storageKey, "err", err)
	}
}

// Info returns the file's metadata without its payload.
func (h *FilesHandler) Info(w http.ResponseWriter, r *http.Request) {
	requesterID, err := RequesterID(r)
	if err != nil {
		respondError(w, r, http.StatusUnauthorized, "invalid token subject")
		return
	}

	obj, err := h.vault.Inspect(r.Context(), chi.URLParam(r, "storageKey"), requesterID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, obj)
}

// Delete soft-deletes the file. The payload remains recoverable until the
// retention sweep erases it.
func (h *FilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requesterID, err := RequesterID(r)
	if err != nil {
		respondError(w, r, http.StatusUnauthorized, "invalid token subject")
		return
	}
	storageKey := chi.URLParam(r, "storageKey")

	if err := h.vault.SoftDelete(r.Context(), storageKey, requesterID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	slog.Info("file deleted", "storage_key", storageKey, "owner_id", requesterID)
	respond(w, r, http.StatusOK, map[string]string{"storage_key": storageKey})
}
