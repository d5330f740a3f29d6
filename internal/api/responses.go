package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/wbkost/backend/pkg/catalog"
	"github.com/wbkost/backend/pkg/filevault"
	"github.com/wbkost/backend/pkg/social"
)

// Response is the JSON envelope used by every endpoint.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	render.Status(r, status)
	render.JSON(w, r, Response{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, Response{Success: false, Error: message})
}

// respondServiceError maps domain errors onto HTTP statuses. Not-found class
// errors stay indistinguishable from nonexistent resources.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, filevault.ErrObjectNotFound),
		errors.Is(err, social.ErrPostNotFound),
		errors.Is(err, catalog.ErrProductNotFound):
		respondError(w, r, http.StatusNotFound, "not found")

	case errors.Is(err, filevault.ErrPayloadTooLarge):
		respondError(w, r, http.StatusRequestEntityTooLarge, err.Error())

	case filevault.IsInvalidInput(err),
		errors.Is(err, social.ErrEmptyContent),
		errors.Is(err, social.ErrContentTooLong),
		errors.Is(err, social.ErrInvalidVisibility),
		errors.Is(err, social.ErrParentNotFound),
		errors.Is(err, catalog.ErrInvalidTitle),
		errors.Is(err, catalog.ErrInvalidDescription),
		errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, catalog.ErrInvalidCategory),
		errors.Is(err, catalog.ErrNotDraft),
		errors.Is(err, catalog.ErrProductArchived),
		errors.Is(err, catalog.ErrFileNotFound),
		errors.Is(err, catalog.ErrFileAlreadyAttached):
		respondError(w, r, http.StatusBadRequest, err.Error())

	case filevault.IsStorageUnavailable(err):
		slog.Error("storage backend failure", "err", err)
		respondError(w, r, http.StatusServiceUnavailable, "storage temporarily unavailable")

	default:
		slog.Error("unhandled service error", "err", err)
		respondError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
