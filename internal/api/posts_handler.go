package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wbkost/backend/pkg/social"
)

// PostsHandler handles post endpoints.
type PostsHandler struct {
	posts social.Service
}

// NewPostsHandler creates a new posts handler.
func NewPostsHandler(posts social.Service) *PostsHandler {
	return &PostsHandler{posts: posts}
}

// Routes returns the router for post endpoints.
func (h *PostsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.Timeline)
	r.Get("/mine", h.Mine)
	r.Get("/{postID}", h.Get)
	return r
}

type createPostRequest struct {
	Content    string     `json:"content"`
	ParentID   *uuid.UUID `json:"parent_id,omitempty"`
	Visibility string     `json:"visibility,omitempty"`
}

// Create publishes a new post authored by the token holder.
func (h *PostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	requesterID, err := RequesterID(r)
	if err != nil {
		respondError(w, r, http.StatusUnauthorized, "invalid token subject")
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	post, err := h.posts.CreatePost(r.Context(), social.CreatePostRequest{
		AuthorID:   requesterID,
		Content:    req.Content,
		ParentID:   req.ParentID,
		Visibility: social.Visibility(req.Visibility),
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, post)
}

// Timeline returns recent public posts, newest first.
func (h *PostsHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	posts, err := h.posts.Timeline(r.Context(), limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, posts)
}

// Mine returns the requester's own posts.
func (h *PostsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	requesterID, err := RequesterID(r)
	if err != nil {
		respondError(w, r, http.StatusUnauthorized, "invalid token subject")
		return
	}

	posts, err := h.posts.ListByAuthor(r.Context(), requesterID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, posts)
}

// Get returns one post by ID.
func (h *PostsHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid post id")
		return
	}

	post, err := h.posts.GetPost(r.Context(), postID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, post)
}
