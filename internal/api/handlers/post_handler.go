package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/blog-be/internal/auth"
	"github.com/isdelr/blog-be/internal/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// PostHandler handles HTTP requests for posts.
type PostHandler struct {
	service services.PostServiceProvider
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(service services.PostServiceProvider) *PostHandler {
	return &PostHandler{service: service}
}

// GetAll returns every post, newest first.
func (h *PostHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.GetAll(r.Context())
	if err != nil {
		respondServiceError(w, err, "list posts", nil)
		return
	}
	respondJSON(w, http.StatusOK, posts)
}

// GetOne returns a post and counts the view.
func (h *PostHandler) GetOne(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	post, err := h.service.GetOne(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "load post", withPostID(id, ""))
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// GetLastTags returns the tags of the newest posts.
func (h *PostHandler) GetLastTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.GetLastTags(r.Context())
	if err != nil {
		respondServiceError(w, err, "load tags", nil)
		return
	}
	respondJSON(w, http.StatusOK, tags)
}

// Create publishes a post by the authenticated user.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req PostRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err, "create post", nil)
		return
	}
	if err := req.Validate(); err != nil {
		respondServiceError(w, err, "create post", nil)
		return
	}

	post, err := h.service.Create(r.Context(), userID, req.input())
	if err != nil {
		respondServiceError(w, err, "create post", withUserID(userID))
		return
	}

	log.Info().Str("post_id", post.ID).Str("user_id", userID).Msg("Post created")
	respondJSON(w, http.StatusCreated, post)
}

// Update overwrites a post's editable fields.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID, _ := auth.UserIDFromContext(r.Context())

	var req PostRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err, "update post", nil)
		return
	}
	if err := req.Validate(); err != nil {
		respondServiceError(w, err, "update post", nil)
		return
	}

	post, err := h.service.Update(r.Context(), id, userID, req.input())
	if err != nil {
		respondServiceError(w, err, "update post", withPostID(id, userID))
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// Delete removes a post.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.service.Remove(r.Context(), id, userID); err != nil {
		respondServiceError(w, err, "delete post", withPostID(id, userID))
		return
	}

	log.Info().Str("post_id", id).Str("user_id", userID).Msg("Post deleted")
	w.WriteHeader(http.StatusNoContent)
}

func withPostID(postID, userID string) func(*zerolog.Event) *zerolog.Event {
	return func(e *zerolog.Event) *zerolog.Event {
		e = e.Str("post_id", postID)
		if userID != "" {
			e = e.Str("user_id", userID)
		}
		return e
	}
}
