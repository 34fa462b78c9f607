package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/blog-be/internal/auth"
	"github.com/isdelr/blog-be/internal/services"
	"github.com/rs/zerolog/log"
)

// maxUploadMemory bounds how much of a multipart body is held in memory;
// larger files spill to temporary files.
const maxUploadMemory = 32 << 20

// UploadHandler handles image uploads and serves them back.
type UploadHandler struct {
	service services.UploadServiceProvider
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(service services.UploadServiceProvider) *UploadHandler {
	return &UploadHandler{service: service}
}

// Upload stores the multipart "image" field and returns its public URL.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondServiceError(w, ValidationErrors{{Field: "image", Message: "multipart form required"}}, "upload file", nil)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		respondServiceError(w, ValidationErrors{{Field: "image", Message: "file is required"}}, "upload file", nil)
		return
	}
	defer file.Close()

	url, err := h.service.Save(r.Context(), header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		respondServiceError(w, err, "upload file", nil)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	log.Info().Str("user_id", userID).Str("url", url).Int64("size", header.Size).Msg("File uploaded")
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// Serve streams an uploaded file from the object store.
func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	rc, err := h.service.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Error().Err(err).Str("name", name).Msg("Failed to open upload")
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	if contentType := mime.TypeByExtension(path.Ext(name)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if _, err := io.Copy(w, rc); err != nil {
		log.Warn().Err(err).Str("name", name).Msg("Failed to stream upload")
	}
}
