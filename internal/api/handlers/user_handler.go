package handlers

import (
	"net/http"

	"github.com/isdelr/blog-be/internal/auth"
	"github.com/isdelr/blog-be/internal/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// UserHandler handles HTTP requests for accounts.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err, "register", nil)
		return
	}
	if err := req.Validate(); err != nil {
		respondServiceError(w, err, "register", nil)
		return
	}

	result, err := h.service.Register(r.Context(), services.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		respondServiceError(w, err, "register", withEmail(req.Email))
		return
	}

	log.Info().Str("user_id", result.User.ID).Msg("User registered")
	respondJSON(w, http.StatusOK, result)
}

// Login handles user authentication and JWT generation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err, "log in", nil)
		return
	}
	if err := req.Validate(); err != nil {
		respondServiceError(w, err, "log in", nil)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", req.Email).Msg("Failed authentication attempt")
		respondServiceError(w, err, "log in", withEmail(req.Email))
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Me returns the authenticated user.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondServiceError(w, auth.ErrUnauthenticated, "load user", nil)
		return
	}

	user, err := h.service.GetMe(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err, "load user", withUserID(userID))
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func withEmail(email string) func(*zerolog.Event) *zerolog.Event {
	return func(e *zerolog.Event) *zerolog.Event { return e.Str("email", email) }
}

func withUserID(userID string) func(*zerolog.Event) *zerolog.Event {
	return func(e *zerolog.Event) *zerolog.Event { return e.Str("user_id", userID) }
}
