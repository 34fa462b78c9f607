package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/isdelr/blog-be/internal/models"
	"github.com/isdelr/blog-be/internal/services"
)

const (
	minPasswordLength = 5
	minFullNameLength = 3
	minTextLength     = 3
)

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every invalid field of a request.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Is(target error) bool {
	return target == services.ErrValidation
}

func (v *ValidationErrors) add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

func (v ValidationErrors) err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// decodeJSON decodes the request body into dst, reporting malformed
// bodies as validation errors.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return ValidationErrors{{Field: "body", Message: "invalid JSON: " + err.Error()}}
	}
	return nil
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl"`
}

func (req *RegisterRequest) Validate() error {
	var errs ValidationErrors
	checkEmail(&errs, req.Email)
	checkMinLength(&errs, "password", req.Password, minPasswordLength)
	checkMinLength(&errs, "fullName", strings.TrimSpace(req.FullName), minFullNameLength)
	if req.AvatarURL != "" && !isURL(req.AvatarURL) {
		errs.add("avatarUrl", "must be a valid URL")
	}
	return errs.err()
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *LoginRequest) Validate() error {
	var errs ValidationErrors
	checkEmail(&errs, req.Email)
	checkMinLength(&errs, "password", req.Password, minPasswordLength)
	return errs.err()
}

// PostRequest is the body of POST /posts and PATCH /posts/{id}.
type PostRequest struct {
	Title    string      `json:"title"`
	Text     string      `json:"text"`
	Tags     models.Tags `json:"tags"`
	ImageURL string      `json:"imageUrl"`
}

func (req *PostRequest) Validate() error {
	var errs ValidationErrors
	checkRequired(&errs, "title", strings.TrimSpace(req.Title))
	checkMinLength(&errs, "text", strings.TrimSpace(req.Text), minTextLength)
	return errs.err()
}

func (req *PostRequest) input() services.PostInput {
	return services.PostInput{
		Title:    req.Title,
		Text:     req.Text,
		Tags:     req.Tags,
		ImageURL: req.ImageURL,
	}
}

func checkEmail(errs *ValidationErrors, email string) {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		errs.add("email", "must be a valid email address")
	}
}

func checkRequired(errs *ValidationErrors, field, value string) {
	if value == "" {
		errs.add(field, "is required")
	}
}

func checkMinLength(errs *ValidationErrors, field, value string, minLen int) {
	if utf8.RuneCountInString(value) < minLen {
		errs.add(field, fmt.Sprintf("must be at least %d characters", minLen))
	}
}

func isURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
