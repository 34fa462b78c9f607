package handlers

import (
	"errors"
	"testing"

	"github.com/isdelr/blog-be/internal/services"
)

func TestRegisterRequestValidate(t *testing.T) {
	tests := []struct {
		name   string
		req    RegisterRequest
		fields []string
	}{
		{"valid", RegisterRequest{Email: "a@x.com", Password: "pw123", FullName: "Alice"}, nil},
		{"valid avatar", RegisterRequest{Email: "a@x.com", Password: "pw123", FullName: "Alice", AvatarURL: "https://img.example/a.png"}, nil},
		{"display name email", RegisterRequest{Email: "Alice <a@x.com>", Password: "pw123", FullName: "Alice"}, []string{"email"}},
		{"short password", RegisterRequest{Email: "a@x.com", Password: "pw12", FullName: "Alice"}, []string{"password"}},
		{"blank name", RegisterRequest{Email: "a@x.com", Password: "pw123", FullName: "  Al  "}, []string{"fullName"}},
		{"relative avatar", RegisterRequest{Email: "a@x.com", Password: "pw123", FullName: "Alice", AvatarURL: "/a.png"}, []string{"avatarUrl"}},
		{"everything wrong", RegisterRequest{}, []string{"email", "password", "fullName"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertFields(t, tt.req.Validate(), tt.fields)
		})
	}
}

func TestPostRequestValidate(t *testing.T) {
	tests := []struct {
		name   string
		req    PostRequest
		fields []string
	}{
		{"short title", PostRequest{Title: "Hi", Text: "body"}, nil},
		{"blank title", PostRequest{Title: "   ", Text: "body"}, []string{"title"}},
		{"short text", PostRequest{Title: "Hello", Text: "ab"}, []string{"text"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertFields(t, tt.req.Validate(), tt.fields)
		})
	}
}

func TestLoginRequestValidate(t *testing.T) {
	assertFields(t, (&LoginRequest{Email: "a@x.com", Password: "pw123"}).Validate(), nil)
	assertFields(t, (&LoginRequest{Email: "a@", Password: "pw123"}).Validate(), []string{"email"})
}

func assertFields(t *testing.T, err error, fields []string) {
	t.Helper()
	if len(fields) == 0 {
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		return
	}

	var invalid ValidationErrors
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatal("validation errors must match services.ErrValidation")
	}
	if len(invalid) != len(fields) {
		t.Fatalf("expected fields %v, got %v", fields, invalid)
	}
	for i, field := range fields {
		if invalid[i].Field != field {
			t.Fatalf("expected fields %v, got %v", fields, invalid)
		}
	}
}
