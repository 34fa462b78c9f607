package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/isdelr/blog-be/internal/auth"
	"github.com/isdelr/blog-be/internal/models"
	"github.com/isdelr/blog-be/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Email     string
	Password  string
	FullName  string
	AvatarURL string
}

// AuthResult is returned by a successful register or login.
type AuthResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, in RegisterInput) (AuthResult, error)
	Login(ctx context.Context, email, password string) (AuthResult, error)
	GetMe(ctx context.Context, userID string) (models.User, error)
}

// UserService provides business logic for user management.
type UserService struct {
	users  store.UserRepository
	tokens *auth.TokenIssuer
	events EventServiceProvider
}

// NewUserService creates a new UserService.
func NewUserService(users store.UserRepository, tokens *auth.TokenIssuer, events EventServiceProvider) *UserService {
	return &UserService{users: users, tokens: tokens, events: events}
}

// Register creates a new user, hashing their password, and signs them in.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	_, err := s.users.GetByEmail(ctx, in.Email)
	if err == nil {
		return AuthResult{}, ErrDuplicateEmail
	}
	if !errors.Is(err, store.ErrNotFound) {
		return AuthResult{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, models.User{
		Email:        in.Email,
		PasswordHash: string(hashedPassword),
		FullName:     in.FullName,
		AvatarURL:    in.AvatarURL,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return AuthResult{}, ErrDuplicateEmail
		}
		return AuthResult{}, err
	}

	result, err := s.signIn(user)
	if err != nil {
		return AuthResult{}, err
	}
	if s.events != nil {
		s.events.Record(ctx, models.EventUserRegister, fmt.Sprintf("%s joined", user.FullName), nil, &user.ID)
	}
	return result, nil
}

// Login checks a user's credentials and issues a token.
func (s *UserService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AuthResult{}, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
		}
		return AuthResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}
	return s.signIn(user)
}

// GetMe returns the public fields of the authenticated user.
func (s *UserService) GetMe(ctx context.Context, userID string) (models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	return user.Public(), nil
}

func (s *UserService) signIn(user models.User) (AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("failed to issue token: %w", err)
	}
	return AuthResult{Token: token, User: user.Public()}, nil
}
