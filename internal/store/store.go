package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/isdelr/blog-be/internal/database"
	"github.com/isdelr/blog-be/internal/models"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique field is already taken.
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository persists user accounts. GetByEmail is the only read that
// returns the password hash.
type UserRepository interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
}

// PostRepository persists posts. Every read returns posts populated with
// their author's public fields.
type PostRepository interface {
	List(ctx context.Context) ([]models.Post, error)
	Get(ctx context.Context, id string) (models.Post, error)
	IncrementViews(ctx context.Context, id string) (models.Post, error)
	Create(ctx context.Context, post models.Post) (models.Post, error)
	Update(ctx context.Context, post models.Post) (models.Post, error)
	Delete(ctx context.Context, id string) error
	RecentTags(ctx context.Context, posts int) ([]string, error)
}

// EventRepository persists the activity log.
type EventRepository interface {
	Create(ctx context.Context, event models.Event) (models.Event, error)
	Recent(ctx context.Context, limit int) ([]models.Event, error)
}

// Store bundles the repositories of one backend behind a single handle.
type Store struct {
	Users  UserRepository
	Posts  PostRepository
	Events EventRepository

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// NewSQLite builds a Store over an open, migrated SQLite pool.
func NewSQLite(db *sql.DB) *Store {
	return &Store{
		Users:  NewSQLiteUserRepository(db),
		Posts:  NewSQLitePostRepository(db),
		Events: NewSQLiteEventRepository(db),
		ping:   db.PingContext,
		close:  func(context.Context) error { return db.Close() },
	}
}

// NewMongo builds a Store over a Mongo database handle.
func NewMongo(db *mongo.Database) *Store {
	return &Store{
		Users:  NewMongoUserRepository(db),
		Posts:  NewMongoPostRepository(db),
		Events: NewMongoEventRepository(db),
		ping:   func(ctx context.Context) error { return db.Client().Ping(ctx, nil) },
		close:  func(ctx context.Context) error { return db.Client().Disconnect(ctx) },
	}
}

// Open connects to the backend named by databaseURL and prepares its
// schema. When the backend is unreachable Open still returns a Store
// together with the error; callers log it and keep serving.
func Open(ctx context.Context, databaseURL, mongoDatabase string) (*Store, error) {
	if database.IsMongoURL(databaseURL) {
		db, err := database.NewMongo(ctx, databaseURL, mongoDatabase)
		if db == nil {
			return nil, err
		}
		s := NewMongo(db)
		if err != nil {
			return s, err
		}
		return s, database.EnsureMongoIndexes(ctx, db)
	}

	db, err := database.New(database.SQLitePath(databaseURL))
	if db == nil {
		return nil, err
	}
	s := NewSQLite(db)
	if err != nil {
		return s, err
	}
	return s, database.Migrate(db)
}

// Ping checks that the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases the backend connection.
func (s *Store) Close(ctx context.Context) error {
	return s.close(ctx)
}
