package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/isdelr/blog-be/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "blog.db"), "")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close(ctx) })
	return s
}

func createUser(t *testing.T, s *Store, email string) models.User {
	t.Helper()
	user, err := s.Users.Create(context.Background(), models.User{
		Email:        email,
		PasswordHash: "hash",
		FullName:     "Alice",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestUserRepository(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createUser(t, s, "a@x.com")
	if user.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := s.Users.GetByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != user.ID || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", got)
	}

	if _, err := s.Users.GetByID(ctx, user.ID); err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if _, err := s.Users.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, err = s.Users.Create(ctx, models.User{Email: "a@x.com", PasswordHash: "x", FullName: "Bob"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "constraints.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, `CREATE TABLE accounts (id TEXT PRIMARY KEY, email TEXT NOT NULL UNIQUE)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO accounts (id, email) VALUES ('1', 'a@x.com')`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	tests := []struct {
		name   string
		query  string
		unique bool
	}{
		{"duplicate email", `INSERT INTO accounts (id, email) VALUES ('2', 'a@x.com')`, true},
		{"duplicate id", `INSERT INTO accounts (id, email) VALUES ('1', 'b@x.com')`, true},
		{"missing email", `INSERT INTO accounts (id, email) VALUES ('3', NULL)`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.ExecContext(ctx, tt.query)
			if err == nil {
				t.Fatal("expected a constraint error")
			}
			if got := isUniqueViolation(err); got != tt.unique {
				t.Fatalf("isUniqueViolation(%v) = %v, want %v", err, got, tt.unique)
			}
		})
	}
}

func TestPostRepositoryLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	author := createUser(t, s, "a@x.com")

	post, err := s.Posts.Create(ctx, models.Post{
		Title:    "Hello",
		Text:     "World",
		Tags:     models.Tags{"go", "web"},
		AuthorID: author.ID,
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.ViewCount != 0 {
		t.Fatalf("expected 0 views, got %d", post.ViewCount)
	}
	if post.Author == nil || post.Author.FullName != "Alice" {
		t.Fatalf("expected populated author, got %+v", post.Author)
	}
	if post.Author.PasswordHash != "" {
		t.Fatal("author must not carry the password hash")
	}

	viewed, err := s.Posts.IncrementViews(ctx, post.ID)
	if err != nil {
		t.Fatalf("increment views: %v", err)
	}
	if viewed.ViewCount != 1 {
		t.Fatalf("expected 1 view, got %d", viewed.ViewCount)
	}

	post.Title = "Changed"
	post.Tags = models.Tags{"rust"}
	updated, err := s.Posts.Update(ctx, post)
	if err != nil {
		t.Fatalf("update post: %v", err)
	}
	if updated.Title != "Changed" || len(updated.Tags) != 1 || updated.Tags[0] != "rust" {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if updated.ViewCount != 1 {
		t.Fatalf("update must keep view count, got %d", updated.ViewCount)
	}

	if err := s.Posts.Delete(ctx, post.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	if _, err := s.Posts.Get(ctx, post.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Posts.Delete(ctx, post.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := s.Posts.IncrementViews(ctx, post.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on view of deleted post, got %v", err)
	}
}

func TestPostRepositoryOrderingAndRecentTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	author := createUser(t, s, "a@x.com")

	tagSets := []models.Tags{{"a"}, {"b"}, {"c"}, {"d", "x"}, {"e"}, {"f", "x"}}
	for i, tags := range tagSets {
		_, err := s.Posts.Create(ctx, models.Post{
			Title:    "Post",
			Text:     "Body",
			Tags:     tags,
			AuthorID: author.ID,
		})
		if err != nil {
			t.Fatalf("create post %d: %v", i, err)
		}
	}

	posts, err := s.Posts.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(posts) != len(tagSets) {
		t.Fatalf("expected %d posts, got %d", len(tagSets), len(posts))
	}
	if posts[0].Tags[0] != "f" || posts[len(posts)-1].Tags[0] != "a" {
		t.Fatalf("expected newest first, got first=%v last=%v", posts[0].Tags, posts[len(posts)-1].Tags)
	}

	tags, err := s.Posts.RecentTags(ctx, 5)
	if err != nil {
		t.Fatalf("recent tags: %v", err)
	}
	want := []string{"f", "x", "e", "d", "x", "c", "b"}
	if len(tags) != len(want) {
		t.Fatalf("expected %v, got %v", want, tags)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, tags)
		}
	}
}

func TestPostRepositoryConcurrentViews(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	author := createUser(t, s, "a@x.com")

	post, err := s.Posts.Create(ctx, models.Post{Title: "Hot", Text: "Post", AuthorID: author.ID})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	const readers = 20
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Posts.IncrementViews(ctx, post.ID); err != nil {
				t.Errorf("increment views: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := s.Posts.Get(ctx, post.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ViewCount != readers {
		t.Fatalf("expected %d views, got %d", readers, got.ViewCount)
	}
}

func TestEventRepositoryRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, typ := range []string{models.EventUserRegister, models.EventPostCreate, models.EventPostDelete} {
		if _, err := s.Events.Create(ctx, models.Event{Type: typ, Message: typ}); err != nil {
			t.Fatalf("create event: %v", err)
		}
	}

	events, err := s.Events.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != models.EventPostDelete || events[1].Type != models.EventPostCreate {
		t.Fatalf("expected newest first, got %s, %s", events[0].Type, events[1].Type)
	}
}
