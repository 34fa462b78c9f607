package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/blog-be/internal/models"
)

// selectPost joins the author's public fields onto each post. rowid breaks
// ties between posts created within the same clock tick.
const selectPost = `
	SELECT p.id, p.title, p.text, p.tags_json, p.image_url, p.view_count, p.author_id, p.created_at, p.updated_at,
	       u.id, u.email, u.full_name, u.avatar_url, u.created_at, u.updated_at
	FROM posts p
	LEFT JOIN users u ON u.id = p.author_id`

const newestFirst = ` ORDER BY p.created_at DESC, p.rowid DESC`

type sqlitePostRepository struct {
	db *sql.DB
}

// NewSQLitePostRepository creates a PostRepository backed by SQLite.
func NewSQLitePostRepository(db *sql.DB) PostRepository {
	return &sqlitePostRepository{db: db}
}

// scanPost is a helper to scan a populated post from a row or rows object.
func scanPost(scanner interface{ Scan(...any) error }) (models.Post, error) {
	var post models.Post
	var image sql.NullString
	var authorID, authorEmail, authorName, authorAvatar sql.NullString
	var authorCreated, authorUpdated sql.NullTime

	err := scanner.Scan(
		&post.ID, &post.Title, &post.Text, &post.TagsJSON, &image, &post.ViewCount, &post.AuthorID,
		&post.CreatedAt, &post.UpdatedAt,
		&authorID, &authorEmail, &authorName, &authorAvatar, &authorCreated, &authorUpdated,
	)
	if err != nil {
		return post, err
	}

	post.ImageURL = image.String
	if authorID.Valid {
		post.Author = &models.User{
			ID:        authorID.String,
			Email:     authorEmail.String,
			FullName:  authorName.String,
			AvatarURL: authorAvatar.String,
			CreatedAt: authorCreated.Time,
			UpdatedAt: authorUpdated.Time,
		}
	}
	post.PrepareForAPI()
	return post, nil
}

func (r *sqlitePostRepository) List(ctx context.Context) ([]models.Post, error) {
	rows, err := r.db.QueryContext(ctx, selectPost+newestFirst)
	if err != nil {
		return nil, fmt.Errorf("sqlitePostRepository.List: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *sqlitePostRepository) Get(ctx context.Context, id string) (models.Post, error) {
	post, err := scanPost(r.db.QueryRowContext(ctx, selectPost+` WHERE p.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Post{}, ErrNotFound
		}
		return models.Post{}, fmt.Errorf("sqlitePostRepository.Get: %w", err)
	}
	return post, nil
}

// IncrementViews bumps the counter with a single UPDATE so concurrent
// readers never lose an increment.
func (r *sqlitePostRepository) IncrementViews(ctx context.Context, id string) (models.Post, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE posts SET view_count = view_count + 1 WHERE id = ?`, id)
	if err != nil {
		return models.Post{}, fmt.Errorf("sqlitePostRepository.IncrementViews: %w", err)
	}
	if err := expectAffected(result); err != nil {
		return models.Post{}, err
	}
	return r.Get(ctx, id)
}

func (r *sqlitePostRepository) Create(ctx context.Context, post models.Post) (models.Post, error) {
	now := time.Now().UTC()
	post.ID = uuid.New().String()
	post.ViewCount = 0
	post.CreatedAt = now
	post.UpdatedAt = now
	post.PrepareForSave()

	const query = `
		INSERT INTO posts (id, title, text, tags_json, image_url, view_count, author_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		post.ID, post.Title, post.Text, post.TagsJSON, nullString(post.ImageURL), post.AuthorID, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return models.Post{}, fmt.Errorf("sqlitePostRepository.Create: %w", err)
	}
	return r.Get(ctx, post.ID)
}

func (r *sqlitePostRepository) Update(ctx context.Context, post models.Post) (models.Post, error) {
	post.UpdatedAt = time.Now().UTC()
	post.PrepareForSave()

	const query = `
		UPDATE posts
		SET title = ?, text = ?, tags_json = ?, image_url = ?, updated_at = ?
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		post.Title, post.Text, post.TagsJSON, nullString(post.ImageURL), post.UpdatedAt, post.ID,
	)
	if err != nil {
		return models.Post{}, fmt.Errorf("sqlitePostRepository.Update: %w", err)
	}
	if err := expectAffected(result); err != nil {
		return models.Post{}, err
	}
	return r.Get(ctx, post.ID)
}

func (r *sqlitePostRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlitePostRepository.Delete: %w", err)
	}
	return expectAffected(result)
}

// RecentTags concatenates the tags of the newest posts in post order.
// Duplicates are kept.
func (r *sqlitePostRepository) RecentTags(ctx context.Context, posts int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT tags_json FROM posts ORDER BY created_at DESC, rowid DESC LIMIT ?`, posts)
	if err != nil {
		return nil, fmt.Errorf("sqlitePostRepository.RecentTags: %w", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var post models.Post
		if err := rows.Scan(&post.TagsJSON); err != nil {
			return nil, err
		}
		post.PrepareForAPI()
		tags = append(tags, post.Tags...)
	}
	return tags, rows.Err()
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
