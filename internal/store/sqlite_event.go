package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/blog-be/internal/models"
)

type sqliteEventRepository struct {
	db *sql.DB
}

// NewSQLiteEventRepository creates an EventRepository backed by SQLite.
func NewSQLiteEventRepository(db *sql.DB) EventRepository {
	return &sqliteEventRepository{db: db}
}

func (r *sqliteEventRepository) Create(ctx context.Context, event models.Event) (models.Event, error) {
	event.ID = uuid.New().String()
	event.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO events (id, type, message, post_id, user_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		event.ID, event.Type, event.Message, event.PostID, event.UserID, event.CreatedAt,
	)
	if err != nil {
		return models.Event{}, err
	}
	return event, nil
}

func (r *sqliteEventRepository) Recent(ctx context.Context, limit int) ([]models.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, type, message, post_id, user_id, created_at FROM events ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Message, &event.PostID, &event.UserID, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
