package models

import "time"

// Event types recorded in the activity log.
const (
	EventUserRegister = "user.register"
	EventPostCreate   = "post.create"
	EventPostUpdate   = "post.update"
	EventPostDelete   = "post.delete"
	EventPostView     = "post.view" // broadcast only, never persisted
)

// Event represents a loggable action in the system.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // e.g., "post.create", "user.register"
	Message   string    `json:"message"`
	PostID    *string   `json:"postId,omitempty"`
	UserID    *string   `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
