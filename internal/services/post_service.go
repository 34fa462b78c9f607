package services

import (
	"context"
	"fmt"

	"github.com/isdelr/blog-be/internal/models"
	"github.com/isdelr/blog-be/internal/store"
	"github.com/rs/zerolog/log"
)

// lastTagsPostLimit is how many of the newest posts GetLastTags reads.
const lastTagsPostLimit = 5

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title    string
	Text     string
	Tags     models.Tags
	ImageURL string
}

// PostServiceProvider defines the interface for post services.
type PostServiceProvider interface {
	Create(ctx context.Context, authorID string, in PostInput) (models.Post, error)
	GetAll(ctx context.Context) ([]models.Post, error)
	GetOne(ctx context.Context, id string) (models.Post, error)
	GetLastTags(ctx context.Context) ([]string, error)
	Update(ctx context.Context, id, userID string, in PostInput) (models.Post, error)
	Remove(ctx context.Context, id, userID string) error
}

// PostService provides business logic for posts.
type PostService struct {
	posts  store.PostRepository
	events EventServiceProvider
}

// NewPostService creates a new PostService.
func NewPostService(posts store.PostRepository, events EventServiceProvider) *PostService {
	return &PostService{posts: posts, events: events}
}

// Create stores a new post by authorID with no views.
func (s *PostService) Create(ctx context.Context, authorID string, in PostInput) (models.Post, error) {
	post, err := s.posts.Create(ctx, models.Post{
		Title:    in.Title,
		Text:     in.Text,
		Tags:     in.Tags,
		ImageURL: in.ImageURL,
		AuthorID: authorID,
	})
	if err != nil {
		return models.Post{}, err
	}

	s.record(ctx, models.EventPostCreate, fmt.Sprintf("Post '%s' published", post.Title), post.ID, authorID)
	return post, nil
}

// GetAll returns every post, newest first.
func (s *PostService) GetAll(ctx context.Context) ([]models.Post, error) {
	return s.posts.List(ctx)
}

// GetOne returns a post and counts the read as one view.
func (s *PostService) GetOne(ctx context.Context, id string) (models.Post, error) {
	post, err := s.posts.IncrementViews(ctx, id)
	if err != nil {
		return models.Post{}, err
	}

	if s.events != nil {
		s.events.Broadcast(post.ID, models.EventPostView, map[string]any{
			"id":        post.ID,
			"viewCount": post.ViewCount,
		})
	}
	return post, nil
}

// GetLastTags returns the tags of the newest posts in post order,
// duplicates included.
func (s *PostService) GetLastTags(ctx context.Context) ([]string, error) {
	return s.posts.RecentTags(ctx, lastTagsPostLimit)
}

// Update overwrites the editable fields of a post. Any authenticated user
// may edit any post.
func (s *PostService) Update(ctx context.Context, id, userID string, in PostInput) (models.Post, error) {
	post, err := s.posts.Update(ctx, models.Post{
		ID:       id,
		Title:    in.Title,
		Text:     in.Text,
		Tags:     in.Tags,
		ImageURL: in.ImageURL,
	})
	if err != nil {
		return models.Post{}, err
	}

	if post.AuthorID != userID {
		log.Info().Str("post_id", id).Str("user_id", userID).Str("author_id", post.AuthorID).Msg("Post updated by a user other than its author")
	}
	s.record(ctx, models.EventPostUpdate, fmt.Sprintf("Post '%s' updated", post.Title), post.ID, userID)
	return post, nil
}

// Remove deletes a post. Any authenticated user may delete any post.
func (s *PostService) Remove(ctx context.Context, id, userID string) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}

	s.record(ctx, models.EventPostDelete, "Post deleted", id, userID)
	return nil
}

func (s *PostService) record(ctx context.Context, eventType, message, postID, userID string) {
	if s.events == nil {
		return
	}
	s.events.Record(ctx, eventType, message, &postID, &userID)
}
