package store

import (
	"context"
	"time"

	"github.com/isdelr/blog-be/internal/database"
	"github.com/isdelr/blog-be/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type eventDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Type      string             `bson:"type"`
	Message   string             `bson:"message"`
	PostID    *string            `bson:"post_id,omitempty"`
	UserID    *string            `bson:"user_id,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}

type mongoEventRepository struct {
	events *mongo.Collection
}

// NewMongoEventRepository creates an EventRepository backed by MongoDB.
func NewMongoEventRepository(db *mongo.Database) EventRepository {
	return &mongoEventRepository{events: db.Collection(database.EventsCollection)}
}

func (r *mongoEventRepository) Create(ctx context.Context, event models.Event) (models.Event, error) {
	doc := eventDocument{
		ID:        primitive.NewObjectID(),
		Type:      event.Type,
		Message:   event.Message,
		PostID:    event.PostID,
		UserID:    event.UserID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := r.events.InsertOne(ctx, doc); err != nil {
		return models.Event{}, err
	}
	event.ID = doc.ID.Hex()
	event.CreatedAt = doc.CreatedAt
	return event, nil
}

func (r *mongoEventRepository) Recent(ctx context.Context, limit int) ([]models.Event, error) {
	opts := options.Find().SetSort(newestSort).SetLimit(int64(limit))
	cursor, err := r.events.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []eventDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	events := make([]models.Event, 0, len(docs))
	for _, doc := range docs {
		events = append(events, models.Event{
			ID:        doc.ID.Hex(),
			Type:      doc.Type,
			Message:   doc.Message,
			PostID:    doc.PostID,
			UserID:    doc.UserID,
			CreatedAt: doc.CreatedAt,
		})
	}
	return events, nil
}
