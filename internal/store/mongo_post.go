package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/blog-be/internal/database"
	"github.com/isdelr/blog-be/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type postDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Text      string             `bson:"text"`
	Tags      []string           `bson:"tags"`
	ImageURL  string             `bson:"image_url,omitempty"`
	ViewCount int64              `bson:"view_count"`
	AuthorID  primitive.ObjectID `bson:"author_id"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d postDocument) toModel() models.Post {
	tags := models.Tags(d.Tags)
	if tags == nil {
		tags = models.Tags{}
	}
	return models.Post{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Text:      d.Text,
		Tags:      tags,
		ImageURL:  d.ImageURL,
		ViewCount: d.ViewCount,
		AuthorID:  d.AuthorID.Hex(),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// newestSort orders by creation time; ObjectIDs break ties in insertion order.
var newestSort = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

type mongoPostRepository struct {
	posts *mongo.Collection
	users *mongo.Collection
}

// NewMongoPostRepository creates a PostRepository backed by MongoDB.
func NewMongoPostRepository(db *mongo.Database) PostRepository {
	return &mongoPostRepository{
		posts: db.Collection(database.PostsCollection),
		users: db.Collection(database.UsersCollection),
	}
}

func (r *mongoPostRepository) List(ctx context.Context) ([]models.Post, error) {
	cursor, err := r.posts.Find(ctx, bson.M{}, options.Find().SetSort(newestSort))
	if err != nil {
		return nil, fmt.Errorf("mongoPostRepository.List: %w", err)
	}
	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongoPostRepository.List: %w", err)
	}
	return r.populate(ctx, docs)
}

func (r *mongoPostRepository) Get(ctx context.Context, id string) (models.Post, error) {
	oid, err := objectID(id)
	if err != nil {
		return models.Post{}, err
	}
	var doc postDocument
	if err := r.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Post{}, ErrNotFound
		}
		return models.Post{}, fmt.Errorf("mongoPostRepository.Get: %w", err)
	}
	return r.populateOne(ctx, doc)
}

// IncrementViews uses $inc so the counter is updated atomically on the server.
func (r *mongoPostRepository) IncrementViews(ctx context.Context, id string) (models.Post, error) {
	oid, err := objectID(id)
	if err != nil {
		return models.Post{}, err
	}
	return r.findOneAndUpdate(ctx, oid, bson.M{"$inc": bson.M{"view_count": 1}})
}

func (r *mongoPostRepository) Create(ctx context.Context, post models.Post) (models.Post, error) {
	authorID, err := primitive.ObjectIDFromHex(post.AuthorID)
	if err != nil {
		return models.Post{}, fmt.Errorf("mongoPostRepository.Create: invalid author id %q", post.AuthorID)
	}

	now := time.Now().UTC()
	doc := postDocument{
		ID:        primitive.NewObjectID(),
		Title:     post.Title,
		Text:      post.Text,
		Tags:      tagsOrEmpty(post.Tags),
		ImageURL:  post.ImageURL,
		ViewCount: 0,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.posts.InsertOne(ctx, doc); err != nil {
		return models.Post{}, fmt.Errorf("mongoPostRepository.Create: %w", err)
	}
	return r.populateOne(ctx, doc)
}

func (r *mongoPostRepository) Update(ctx context.Context, post models.Post) (models.Post, error) {
	oid, err := objectID(post.ID)
	if err != nil {
		return models.Post{}, err
	}
	return r.findOneAndUpdate(ctx, oid, bson.M{"$set": bson.M{
		"title":      post.Title,
		"text":       post.Text,
		"tags":       tagsOrEmpty(post.Tags),
		"image_url":  post.ImageURL,
		"updated_at": time.Now().UTC(),
	}})
}

func (r *mongoPostRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	result, err := r.posts.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongoPostRepository.Delete: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoPostRepository) RecentTags(ctx context.Context, posts int) ([]string, error) {
	opts := options.Find().
		SetSort(newestSort).
		SetLimit(int64(posts)).
		SetProjection(bson.M{"tags": 1})
	cursor, err := r.posts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongoPostRepository.RecentTags: %w", err)
	}
	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongoPostRepository.RecentTags: %w", err)
	}

	tags := []string{}
	for _, doc := range docs {
		tags = append(tags, doc.Tags...)
	}
	return tags, nil
}

func (r *mongoPostRepository) findOneAndUpdate(ctx context.Context, oid primitive.ObjectID, update bson.M) (models.Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc postDocument
	if err := r.posts.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Post{}, ErrNotFound
		}
		return models.Post{}, fmt.Errorf("mongoPostRepository.findOneAndUpdate: %w", err)
	}
	return r.populateOne(ctx, doc)
}

func (r *mongoPostRepository) populateOne(ctx context.Context, doc postDocument) (models.Post, error) {
	posts, err := r.populate(ctx, []postDocument{doc})
	if err != nil {
		return models.Post{}, err
	}
	return posts[0], nil
}

// populate attaches author public fields with one $in lookup per batch.
func (r *mongoPostRepository) populate(ctx context.Context, docs []postDocument) ([]models.Post, error) {
	posts := make([]models.Post, 0, len(docs))
	if len(docs) == 0 {
		return posts, nil
	}

	ids := make([]primitive.ObjectID, 0, len(docs))
	seen := make(map[primitive.ObjectID]bool, len(docs))
	for _, doc := range docs {
		if !seen[doc.AuthorID] {
			seen[doc.AuthorID] = true
			ids = append(ids, doc.AuthorID)
		}
	}

	cursor, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("mongoPostRepository.populate: %w", err)
	}
	var users []userDocument
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("mongoPostRepository.populate: %w", err)
	}
	authors := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		authors[u.ID] = u.toModel().Public()
	}

	for _, doc := range docs {
		post := doc.toModel()
		if author, ok := authors[doc.AuthorID]; ok {
			post.Author = &author
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func tagsOrEmpty(tags models.Tags) []string {
	if tags == nil {
		return []string{}
	}
	return []string(tags)
}
