package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/playmaker/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrInvalidPostID is returned when a post id is not a 24 character hex ObjectID
	ErrInvalidPostID = errors.New("invalid post ID format")
	// ErrPostNotFound is returned when no post matches the id
	ErrPostNotFound = errors.New("post not found")
)

// PostRepository defines the interface for timeline post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetPostsByUserID(ctx context.Context, userID uint, skip, limit int64) ([]models.Post, error)
	GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, error)
	CountPosts(ctx context.Context) (int64, error)
	ReplacePost(ctx context.Context, id string, update models.PostUpdate) (*models.Post, error)
	DeletePost(ctx context.Context, id string) (*models.Post, error)
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("timeline_posts"), now: time.Now}
}

// ParsePostID converts a hex post id into an ObjectID
func ParsePostID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidPostID, id)
	}
	return objID, nil
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	now := r.now()
	post.ID = primitive.NewObjectID()
	post.PostDate = now
	post.UpdatedAt = now
	post.Revision = 0
	if post.Media == nil {
		post.Media = []string{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	if post.Reactions == nil {
		post.Reactions = models.Reactions{}
	}
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := ParsePostID(id)
	if err != nil {
		return nil, err
	}

	var post models.Post
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetPostsByUserID retrieves posts by a specific author, newest first
func (r *MongoPostRepository) GetPostsByUserID(ctx context.Context, userID uint, skip, limit int64) ([]models.Post, error) {
	return r.find(ctx, bson.M{"user_id": userID}, skip, limit)
}

// GetAllPosts retrieves all posts with pagination, newest first
func (r *MongoPostRepository) GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, error) {
	return r.find(ctx, bson.D{}, skip, limit)
}

func (r *MongoPostRepository) find(ctx context.Context, filter interface{}, skip, limit int64) ([]models.Post, error) {
	posts := []models.Post{}
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "post_date", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// CountPosts returns the total number of posts
func (r *MongoPostRepository) CountPosts(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.D{})
}

// ReplacePost merges the present fields of the update into the stored document
// and returns the document as it is after the update
func (r *MongoPostRepository) ReplacePost(ctx context.Context, id string, update models.PostUpdate) (*models.Post, error) {
	objID, err := ParsePostID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": r.now()}
	if update.Content != nil {
		set["content"] = *update.Content
	}
	if update.Media != nil {
		set["media"] = update.Media
	}
	if update.Comments != nil {
		set["comments"] = update.Comments
	}
	if update.Reactions != nil {
		set["reactions"] = update.Reactions
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var post models.Post
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, bson.M{
		"$set": set,
		"$inc": bson.M{"revision": 1},
	}, opts).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// DeletePost deletes a post by ID and returns the removed document
func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) (*models.Post, error) {
	objID, err := ParsePostID(id)
	if err != nil {
		return nil, err
	}

	var post models.Post
	err = r.collection.FindOneAndDelete(ctx, bson.M{"_id": objID}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}
