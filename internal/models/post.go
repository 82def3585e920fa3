package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a timeline post stored in MongoDB
type Post struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID    uint               `json:"userId" bson:"user_id"` // ID of the author (PostgreSQL users.id)
	Content   string             `json:"content" bson:"content"`
	Media     []string           `json:"media" bson:"media"`
	Comments  []Comment          `json:"comments" bson:"comments"`
	Reactions Reactions          `json:"reactions" bson:"reactions"`
	PostDate  time.Time          `json:"postDate" bson:"post_date"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updated_at"`
	Revision  int                `json:"__v" bson:"revision"`
}

// Comment is a comment embedded in a timeline post
type Comment struct {
	UserID      uint      `json:"userId" bson:"user_id" validate:"required"`
	Content     string    `json:"content" bson:"content" validate:"required,min=1,max=500"`
	CommentDate time.Time `json:"commentDate" bson:"comment_date"`
}

// CreatePostRequest defines the request body for creating a new timeline post
type CreatePostRequest struct {
	Content string   `json:"content" validate:"required,min=1,max=2000"`
	Media   []string `json:"media,omitempty" validate:"omitempty,dive,url"`
}

// PostUpdate is a partial update of a timeline post. Nil fields are left untouched.
type PostUpdate struct {
	Content   *string   `json:"content,omitempty" validate:"omitempty,min=1,max=2000"`
	Media     []string  `json:"media,omitempty" validate:"omitempty,dive,url"`
	Comments  []Comment `json:"comments,omitempty" validate:"omitempty,dive"`
	Reactions Reactions `json:"reactions,omitempty"`
}

// CreateCommentRequest defines the request body for appending a comment to a post
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}

// Apply returns a copy of the post with the fields present in the update overriding its own.
// The receiver is not modified.
func (p Post) Apply(update PostUpdate) Post {
	merged := p
	if update.Content != nil {
		merged.Content = *update.Content
	}
	if update.Media != nil {
		merged.Media = update.Media
	}
	if update.Comments != nil {
		merged.Comments = update.Comments
	}
	if update.Reactions != nil {
		merged.Reactions = update.Reactions
	}
	return merged
}

// IsEmpty reports whether the update carries no fields at all
func (u PostUpdate) IsEmpty() bool {
	return u.Content == nil && u.Media == nil && u.Comments == nil && u.Reactions == nil
}
