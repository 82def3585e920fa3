package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/playmaker/backend/internal/metrics"
	"github.com/anonto42/playmaker/backend/internal/models"
	"github.com/anonto42/playmaker/backend/internal/repositories"
	"go.uber.org/zap"
)

// PostStore persists timeline post documents
type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetPostsByUserID(ctx context.Context, userID uint, skip, limit int64) ([]models.Post, error)
	GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, error)
	CountPosts(ctx context.Context) (int64, error)
	ReplacePost(ctx context.Context, id string, update models.PostUpdate) (*models.Post, error)
	DeletePost(ctx context.Context, id string) (*models.Post, error)
}

// UserLookup resolves a user id to a profile. A missing user is (nil, nil).
type UserLookup interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// NotificationRecorder durably stores notifications
type NotificationRecorder interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
}

// Broadcaster pushes realtime events. Calls never block on delivery and report no errors.
type Broadcaster interface {
	BroadcastNewPost(post *models.Post)
	NotifyUser(recipientID uint, event models.NotificationEvent)
	BroadcastPostUpdated(postID string, post *models.Post)
}

// TimelinePostDeps lists the collaborators of TimelinePostService
type TimelinePostDeps struct {
	Posts         PostStore
	Users         UserLookup
	Notifications NotificationRecorder
	Broadcaster   Broadcaster
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
	Clock         func() time.Time
}

// TimelinePostService implements the timeline post use cases and the notifications they trigger
type TimelinePostService struct {
	posts         PostStore
	users         UserLookup
	notifications NotificationRecorder
	broadcaster   Broadcaster
	logger        *zap.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

// NewTimelinePostService wires the service
func NewTimelinePostService(deps TimelinePostDeps) (*TimelinePostService, error) {
	if deps.Posts == nil || deps.Users == nil || deps.Notifications == nil || deps.Broadcaster == nil {
		return nil, fmt.Errorf("timeline posts: posts, users, notifications and broadcaster are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TimelinePostService{
		posts:         deps.Posts,
		users:         deps.Users,
		notifications: deps.Notifications,
		broadcaster:   deps.Broadcaster,
		logger:        logger,
		metrics:       deps.Metrics,
		now:           clock,
	}, nil
}

// Create persists a new post, records a global POST notification and broadcasts the post.
// The notification is best effort and does not undo the post.
func (s *TimelinePostService) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	notification := &models.Notification{
		Type:     models.NotificationTypePost,
		Message:  "New post",
		Date:     s.now(),
		Link:     postLink(post.ID.Hex()),
		IsGlobal: true,
	}
	if err := s.record(ctx, notification); err != nil {
		s.logger.Error("failed to record post notification",
			zap.String("post_id", post.ID.Hex()), zap.Error(err))
	}

	s.broadcaster.BroadcastNewPost(post)
	return post, nil
}

// FindAll returns a page of posts, newest first, and the total count
func (s *TimelinePostService) FindAll(ctx context.Context, page, limit int) ([]models.Post, int64, error) {
	skip := pageOffset(page, limit)
	posts, err := s.posts.GetAllPosts(ctx, skip, int64(limit))
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	total, err := s.posts.CountPosts(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}
	return posts, total, nil
}

// FindByUser returns a page of one author's posts, newest first
func (s *TimelinePostService) FindByUser(ctx context.Context, userID uint, page, limit int) ([]models.Post, error) {
	skip := pageOffset(page, limit)
	posts, err := s.posts.GetPostsByUserID(ctx, userID, skip, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list posts of user %d: %w", userID, err)
	}
	return posts, nil
}

// FindOne returns a post by id
func (s *TimelinePostService) FindOne(ctx context.Context, id string) (*models.Post, error) {
	if _, err := repositories.ParsePostID(id); err != nil {
		return nil, err
	}
	return s.posts.GetPostByID(ctx, id)
}

// Remove deletes a post and returns what was stored
func (s *TimelinePostService) Remove(ctx context.Context, id string) (*models.Post, error) {
	if _, err := repositories.ParsePostID(id); err != nil {
		return nil, err
	}
	return s.posts.DeletePost(ctx, id)
}

// Update applies a partial update to a post. Before persisting it compares the stored post with
// the merged state: when the comments grew, the last comment notifies the post author; when a
// reaction category grew, the first such category (in category order) notifies the author.
// Only lengths are compared, so edits, removals and several appends in one call are not itemised.
//
// A nil post with a nil error means the post vanished between the read and the write.
func (s *TimelinePostService) Update(ctx context.Context, id string, update models.PostUpdate) (*models.Post, error) {
	if _, err := repositories.ParsePostID(id); err != nil {
		return nil, err
	}

	prior, err := s.posts.GetPostByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.stampComments(prior, &update)
	prospective := prior.Apply(update)

	if len(prospective.Comments) > len(prior.Comments) {
		comment := prospective.Comments[len(prospective.Comments)-1]
		if err := s.notifyAuthor(ctx, prior, id, comment.UserID, ""); err != nil {
			return nil, err
		}
	}

	for _, bucket := range prospective.Reactions {
		before := prior.Reactions.Get(bucket.Category)
		if len(bucket.UserIDs) <= len(before) {
			continue
		}
		reactor := bucket.UserIDs[len(bucket.UserIDs)-1]
		if err := s.notifyAuthor(ctx, prior, id, reactor, bucket.Category); err != nil {
			return nil, err
		}
		break
	}

	updated, err := s.posts.ReplacePost(ctx, id, update)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			s.logger.Warn("post disappeared during update", zap.String("post_id", id))
			return nil, nil
		}
		return nil, fmt.Errorf("persist post %s: %w", id, err)
	}

	s.broadcaster.BroadcastPostUpdated(updated.ID.Hex(), updated)
	return updated, nil
}

// notifyAuthor records and pushes a comment notification, or a reaction notification when
// category is set. Self-actions and unknown senders are skipped silently.
func (s *TimelinePostService) notifyAuthor(ctx context.Context, post *models.Post, postID string, senderID uint, category string) error {
	if senderID == post.UserID {
		return nil
	}

	sender, err := s.users.FindByID(ctx, senderID)
	if err != nil {
		return fmt.Errorf("look up user %d: %w", senderID, err)
	}
	if sender == nil {
		s.logger.Debug("skipping notification for unknown user",
			zap.Uint("sender_id", senderID), zap.String("post_id", postID))
		return nil
	}

	notificationType := models.NotificationTypeComment
	eventType := "comment"
	message := fmt.Sprintf("%s commented on your post", sender.Name)
	if category != "" {
		notificationType = models.NotificationTypeReaction
		eventType = "reaction"
		message = fmt.Sprintf("%s reacted to your post!", sender.Name)
	}

	recipientID := post.UserID
	now := s.now()
	notification := &models.Notification{
		Type:        notificationType,
		Message:     message,
		Date:        now,
		Link:        postLink(postID),
		RecipientID: &recipientID,
		SenderID:    &senderID,
	}
	if err := s.record(ctx, notification); err != nil {
		return fmt.Errorf("record %s notification: %w", notificationType, err)
	}

	s.broadcaster.NotifyUser(recipientID, models.NotificationEvent{
		Type:      eventType,
		Message:   message,
		Link:      "/" + postLink(postID),
		Sender:    sender.Profile(),
		Reaction:  category,
		Timestamp: now.UnixMilli(),
	})
	return nil
}

func (s *TimelinePostService) record(ctx context.Context, notification *models.Notification) error {
	if err := s.notifications.CreateNotification(ctx, notification); err != nil {
		return err
	}
	s.metrics.NotificationCreated(string(notification.Type))
	return nil
}

// stampComments dates the comments the update appends when the client left the date empty
func (s *TimelinePostService) stampComments(prior *models.Post, update *models.PostUpdate) {
	if len(update.Comments) <= len(prior.Comments) {
		return
	}
	comments := make([]models.Comment, len(update.Comments))
	copy(comments, update.Comments)
	now := s.now()
	for i := len(prior.Comments); i < len(comments); i++ {
		if comments[i].CommentDate.IsZero() {
			comments[i].CommentDate = now
		}
	}
	update.Comments = comments
}

// pageOffset converts a 1-based page into a document offset, treating pages below 1 as the first
func pageOffset(page, limit int) int64 {
	if page < 1 || limit < 1 {
		return 0
	}
	return int64(page-1) * int64(limit)
}

func postLink(postID string) string {
	return "timeline-posts/" + postID
}
