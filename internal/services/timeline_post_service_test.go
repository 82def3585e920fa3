package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anonto42/playmaker/backend/internal/models"
	"github.com/anonto42/playmaker/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var fixedNow = time.Date(2024, 6, 1, 18, 30, 0, 0, time.UTC)

type fakePostStore struct {
	posts        map[string]*models.Post
	getCalls     int
	replaceCalls int
	createErr    error
	vanish       bool
}

func newFakePostStore(posts ...*models.Post) *fakePostStore {
	store := &fakePostStore{posts: map[string]*models.Post{}}
	for _, post := range posts {
		store.posts[post.ID.Hex()] = post
	}
	return store
}

func (f *fakePostStore) CreatePost(_ context.Context, post *models.Post) error {
	if f.createErr != nil {
		return f.createErr
	}
	post.ID = primitive.NewObjectID()
	post.PostDate = fixedNow
	f.posts[post.ID.Hex()] = post
	return nil
}

func (f *fakePostStore) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	f.getCalls++
	post, ok := f.posts[id]
	if !ok {
		return nil, repositories.ErrPostNotFound
	}
	clone := *post
	return &clone, nil
}

func (f *fakePostStore) GetPostsByUserID(_ context.Context, userID uint, _, _ int64) ([]models.Post, error) {
	var out []models.Post
	for _, post := range f.posts {
		if post.UserID == userID {
			out = append(out, *post)
		}
	}
	return out, nil
}

func (f *fakePostStore) GetAllPosts(context.Context, int64, int64) ([]models.Post, error) {
	var out []models.Post
	for _, post := range f.posts {
		out = append(out, *post)
	}
	return out, nil
}

func (f *fakePostStore) CountPosts(context.Context) (int64, error) {
	return int64(len(f.posts)), nil
}

func (f *fakePostStore) ReplacePost(_ context.Context, id string, update models.PostUpdate) (*models.Post, error) {
	f.replaceCalls++
	post, ok := f.posts[id]
	if !ok || f.vanish {
		return nil, repositories.ErrPostNotFound
	}
	merged := post.Apply(update)
	merged.Revision++
	f.posts[id] = &merged
	clone := merged
	return &clone, nil
}

func (f *fakePostStore) DeletePost(_ context.Context, id string) (*models.Post, error) {
	post, ok := f.posts[id]
	if !ok {
		return nil, repositories.ErrPostNotFound
	}
	delete(f.posts, id)
	return post, nil
}

type fakeUsers struct {
	users map[uint]*models.User
	err   error
	calls []uint
}

func (f *fakeUsers) FindByID(_ context.Context, id uint) (*models.User, error) {
	f.calls = append(f.calls, id)
	if f.err != nil {
		return nil, f.err
	}
	return f.users[id], nil
}

type fakeRecorder struct {
	recorded []*models.Notification
	err      error
}

func (f *fakeRecorder) CreateNotification(_ context.Context, notification *models.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, notification)
	return nil
}

type targetedEvent struct {
	recipientID uint
	event       models.NotificationEvent
}

type fakeBroadcaster struct {
	newPosts []*models.Post
	targeted []targetedEvent
	updated  []models.PostUpdatedEvent
}

func (f *fakeBroadcaster) BroadcastNewPost(post *models.Post) {
	f.newPosts = append(f.newPosts, post)
}

func (f *fakeBroadcaster) NotifyUser(recipientID uint, event models.NotificationEvent) {
	f.targeted = append(f.targeted, targetedEvent{recipientID: recipientID, event: event})
}

func (f *fakeBroadcaster) BroadcastPostUpdated(postID string, post *models.Post) {
	f.updated = append(f.updated, models.PostUpdatedEvent{PostID: postID, UpdatedPost: post})
}

type fixture struct {
	service     *TimelinePostService
	store       *fakePostStore
	users       *fakeUsers
	recorder    *fakeRecorder
	broadcaster *fakeBroadcaster
	logs        *observer.ObservedLogs
	post        *models.Post
}

// newFixture stores post P1 authored by user 7 with no comments and an empty "like" category.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	post := &models.Post{
		ID:        primitive.NewObjectID(),
		UserID:    7,
		Content:   "match day",
		Comments:  []models.Comment{},
		Reactions: models.Reactions{{Category: "like", UserIDs: []uint{}}},
	}
	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{
		store: newFakePostStore(post),
		users: &fakeUsers{users: map[uint]*models.User{
			5: {ID: 5, Name: "Caio", ProfilePhoto: "https://example.com/caio.png"},
			7: {ID: 7, Name: "Ana", ProfilePhoto: "https://example.com/ana.png"},
			9: {ID: 9, Name: "Bia", ProfilePhoto: "https://example.com/bia.png"},
		}},
		recorder:    &fakeRecorder{},
		broadcaster: &fakeBroadcaster{},
		logs:        logs,
		post:        post,
	}
	service, err := NewTimelinePostService(TimelinePostDeps{
		Posts:         f.store,
		Users:         f.users,
		Notifications: f.recorder,
		Broadcaster:   f.broadcaster,
		Logger:        zap.New(core),
		Clock:         func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	f.service = service
	return f
}

func TestNewTimelinePostServiceRequiresCollaborators(t *testing.T) {
	_, err := NewTimelinePostService(TimelinePostDeps{})
	assert.Error(t, err)
}

func TestUpdateNotifiesAuthorAboutNewComment(t *testing.T) {
	f := newFixture(t)
	id := f.post.ID.Hex()

	updated, err := f.service.Update(context.Background(), id, models.PostUpdate{
		Comments: []models.Comment{{UserID: 9, Content: "hi"}},
	})
	require.NoError(t, err)

	require.Len(t, f.recorder.recorded, 1)
	notification := f.recorder.recorded[0]
	assert.Equal(t, models.NotificationTypeComment, notification.Type)
	assert.Equal(t, uint(7), *notification.RecipientID)
	assert.Equal(t, uint(9), *notification.SenderID)
	assert.Equal(t, "Bia commented on your post", notification.Message)
	assert.Equal(t, "timeline-posts/"+id, notification.Link)
	assert.False(t, notification.IsGlobal)

	require.Len(t, f.broadcaster.targeted, 1)
	targeted := f.broadcaster.targeted[0]
	assert.Equal(t, uint(7), targeted.recipientID)
	assert.Equal(t, "comment", targeted.event.Type)
	assert.Equal(t, "/timeline-posts/"+id, targeted.event.Link)
	assert.Equal(t, models.UserProfile{ID: 9, Name: "Bia", Avatar: "https://example.com/bia.png"}, targeted.event.Sender)
	assert.Empty(t, targeted.event.Reaction)
	assert.Equal(t, fixedNow.UnixMilli(), targeted.event.Timestamp)

	require.NotNil(t, updated)
	require.Len(t, updated.Comments, 1)
	assert.Equal(t, "hi", updated.Comments[0].Content)
	assert.Equal(t, fixedNow, updated.Comments[0].CommentDate)

	require.Len(t, f.broadcaster.updated, 1)
	assert.Equal(t, id, f.broadcaster.updated[0].PostID)
	assert.Same(t, updated, f.broadcaster.updated[0].UpdatedPost)
}

func TestUpdateNotifiesAuthorAboutNewReaction(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Update(context.Background(), f.post.ID.Hex(), models.PostUpdate{
		Reactions: models.Reactions{{Category: "like", UserIDs: []uint{9}}},
	})
	require.NoError(t, err)

	require.Len(t, f.recorder.recorded, 1)
	notification := f.recorder.recorded[0]
	assert.Equal(t, models.NotificationTypeReaction, notification.Type)
	assert.Equal(t, uint(7), *notification.RecipientID)
	assert.Equal(t, uint(9), *notification.SenderID)
	assert.Equal(t, "Bia reacted to your post!", notification.Message)

	require.Len(t, f.broadcaster.targeted, 1)
	assert.Equal(t, "reaction", f.broadcaster.targeted[0].event.Type)
	assert.Equal(t, "like", f.broadcaster.targeted[0].event.Reaction)
}

func TestUpdateSkipsSelfComment(t *testing.T) {
	f := newFixture(t)

	updated, err := f.service.Update(context.Background(), f.post.ID.Hex(), models.PostUpdate{
		Comments: []models.Comment{{UserID: 7, Content: "thanks all"}},
	})
	require.NoError(t, err)

	assert.Empty(t, f.recorder.recorded)
	assert.Empty(t, f.broadcaster.targeted)
	assert.Empty(t, f.users.calls, "author lookup must be skipped for self-comments")
	require.NotNil(t, updated)
	assert.Len(t, updated.Comments, 1)
	assert.Len(t, f.broadcaster.updated, 1)
}

func TestUpdateOnlyInspectsLastAppendedComment(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Update(context.Background(), f.post.ID.Hex(), models.PostUpdate{
		Comments: []models.Comment{{UserID: 9, Content: "first"}, {UserID: 5, Content: "second"}},
	})
	require.NoError(t, err)

	require.Len(t, f.recorder.recorded, 1)
	assert.Equal(t, uint(5), *f.recorder.recorded[0].SenderID)
}

func TestUpdateReportsOnlyEarliestGrowingReactionCategory(t *testing.T) {
	f := newFixture(t)
	f.post.Reactions = models.Reactions{
		{Category: "like", UserIDs: []uint{}},
		{Category: "love", UserIDs: []uint{}},
	}

	_, err := f.service.Update(context.Background(), f.post.ID.Hex(), models.PostUpdate{
		Reactions: models.Reactions{
			{Category: "like", UserIDs: []uint{9}},
			{Category: "love", UserIDs: []uint{5}},
		},
	})
	require.NoError(t, err)

	require.Len(t, f.recorder.recorded, 1)
	assert.Equal(t, uint(9), *f.recorder.recorded[0].SenderID)
	require.Len(t, f.broadcaster.targeted, 1)
	assert.Equal(t, "like", f.broadcaster.targeted[0].event.Reaction)
}

func TestUpdateFollowsCategoryOrderOfTheUpdate(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Update(context.Background(), f.post.ID.Hex(), models.PostUpdate{
		Reactions: models.Reactions{
			{Category: "wow", UserIDs: []uint{5}},
			{Category: "like", UserIDs: []uint{9}},
		},
	})
	require.NoError(t, err)

	require.Len(t, f.recorder.recorded, 1)
	assert.Equal(t, uint(5), *f.recorder.recorded[0].SenderID)
	assert.Equal(t, "wow", f.broadcaster.targeted[0].event.Reaction)
}

func TestUpdateStopsAtFirstGrowingCategoryEvenForSelfReaction(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Update(context.Background(), f.post.ID.Hex(), models.PostUpdate{
		Reactions: models.Reactions{
			{Category: "like", UserIDs: []uint{7}},
			{Category: "love", UserIDs: []uint{9}},
		},
	})
	require.NoError(t, err)

	assert.Empty(t, f.recorder.recorded)
	assert.Empty(t, f.broadcaster.targeted)
}

func TestUpdateNotifiesCommentAndReactionInOneCall(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Update(context.Background(), f.post.ID.Hex(), models.PostUpdate{
		Comments:  []models.Comment{{UserID: 9, Content: "golaço"}},
		Reactions: models.Reactions{{Category: "like", UserIDs: []uint{5}}},
	})
	require.NoError(t, err)

	require.Len(t, f.recorder.recorded, 2)
	assert.Equal(t, models.NotificationTypeComment, f.recorder.recorded[0].Type)
	assert.Equal(t, models.NotificationTypeReaction, f.recorder.recorded[1].Type)
}

func TestUpdateRepeatedReactionNotifiesAgain(t *testing.T) {
	f := newFixture(t)
	f.post.Reactions = models.Reactions{{Category: "like", UserIDs: []uint{9}}}

	_, err := f.service.Update(context.Background(), f.post.ID.Hex(), models.PostUpdate{
		Reactions: f.post.Reactions.With("like", 9),
	})
	require.NoError(t, err)

	assert.Len(t, f.recorder.recorded, 1)
}

func TestUpdateSkipsUnknownSender(t *testing.T) {
	f := newFixture(t)

	updated, err := f.service.Update(context.Background(), f.post.ID.Hex(), models.PostUpdate{
		Comments: []models.Comment{{UserID: 404, Content: "who am I"}},
	})
	require.NoError(t, err)

	assert.Empty(t, f.recorder.recorded)
	assert.Empty(t, f.broadcaster.targeted)
	require.NotNil(t, updated)
	assert.Equal(t, 1, f.store.replaceCalls)
}

func TestUpdateMissingPostFailsWithoutWriting(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Update(context.Background(), primitive.NewObjectID().Hex(), models.PostUpdate{
		Comments: []models.Comment{{UserID: 9, Content: "hi"}},
	})

	assert.ErrorIs(t, err, repositories.ErrPostNotFound)
	assert.Zero(t, f.store.replaceCalls)
	assert.Empty(t, f.recorder.recorded)
	assert.Empty(t, f.broadcaster.updated)
}

func TestUpdateRejectsMalformedIDBeforeLookup(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Update(context.Background(), "P1", models.PostUpdate{})

	assert.ErrorIs(t, err, repositories.ErrInvalidPostID)
	assert.Zero(t, f.store.getCalls)
	assert.Zero(t, f.store.replaceCalls)
}

func TestUpdateWithCurrentStateIsQuiet(t *testing.T) {
	f := newFixture(t)
	f.post.Comments = []models.Comment{{UserID: 9, Content: "hi", CommentDate: fixedNow}}
	f.post.Reactions = models.Reactions{{Category: "like", UserIDs: []uint{9, 5}}}
	content := f.post.Content

	updated, err := f.service.Update(context.Background(), f.post.ID.Hex(), models.PostUpdate{
		Content:   &content,
		Comments:  f.post.Comments,
		Reactions: f.post.Reactions.Clone(),
	})
	require.NoError(t, err)

	assert.Empty(t, f.recorder.recorded)
	assert.Empty(t, f.broadcaster.targeted)
	assert.Equal(t, f.post.Comments, updated.Comments)
	assert.Equal(t, f.post.Reactions, updated.Reactions)
	assert.Equal(t, f.post.Content, updated.Content)
}

func TestUpdateAbortsWhenUserLookupFails(t *testing.T) {
	f := newFixture(t)
	f.users.err = errors.New("connection refused")

	_, err := f.service.Update(context.Background(), f.post.ID.Hex(), models.PostUpdate{
		Comments: []models.Comment{{UserID: 9, Content: "hi"}},
	})

	assert.Error(t, err)
	assert.Zero(t, f.store.replaceCalls)
}

func TestUpdateAbortsWhenRecordingFails(t *testing.T) {
	f := newFixture(t)
	f.recorder.err = errors.New("disk full")

	_, err := f.service.Update(context.Background(), f.post.ID.Hex(), models.PostUpdate{
		Reactions: models.Reactions{{Category: "like", UserIDs: []uint{9}}},
	})

	assert.ErrorIs(t, err, f.recorder.err)
	assert.Empty(t, f.broadcaster.targeted)
	assert.Zero(t, f.store.replaceCalls)
}

func TestUpdateVanishedPostReturnsEmptyResult(t *testing.T) {
	f := newFixture(t)
	f.store.vanish = true

	updated, err := f.service.Update(context.Background(), f.post.ID.Hex(), models.PostUpdate{})

	require.NoError(t, err)
	assert.Nil(t, updated)
	assert.Empty(t, f.broadcaster.updated)
	entries := f.logs.FilterMessage("post disappeared during update").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestCreateRecordsGlobalNotificationAndBroadcasts(t *testing.T) {
	f := newFixture(t)

	post, err := f.service.Create(context.Background(), &models.Post{UserID: 7, Content: "new kit"})
	require.NoError(t, err)

	require.Len(t, f.recorder.recorded, 1)
	notification := f.recorder.recorded[0]
	assert.Equal(t, models.NotificationTypePost, notification.Type)
	assert.True(t, notification.IsGlobal)
	assert.Nil(t, notification.RecipientID)
	assert.Equal(t, "timeline-posts/"+post.ID.Hex(), notification.Link)

	require.Len(t, f.broadcaster.newPosts, 1)
	assert.Same(t, post, f.broadcaster.newPosts[0])
}

func TestCreateKeepsPostWhenNotificationFails(t *testing.T) {
	f := newFixture(t)
	f.recorder.err = errors.New("postgres down")

	post, err := f.service.Create(context.Background(), &models.Post{UserID: 7, Content: "new kit"})

	require.NoError(t, err)
	assert.Contains(t, f.store.posts, post.ID.Hex())
	assert.Len(t, f.broadcaster.newPosts, 1)
	assert.Equal(t, 1, f.logs.FilterMessage("failed to record post notification").Len())
}

func TestCreateSurfacesStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.store.createErr = errors.New("mongo down")

	_, err := f.service.Create(context.Background(), &models.Post{UserID: 7})

	assert.ErrorIs(t, err, f.store.createErr)
	assert.Empty(t, f.recorder.recorded)
	assert.Empty(t, f.broadcaster.newPosts)
}

func TestFindOneAndRemoveValidateIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.FindOne(ctx, "zzz")
	assert.ErrorIs(t, err, repositories.ErrInvalidPostID)
	_, err = f.service.Remove(ctx, "zzz")
	assert.ErrorIs(t, err, repositories.ErrInvalidPostID)

	removed, err := f.service.Remove(ctx, f.post.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, f.post.ID, removed.ID)
	_, err = f.service.FindOne(ctx, f.post.ID.Hex())
	assert.ErrorIs(t, err, repositories.ErrPostNotFound)
}

func TestPageOffset(t *testing.T) {
	assert.Equal(t, int64(0), pageOffset(1, 10))
	assert.Equal(t, int64(20), pageOffset(3, 10))
	assert.Equal(t, int64(0), pageOffset(0, 10))
	assert.Equal(t, int64(0), pageOffset(-4, 10))
	assert.Equal(t, int64(99990), pageOffset(10000, 10))
	assert.Positive(t, pageOffset(1<<31, 50))
}
