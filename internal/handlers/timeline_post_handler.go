package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"regexp"
	"strconv"

	"github.com/anonto42/playmaker/backend/internal/middleware"
	"github.com/anonto42/playmaker/backend/internal/models"
	"github.com/anonto42/playmaker/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

const maxPage = 10000

var reactionCategoryPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,29}$`)

// TimelinePostService is the use-case layer behind the timeline post routes
type TimelinePostService interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	FindAll(ctx context.Context, page, limit int) ([]models.Post, int64, error)
	FindByUser(ctx context.Context, userID uint, page, limit int) ([]models.Post, error)
	FindOne(ctx context.Context, id string) (*models.Post, error)
	Update(ctx context.Context, id string, update models.PostUpdate) (*models.Post, error)
	Remove(ctx context.Context, id string) (*models.Post, error)
}

// TimelinePostHandler handles HTTP requests related to timeline posts
type TimelinePostHandler struct {
	service TimelinePostService
}

// NewTimelinePostHandler creates a new TimelinePostHandler
func NewTimelinePostHandler(service TimelinePostService) *TimelinePostHandler {
	return &TimelinePostHandler{service: service}
}

// RegisterTimelinePostRoutes registers timeline post routes
func (h *TimelinePostHandler) RegisterTimelinePostRoutes(g *echo.Group) {
	g.POST("/timeline-posts", h.CreatePost)
	g.GET("/timeline-posts", h.GetPosts) // all posts, or one author's posts with ?user_id=
	g.GET("/timeline-posts/:id", h.GetPost)
	g.PATCH("/timeline-posts/:id", h.UpdatePost)
	g.DELETE("/timeline-posts/:id", h.DeletePost)
	g.POST("/timeline-posts/:id/comments", h.AddComment)
	g.POST("/timeline-posts/:id/reactions/:category", h.AddReaction)
}

// CreatePost creates a new post authored by the authenticated user
func (h *TimelinePostHandler) CreatePost(c echo.Context) error {
	currentUserID := middleware.UserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post, err := h.service.Create(c.Request().Context(), &models.Post{
		UserID:  currentUserID,
		Content: req.Content,
		Media:   req.Media,
	})
	if err != nil {
		return postError(err)
	}
	return c.JSON(http.StatusCreated, post)
}

// GetPosts returns a page of posts, newest first
func (h *TimelinePostHandler) GetPosts(c echo.Context) error {
	page, limit, err := pagination(c, 10)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	if raw := c.QueryParam("user_id"); raw != "" {
		userID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
		}
		posts, err := h.service.FindByUser(ctx, uint(userID), page, limit)
		if err != nil {
			return postError(err)
		}
		return c.JSON(http.StatusOK, posts)
	}

	posts, total, err := h.service.FindAll(ctx, page, limit)
	if err != nil {
		return postError(err)
	}
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"posts": posts},
		"meta": echo.Map{
			"currentPage":     page,
			"totalPages":      totalPages,
			"totalItems":      total,
			"itemsPerPage":    limit,
			"hasNextPage":     page < totalPages,
			"hasPreviousPage": page > 1,
		},
	})
}

// GetPost retrieves a post by ID
func (h *TimelinePostHandler) GetPost(c echo.Context) error {
	post, err := h.service.FindOne(c.Request().Context(), c.Param("id"))
	if err != nil {
		return postError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// UpdatePost applies a partial update. The author may change every field; other users may only
// append comments and reactions of their own.
func (h *TimelinePostHandler) UpdatePost(c echo.Context) error {
	currentUserID := middleware.UserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("id")

	var update models.PostUpdate
	if err := c.Bind(&update); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&update); err != nil {
		return err
	}

	if !update.IsEmpty() {
		existing, err := h.service.FindOne(c.Request().Context(), postID)
		if err != nil {
			return postError(err)
		}
		if existing.UserID != currentUserID {
			if update.Content != nil || update.Media != nil {
				return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to edit this post")
			}
			if !appendsOnlyComments(existing.Comments, update.Comments, currentUserID) ||
				!appendsOnlyReactions(existing.Reactions, update.Reactions, currentUserID) {
				return echo.NewHTTPError(http.StatusForbidden, "You may only add your own comments and reactions")
			}
		}
	}

	post, err := h.service.Update(c.Request().Context(), postID, update)
	if err != nil {
		return postError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// DeletePost deletes a post owned by the authenticated user
func (h *TimelinePostHandler) DeletePost(c echo.Context) error {
	currentUserID := middleware.UserIDFromContext(c)
	postID := c.Param("id")

	existing, err := h.service.FindOne(c.Request().Context(), postID)
	if err != nil {
		return postError(err)
	}
	if existing.UserID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this post")
	}

	removed, err := h.service.Remove(c.Request().Context(), postID)
	if err != nil {
		return postError(err)
	}
	return c.JSON(http.StatusOK, removed)
}

// AddComment appends a comment by the authenticated user and runs the regular update path
func (h *TimelinePostHandler) AddComment(c echo.Context) error {
	currentUserID := middleware.UserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("id")

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	existing, err := h.service.FindOne(c.Request().Context(), postID)
	if err != nil {
		return postError(err)
	}
	comments := make([]models.Comment, len(existing.Comments), len(existing.Comments)+1)
	copy(comments, existing.Comments)
	comments = append(comments, models.Comment{UserID: currentUserID, Content: req.Content})

	post, err := h.service.Update(c.Request().Context(), postID, models.PostUpdate{Comments: comments})
	if err != nil {
		return postError(err)
	}
	return c.JSON(http.StatusCreated, post)
}

// AddReaction appends the authenticated user to a reaction category
func (h *TimelinePostHandler) AddReaction(c echo.Context) error {
	currentUserID := middleware.UserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("id")
	category := c.Param("category")
	if !reactionCategoryPattern.MatchString(category) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid reaction category")
	}

	existing, err := h.service.FindOne(c.Request().Context(), postID)
	if err != nil {
		return postError(err)
	}

	post, err := h.service.Update(c.Request().Context(), postID, models.PostUpdate{
		Reactions: existing.Reactions.With(category, currentUserID),
	})
	if err != nil {
		return postError(err)
	}
	return c.JSON(http.StatusCreated, post)
}

func postError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrInvalidPostID):
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	case errors.Is(err, repositories.ErrPostNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// appendsOnlyComments reports whether next is prior followed by comments written by userID.
// A nil next leaves the comments untouched.
func appendsOnlyComments(prior, next []models.Comment, userID uint) bool {
	if next == nil {
		return true
	}
	if len(next) < len(prior) {
		return false
	}
	for i := range prior {
		if next[i].UserID != prior[i].UserID || next[i].Content != prior[i].Content {
			return false
		}
	}
	for _, comment := range next[len(prior):] {
		if comment.UserID != userID {
			return false
		}
	}
	return true
}

// appendsOnlyReactions reports whether next keeps every stored category, in order, with its stored
// user ids as a prefix, and only adds userID after them or in new categories at the end.
func appendsOnlyReactions(prior, next models.Reactions, userID uint) bool {
	if next == nil {
		return true
	}
	if len(next) < len(prior) {
		return false
	}
	for i, bucket := range next {
		added := bucket.UserIDs
		if i < len(prior) {
			stored := prior[i].UserIDs
			if bucket.Category != prior[i].Category || len(bucket.UserIDs) < len(stored) {
				return false
			}
			for j := range stored {
				if bucket.UserIDs[j] != stored[j] {
					return false
				}
			}
			added = bucket.UserIDs[len(stored):]
		}
		for _, id := range added {
			if id != userID {
				return false
			}
		}
	}
	return true
}

func pagination(c echo.Context, defaultLimit int) (int, int, error) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "Page out of range")
	}
	if limit < 1 || limit > 50 {
		limit = defaultLimit
	}
	return page, limit, nil
}
