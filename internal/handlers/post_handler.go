package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/opengram/backend/internal/models"
	"github.com/opengram/backend/internal/repositories"
	"github.com/opengram/backend/internal/services"
	"github.com/opengram/backend/pkg/logger"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository      repositories.PostRepository
	accessPolicy        *services.AccessPolicy
	notificationService *services.NotificationService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, accessPolicy *services.AccessPolicy, notificationService *services.NotificationService) *PostHandler {
	return &PostHandler{
		postRepository:      postRepo,
		accessPolicy:        accessPolicy,
		notificationService: notificationService,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.GET("/users/:username/posts", h.GetUserPosts)
	g.DELETE("/posts/:id", h.DeletePost)
}

// CreatePost creates a post and notifies every mentioned user. Mentions the
// policy denies are dropped silently, they never fail the post.
func (h *PostHandler) CreatePost(c echo.Context) error {
	userName, err := currentUserName(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	post := &models.Post{
		UserName:  userName,
		Caption:   req.Caption,
		PhotoURLs: req.PhotoURLs,
		Mentions:  req.Mentions,
	}
	if err := h.postRepository.CreatePost(ctx, post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	for _, mentioned := range req.Mentions {
		if err := h.notificationService.OnMention(ctx, userName, mentioned, post.ID.Hex()); err != nil {
			logger.Warn("mention notification failed",
				zap.String("post_id", post.ID.Hex()),
				zap.String("mentioned", mentioned),
				zap.Error(err))
		}
	}

	return c.JSON(http.StatusCreated, post)
}

// GetPost retrieves a post, gated on the owner's visibility toward the
// requester. Hidden and missing posts are indistinguishable.
func (h *PostHandler) GetPost(c echo.Context) error {
	userName, err := currentUserName(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if post == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	visible, err := h.accessPolicy.CanSeePostActivity(ctx, userName, post.UserName)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !visible {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	return c.JSON(http.StatusOK, post)
}

// GetUserPosts lists a user's posts, newest first, gated like GetPost
func (h *PostHandler) GetUserPosts(c echo.Context) error {
	userName, err := currentUserName(c)
	if err != nil {
		return err
	}
	owner := c.Param("username")
	page, limit := pageParams(c)

	ctx := c.Request().Context()
	visible, err := h.accessPolicy.CanSeePostActivity(ctx, userName, owner)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !visible {
		return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
	}

	posts, err := h.postRepository.GetPostsByUserName(ctx, owner, int64((page-1)*limit), int64(limit))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": posts, "page": page})
}

// DeletePost deletes the caller's own post
func (h *PostHandler) DeletePost(c echo.Context) error {
	userName, err := currentUserName(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if post == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	if post.UserName != userName {
		return echo.NewHTTPError(http.StatusForbidden, "Cannot delete another user's post")
	}
	if err := h.postRepository.DeletePost(ctx, c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
