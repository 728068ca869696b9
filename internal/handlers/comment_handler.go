package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opengram/backend/internal/models"
	"github.com/opengram/backend/internal/repositories"
	"github.com/opengram/backend/internal/services"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository   repositories.CommentRepository
	postRepository      repositories.PostRepository
	accessPolicy        *services.AccessPolicy
	notificationService *services.NotificationService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository, accessPolicy *services.AccessPolicy, notificationService *services.NotificationService) *CommentHandler {
	return &CommentHandler{
		commentRepository:   commentRepo,
		postRepository:      postRepo,
		accessPolicy:        accessPolicy,
		notificationService: notificationService,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:id/comments", h.CreateComment)
	g.GET("/posts/:id/comments", h.GetComments)
}

// CreateComment records a comment and triggers its notification fan-out.
// Unlike likes, the post owner is notified even about their own comment.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userName, err := currentUserName(c)
	if err != nil {
		return err
	}
	postID := c.Param("id")

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, postID)
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

	comment := &models.Comment{PostID: postID, UserName: userName, Content: req.Content}
	if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.notificationService.OnComment(ctx, userName, comment.ID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, comment)
}

// GetComments lists a post's comments, newest first
func (h *CommentHandler) GetComments(c echo.Context) error {
	userName, err := currentUserName(c)
	if err != nil {
		return err
	}
	postID := c.Param("id")
	page, limit := pageParams(c)

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, postID)
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

	comments, err := h.commentRepository.GetCommentsByPostID(ctx, postID, (page-1)*limit, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"comments": comments, "page": page})
}
