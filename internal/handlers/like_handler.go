package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opengram/backend/internal/models"
	"github.com/opengram/backend/internal/repositories"
	"github.com/opengram/backend/internal/services"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	likeRepository      repositories.LikeRepository
	postRepository      repositories.PostRepository
	accessPolicy        *services.AccessPolicy
	notificationService *services.NotificationService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(likeRepo repositories.LikeRepository, postRepo repositories.PostRepository, accessPolicy *services.AccessPolicy, notificationService *services.NotificationService) *LikeHandler {
	return &LikeHandler{
		likeRepository:      likeRepo,
		postRepository:      postRepo,
		accessPolicy:        accessPolicy,
		notificationService: notificationService,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:id/like", h.LikePost)
	g.DELETE("/posts/:id/like", h.UnlikePost)
	g.GET("/posts/:id/likes/count", h.CountLikes)
}

// LikePost records a like and triggers its notification fan-out
func (h *LikeHandler) LikePost(c echo.Context) error {
	userName, err := currentUserName(c)
	if err != nil {
		return err
	}
	postID := c.Param("id")

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

	liked, err := h.likeRepository.HasUserLikedPost(ctx, postID, userName)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if liked {
		return echo.NewHTTPError(http.StatusConflict, "Post already liked")
	}

	if err := h.likeRepository.CreateLike(ctx, &models.Like{PostID: postID, UserName: userName}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.notificationService.OnLike(ctx, userName, postID, true); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusCreated)
}

// UnlikePost removes a like; the like event and every notification derived
// from it go with it.
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	userName, err := currentUserName(c)
	if err != nil {
		return err
	}
	postID := c.Param("id")

	ctx := c.Request().Context()
	if err := h.likeRepository.DeleteLike(ctx, postID, userName); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Like not found")
	}
	if err := h.notificationService.OnLike(ctx, userName, postID, false); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CountLikes returns the like count for a post
func (h *LikeHandler) CountLikes(c echo.Context) error {
	if _, err := currentUserName(c); err != nil {
		return err
	}
	count, err := h.likeRepository.CountByPostID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"count": count})
}
