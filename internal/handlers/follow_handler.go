package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opengram/backend/internal/repositories"
	"github.com/opengram/backend/internal/services"
)

// FollowHandler handles HTTP requests for the follow graph
type FollowHandler struct {
	followService    *services.FollowService
	followRepository repositories.FollowRepository
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followService *services.FollowService, followRepo repositories.FollowRepository) *FollowHandler {
	return &FollowHandler{followService: followService, followRepository: followRepo}
}

// RegisterFollowRoutes registers follow graph routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/follow/:username", h.Follow)
	g.DELETE("/follow/:username", h.Unfollow)
	g.POST("/follow-requests/:username/accept", h.AcceptRequest)
	g.POST("/follow-requests/:username/decline", h.DeclineRequest)
	g.GET("/follow-requests", h.ListRequests)
	g.POST("/block/:username", h.Block)
	g.DELETE("/block/:username", h.Unblock)
	g.POST("/close-friends/:username", h.AddCloseFriend)
	g.DELETE("/close-friends/:username", h.RemoveCloseFriend)
	g.GET("/followers", h.ListFollowers)
	g.GET("/followings", h.ListFollowings)
}

// Follow follows a public account or requests a private one. The response
// echoes the resulting edge so the client can tell accepted from pending.
func (h *FollowHandler) Follow(c echo.Context) error {
	userName, err := currentUserName(c)
	if err != nil {
		return err
	}
	edge, err := h.followService.Follow(c.Request().Context(), userName, c.Param("username"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, edge)
}

// Unfollow withdraws a follow or pending request
func (h *FollowHandler) Unfollow(c echo.Context) error {
	userName, err := currentUserName(c)
	if err != nil {
		return err
	}
	if err := h.followService.Unfollow(c.Request().Context(), userName, c.Param("username")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AcceptRequest approves a pending follow request from :username
func (h *FollowHandler) AcceptRequest(c echo.Context) error {
	userName, err := currentUserName(c)
	if err != nil {
		return err
	}
	if err := h.followService.Accept(c.Request().Context(), c.Param("username"), userName); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeclineRequest rejects a pending follow request from :username
func (h *FollowHandler) DeclineRequest(c echo.Context) error {
	userName, err := currentUserName(c)
	if err != nil {
		return err
	}
	if err := h.followService.Decline(c.Request().Context(), c.Param("username"), userName); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListRequests lists pending follow requests addressed to the caller
func (h *FollowHandler) ListRequests(c echo.Context) error {
	userName, err := currentUserName(c)
	if err != nil {
		return err
	}
	pending, err := h.followRepository.ListPendingRequests(c.Request().Context(), userName)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pending)
}

// Block blocks :username
func (h *FollowHandler) Block(c echo.Context) error {
	userName, err := currentUserName(c)
	if err != nil {
		return err
	}
	if err := h.followService.Block(c.Request().Context(), userName, c.Param("username")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Unblock lifts the caller's block on :username
func (h *FollowHandler) Unblock(c echo.Context) error {
	userName, err := currentUserName(c)
	if err != nil {
		return err
	}
	if err := h.followService.Unblock(c.Request().Context(), userName, c.Param("username")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AddCloseFriend flags an accepted following as a close friend
func (h *FollowHandler) AddCloseFriend(c echo.Context) error {
	userName, err := currentUserName(c)
	if err != nil {
		return err
	}
	if err := h.followService.AddCloseFriend(c.Request().Context(), userName, c.Param("username")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveCloseFriend clears the close friend flag
func (h *FollowHandler) RemoveCloseFriend(c echo.Context) error {
	userName, err := currentUserName(c)
	if err != nil {
		return err
	}
	if err := h.followService.RemoveCloseFriend(c.Request().Context(), userName, c.Param("username")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListFollowers lists the handles actively following the caller
func (h *FollowHandler) ListFollowers(c echo.Context) error {
	userName, err := currentUserName(c)
	if err != nil {
		return err
	}
	followers, err := h.followRepository.GetAcceptedFollowers(c.Request().Context(), userName)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"followers": followers})
}

// ListFollowings lists the handles the caller actively follows
func (h *FollowHandler) ListFollowings(c echo.Context) error {
	userName, err := currentUserName(c)
	if err != nil {
		return err
	}
	followings, err := h.followRepository.GetAcceptedFollowings(c.Request().Context(), userName)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"followings": followings})
}
