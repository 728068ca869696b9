package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opengram/backend/internal/models"
	"github.com/opengram/backend/internal/repositories"
	"github.com/opengram/backend/internal/services"
)

// UserHandler handles HTTP requests related to user profiles
type UserHandler struct {
	userRepository   repositories.UserRepository
	followRepository repositories.FollowRepository
	followService    *services.FollowService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, followRepo repositories.FollowRepository, followService *services.FollowService) *UserHandler {
	return &UserHandler{
		userRepository:   userRepo,
		followRepository: followRepo,
		followService:    followService,
	}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.GET("/users/:username", h.GetUser)
}

// GetProfile retrieves the authenticated user's own profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	userName, err := currentUserName(c)
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByUserName(c.Request().Context(), userName)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
	}
	return c.JSON(http.StatusOK, user)
}

// GetUser retrieves another user's profile together with the relationship
// between the two accounts. A blocked requester sees 404, not the block.
func (h *UserHandler) GetUser(c echo.Context) error {
	requester, err := currentUserName(c)
	if err != nil {
		return err
	}
	target := c.Param("username")

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByUserName(ctx, target)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
	}

	toTarget, err := h.followRepository.GetFollow(ctx, requester, target)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	fromTarget, err := h.followRepository.GetFollow(ctx, target, requester)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if fromTarget != nil && fromTarget.IsBlocked {
		return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
	}

	resp := models.ProfileResponse{
		UserName:     user.UserName,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Bio:          user.Bio,
		ProfileImage: user.ProfileImage,
		IsPrivate:    user.IsPrivate,
		RequestState: models.FollowStateNone,
	}
	if toTarget != nil {
		resp.RequestState = toTarget.RequestState
		resp.IsBlocked = toTarget.IsBlocked
		resp.IsCloseFriend = toTarget.IsCloseFriend
	}

	followerCount, err := h.followRepository.CountFollowers(ctx, target)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	followingCount, err := h.followRepository.CountFollowings(ctx, target)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp.FollowerCount = followerCount
	resp.FollowingCount = followingCount

	return c.JSON(http.StatusOK, resp)
}

// UpdateProfile updates the authenticated user's profile. Flipping the
// account from private to public approves every pending follow request.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userName, err := currentUserName(c)
	if err != nil {
		return err
	}

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByUserName(ctx, userName)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if req.ProfileImage != "" {
		user.ProfileImage = req.ProfileImage
	}

	wentPublic := false
	if req.IsPrivate != nil {
		wentPublic = user.IsPrivate && !*req.IsPrivate
		user.IsPrivate = *req.IsPrivate
	}

	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if wentPublic {
		if err := h.followService.AcceptAllPending(ctx, userName); err != nil {
			return httpError(err)
		}
	}

	return c.JSON(http.StatusOK, user)
}
