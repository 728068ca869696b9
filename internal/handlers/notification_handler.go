package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opengram/backend/internal/services"
)

// NotificationHandler handles HTTP requests for the notification feed
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// RegisterNotificationRoutes registers notification-related routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.ListNotifications)
	g.GET("/notifications/unread-count", h.UnreadCount)
}

// ListNotifications returns one page of the caller's notifications.
// ?scope=mine selects notifications about the caller's own content,
// ?scope=others the feed-style copies; mine is the default. Returned
// notifications are marked read shortly after the response.
func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	userName, err := currentUserName(c)
	if err != nil {
		return err
	}

	isMine := true
	switch c.QueryParam("scope") {
	case "", "mine":
	case "others":
		isMine = false
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "scope must be 'mine' or 'others'")
	}
	page, limit := pageParams(c)

	views, total, err := h.notificationService.List(c.Request().Context(), userName, isMine, page, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"notifications": views,
		"total":         total,
		"page":          page,
		"limit":         limit,
	})
}

// UnreadCount returns the caller's unread notification count
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	userName, err := currentUserName(c)
	if err != nil {
		return err
	}
	count, err := h.notificationService.UnreadCount(c.Request().Context(), userName)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"unread": count})
}
