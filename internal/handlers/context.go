package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/opengram/backend/internal/models"
	"github.com/opengram/backend/internal/services"
)

// currentUserName extracts the authenticated handle stored by the JWT
// middleware.
func currentUserName(c echo.Context) (string, error) {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok || claims.UserName == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Missing authentication claims")
	}
	return claims.UserName, nil
}

// httpError maps service sentinel errors onto HTTP statuses. Anything not in
// the taxonomy is a 500.
func httpError(err error) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrSelfFollow):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNoSuchRequest):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrNotAccepted):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrBlocked):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrIntegrity):
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// pageParams reads ?page and ?limit with the usual defaults.
func pageParams(c echo.Context) (page, limit int) {
	page = intQueryParam(c, "page", 1)
	limit = intQueryParam(c, "limit", 10)
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func intQueryParam(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
