package db

import (
	"context"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	LocationIDKey contextKey = "location_id"
	UserIDKey     contextKey = "user_id"
)

var locationIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// LocationMiddleware resolves the location (tenant) every request operates
// in and stores it on the request context. Resolution order: JWT claim set
// by the auth middleware, X-Location-ID header, location_id query param,
// configured default. Every store and allocator call takes the resolved id
// as an explicit argument; nothing below the handler layer reads it
// implicitly.
func LocationMiddleware(defaultLocation string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			locationID := extractLocationID(c, defaultLocation)

			if locationID == "" || !locationIDPattern.MatchString(locationID) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid location identifier")
			}

			ctx := context.WithValue(c.Request().Context(), LocationIDKey, locationID)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("location_id", locationID)

			return next(c)
		}
	}
}

func extractLocationID(c echo.Context, defaultLocation string) string {
	// 1. JWT claim (set by auth middleware)
	if lid, ok := c.Get("jwt_location_id").(string); ok && lid != "" {
		return lid
	}

	// 2. X-Location-ID header
	if lid := c.Request().Header.Get("X-Location-ID"); lid != "" {
		return lid
	}

	// 3. Query parameter
	if lid := c.QueryParam("location_id"); lid != "" {
		return lid
	}

	return defaultLocation
}

// LocationFromContext retrieves the location ID resolved by LocationMiddleware.
func LocationFromContext(ctx context.Context) string {
	lid, _ := ctx.Value(LocationIDKey).(string)
	return lid
}

// UserFromContext retrieves the acting user ID, when the auth layer set one.
func UserFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}
