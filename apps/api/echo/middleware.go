package echoapi

import (
	"github.com/labstack/echo/v4"
)

// authRequiredMiddleware rejects requests without a live session.
func authRequiredMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if !getContextSession(ctx).IsLoggedIn {
			return errUnauthorized
		}
		return next(ctx)
	}
}

// adminMiddleware rejects non-admin sessions. Missing sessions are still 401.
func adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		sess := getContextSession(ctx)
		if !sess.IsLoggedIn {
			return errUnauthorized
		}
		if !sess.IsAdmin() {
			return errHttpForbidden
		}
		return next(ctx)
	}
}
