package middleware

// identity.go holds the helpers that read the authenticated user back out
// of the Echo context after JWTAuth has run.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// ctxUserID is the context key set by JWTAuth.
const ctxUserID = "user_id"

// UserID returns the authenticated user's id.  ok is false on routes that
// are not behind JWTAuth.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	return id, ok && id != 0
}

// userKey is the rate-limit identity: the user id, or "anon".
func userKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
