package middleware

import "github.com/labstack/echo/v4"

// UserID returns the caller id stored by JWTAuth, or "" for anonymous
// requests.
func UserID(c echo.Context) string {
    if s, ok := c.Get("user_id").(string); ok {
        return s
    }
    return ""
}
