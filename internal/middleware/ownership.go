package middleware

import (
    "context"
    "errors"
    "log"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/repository"
)

// OwnerLookup resolves the user owning a resource.  It returns
// repository.ErrNotFound for missing or deleted resources.
type OwnerLookup interface {
    OwnerOf(ctx context.Context, id string) (string, error)
}

// RequireOwner lets the request through only when the resource named by the
// path parameter param belongs to the caller.  Missing resources give 404,
// someone else's give 403.  The cart services rely on this gate and do not
// check ownership themselves.
func RequireOwner(lookup OwnerLookup, param string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            uid := UserID(c)
            if uid == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
            }
            owner, err := lookup.OwnerOf(c.Request().Context(), c.Param(param))
            switch {
            case errors.Is(err, repository.ErrNotFound):
                return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
            case err != nil:
                log.Printf("ownership: lookup %s=%s failed: %v", param, c.Param(param), err)
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
            case owner != uid:
                return c.JSON(http.StatusForbidden, echo.Map{"error": repository.ErrUnauthorized.Error()})
            }
            return next(c)
        }
    }
}
