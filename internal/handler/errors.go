package handler

import (
    "errors"
    "log"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/repository"
)

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
    switch {
    case errors.Is(err, repository.ErrNotFound):
        return http.StatusNotFound
    case errors.Is(err, repository.ErrConflictState):
        return http.StatusPreconditionFailed
    case errors.Is(err, repository.ErrInventoryExhausted):
        return http.StatusConflict
    case errors.Is(err, repository.ErrUnauthorized):
        return http.StatusForbidden
    case errors.Is(err, repository.ErrInvalidInput):
        return http.StatusBadRequest
    }
    return http.StatusInternalServerError
}

// writeError responds with the status for err.  Domain errors carry their
// message to the client; anything else is logged and hidden.
func writeError(c echo.Context, err error) error {
    status := statusFor(err)
    if status == http.StatusInternalServerError {
        log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
        return c.JSON(status, echo.Map{"error": "internal error"})
    }
    body := echo.Map{"error": err.Error()}
    var ie *repository.InventoryExhaustedError
    if errors.As(err, &ie) {
        body["tickets_detail_id"] = ie.TierID
    }
    return c.JSON(status, body)
}
