package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/cache"
)

// AvailabilityHandler serves cached stock levels.  The numbers are for
// display; checkout re-checks stock in the database.
type AvailabilityHandler struct {
    Cache *cache.Availability
}

// GetTierAvailability handles GET /v1/tiers/:id/availability.
func (h *AvailabilityHandler) GetTierAvailability(c echo.Context) error {
    id := c.Param("id")
    n, err := h.Cache.Get(c.Request().Context(), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"tickets_detail_id": id, "tickets_available": n})
}
