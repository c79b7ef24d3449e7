package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// RegisterRoutes registers routes that do not require authentication:
// the health check and the cached availability read.
func RegisterRoutes(e *echo.Echo, db *sql.DB, a *handler.AvailabilityHandler) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/v1/tiers/:id/availability", a.GetTierAvailability)
}

// Owners resolves the owners of tickets and orders for the ownership
// gates.
type Owners struct {
	Tickets *repository.TicketRepo
	Orders  *repository.OrderRepo
}

// RegisterCart registers the cart and checkout endpoints under /v1.  Every
// route requires a valid JWT with the CLIENT or MANAGER role and is rate
// limited per user.  Routes taking a ticket or order id also check that the
// caller owns it.
func RegisterCart(e *echo.Echo, h *handler.CartHandler, owners Owners, jwtSecret string, rl config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleClient, model.RoleManager),
		middleware.NewTokenBucket(rl, rdb),
	)
	g.POST("/events/:id/cart", h.AddToCart)
	g.GET("/cart", h.GetCart)
	g.POST("/cart/checkout", h.BuyCart)

	ownsTicket := middleware.RequireOwner(owners.Tickets, "id")
	g.PATCH("/cart/tickets/:id", h.UpdateTicket, ownsTicket)
	g.DELETE("/cart/tickets/:id", h.DeleteTicket, ownsTicket)

	g.GET("/orders", h.GetOrders)
	g.DELETE("/orders/:id", h.DeleteOrder, middleware.RequireOwner(owners.Orders, "id"))
}
