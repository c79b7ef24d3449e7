package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/middleware"
    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/service"
)

// CartHandler exposes the cart and checkout flows to authenticated users.
// Ticket and order ownership is enforced by middleware.RequireOwner on the
// routes that take an id.
type CartHandler struct {
    Cart     *service.CartService
    Checkout *service.CheckoutService
}

// NewCartHandler panics when a dependency is missing.
func NewCartHandler(cart *service.CartService, checkout *service.CheckoutService) *CartHandler {
    if cart == nil || checkout == nil {
        panic("nil service passed to NewCartHandler")
    }
    return &CartHandler{Cart: cart, Checkout: checkout}
}

// getUserID returns the caller set by JWTAuth.
func getUserID(c echo.Context) (string, bool) {
    uid := middleware.UserID(c)
    return uid, uid != ""
}

func bindTicket(c echo.Context) (model.TicketInput, error) {
    var in model.TicketInput
    err := c.Bind(&in)
    return in, err
}

// AddToCart handles POST /v1/events/:id/cart.
func (h *CartHandler) AddToCart(c echo.Context) error {
    uid, ok := getUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    in, err := bindTicket(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    order, err := h.Cart.AddToCart(c.Request().Context(), c.Param("id"), uid, in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, order)
}

// GetCart handles GET /v1/cart.
func (h *CartHandler) GetCart(c echo.Context) error {
    uid, ok := getUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    order, err := h.Cart.GetCart(c.Request().Context(), uid)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, order)
}

// UpdateTicket handles PATCH /v1/cart/tickets/:id.
func (h *CartHandler) UpdateTicket(c echo.Context) error {
    in, err := bindTicket(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    ticket, err := h.Cart.UpdateTicket(c.Request().Context(), c.Param("id"), in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, ticket)
}

// DeleteTicket handles DELETE /v1/cart/tickets/:id.
func (h *CartHandler) DeleteTicket(c echo.Context) error {
    if err := h.Cart.DeleteTicket(c.Request().Context(), c.Param("id")); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// BuyCart handles POST /v1/cart/checkout.
func (h *CartHandler) BuyCart(c echo.Context) error {
    uid, ok := getUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    order, err := h.Checkout.BuyCart(c.Request().Context(), uid)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, order)
}

// GetOrders handles GET /v1/orders.
func (h *CartHandler) GetOrders(c echo.Context) error {
    uid, ok := getUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    orders, err := h.Cart.GetOrders(c.Request().Context(), uid)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": orders})
}

// DeleteOrder handles DELETE /v1/orders/:id.
func (h *CartHandler) DeleteOrder(c echo.Context) error {
    uid, ok := getUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if err := h.Cart.DeleteOrder(c.Request().Context(), uid, c.Param("id")); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
