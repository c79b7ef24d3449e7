package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/cache"
	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/database"
	"github.com/iliyamo/event-ticketing/internal/database/dbtest"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/service"
	"github.com/iliyamo/event-ticketing/internal/utils"
)

const secret = "router-test-secret"

type api struct {
	t     *testing.T
	e     *echo.Echo
	event string
	tier  string
	alice string
	bob   string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	db := dbtest.Open(t)
	cart := service.NewCartService(db, database.SQLite)
	avail := cache.NewAvailability(nil, cart.Tiers, time.Minute, "")
	checkout := service.NewCheckoutService(cart, 3, nil, nil, avail)

	e := echo.New()
	RegisterRoutes(e, db, &handler.AvailabilityHandler{Cache: avail})
	RegisterCart(e, handler.NewCartHandler(cart, checkout),
		Owners{Tickets: cart.Tickets, Orders: cart.Orders}, secret, config.RateLimitConfig{}, nil)

	event := dbtest.Event(t, db, dbtest.User(t, db, "mgr@example.com"))
	return &api{
		t:     t,
		e:     e,
		event: event,
		tier:  dbtest.Tier(t, db, event, 5),
		alice: dbtest.User(t, db, "alice@example.com"),
		bob:   dbtest.User(t, db, "bob@example.com"),
	}
}

func (a *api) do(user, method, path, body string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if user != "" {
		tok, err := utils.NewAccessToken(secret, user, model.RoleClient, 5)
		require.NoError(a.t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCartFlow(t *testing.T) {
	a := newAPI(t)

	rec := a.do(a.alice, http.MethodPost, "/v1/events/"+a.event+"/cart",
		`{"tickets_detail_id":"`+a.tier+`","final_price":20,"tickets_to_buy":2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[model.Order](t, rec)
	require.Len(t, order.Tickets, 1)
	ticketID := order.Tickets[0].ID

	// bob cannot touch alice's ticket
	rec = a.do(a.bob, http.MethodPatch, "/v1/cart/tickets/"+ticketID,
		`{"tickets_detail_id":"`+a.tier+`","final_price":1}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, http.StatusNotFound, a.do(a.bob, http.MethodDelete, "/v1/cart/tickets/nope", "").Code)

	rec = a.do(a.alice, http.MethodPatch, "/v1/cart/tickets/"+ticketID,
		`{"tickets_detail_id":"`+a.tier+`","final_price":25,"tickets_to_buy":3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(a.alice, http.MethodGet, "/v1/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(25), decode[model.Order](t, rec).FinalPrice)

	rec = a.do(a.alice, http.MethodPost, "/v1/cart/checkout", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.OrderClosed, decode[model.Order](t, rec).Status)

	rec = a.do("", http.MethodGet, "/v1/tiers/"+a.tier+"/availability", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode[map[string]any](t, rec)["tickets_available"])

	// paid tickets are frozen, the cart is gone
	rec = a.do(a.alice, http.MethodDelete, "/v1/cart/tickets/"+ticketID, "")
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Equal(t, http.StatusNotFound, a.do(a.alice, http.MethodGet, "/v1/cart", "").Code)

	rec = a.do(a.alice, http.MethodGet, "/v1/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct{ Items []model.Order }](t, rec)
	require.Len(t, list.Items, 1)

	assert.Equal(t, http.StatusForbidden, a.do(a.bob, http.MethodDelete, "/v1/orders/"+order.ID, "").Code)
	assert.Equal(t, http.StatusNoContent, a.do(a.alice, http.MethodDelete, "/v1/orders/"+order.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, a.do(a.alice, http.MethodDelete, "/v1/orders/"+order.ID, "").Code)
}

func TestCheckoutErrors(t *testing.T) {
	a := newAPI(t)

	assert.Equal(t, http.StatusNotFound, a.do(a.alice, http.MethodPost, "/v1/cart/checkout", "").Code)

	rec := a.do(a.alice, http.MethodPost, "/v1/events/"+a.event+"/cart",
		`{"tickets_detail_id":"`+a.tier+`","final_price":20,"tickets_to_buy":6}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(a.alice, http.MethodPost, "/v1/cart/checkout", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, a.tier, decode[map[string]any](t, rec)["tickets_detail_id"])

	rec = a.do(a.alice, http.MethodPost, "/v1/events/"+a.event+"/cart", `{"final_price":20}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusUnauthorized, a.do("", http.MethodGet, "/v1/cart", "").Code)
	assert.Equal(t, http.StatusOK, a.do("", http.MethodGet, "/healthz", "").Code)
}
