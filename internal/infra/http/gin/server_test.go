package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buckler/internal/app/bootstrap"
	"buckler/internal/infra/obs"
	"buckler/internal/infra/storage/memory"
	"buckler/internal/infra/validation"
)

func newTestRouter(t *testing.T, checks map[string]func(context.Context) error) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, 6, 20, 9, 0, 0, 0, time.UTC)
	buses := bootstrap.Build(bootstrap.Deps{
		UoWFactory:  memory.NewStore(),
		Outbox:      memory.NewOutbox(nil),
		Idempotency: memory.NewIdempotencyStore(time.Hour),
		Validator:   validation.New(),
		Currency:    "KES",
		Now:         func() time.Time { return now },
	})
	return NewRouter(obs.Middleware{}, obs.HealthHandlers{Checks: checks}, Handlers{
		Booking:      BookingHandler{Commands: buses.Commands, Queries: buses.Queries},
		Availability: AvailabilityHandler{Commands: buses.Commands, Queries: buses.Queries},
		Catalog:      CatalogHandler{Commands: buses.Commands, Queries: buses.Queries},
		Earnings:     EarningsHandler{Queries: buses.Queries},
	})
}

func do(t *testing.T, router http.Handler, method, path, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set(actorHeader, actor)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestBookingFlowOverHTTP(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := do(t, router, http.MethodPut, "/api/v1/provider/listings/lst-1", "host-1", map[string]any{
		"title":        "Westlands loft",
		"guests_limit": 4,
		"currency":     "KES",
		"nightly_rate": "5000",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/v1/bookings", "guest-1", map[string]any{
		"target_id": "lst-1",
		"check_in":  "2026-07-01",
		"check_out": "2026-07-04",
		"guests":    2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	booking := decode(t, rec)["booking"].(map[string]any)
	assert.Equal(t, "PENDING", booking["status"])
	assert.Equal(t, map[string]any{"amount": "15000.00", "currency": "KES"}, booking["total"])
	id := booking["id"].(string)

	rec = do(t, router, http.MethodPost, "/api/v1/bookings", "guest-2", map[string]any{
		"target_id": "lst-1",
		"check_in":  "2026-07-03",
		"check_out": "2026-07-05",
		"guests":    1,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decode(t, rec)["kind"])

	rec = do(t, router, http.MethodGet, "/api/v1/provider/bookings", "host-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"], 1)

	rec = do(t, router, http.MethodPost, "/api/v1/bookings/"+id+"/approve", "host-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "CONFIRMED", decode(t, rec)["status"])

	rec = do(t, router, http.MethodPost, "/api/v1/bookings/"+id+"/approve", "host-1", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/bookings/"+id, "guest-3", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/me/bookings", "guest-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"], 1)
}

func TestRequestIDReachesRecordedEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	box := memory.NewOutbox(nil)
	buses := bootstrap.Build(bootstrap.Deps{
		UoWFactory: memory.NewStore(),
		Outbox:     box,
		Currency:   "KES",
	})
	router := NewRouter(obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Booking:      BookingHandler{Commands: buses.Commands, Queries: buses.Queries},
		Availability: AvailabilityHandler{Commands: buses.Commands, Queries: buses.Queries},
		Catalog:      CatalogHandler{Commands: buses.Commands, Queries: buses.Queries},
		Earnings:     EarningsHandler{Queries: buses.Queries},
	})

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]any{
		"title":        "Westlands loft",
		"guests_limit": 2,
		"currency":     "KES",
		"nightly_rate": "4000",
	}))
	req := httptest.NewRequest(http.MethodPut, "/api/v1/provider/listings/lst-9", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(actorHeader, "host-9")
	req.Header.Set("X-Request-ID", "req-42")
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))

	sent := box.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "listing.published", sent[0].Name)
	assert.Equal(t, "req-42", sent[0].Headers["request_id"])
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", sent[0].Headers["traceparent"])
}

func TestAvailabilityOverHTTP(t *testing.T) {
	router := newTestRouter(t, nil)
	rec := do(t, router, http.MethodPut, "/api/v1/provider/listings/lst-1", "host-1", map[string]any{
		"title":        "Westlands loft",
		"guests_limit": 2,
		"currency":     "KES",
		"nightly_rate": "5000",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := map[string]any{"entries": []map[string]any{
		{"date": "2026-07-10", "is_available": false},
		{"date": "2026-07-11", "is_available": true, "price_override": "7000"},
	}}
	rec = do(t, router, http.MethodPut, "/api/v1/targets/lst-1/availability", "host-1", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 2, decode(t, rec)["created"])

	rec = do(t, router, http.MethodPut, "/api/v1/targets/lst-1/availability", "host-9", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/targets/lst-1/availability?from=2026-07-01&to=2026-07-31", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["days"], 2)

	rec = do(t, router, http.MethodGet, "/api/v1/targets/lst-1/availability?from=07-01", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/targets/lst-1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rental", decode(t, rec)["vertical"])
}

func TestActorHeaderRequired(t *testing.T) {
	router := newTestRouter(t, nil)
	rec := do(t, router, http.MethodGet, "/api/v1/me/bookings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = do(t, router, http.MethodGet, "/api/v1/provider/earnings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthProbes(t *testing.T) {
	router := newTestRouter(t, map[string]func(context.Context) error{
		"db": func(context.Context) error { return errors.New("down") },
	})
	rec := do(t, router, http.MethodGet, "/livez", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = do(t, router, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
