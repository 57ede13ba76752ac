package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/shop-auth/internal/events"
	apperrors "github.com/spec-kit/shop-auth/pkg/util/errorutil"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/auth/login", "POST", 200, 10*time.Millisecond)
	m.RecordRequest("/api/auth/login", "POST", 200, 30*time.Millisecond)
	m.RecordError("/api/auth/login", "POST", apperrors.CodeInvalidCredentials)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/api/auth/login|POST|200"])
	assert.Equal(t, int64(1), snap.Errors["/api/auth/login|POST|INVALID_CREDENTIALS"])
	assert.InDelta(t, 20.0, snap.AvgLatencyMillis, 0.001)

	snap.Requests["/api/auth/login|POST|200"] = 99
	assert.Equal(t, int64(2), m.Snapshot().Requests["/api/auth/login|POST|200"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordAuthEvent("x")
		m.SubscribeAuthEvents(nil)
	})
}

func TestSubscribeAuthEvents(t *testing.T) {
	m := NewMetrics()
	d := events.NewInMemoryDispatcher(nil)
	m.SubscribeAuthEvents(d)

	ctx := context.Background()
	require.NoError(t, d.Publish(ctx, events.New(events.EventSessionStarted, "u1", nil)))
	require.NoError(t, d.Publish(ctx, events.New(events.EventSessionStarted, "u2", nil)))
	require.NoError(t, d.Publish(ctx, events.New(events.EventRefreshRejected, "u1", nil)))

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.AuthEvents["session_started"])
	assert.Equal(t, int64(1), snap.AuthEvents["refresh_rejected"])
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewMetrics()

	app := fiber.New()
	app.Use(requestid.New(requestid.Config{Header: RequestIDHeader, ContextKey: RequestIDLocal}))
	app.Use(RequestLogger(zap.New(core), m))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/denied", func(c *fiber.Ctx) error { return apperrors.NewForbidden("nope") })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "req-123", resp.Header.Get(RequestIDHeader))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/denied", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-123", entries[0].ContextMap()["request_id"])
	assert.Equal(t, int64(403), entries[1].ContextMap()["status"])

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.Requests["/ok|GET|200"])
	assert.Equal(t, int64(1), snap.Requests["/denied|GET|403"])
}
