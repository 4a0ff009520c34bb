package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticketing/internal/config"
)

func newCtx(e *echo.Echo, method, target, route string) echo.Context {
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = "192.0.2.10:1234"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(route)
	return c
}

func TestBuildRateKey(t *testing.T) {
	t.Parallel()
	e := echo.New()
	c := newCtx(e, "GET", "/v1/movies/7", "/v1/movies/:id")

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}
	assert.Equal(t, "rl:ip:192.0.2.10", buildRateKey(cfg, c))

	cfg.KeyStrategy = "route"
	assert.Equal(t, "rl:route:GET /v1/movies/:id", buildRateKey(cfg, c))

	cfg.KeyStrategy = "ip_route"
	assert.Equal(t, "rl:ip:192.0.2.10:route:GET /v1/movies/:id", buildRateKey(cfg, c))

	// Unknown strategy falls back to ip_route.
	cfg.KeyStrategy = "galactic"
	assert.Equal(t, "rl:ip:192.0.2.10:route:GET /v1/movies/:id", buildRateKey(cfg, c))
}

func TestCacheKeyStable(t *testing.T) {
	t.Parallel()
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}

	a := cacheKeyFrom(cfg, newCtx(e, "GET", "/v1/movies?page=1", "/v1/movies"))
	b := cacheKeyFrom(cfg, newCtx(e, "GET", "/v1/movies?page=1", "/v1/movies"))
	assert.Equal(t, a, b)

	diff := cacheKeyFrom(cfg, newCtx(e, "GET", "/v1/movies?page=2", "/v1/movies"))
	assert.NotEqual(t, a, diff)

	// The "route" strategy ignores the query string.
	cfg.KeyStrategy = "route"
	a = cacheKeyFrom(cfg, newCtx(e, "GET", "/v1/movies?page=1", "/v1/movies"))
	b = cacheKeyFrom(cfg, newCtx(e, "GET", "/v1/movies?page=2", "/v1/movies"))
	assert.Equal(t, a, b)
}

func TestPayloadRoundTrip(t *testing.T) {
	t.Parallel()
	body := []byte(`{"id":7,"title":"Heat"}`)
	bs := encodePayload(200, "application/json", body)

	status, ct, got, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, 200, status)
	assert.Equal(t, "application/json", ct)
	assert.Equal(t, body, got)
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	t.Parallel()
	_, _, _, ok := decodePayload(nil)
	assert.False(t, ok)
	_, _, _, ok = decodePayload([]byte{1, 2, 3})
	assert.False(t, ok)
	// Declared content-type length longer than the payload.
	_, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0, 'x'})
	assert.False(t, ok)
}

func TestDisabledMiddlewarePassesThrough(t *testing.T) {
	t.Parallel()
	e := echo.New()
	called := false
	next := func(c echo.Context) error {
		called = true
		return c.String(200, "ok")
	}

	h := NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil)(next)
	require.NoError(t, h(newCtx(e, "GET", "/v1/movies", "/v1/movies")))
	assert.True(t, called)

	called = false
	h = NewRedisCache(config.CacheConfig{Enabled: false}, nil)(next)
	require.NoError(t, h(newCtx(e, "GET", "/v1/movies", "/v1/movies")))
	assert.True(t, called)
}
