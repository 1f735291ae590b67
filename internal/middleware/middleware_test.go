package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-compare/internal/config"
	"github.com/iliyamo/ticket-compare/internal/utils"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func do(e *echo.Echo, method, target string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func cacheCfg() config.CacheConfig {
	return config.CacheConfig{
		Enabled: true, Methods: []string{"GET"}, TTL: time.Minute,
		KeyStrategy: "route_query", Prefix: "cache", MaxBodyBytes: 1 << 20,
	}
}

func TestRedisCache_MissThenHit(t *testing.T) {
	_, rdb := newRedis(t)
	calls := 0
	e := echo.New()
	e.Use(NewRedisCache(cacheCfg(), rdb, nil))
	e.GET("/v1/search", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"n": calls})
	})

	first := do(e, http.MethodGet, "/v1/search?keyword=jazz", nil)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := do(e, http.MethodGet, "/v1/search?keyword=jazz", nil)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, first.Header().Get(echo.HeaderContentType), second.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, calls)

	other := do(e, http.MethodGet, "/v1/search?keyword=rock", nil)
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
}

func TestRedisCache_QueryOrderDoesNotMatter(t *testing.T) {
	_, rdb := newRedis(t)
	e := echo.New()
	e.Use(NewRedisCache(cacheCfg(), rdb, nil))
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	do(e, http.MethodGet, "/x?a=1&b=2", nil)
	rec := do(e, http.MethodGet, "/x?b=2&a=1", nil)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
}

func TestRedisCache_SkipsErrorsAndOversizedBodies(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := cacheCfg()
	cfg.MaxBodyBytes = 4
	e := echo.New()
	e.Use(NewRedisCache(cfg, rdb, nil))
	e.GET("/fail", func(c echo.Context) error {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "Error loading events"})
	})
	e.GET("/big", func(c echo.Context) error { return c.String(http.StatusOK, "0123456789") })

	do(e, http.MethodGet, "/fail", nil)
	assert.Equal(t, "MISS", do(e, http.MethodGet, "/fail", nil).Header().Get("X-Cache"))

	first := do(e, http.MethodGet, "/big", nil)
	assert.Equal(t, "0123456789", first.Body.String())
	assert.Equal(t, "MISS", do(e, http.MethodGet, "/big", nil).Header().Get("X-Cache"))
}

func TestRedisCache_DisabledOrNoRedisPassesThrough(t *testing.T) {
	cfg := cacheCfg()
	e := echo.New()
	e.Use(NewRedisCache(cfg, nil, nil))
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	rec := do(e, http.MethodGet, "/x", nil)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestPayloadRoundTrip(t *testing.T) {
	h := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(201, h, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, hdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, 201, status)
	assert.Equal(t, "application/json", hdr.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 0, 0})
	assert.False(t, ok)
	_, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0})
	assert.False(t, ok)
}

func rateCfg() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Minute,
		TTL: 10 * time.Minute, KeyStrategy: "ip_user_route", Prefix: "rl",
	}
}

func TestTokenBucket_BlocksAfterCapacity(t *testing.T) {
	_, rdb := newRedis(t)
	e := echo.New()
	e.Use(NewTokenBucket(rateCfg(), rdb, nil))
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	r1 := do(e, http.MethodGet, "/x", nil)
	r2 := do(e, http.MethodGet, "/x", nil)
	r3 := do(e, http.MethodGet, "/x", nil)

	assert.Equal(t, http.StatusOK, r1.Code)
	assert.Equal(t, "2", r1.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", r1.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusOK, r2.Code)
	assert.Equal(t, http.StatusTooManyRequests, r3.Code)

	secs, err := strconv.Atoi(r3.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Greater(t, secs, 0)
	assert.LessOrEqual(t, secs, 60)
}

func TestTokenBucket_SeparateBucketsPerUser(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := rateCfg()
	cfg.Capacity = 1
	cfg.KeyStrategy = "user"

	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		JWTAuth("s"), NewTokenBucket(cfg, rdb, nil))

	tokA, err := utils.NewAccessToken("s", 1, "a@x.io", 5)
	require.NoError(t, err)
	tokB, err := utils.NewAccessToken("s", 2, "b@x.io", 5)
	require.NoError(t, err)
	a := map[string]string{"Authorization": "Bearer " + tokA.Token}
	b := map[string]string{"Authorization": "Bearer " + tokB.Token}

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/x", a).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(e, http.MethodGet, "/x", a).Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/x", b).Code)
}

func TestTokenBucket_RedisDownFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	e := echo.New()
	e.Use(NewTokenBucket(rateCfg(), rdb, nil))
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	mr.Close()
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/x", nil).Code)
	}
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		id, ok := UserID(c)
		return c.JSON(http.StatusOK, echo.Map{"id": id, "ok": ok})
	}, JWTAuth("s"))

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer nope"}).Code)

	tok, err := utils.NewAccessToken("s", 42, "ada@example.com", 5)
	require.NoError(t, err)
	rec := do(e, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + tok.Token})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":42,"ok":true}`, rec.Body.String())
}
