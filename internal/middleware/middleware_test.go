// AngelaMos | 2026
// middleware_test.go

package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/identity-service/internal/config"
	"github.com/carterperez-dev/templates/identity-service/internal/core"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "bad id\nwith newline")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRateLimiterFallsBackToLocal(t *testing.T) {
	var clientIP *ClientIP
	rl := NewRateLimiter(unreachableRedis(t), LimiterConfig{
		Limit:  PerWindow(1, 1, time.Minute),
		Key:    clientIP.ByIPAndEndpoint,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	h := rl.Handler(okHandler)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)

	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var env core.Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, core.CodeRateLimited, env.Code)
}

func TestForwardedHeadersDoNotResetLoginBudget(t *testing.T) {
	clientIP, err := NewClientIP(nil)
	require.NoError(t, err)

	rl := NewRateLimiter(unreachableRedis(t), LimiterConfig{
		Limit:  PerWindow(1, 1, time.Minute),
		Key:    clientIP.ByIPAndEndpoint,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	h := rl.Handler(okHandler)

	send := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "198.51.100.7:4000"
		req.Header.Set("X-Forwarded-For", forwarded)
		req.Header.Set("X-Real-IP", forwarded)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("2.2.2.2"))
	assert.Equal(t, http.StatusTooManyRequests, send("3.3.3.3"))
}

func TestClientIPResolve(t *testing.T) {
	clientIP, err := NewClientIP([]string{"10.0.0.0/8", "192.168.1.1"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		remote    string
		forwarded string
		realIP    string
		want      string
	}{
		{"untrusted peer ignores headers", "203.0.113.5:80", "1.1.1.1", "2.2.2.2", "203.0.113.5"},
		{"trusted peer uses nearest untrusted hop", "10.1.2.3:80", "1.1.1.1, 203.0.113.9, 10.0.0.2", "", "203.0.113.9"},
		{"trusted single address", "192.168.1.1:80", "198.51.100.1", "", "198.51.100.1"},
		{"trusted peer with real ip", "10.1.2.3:80", "", "198.51.100.2", "198.51.100.2"},
		{"garbage hop falls back to peer", "10.1.2.3:80", "not-an-ip", "", "10.1.2.3"},
		{"all hops trusted", "10.1.2.3:80", "10.0.0.9", "", "10.1.2.3"},
		{"mapped ipv4 peer", "[::ffff:203.0.113.5]:80", "", "", "203.0.113.5"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}
			assert.Equal(t, tc.want, clientIP.Resolve(req))
		})
	}

	_, err = NewClientIP([]string{"10.0.0.0/33"})
	require.Error(t, err)
	_, err = NewClientIP([]string{"proxy.internal"})
	require.Error(t, err)
}

func TestByIPAndEndpoint(t *testing.T) {
	var clientIP *ClientIP
	req := httptest.NewRequest(http.MethodGet, "/api/user/info/8d1c0a2e-5a1b-4c7e-9a1f-000000000000", nil)
	req.RemoteAddr = "2.2.2.2:1234"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")
	assert.Equal(t, "ratelimit:ip:2.2.2.2:endpoint:/api/user/info/{id}", clientIP.ByIPAndEndpoint(req))

	req = httptest.NewRequest(http.MethodPut, "/api/rbac/role/42/permissions/user:read:all", nil)
	req.RemoteAddr = "2.2.2.2:1234"
	assert.Equal(t, "ratelimit:ip:2.2.2.2:endpoint:/api/rbac/role/{id}/permissions/user:read:all",
		clientIP.ByIPAndEndpoint(req))
}

func TestPerWindow(t *testing.T) {
	l := PerWindow(10, 0, 0)
	assert.Equal(t, 10, l.Burst)
	assert.Equal(t, time.Minute, l.Period)

	l = PerWindow(0, 0, time.Second)
	assert.Equal(t, 1, l.Rate)
	assert.Equal(t, 1, l.Burst)
}

func TestCORS(t *testing.T) {
	h := CORS(config.CORSConfig{
		AllowedOrigins:   []string{"https://app.example.com"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/user/info", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))

	req = httptest.NewRequest(http.MethodGet, "/api/user/info", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(true)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestRecoverer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Recoverer(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
