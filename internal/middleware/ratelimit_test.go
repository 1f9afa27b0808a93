package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zentra/emojimatch/internal/utils"
	"github.com/zentra/emojimatch/pkg/auth"
)

func TestRateLimitMiddleware(t *testing.T) {
	counts := map[string]int64{}
	counter := func(ctx context.Context, key string, window time.Duration) (int64, error) {
		counts[key]++
		return counts[key], nil
	}
	handler := RateLimitMiddleware(counter, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var codes []int
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, int64(3), counts["ip:10.0.0.1"])
	assert.Equal(t, "1", last.Header().Get("Retry-After"))

	var body utils.ErrorResponse
	require.NoError(t, json.NewDecoder(last.Body).Decode(&body))
	assert.Equal(t, "RATE_LIMITED", body.Code)
}

func TestRateLimitMiddleware_KeysAuthenticatedCallers(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		wantKey func(Principal) string
	}{
		{name: "anonymous by ip", wantKey: func(Principal) string { return "ip:10.0.0.9" }},
		{name: "bad token by ip", header: "Bearer nope", wantKey: func(Principal) string { return "ip:10.0.0.9" }},
		{
			name:    "bearer by user",
			header:  "Bearer " + mintToken(t, auth.RolePlayer, time.Hour),
			wantKey: func(p Principal) string { return "user:" + p.UserID.String() },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var keys []string
			counter := func(ctx context.Context, key string, window time.Duration) (int64, error) {
				keys = append(keys, key)
				return 1, nil
			}
			var seen Principal
			handler := OptionalAuth(testSecret)(RateLimitMiddleware(counter, 10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = GetPrincipal(r.Context())
				w.WriteHeader(http.StatusOK)
			})))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.0.0.9:4000"
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			handler.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, []string{tt.wantKey(seen)}, keys)
		})
	}
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	counter := func(ctx context.Context, key string, window time.Duration) (int64, error) {
		return 0, errors.New("redis down")
	}
	handler := RateLimitMiddleware(counter, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded chain", headers: map[string]string{"X-Forwarded-For": "1.1.1.1, 2.2.2.2"}, remote: "3.3.3.3:1", want: "1.1.1.1"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "4.4.4.4"}, remote: "3.3.3.3:1", want: "4.4.4.4"},
		{name: "remote addr", remote: "5.5.5.5:8080", want: "5.5.5.5"},
		{name: "remote without port", remote: "6.6.6.6", want: "6.6.6.6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}
