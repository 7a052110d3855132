package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/bookswap/internal/domain"
	context_ "github.com/mkrupp/bookswap/internal/infra/context"
	"github.com/mkrupp/bookswap/internal/infra/logging"
	http_ "github.com/mkrupp/bookswap/internal/infra/transport/http"
)

type echoTransport struct{}

func (echoTransport) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /echo", func(w http.ResponseWriter, r *http.Request) {
		traceID, _ := context_.TraceIDFromContext(r.Context())
		_ = http_.WriteJSON(w, http.StatusOK, map[string]string{"traceId": traceID})
	})
	mux.HandleFunc("GET /panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
}

type stubVerifier struct {
	userID domain.ID
	err    error
}

func (v stubVerifier) VerifyToken(_ context.Context, token string) (domain.AuthToken, error) {
	if v.err != nil {
		return domain.AuthToken{}, v.err
	}

	if token != "good-token" {
		return domain.AuthToken{}, domain.ErrInvalidAuthToken
	}

	return domain.AuthToken{UserID: v.userID}, nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))

	return v
}

func TestRouter(t *testing.T) {
	t.Parallel()

	router := http_.NewRouter(http_.NewMetrics("test"), echoTransport{})

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "index", method: http.MethodGet, path: "/", wantStatus: http.StatusOK, wantBody: `"message":"Hello world!"`},
		{name: "transport route", method: http.MethodGet, path: "/echo", wantStatus: http.StatusOK, wantBody: `"traceId"`},
		{
			name: "unknown path", method: http.MethodGet, path: "/nonexistent",
			wantStatus: http.StatusNotFound, wantBody: `"attemptedPath":"/nonexistent"`,
		},
		{
			name: "unknown method", method: http.MethodDelete, path: "/echo",
			wantStatus: http.StatusNotFound, wantBody: http_.NotFoundMessage,
		},
		{name: "metrics", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK, wantBody: "go_goroutines"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestMetricsMiddleware(t *testing.T) {
	t.Parallel()

	metrics := http_.NewMetrics("test")
	handler := http_.MetricsMiddleware(http_.NewRouter(metrics, echoTransport{}), metrics)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/echo", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, `test_http_requests_total{code="200",method="GET",route="GET /echo"} 1`)
	assert.Contains(t, body, `test_http_requests_total{code="404",method="GET",route="/"} 1`)
	assert.Contains(t, body, "test_http_request_duration_seconds_bucket")
}

func TestRescueingMiddleware(t *testing.T) {
	t.Parallel()

	handler := http_.RescueingMiddleware(http_.NewRouter(nil, echoTransport{}), logging.NewNopLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", decode[http_.ErrorResponse](t, rec).Error)
}

func TestTracingMiddleware(t *testing.T) {
	t.Parallel()

	handler := http_.TracingMiddleware(http_.NewRouter(nil, echoTransport{}))

	t.Run("uses request header", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/echo", nil)
		req.Header.Set(http_.TraceIDHeader, "abc-123")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", rec.Header().Get(http_.TraceIDHeader))
		assert.Equal(t, "abc-123", decode[map[string]string](t, rec)["traceId"])
	})

	t.Run("generates an id", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/echo", nil))

		traceID := rec.Header().Get(http_.TraceIDHeader)
		_, err := domain.ParseID(traceID)
		require.NoError(t, err)
		assert.Equal(t, traceID, decode[map[string]string](t, rec)["traceId"])
	})
}

func TestAuthorizingMiddleware(t *testing.T) {
	t.Parallel()

	userID := domain.NewID()
	protected := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := context_.UserIDFromContext(r.Context())
		require.True(t, ok)
		_ = http_.WriteJSON(w, http.StatusOK, map[string]string{"userId": id.String()})
	})

	tests := []struct {
		name       string
		header     string
		verifier   stubVerifier
		wantStatus int
		wantError  string
	}{
		{name: "missing header", wantStatus: http.StatusUnauthorized, wantError: http_.TokenRequiredMessage},
		{name: "empty bearer", header: "Bearer ", wantStatus: http.StatusUnauthorized, wantError: http_.TokenRequiredMessage},
		{name: "invalid token", header: "Bearer bad-token", wantStatus: http.StatusUnauthorized, wantError: http_.UnauthorizedMessage},
		{
			name: "expired token", header: "Bearer good-token", verifier: stubVerifier{err: domain.ErrExpiredAuthToken},
			wantStatus: http.StatusUnauthorized, wantError: http_.UnauthorizedMessage,
		},
		{
			name: "token of deleted user", header: "Bearer good-token",
			verifier:   stubVerifier{err: errors.Join(domain.ErrInvalidAuthToken, domain.ErrUserNotFound)},
			wantStatus: http.StatusUnauthorized,
			wantError:  http_.UnauthorizedMessage,
		},
		{
			name: "verifier storage failure", header: "Bearer good-token",
			verifier:   stubVerifier{err: fmt.Errorf("get user: %w", errors.New("database is locked"))},
			wantStatus: http.StatusInternalServerError,
			wantError:  http.StatusText(http.StatusInternalServerError),
		},
		{name: "valid token", header: "Bearer good-token", wantStatus: http.StatusOK},
		{name: "scheme is case-insensitive", header: "bearer good-token", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verifier := tt.verifier
			verifier.userID = userID

			handler := http_.AuthorizingMiddleware(protected, verifier, logging.NewNopLogger())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decode[http_.ErrorResponse](t, rec).Error)
			} else {
				assert.Equal(t, userID.String(), decode[map[string]string](t, rec)["userId"])
			}
		})
	}
}

func TestSecurityMiddleware(t *testing.T) {
	t.Parallel()

	handler := http_.SecurityMiddleware(http_.NewRouter(nil), []string{"http://localhost:5000"})

	t.Run("sets hardening headers", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("allows listed origin", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodOptions, "/api/listing", nil)
		req.Header.Set("Origin", "http://localhost:5000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "http://localhost:5000", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("ignores other origins", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://evil.example")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestListenAndServe_ShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	sock, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := sock.Addr().String()
	require.NoError(t, sock.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- http_.ListenAndServe(ctx, http_.NewRouter(nil), nil, http_.HTTPTransportConfig{
			ServerAddr:        addr,
			ReadHeaderTimeout: 1,
			ReadTimeout:       1,
			WriteTimeout:      1,
			ShutdownTimeout:   1,
		})
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/") //nolint:noctx
		if err != nil {
			return false
		}
		defer resp.Body.Close()

		return resp.StatusCode == http.StatusOK && strings.Contains(resp.Header.Get("Content-Type"), "json")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal(errors.New("server did not shut down"))
	}
}
