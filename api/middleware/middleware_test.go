package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireCapability(t *testing.T) {
	mw := RequireCapability(enums.CapOverrideLoadStatus, nil)

	cases := []struct {
		role enums.Role
		want int
	}{
		{enums.RoleAdmin, http.StatusOK},
		{enums.RoleLoader, http.StatusForbidden},
		{enums.RoleViewer, http.StatusForbidden},
		{"", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPatch, "/", nil)
		req = req.WithContext(WithActor(req.Context(), "user-1", tc.role))
		resp := httptest.NewRecorder()
		mw(okHandler()).ServeHTTP(resp, req)
		if resp.Code != tc.want {
			t.Fatalf("role %q: expected %d got %d", tc.role, tc.want, resp.Code)
		}
	}
}

type fakeLimiter struct {
	counts map[string]int64
	err    error
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func TestWriteRateLimit(t *testing.T) {
	limiter := &fakeLimiter{counts: map[string]int64{}}
	mw := WriteRateLimit(WriteRateLimitPolicy{Limit: 2, Window: time.Minute}, limiter, nil)
	handler := mw(okHandler())

	for i := 0; i < 3; i++ {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, actorRequest(http.MethodPost, "/api/v1/projects/T7/truck-loads", ""))
		if i < 2 && resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i, resp.Code)
		}
		if i == 2 {
			if resp.Code != http.StatusTooManyRequests {
				t.Fatalf("expected 429 got %d", resp.Code)
			}
			if resp.Header().Get("Retry-After") != "60" {
				t.Fatalf("unexpected retry-after %q", resp.Header().Get("Retry-After"))
			}
		}
	}

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, actorRequest(http.MethodGet, "/api/v1/loads", ""))
	if resp.Code != http.StatusOK {
		t.Fatalf("reads must not be throttled, got %d", resp.Code)
	}
	if limiter.counts["writes:user-1"] != 3 {
		t.Fatalf("expected 3 counted writes got %d", limiter.counts["writes:user-1"])
	}
}

func TestWriteRateLimitDependencyFailure(t *testing.T) {
	limiter := &fakeLimiter{counts: map[string]int64{}, err: errors.New("redis down")}
	handler := WriteRateLimit(WriteRateLimitPolicy{Limit: 2, Window: time.Minute}, limiter, nil)(okHandler())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, actorRequest(http.MethodDelete, "/api/v1/loads/x", ""))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestWriteRateLimitDisabled(t *testing.T) {
	limiter := &fakeLimiter{counts: map[string]int64{}}
	handler := WriteRateLimit(WriteRateLimitPolicy{}, limiter, nil)(okHandler())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, actorRequest(http.MethodPost, "/x", ""))
	if resp.Code != http.StatusOK || len(limiter.counts) != 0 {
		t.Fatalf("expected passthrough got %d counts=%v", resp.Code, limiter.counts)
	}
}

type recordedRequest struct {
	method string
	route  string
	status int
}

type fakeObserver struct {
	seen []recordedRequest
}

func (f *fakeObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	f.seen = append(f.seen, recordedRequest{method: method, route: route, status: status})
}

func TestLoggingObservesRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	observer := &fakeObserver{}

	r := chi.NewRouter()
	r.Use(Logging(logg, observer))
	r.Get("/api/v1/loads/{loadId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/loads/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	if len(observer.seen) != 2 {
		t.Fatalf("expected 2 observations got %d", len(observer.seen))
	}
	if got := observer.seen[0]; got.route != "/api/v1/loads/{loadId}" || got.status != http.StatusTeapot || got.method != http.MethodGet {
		t.Fatalf("unexpected observation %+v", got)
	}
	if got := observer.seen[1]; got.status != http.StatusNotFound {
		t.Fatalf("unexpected observation %+v", got)
	}
	if !strings.Contains(buf.String(), "request.complete") {
		t.Fatalf("expected completion log, got %s", buf.String())
	}
}

func TestRecovererReturnsInternalError(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	handler := Recoverer(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}

func TestRequestIDPropagates(t *testing.T) {
	handler := RequestID(nil)(okHandler())

	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-123")
	handler.ServeHTTP(resp, req)
	if resp.Header().Get("X-Request-Id") != "req-123" {
		t.Fatalf("expected propagated id got %q", resp.Header().Get("X-Request-Id"))
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected generated id")
	}

	resp = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "bad id\twith spaces")
	handler.ServeHTTP(resp, req)
	if got := resp.Header().Get("X-Request-Id"); got == "" || strings.Contains(got, " ") {
		t.Fatalf("expected replacement id, got %q", got)
	}
}

func TestRecovererRepanicsAbortHandler(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	handler := CORS([]string{"https://fleet.example.com"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/loads", nil)
	req.Header.Set("Origin", "https://fleet.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Header().Get("Access-Control-Allow-Origin") != "https://fleet.example.com" {
		t.Fatalf("expected allow origin header, got %v", resp.Header())
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/loads", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unexpected allow origin for foreign origin")
	}
}
