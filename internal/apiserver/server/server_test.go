package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"findoc-gateway/internal/apiserver/auth"
	"findoc-gateway/internal/apiserver/gateway"
	"findoc-gateway/internal/shared/storage"
)

func newTestHandler(store *storage.MockStore) *Handler {
	cfg := auth.Config{JWTSecret: "test-secret", TokenTTL: time.Hour}
	return NewHandler(store, nil, cfg, gateway.NewClient("http://127.0.0.1:1", ""))
}

func TestHealth(t *testing.T) {
	t.Run("store reachable", func(t *testing.T) {
		h := newTestHandler(storage.NewMockStore())
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		h.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body["status"] != "ok" {
			t.Errorf("status = %q, want ok", body["status"])
		}
		if body["service"] != ServiceName {
			t.Errorf("service = %q, want %q", body["service"], ServiceName)
		}
		if body["mongodb"] != "connected" {
			t.Errorf("mongodb = %q, want connected", body["mongodb"])
		}
	})

	t.Run("store down still ok", func(t *testing.T) {
		store := storage.NewMockStore()
		store.PingErr = errors.New("no reachable servers")
		h := newTestHandler(store)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		h.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 even with store down", rec.Code)
		}
		var body map[string]string
		json.NewDecoder(rec.Body).Decode(&body)
		if body["status"] != "ok" || body["mongodb"] != "disconnected" {
			t.Errorf("body = %v, want status ok + mongodb disconnected", body)
		}
	})
}

func TestCORS(t *testing.T) {
	h := newTestHandler(storage.NewMockStore())
	router := h.Router()

	t.Run("origin reflected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
			t.Errorf("Allow-Origin = %q", got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
			t.Errorf("Allow-Credentials = %q", got)
		}
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "PATCH") {
			t.Errorf("Allow-Methods = %q", got)
		}
	})
}

// 全路由装配冒烟：公开路由可达，受保护路由要求认证
func TestRouterWiring(t *testing.T) {
	h := newTestHandler(storage.NewMockStore())
	router := h.Router()

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"metrics public", http.MethodGet, "/metrics", http.StatusOK},
		{"signup reachable", http.MethodPost, "/auth/signup", http.StatusBadRequest},
		{"login reachable", http.MethodPost, "/auth/login", http.StatusBadRequest},
		{"users requires auth", http.MethodGet, "/auth/users", http.StatusUnauthorized},
		{"documents requires auth", http.MethodGet, "/documents", http.StatusUnauthorized},
		{"upload requires auth", http.MethodPost, "/upload", http.StatusUnauthorized},
		{"preview requires auth", http.MethodGet, "/pages/f1/0/preview", http.StatusUnauthorized},
		{"unknown route 404", http.MethodGet, "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(storage.NewMockStore())
	router := h.Router()

	// 先打一个请求产生计数
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "gateway_http_requests_total") {
		t.Error("metrics output missing gateway_http_requests_total")
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/status/abc123", "/status/{file_id}"},
		{"/pages/abc123", "/pages/{file_id}"},
		{"/pages/abc123/0/preview", "/pages/{file_id}/{page_index}/preview"},
		{"/edgar/AAPL", "/edgar/{ticker}"},
		{"/files/abc123", "/files/{file_id}"},
		{"/auth/users/usr-1/access", "/auth/users/{user_id}/access"},
		{"/auth/login", "/auth/login"},
		{"/documents", "/documents"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.in); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
