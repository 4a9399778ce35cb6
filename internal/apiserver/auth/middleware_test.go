package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"findoc-gateway/internal/shared/model"
	"findoc-gateway/internal/shared/storage"
)

// seedUser 向 mock 存储写入一个用户并返回其有效令牌
func seedUser(t *testing.T, store *storage.MockStore, cfg Config, user *model.User) string {
	t.Helper()
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	token, err := CreateToken(cfg, user)
	if err != nil {
		t.Fatalf("CreateToken() error: %v", err)
	}
	return token
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var body ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Detail
}

func TestRequireAuth(t *testing.T) {
	cfg := testConfig()
	store := storage.NewMockStore()
	gate := NewGate(store, nil, cfg)

	okHandler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}

	user := &model.User{ID: "usr-1", Email: "a@b.com", Role: model.UserRoleUser}
	token := seedUser(t, store, cfg, user)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantCode   string
	}{
		{"missing header", "", http.StatusUnauthorized, CodeUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized, CodeUnauthorized},
		{"malformed token", "Bearer not.a.token", http.StatusUnauthorized, CodeInvalidToken},
		{"valid token", "Bearer " + token, http.StatusOK, ""},
		{"lowercase bearer", "bearer " + token, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			gate.RequireAuth(okHandler)(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantCode != "" {
				if detail := decodeDetail(t, rec); detail.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", detail.Code, tt.wantCode)
				}
			}
		})
	}
}

// 令牌有效但账号已被删除：401 USER_NOT_FOUND
func TestRequireAuthUserDeleted(t *testing.T) {
	cfg := testConfig()
	store := storage.NewMockStore()
	gate := NewGate(store, nil, cfg)

	// 只签发令牌，不写入存储
	token, _ := CreateToken(cfg, &model.User{ID: "usr-gone", Email: "gone@b.com"})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	gate.RequireAuth(func(w http.ResponseWriter, r *http.Request) {})(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if detail := decodeDetail(t, rec); detail.Code != CodeUserNotFound {
		t.Errorf("code = %q, want %q", detail.Code, CodeUserNotFound)
	}
}

// 凭证存储不可达：503 AUTH_ERROR，与 401 区分
func TestRequireAuthStoreUnavailable(t *testing.T) {
	cfg := testConfig()
	store := storage.NewMockStore()
	gate := NewGate(store, nil, cfg)

	user := &model.User{ID: "usr-1", Email: "a@b.com"}
	token := seedUser(t, store, cfg, user)
	store.FailAll = errors.New("connection refused")

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	gate.RequireAuth(func(w http.ResponseWriter, r *http.Request) {})(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if detail := decodeDetail(t, rec); detail.Code != CodeAuthError {
		t.Errorf("code = %q, want %q", detail.Code, CodeAuthError)
	}
}

func TestRequireAllowedAndAdmin(t *testing.T) {
	cfg := testConfig()
	store := storage.NewMockStore()
	gate := NewGate(store, nil, cfg)

	tests := []struct {
		name       string
		user       *model.User
		middleware func(http.HandlerFunc) http.HandlerFunc
		wantStatus int
		wantCode   string
	}{
		{
			name:       "allowed user passes RequireAllowed",
			user:       &model.User{ID: "usr-a1", Email: "a1@b.com", Role: model.UserRoleUser, IsAllowed: true},
			middleware: gate.RequireAllowed,
			wantStatus: http.StatusOK,
		},
		{
			name:       "pending user blocked by RequireAllowed",
			user:       &model.User{ID: "usr-a2", Email: "a2@b.com", Role: model.UserRoleUser, IsAllowed: false},
			middleware: gate.RequireAllowed,
			wantStatus: http.StatusForbidden,
			wantCode:   CodeAccessDenied,
		},
		{
			// Admin 不蕴含 Allowed
			name:       "unallowed admin blocked by RequireAllowed",
			user:       &model.User{ID: "usr-a3", Email: "a3@b.com", Role: model.UserRoleAdmin, IsAllowed: false},
			middleware: gate.RequireAllowed,
			wantStatus: http.StatusForbidden,
			wantCode:   CodeAccessDenied,
		},
		{
			name:       "admin passes RequireAdmin",
			user:       &model.User{ID: "usr-a4", Email: "a4@b.com", Role: model.UserRoleAdmin, IsAllowed: true},
			middleware: gate.RequireAdmin,
			wantStatus: http.StatusOK,
		},
		{
			name:       "regular user blocked by RequireAdmin",
			user:       &model.User{ID: "usr-a5", Email: "a5@b.com", Role: model.UserRoleUser, IsAllowed: true},
			middleware: gate.RequireAdmin,
			wantStatus: http.StatusForbidden,
			wantCode:   CodeAdminRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := seedUser(t, store, cfg, tt.user)

			handler := gate.RequireAuth(tt.middleware(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantCode != "" {
				if detail := decodeDetail(t, rec); detail.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", detail.Code, tt.wantCode)
				}
			}
		})
	}
}

// 过期令牌在边界之后必须被拒绝
func TestRequireAuthExpiredToken(t *testing.T) {
	store := storage.NewMockStore()
	shortCfg := Config{JWTSecret: "test-secret", TokenTTL: -time.Second}
	gate := NewGate(store, nil, Config{JWTSecret: "test-secret", TokenTTL: time.Hour})

	user := &model.User{ID: "usr-exp", Email: "exp@b.com", IsAllowed: true}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatal(err)
	}
	token, _ := CreateToken(shortCfg, user)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	gate.RequireAuth(func(w http.ResponseWriter, r *http.Request) {})(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if detail := decodeDetail(t, rec); detail.Code != CodeInvalidToken {
		t.Errorf("code = %q, want %q", detail.Code, CodeInvalidToken)
	}
}
