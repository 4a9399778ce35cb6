package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"findoc-gateway/internal/shared/cache"
	"findoc-gateway/internal/shared/model"
	"findoc-gateway/internal/shared/storage"
)

// Handler 认证 HTTP 处理器
type Handler struct {
	store storage.UserStore
	cache cache.UserCache // 可为 nil
	cfg   Config
	gate  *Gate
}

// NewHandler 创建认证处理器
func NewHandler(store storage.UserStore, userCache cache.UserCache, cfg Config, gate *Gate) *Handler {
	return &Handler{store: store, cache: userCache, cfg: cfg, gate: gate}
}

// RegisterRoutes 注册认证相关路由
// signup/login 公开；users 列表和 access 开关仅管理员
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/signup", h.Signup)
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("GET /auth/users", h.gate.RequireAuth(h.gate.RequireAdmin(h.ListUsers)))
	mux.HandleFunc("PATCH /auth/users/{user_id}/access", h.gate.RequireAuth(h.gate.RequireAdmin(h.SetAccess)))
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type setAccessRequest struct {
	// 指针区分"缺失/非布尔"与显式 false
	IsAllowed *bool `json:"is_allowed"`
}

// tokenResponse 签发令牌 + 资料视图
type tokenResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	UserID      string         `json:"user_id"`
	Email       string         `json:"email"`
	Name        *string        `json:"name"`
	Role        model.UserRole `json:"role"`
	IsAllowed   bool           `json:"is_allowed"`
}

// userView 用户列表项（不含密码哈希）
type userView struct {
	UserID    string         `json:"user_id"`
	Email     string         `json:"email"`
	Name      *string        `json:"name"`
	Role      model.UserRole `json:"role"`
	IsAllowed bool           `json:"is_allowed"`
	CreatedAt time.Time      `json:"created_at"`
}

func optionalName(name string) *string {
	if name == "" {
		return nil
	}
	return &name
}

func toTokenResponse(user *model.User, token string) tokenResponse {
	return tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      user.ID,
		Email:       user.Email,
		Name:        optionalName(user.Name),
		Role:        user.Role,
		IsAllowed:   user.IsAllowed,
	}
}

// normalizeEmail 邮箱归一化：trim + 小写
// 唯一性判定和登录查找都针对归一化后的值
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ============================================================================
// Handlers
// ============================================================================

// Signup 用户注册
// 新账号固定 role=user、is_allowed=false，放行由管理员事后开启
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, CodeValidationError, "Email and password (min 6) required.")
		return
	}

	email := normalizeEmail(req.Email)
	if email == "" || len(req.Password) < 6 {
		writeDetail(w, http.StatusBadRequest, CodeValidationError, "Email and password (min 6) required.")
		return
	}

	// 先查重给出友好错误；并发竞争窗口由存储层唯一索引兜底
	existing, err := h.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		log.Printf("[auth.signup] GetUserByEmail error: %v", err)
		writeDetail(w, http.StatusServiceUnavailable, CodeAuthError, "Signup failed.")
		return
	}
	if existing != nil {
		writeDetail(w, http.StatusBadRequest, CodeEmailTaken, "An account with this email already exists")
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		log.Printf("[auth.signup] HashPassword error: %v", err)
		writeDetail(w, http.StatusInternalServerError, CodeServerError, "internal error")
		return
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           generateID(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Role:         model.UserRoleUser,
		IsAllowed:    false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			// 输掉了并发注册竞争
			writeDetail(w, http.StatusBadRequest, CodeEmailTaken, "An account with this email already exists")
			return
		}
		log.Printf("[auth.signup] CreateUser error: %v", err)
		writeDetail(w, http.StatusServiceUnavailable, CodeAuthError, "Signup failed.")
		return
	}

	token, err := CreateToken(h.cfg, user)
	if err != nil {
		log.Printf("[auth.signup] CreateToken error: %v", err)
		writeDetail(w, http.StatusInternalServerError, CodeServerError, "internal error")
		return
	}

	log.Printf("[auth] User registered: %s (%s)", user.Email, user.ID)
	writeJSON(w, http.StatusOK, toTokenResponse(user, token))
}

// Login 用户登录
// 未知邮箱与错误密码返回同一错误，防账号枚举
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, CodeValidationError, "Email and password required.")
		return
	}

	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		writeDetail(w, http.StatusBadRequest, CodeValidationError, "Email and password required.")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		log.Printf("[auth.login] GetUserByEmail error: %v", err)
		writeDetail(w, http.StatusServiceUnavailable, CodeAuthError, "Login failed.")
		return
	}
	if user == nil || !CheckPassword(req.Password, user.PasswordHash) {
		writeDetail(w, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid email or password")
		return
	}

	token, err := CreateToken(h.cfg, user)
	if err != nil {
		log.Printf("[auth.login] CreateToken error: %v", err)
		writeDetail(w, http.StatusInternalServerError, CodeServerError, "internal error")
		return
	}

	log.Printf("[auth] User logged in: %s", user.Email)
	writeJSON(w, http.StatusOK, toTokenResponse(user, token))
}

// ListUsers 用户列表（仅管理员），创建时间倒序
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		log.Printf("[auth.users] ListUsers error: %v", err)
		writeDetail(w, http.StatusInternalServerError, CodeServerError, "failed to list users")
		return
	}

	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, userView{
			UserID:    u.ID,
			Email:     u.Email,
			Name:      optionalName(u.Name),
			Role:      u.Role,
			IsAllowed: u.IsAllowed,
			CreatedAt: u.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

// SetAccess 开关目标用户的放行标志（仅管理员）
// 幂等：重复写入同一值返回同样的结果
func (h *Handler) SetAccess(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	var req setAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsAllowed == nil {
		writeDetail(w, http.StatusBadRequest, CodeValidationError, "body.is_allowed (boolean) required.")
		return
	}

	if err := h.store.SetUserAccess(r.Context(), userID, *req.IsAllowed); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, CodeUserNotFound, "User not found")
			return
		}
		log.Printf("[auth.access] SetUserAccess error: %v", err)
		writeDetail(w, http.StatusInternalServerError, CodeServerError, "failed to update access")
		return
	}

	// 权限变更立即可见：主动失效缓存身份
	if h.cache != nil {
		if err := h.cache.InvalidateUser(r.Context(), userID); err != nil {
			log.Printf("[auth.access] cache invalidate error: %v", err)
		}
	}

	log.Printf("[auth] Access updated: %s is_allowed=%v", userID, *req.IsAllowed)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":    userID,
		"is_allowed": *req.IsAllowed,
	})
}

// ============================================================================
// Admin Bootstrap
// ============================================================================

// EnsureAdminUser 确保管理员用户存在（启动时调用）
// 管理员角色没有任何 API 可以授予，只能通过 ADMIN_EMAIL/ADMIN_PASSWORD
// 环境变量在启动时开通；已存在则不做任何修改
func EnsureAdminUser(store storage.UserStore, adminEmail, adminPassword string) error {
	if adminEmail == "" || adminPassword == "" {
		return nil
	}

	ctx := context.Background()
	email := normalizeEmail(adminEmail)

	existing, err := store.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if existing != nil {
		log.Printf("[auth] Admin user already exists: %s (%s)", email, existing.ID)
		return nil
	}

	hash, err := HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           generateID(),
		Email:        email,
		PasswordHash: hash,
		Name:         "Admin",
		Role:         model.UserRoleAdmin,
		IsAllowed:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Printf("[auth] Created admin user: %s (%s)", email, user.ID)
	return nil
}

// generateID 生成带前缀的用户标识符
func generateID() string {
	b := make([]byte, 6)
	rand.Read(b)
	return "usr-" + hex.EncodeToString(b)
}
