package auth

import (
	"log"
	"net/http"
	"strings"

	"findoc-gateway/internal/shared/cache"
	"findoc-gateway/internal/shared/model"
	"findoc-gateway/internal/shared/storage"
)

// Gate 访问门禁
//
// 三级可组合中间件链：
//
//	未认证 → RequireAuth → 已认证 → {RequireAllowed, RequireAdmin}
//
// RequireAllowed / RequireAdmin 必须在 RequireAuth 之后；
// Admin 不蕴含 Allowed：未被放行的管理员照样被 RequireAllowed 拦下
type Gate struct {
	store storage.UserStore
	cache cache.UserCache // 可为 nil（未配置 Redis 时直连存储）
	cfg   Config
}

// NewGate 创建访问门禁
func NewGate(store storage.UserStore, userCache cache.UserCache, cfg Config) *Gate {
	return &Gate{store: store, cache: userCache, cfg: cfg}
}

// RequireAuth 要求有效的 Bearer 令牌
//
// 失败分支：
//   - 缺失/畸形 Authorization 头 → 401 UNAUTHORIZED
//   - 签名无效或过期 → 401 INVALID_TOKEN
//   - subject 对应账号已不存在（签发后被删）→ 401 USER_NOT_FOUND
//   - 凭证存储不可达 → 503 AUTH_ERROR
//
// 成功时将脱敏身份注入 request context。
func (g *Gate) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeDetail(w, http.StatusUnauthorized, CodeUnauthorized, "Missing or invalid Authorization header")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			writeDetail(w, http.StatusUnauthorized, CodeUnauthorized, "Missing or invalid Authorization header")
			return
		}

		claims, err := ParseToken(g.cfg, parts[1])
		if err != nil {
			log.Printf("[auth] token parse error: %v", err)
			writeDetail(w, http.StatusUnauthorized, CodeInvalidToken, "Invalid or expired token")
			return
		}

		// 回查用户：令牌无状态，账号级状态（存在性、is_allowed、role）
		// 以存储中的当前记录为准
		user, err := g.lookupUser(r, claims.Subject)
		if err != nil {
			log.Printf("[auth] user lookup error: %v", err)
			writeDetail(w, http.StatusServiceUnavailable, CodeAuthError, "Authentication backend unavailable")
			return
		}
		if user == nil {
			writeDetail(w, http.StatusUnauthorized, CodeUserNotFound, "User no longer exists")
			return
		}

		identity := &Identity{
			ID:        user.ID,
			Email:     user.Email,
			Name:      user.Name,
			Role:      user.Role,
			IsAllowed: user.IsAllowed,
		}
		next(w, r.WithContext(WithIdentity(r.Context(), identity)))
	}
}

// RequireAllowed 要求 is_allowed 放行标志（在 RequireAuth 之后使用）
func (g *Gate) RequireAllowed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := GetIdentity(r.Context())
		if id == nil || !id.IsAllowed {
			writeDetail(w, http.StatusForbidden, CodeAccessDenied, "Ask admin for access.")
			return
		}
		next(w, r)
	}
}

// RequireAdmin 要求管理员角色（在 RequireAuth 之后使用）
func (g *Gate) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := GetIdentity(r.Context())
		if id == nil || id.Role != model.UserRoleAdmin {
			writeDetail(w, http.StatusForbidden, CodeAdminRequired, "Admin access required.")
			return
		}
		next(w, r)
	}
}

// lookupUser 缓存优先回查用户；缓存故障降级回存储
func (g *Gate) lookupUser(r *http.Request, id string) (*model.User, error) {
	ctx := r.Context()
	if g.cache != nil {
		if user, err := g.cache.GetUser(ctx, id); err != nil {
			log.Printf("[auth] identity cache read error: %v", err)
		} else if user != nil {
			return user, nil
		}
	}

	user, err := g.store.GetUserByID(ctx, id)
	if err != nil || user == nil {
		return user, err
	}

	if g.cache != nil {
		if err := g.cache.SetUser(ctx, user); err != nil {
			log.Printf("[auth] identity cache write error: %v", err)
		}
	}
	return user, nil
}
