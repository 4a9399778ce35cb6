// Package auth 用户认证：JWT 令牌管理、密码哈希、访问门禁中间件
package auth

import (
	"context"
	"fmt"
	"time"

	"findoc-gateway/internal/shared/model"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// contextKey context 键类型
type contextKey string

const ctxKeyIdentity contextKey = "auth_identity"

// Identity 从 JWT + 存储回查得到的脱敏身份视图
// 注入 request context 供下游 handler 使用，不含密码哈希
type Identity struct {
	ID        string
	Email     string
	Name      string
	Role      model.UserRole
	IsAllowed bool
}

// Config 认证配置
type Config struct {
	JWTSecret string        `yaml:"-"`         // 只从 JWT_SECRET 环境变量读取
	TokenTTL  time.Duration `yaml:"token_ttl"` // 令牌有效期（按天配置，JWT_EXPIRE_DAYS）
}

// DefaultConfig 返回默认认证配置
func DefaultConfig() Config {
	return Config{
		JWTSecret: "",
		TokenTTL:  7 * 24 * time.Hour,
	}
}

// ============================================================================
// 密码哈希
// ============================================================================

// bcryptMaxBytes bcrypt 的输入字节上限，超出部分哈希前截断
const bcryptMaxBytes = 72

const bcryptCost = 10

// truncateForBcrypt 按字节截断到 bcrypt 上限
// 哈希与比对两侧都截断，保证超长密码登录行为一致
func truncateForBcrypt(password string) []byte {
	b := []byte(password)
	if len(b) > bcryptMaxBytes {
		b = b[:bcryptMaxBytes]
	}
	return b
}

// HashPassword 使用 bcrypt 哈希密码
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(truncateForBcrypt(password), bcryptCost)
	return string(bytes), err
}

// CheckPassword 验证密码
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncateForBcrypt(password)) == nil
}

// ============================================================================
// JWT Token
// ============================================================================

// Claims JWT 声明
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// CreateToken 为用户签发访问令牌
// 无状态：只编码 subject id + email，服务端不保存任何令牌状态，
// 吊销仅能通过轮换签名密钥实现
func CreateToken(cfg Config, user *model.User) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.TokenTTL)),
		},
		Email: user.Email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken 解析并验证 JWT
// 签名无效、载荷损坏、过期都返回错误
func ParseToken(cfg Config, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// ============================================================================
// Context 辅助函数
// ============================================================================

// WithIdentity 将认证身份注入 context
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// GetIdentity 从 context 获取认证身份
func GetIdentity(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKeyIdentity).(*Identity)
	return id
}
