// Package server 提供 HTTP 服务装配
//
// 本包把认证域和转发域的路由装配到一个 http.ServeMux 上，包括：
//   - 认证接口（signup/login/users/access）
//   - 转发接口（upload/query/extract 等，透传到上游处理服务）
//   - 健康检查和 Prometheus 指标
//
// 文件组织：
//   - common.go: Handler 定义和健康检查
//   - handler.go: 路由装配和中间件链
//   - metrics.go: Prometheus 指标
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"findoc-gateway/internal/apiserver/auth"
	"findoc-gateway/internal/apiserver/gateway"
	"findoc-gateway/internal/shared/cache"
	"findoc-gateway/internal/shared/storage"
)

// ServiceName 健康检查里上报的服务名
const ServiceName = "findoc-gateway"

// Handler API 装配器
//
// 依赖说明：
//   - store: 凭证存储（mongodb 主驱动，postgres/sqlite 可选）
//   - userCache: 身份缓存，可为 nil（未配置 Redis 时直连存储）
//   - upstream: 上游处理服务客户端
type Handler struct {
	store    storage.UserStore
	authH    *auth.Handler
	gatewayH *gateway.Handler
	metrics  *Metrics
}

// NewHandler 创建 Handler 实例
func NewHandler(store storage.UserStore, userCache cache.UserCache, authCfg auth.Config, upstream *gateway.Client) *Handler {
	gate := auth.NewGate(store, userCache, authCfg)
	return &Handler{
		store:    store,
		authH:    auth.NewHandler(store, userCache, authCfg, gate),
		gatewayH: gateway.NewHandler(upstream, gate),
		metrics:  NewMetrics("gateway"),
	}
}

// writeJSON 将数据以 JSON 格式写入 HTTP 响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 活探凭证存储，连通状态放在 mongodb 字段（字段名保持既有客户端契约，
// SQL 驱动时同样使用该字段）。存储断连不影响 status=ok：进程存活即 ok。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbState := "connected"
	if err := h.store.Ping(ctx); err != nil {
		dbState = "disconnected"
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": ServiceName,
		"mongodb": dbState,
	})
}
