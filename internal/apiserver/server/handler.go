package server

import (
	"log"
	"net/http"
)

// Router 构建完整路由和中间件链
//
// 中间件顺序（外→内）：CORS → 请求日志 → 指标 → 业务路由。
// 认证不做全局中间件，由各域按路由显式链 RequireAuth/RequireAllowed/
// RequireAdmin，公开路由（signup/login/health/metrics）天然免认证。
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /metrics", h.metrics.Handler())

	h.authH.RegisterRoutes(mux)
	h.gatewayH.RegisterRoutes(mux)

	return corsMiddleware(requestLogMiddleware(h.metrics.MetricsMiddleware(mux)))
}

// corsMiddleware 反射 Origin 并允许携带凭据
// 演示部署场景下 UI 与后端不同源，预检请求直接放行
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogMiddleware 记录每个入站请求
func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
