// Package main API Server 入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"findoc-gateway/internal/apiserver/auth"
	"findoc-gateway/internal/apiserver/gateway"
	"findoc-gateway/internal/apiserver/server"
	"findoc-gateway/internal/config"
	"findoc-gateway/internal/shared/cache"
	redisstore "findoc-gateway/internal/shared/cache/redis"
	"findoc-gateway/internal/shared/storage"
	pgdriver "findoc-gateway/internal/shared/storage/driver/postgres"
	"findoc-gateway/internal/shared/storage/mongostore"
	sqlitedriver "findoc-gateway/internal/shared/storage/driver/sqlite"
	"findoc-gateway/internal/shared/storage/repository"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 切换 YAML）
	cfg := config.Load()

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	// 初始化凭证存储
	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()
	log.Printf("Connected to database [driver=%s]", cfg.DatabaseDriver)

	// 初始化 Redis 身份缓存（可选，未配置时直连存储）
	var userCache cache.UserCache
	if cfg.RedisURL != "" {
		rc, err := redisstore.NewStoreFromURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rc.Close()
		userCache = rc
		log.Println("Connected to Redis")
	}

	authCfg := auth.Config{
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  time.Duration(cfg.ExpireDays) * 24 * time.Hour,
	}

	// 引导管理员账号（ADMIN_EMAIL/ADMIN_PASSWORD 已设置且账号不存在时创建）
	if err := auth.EnsureAdminUser(store, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}

	upstream := gateway.NewClient(cfg.UpstreamURL, cfg.UpstreamAPIKey)
	h := server.NewHandler(store, userCache, authCfg, upstream)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: h.Router(),
		// 上传和 RAG 问答属于长耗时转发，只限制请求头读取，
		// 不限制整体读写（上游客户端自带 300s 超时兜底）
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}

// openStore 按驱动类型打开凭证存储
// mongodb 为主驱动；postgres/sqlite 走统一 SQL repository + 方言适配
func openStore(cfg *config.Config) (storage.UserStore, error) {
	switch cfg.DatabaseDriver {
	case "postgres":
		db, err := pgdriver.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		dialect := pgdriver.NewDialect()
		if err := dialect.AutoMigrate(db); err != nil {
			db.Close()
			return nil, err
		}
		return repository.NewStore(db, dialect), nil
	case "sqlite":
		db, err := sqlitedriver.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		dialect := sqlitedriver.NewDialect()
		if err := dialect.AutoMigrate(db); err != nil {
			db.Close()
			return nil, err
		}
		return repository.NewStore(db, dialect), nil
	default:
		return mongostore.NewStore(cfg.DatabaseURL, cfg.DatabaseDBName)
	}
}
