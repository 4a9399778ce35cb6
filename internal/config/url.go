package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"findoc-gateway/internal/shared/storage"
)

// buildDatabaseURL 根据驱动类型构建数据库连接字符串
// 凭据只来自环境变量（DB_PASSWORD），YAML 中不存储密码
func buildDatabaseURL(db DatabaseConfig) string {
	if db.URI != "" {
		return db.URI
	}
	password := os.Getenv("DB_PASSWORD")
	switch strings.ToLower(db.Driver) {
	case "sqlite":
		dbPath := db.Path
		if dbPath == "" {
			dbPath = "findoc.db"
		}
		return fmt.Sprintf("file:%s?cache=shared&mode=rwc", dbPath)
	case "postgres":
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			db.User, password, db.Host, db.Port, db.Name)
	default: // mongodb
		if db.User != "" && password != "" {
			return fmt.Sprintf("mongodb://%s:%s@%s:%d/%s", db.User, password, db.Host, db.Port, db.Name)
		}
		return fmt.Sprintf("mongodb://%s:%d/%s", db.Host, db.Port, db.Name)
	}
}

// detectDatabaseDriver 检测数据库驱动类型
// 优先级：YAML driver 字段 > 连接串前缀自动检测 > 默认 mongodb
func detectDatabaseDriver(yamlDriver, databaseURL string) string {
	if d := strings.ToLower(yamlDriver); d == "sqlite" || d == "postgres" || d == "mongodb" {
		return d
	}
	return storage.DetectDriver(databaseURL)
}

// mongoDBName 从 MongoDB URI 的 path 段提取数据库名
// URI 未携带时回落到 YAML database.name，再回落到 "findoc"
func mongoDBName(databaseURL, yamlName string) string {
	if u, err := url.Parse(databaseURL); err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	if yamlName != "" {
		return yamlName
	}
	return "findoc"
}

// normalizeUpstreamURL 归一化上游服务地址
//
// 去掉尾部斜杠；loopback 地址（localhost/127.0.0.1/::1）强制 http，
// 规避容器内误配 https 指向本机明文端口时的握手失败。
func normalizeUpstreamURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.Scheme == "https" && isLoopbackHost(u.Hostname()) {
		u.Scheme = "http"
		return u.String()
	}
	return raw
}

func isLoopbackHost(host string) bool {
	switch strings.ToLower(host) {
	case "localhost", "127.0.0.1", "::1", "0.0.0.0":
		return true
	}
	return false
}

// maskPassword 隐藏密码
func maskPassword(url string) string {
	re := regexp.MustCompile(`(://[^:]+:)([^@]+)(@)`)
	return re.ReplaceAllString(url, "${1}***${3}")
}

// parseEnv 解析环境字符串
func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

// firstEnv 返回第一个非空的环境变量值（兼容多种部署变量名）
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// getEnv 获取环境变量，支持默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
