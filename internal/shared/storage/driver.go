package storage

import "strings"

// DetectDriver 从连接字符串前缀检测存储驱动类型
// 优先级：URL 前缀自动检测 > 默认 mongodb
func DetectDriver(databaseURL string) string {
	switch {
	case strings.HasPrefix(databaseURL, "file:"), strings.HasPrefix(databaseURL, "sqlite:"):
		return "sqlite"
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(databaseURL, "mongodb://"), strings.HasPrefix(databaseURL, "mongodb+srv://"):
		return "mongodb"
	default:
		return "mongodb"
	}
}
