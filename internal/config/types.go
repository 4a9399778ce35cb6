// Package config 统一配置管理
//
// 配置加载优先级（高→低）：
//  1. 环境变量（通过 .env 文件或 shell 注入）
//  2. YAML 配置文件（common.yaml → {env}.yaml）
//  3. 代码硬编码默认值
//
// 凭据单一数据源：
//
//	密码/密钥只存在环境变量中（YAML 中不存储任何密码）。
//	.env 文件同时被 Docker Compose（--env-file）和 Go 应用（godotenv）
//	共用，确保单一数据源。
//
// 环境：
//   - 开发: APP_ENV=dev (默认)
//   - 测试: APP_ENV=test
//   - 生产: APP_ENV=prod
package config

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Auth     AuthConfig     `yaml:"auth"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "mongodb", "postgres", or "sqlite"（默认 mongodb）
	URI    string `yaml:"uri"`    // 完整连接串（优先于 host/port）
	Path   string `yaml:"path"`   // SQLite 文件路径
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	User   string `yaml:"user"`
	Name   string `yaml:"name"`
}

type RedisConfig struct {
	URL string `yaml:"url"` // 为空表示不启用身份缓存
}

// UpstreamConfig 上游文档处理服务配置
// APIKey 只从 FASTAPI_API_KEY 环境变量读取，不存储在 YAML 中
type UpstreamConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"-"`
}

// AuthConfig 认证配置
// JWTSecret/AdminEmail/AdminPassword 只从环境变量读取，不存储在 YAML 中
type AuthConfig struct {
	JWTSecret     string `yaml:"-"`           // 只从 JWT_SECRET 环境变量读取
	ExpireDays    int    `yaml:"expire_days"` // 令牌有效期（天）
	AdminEmail    string `yaml:"-"`           // 只从 ADMIN_EMAIL 环境变量读取
	AdminPassword string `yaml:"-"`           // 只从 ADMIN_PASSWORD 环境变量读取
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env            Environment
	Port           string
	DatabaseDriver string // "mongodb", "postgres", or "sqlite"
	DatabaseURL    string
	DatabaseDBName string // MongoDB 数据库名称
	RedisURL       string
	UpstreamURL    string
	UpstreamAPIKey string
	JWTSecret      string
	ExpireDays     int
	AdminEmail     string
	AdminPassword  string
}
