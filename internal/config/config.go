package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Load 加载配置
// 1. 加载 .env（敏感信息 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/common.yaml 和 configs/{env}.yaml
// 3. 环境变量覆盖 YAML，构建最终配置
func Load() *Config {
	// 加载 .env
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	// 解析环境
	env := parseEnv(getEnv("APP_ENV", "dev"))

	// 加载 YAML 配置
	yamlCfg := loadYAMLConfig(env)

	// 数据库连接串：MONGODB_URI / DATABASE_URL 环境变量优先于 YAML
	databaseURL := firstEnv("MONGODB_URI", "DATABASE_URL")
	if databaseURL == "" {
		databaseURL = buildDatabaseURL(yamlCfg.Database)
	}
	driver := detectDatabaseDriver(yamlCfg.Database.Driver, databaseURL)

	expireDays := yamlCfg.Auth.ExpireDays
	if v := os.Getenv("JWT_EXPIRE_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			expireDays = n
		}
	}
	if expireDays <= 0 {
		expireDays = 7
	}

	cfg := &Config{
		Env:            env,
		Port:           getEnv("PORT", yamlCfg.Server.Port),
		DatabaseDriver: driver,
		DatabaseURL:    databaseURL,
		DatabaseDBName: mongoDBName(databaseURL, yamlCfg.Database.Name),
		RedisURL:       getEnv("REDIS_URL", yamlCfg.Redis.URL),
		UpstreamURL:    normalizeUpstreamURL(getEnv("FASTAPI_URL", yamlCfg.Upstream.URL)),
		UpstreamAPIKey: os.Getenv("FASTAPI_API_KEY"),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-me"),
		ExpireDays:     expireDays,
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
	}

	return cfg
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → common.yaml → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	// 1. 初始化默认值
	cfg := &YAMLConfig{
		Server:   ServerConfig{Port: "4000"},
		Database: DatabaseConfig{Driver: "mongodb", Host: "localhost", Port: 27017, Name: "findoc"},
		Upstream: UpstreamConfig{URL: "http://localhost:8000"},
		Auth:     AuthConfig{ExpireDays: 7},
	}

	// 2. 加载 common.yaml（公共配置）
	for _, base := range configPaths {
		path := filepath.Join(base, "common.yaml")
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	// 3. 加载 {env}.yaml（环境特定配置，覆盖公共配置）
	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range configPaths {
		path := filepath.Join(base, filename)
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	return cfg
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// String 返回配置摘要（隐藏密码）
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Driver: %s, DB: %s, Upstream: %s}",
		c.Env, c.DatabaseDriver, maskPassword(c.DatabaseURL), c.UpstreamURL)
}
