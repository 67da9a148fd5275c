package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config 结构体用于存储从环境变量或配置文件加载的配置
type Config struct {
	ServerPort        string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	KeyPrefix         string // Redis Key 前缀
	LogLevel          string
	AppEnv            string // 应用环境 (development/production)
	RateLimitMax      int
	RateLimitWindow   time.Duration
	CORSAllowedOrigin string
	WorkerConcurrency int
	OrphanSweepSpec   string // 周期性清理任务的 cron 表达式
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "chat:")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("RATE_LIMIT_MAX", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", time.Second)
	v.SetDefault("WORKER_CONCURRENCY", 5)
	v.SetDefault("ORPHAN_SWEEP_SPEC", "@every 10m")
}

// LoadConfig 依次读取 .env、可选的 configs/config.yaml 和环境变量，环境变量优先
func LoadConfig() (*Config, error) {
	// 忽略错误，允许只使用环境变量
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AddConfigPath("./configs")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return configFromViper(v)
}

func configFromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ServerPort:        v.GetString("SERVER_PORT"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		RedisDB:           v.GetInt("REDIS_DB"),
		KeyPrefix:         v.GetString("REDIS_KEY_PREFIX"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		AppEnv:            v.GetString("APP_ENV"),
		RateLimitMax:      v.GetInt("RATE_LIMIT_MAX"),
		RateLimitWindow:   v.GetDuration("RATE_LIMIT_WINDOW"),
		CORSAllowedOrigin: v.GetString("CORS_ALLOWED_ORIGIN"),
		WorkerConcurrency: v.GetInt("WORKER_CONCURRENCY"),
		OrphanSweepSpec:   v.GetString("ORPHAN_SWEEP_SPEC"),
	}

	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if cfg.RateLimitMax <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", cfg.RateLimitMax)
	}
	if cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW must be a positive duration")
	}

	// 验证日志级别
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}
	return cfg, nil
}
