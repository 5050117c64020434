package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Uploads  UploadConfig   `mapstructure:"uploads"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port           int    `mapstructure:"port"`
	AllowedOrigins string `mapstructure:"allowed_origins"` // 逗号分隔，供 WebSocket Origin 校验
}

// AuthConfig contains token issuance and login throttling settings.
type AuthConfig struct {
	PrivateKeyPath        string `mapstructure:"private_key_path"`
	PublicKeyPath         string `mapstructure:"public_key_path"`
	AccessTokenTTLMin     int    `mapstructure:"access_token_ttl_min"`
	RefreshTokenTTLHours  int    `mapstructure:"refresh_token_ttl_hours"`
	LoginRateLimitPerHour int    `mapstructure:"login_rate_limit_per_hour"`
	LoginLockThreshold    int    `mapstructure:"login_lock_threshold"`
	LoginLockTTLMin       int    `mapstructure:"login_lock_ttl_min"`
	CookieDomain          string `mapstructure:"cookie_domain"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig 包含 Redis 连接配置。
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr 拼接 host:port。
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	PublicEndpoint  string `mapstructure:"public_endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
}

// UploadConfig 约束简历 / 头像 / Logo 上传。
type UploadConfig struct {
	ClamdAddr        string `mapstructure:"clamd_addr"`
	MaxBytes         int64  `mapstructure:"max_bytes"`
	MaxAssetsPerUser int    `mapstructure:"max_assets_per_user"`
	MaxUploadsPerDay int    `mapstructure:"max_uploads_per_day"`
}

// WorkerConfig 控制后台清扫任务。
type WorkerConfig struct {
	JobPostingTTLDays int    `mapstructure:"job_posting_ttl_days"`
	SweepInterval     string `mapstructure:"sweep_interval"` // asynq scheduler 表达式，如 "@every 1h"
	Concurrency       int    `mapstructure:"concurrency"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Origins 拆分 allowed_origins。
func (a APIConfig) Origins() []string {
	if strings.TrimSpace(a.AllowedOrigins) == "" {
		return nil
	}
	parts := strings.Split(a.AllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Load reads configuration solely from environment variables (with optional defaults).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("auth.access_token_ttl_min", 15)
	v.SetDefault("auth.refresh_token_ttl_hours", 168)
	v.SetDefault("auth.login_rate_limit_per_hour", 10)
	v.SetDefault("auth.login_lock_threshold", 5)
	v.SetDefault("auth.login_lock_ttl_min", 30)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "devboard")
	v.SetDefault("database.user", "devboard")
	v.SetDefault("database.password", "devboard")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.public_endpoint", "http://localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "devboard-assets")
	v.SetDefault("uploads.clamd_addr", "tcp://localhost:3310")
	v.SetDefault("uploads.max_bytes", 5*1024*1024)
	v.SetDefault("uploads.max_assets_per_user", 20)
	v.SetDefault("uploads.max_uploads_per_day", 20)
	v.SetDefault("worker.job_posting_ttl_days", 60)
	v.SetDefault("worker.sweep_interval", "@every 1h")
	v.SetDefault("worker.concurrency", 10)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                       "API_PORT",
		"api.allowed_origins":            "API_ALLOWED_ORIGINS",
		"auth.private_key_path":          "AUTH_PRIVATE_KEY_PATH",
		"auth.public_key_path":           "AUTH_PUBLIC_KEY_PATH",
		"auth.access_token_ttl_min":      "AUTH_ACCESS_TOKEN_TTL_MIN",
		"auth.refresh_token_ttl_hours":   "AUTH_REFRESH_TOKEN_TTL_HOURS",
		"auth.login_rate_limit_per_hour": "AUTH_LOGIN_RATE_LIMIT_PER_HOUR",
		"auth.login_lock_threshold":      "AUTH_LOGIN_LOCK_THRESHOLD",
		"auth.login_lock_ttl_min":        "AUTH_LOGIN_LOCK_TTL_MIN",
		"auth.cookie_domain":             "AUTH_COOKIE_DOMAIN",
		"database.host":                  "DATABASE_HOST",
		"database.port":                  "DATABASE_PORT",
		"database.name":                  "POSTGRES_DB",
		"database.user":                  "POSTGRES_USER",
		"database.password":              "POSTGRES_PASSWORD",
		"database.sslmode":               "DATABASE_SSLMODE",
		"redis.host":                     "REDIS_HOST",
		"redis.port":                     "REDIS_PORT",
		"minio.endpoint":                 "MINIO_ENDPOINT",
		"minio.public_endpoint":          "MINIO_PUBLIC_ENDPOINT",
		"minio.access_key_id":            "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":        "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":                  "MINIO_USE_SSL",
		"minio.bucket":                   "MINIO_BUCKET",
		"minio.region":                   "MINIO_REGION",
		"uploads.clamd_addr":             "UPLOADS_CLAMD_ADDR",
		"uploads.max_bytes":              "UPLOADS_MAX_BYTES",
		"uploads.max_assets_per_user":    "UPLOADS_MAX_ASSETS_PER_USER",
		"uploads.max_uploads_per_day":    "UPLOADS_MAX_UPLOADS_PER_DAY",
		"worker.job_posting_ttl_days":    "WORKER_JOB_POSTING_TTL_DAYS",
		"worker.sweep_interval":          "WORKER_SWEEP_INTERVAL",
		"worker.concurrency":             "WORKER_CONCURRENCY",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.Auth.PrivateKeyPath == "" {
		return errors.New("auth private key path is required")
	}
	if cfg.Auth.PublicKeyPath == "" {
		return errors.New("auth public key path is required")
	}
	if cfg.Auth.AccessTokenTTLMin <= 0 {
		return errors.New("access token ttl must be positive")
	}
	if cfg.Auth.RefreshTokenTTLHours <= 0 {
		return errors.New("refresh token ttl must be positive")
	}
	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("database password is required")
	}
	if cfg.Database.SSLMode == "" {
		return errors.New("database sslmode is required")
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.AccessKeyID == "" {
		return errors.New("minio access key id is required")
	}
	if cfg.MinIO.SecretAccessKey == "" {
		return errors.New("minio secret access key is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	if cfg.Uploads.MaxBytes <= 0 {
		return errors.New("uploads max bytes must be positive")
	}
	if cfg.Worker.JobPostingTTLDays <= 0 {
		return errors.New("job posting ttl must be positive")
	}
	return nil
}
