package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	CORS          CORSConfig
	Log           LogConfig
	Ingest        IngestConfig
	Consolidation ConsolidationConfig
	Reports       ReportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// IngestConfig describes the fixed layout of the roster export template.
type IngestConfig struct {
	HeaderRows int
	FooterRows int
}

// ConsolidationConfig governs upload staging and the background worker.
type ConsolidationConfig struct {
	StagingDir        string
	MaxUploadBytes    int64
	WorkerConcurrency int
	WorkerRetries     int
	RetryDelay        time.Duration
}

// ReportsConfig tunes report caching.
type ReportsConfig struct {
	CacheTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Ingest = IngestConfig{
		HeaderRows: v.GetInt("INGEST_HEADER_ROWS"),
		FooterRows: v.GetInt("INGEST_FOOTER_ROWS"),
	}

	maxUpload := v.GetInt64("CONSOLIDATION_MAX_UPLOAD_BYTES")
	if maxUpload <= 0 {
		maxUpload = 100 * 1024 * 1024
	}
	cfg.Consolidation = ConsolidationConfig{
		StagingDir:        v.GetString("CONSOLIDATION_STAGING_DIR"),
		MaxUploadBytes:    maxUpload,
		WorkerConcurrency: v.GetInt("CONSOLIDATION_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("CONSOLIDATION_WORKER_RETRIES"),
		RetryDelay:        parseDuration(v.GetString("CONSOLIDATION_RETRY_DELAY"), 5*time.Second),
	}

	cfg.Reports = ReportsConfig{
		CacheTTL: parseDuration(v.GetString("REPORTS_CACHE_TTL"), 10*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 4000)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "autoreports")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 32)
	v.SetDefault("DB_MAX_IDLE_CONNS", 8)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("INGEST_HEADER_ROWS", 10)
	v.SetDefault("INGEST_FOOTER_ROWS", 3)

	v.SetDefault("CONSOLIDATION_STAGING_DIR", "./temp")
	v.SetDefault("CONSOLIDATION_MAX_UPLOAD_BYTES", 100*1024*1024)
	v.SetDefault("CONSOLIDATION_WORKER_CONCURRENCY", 1)
	v.SetDefault("CONSOLIDATION_WORKER_RETRIES", 3)
	v.SetDefault("CONSOLIDATION_RETRY_DELAY", "5s")

	v.SetDefault("REPORTS_CACHE_TTL", "10m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
