package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config radio-assets service configuration, loaded from the environment.
type Config struct {
	HTTP struct {
		Addr string
	}
	Database DatabaseConfig
	Redis    struct {
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	Fireplan     FireplanConfig
	Resourcesoff ResourcesoffConfig
}

// DatabaseConfig PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// DSN returns the lib/pq connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// FireplanConfig legacy fireplan fleet-management access.
type FireplanConfig struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// ResourcesoffConfig legacy resourcesoff vector feed access.
// Shares credentials with fireplan on the legacy network.
type ResourcesoffConfig struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "radioassets")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Fireplan.BaseURL = getEnv("FIREPLAN_BASE_URL", "http://fireplan.firebru2k8.local")
	cfg.Fireplan.Username = getEnv("FIREPLAN_USERNAME", "")
	cfg.Fireplan.Password = getEnv("FIREPLAN_PASSWORD", "")
	cfg.Fireplan.Timeout = time.Duration(parseInt(getEnv("FIREPLAN_TIMEOUT_SECONDS", "15"), 15)) * time.Second

	cfg.Resourcesoff.BaseURL = getEnv("RESOURCESOFF_BASE_URL", "http://resourcesoff.firebru2k8.local")
	cfg.Resourcesoff.Username = getEnv("RESOURCESOFF_USERNAME", cfg.Fireplan.Username)
	cfg.Resourcesoff.Password = getEnv("RESOURCESOFF_PASSWORD", cfg.Fireplan.Password)
	cfg.Resourcesoff.Timeout = time.Duration(parseInt(getEnv("RESOURCESOFF_TIMEOUT_SECONDS", "15"), 15)) * time.Second

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
