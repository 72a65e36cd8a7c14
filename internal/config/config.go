package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	SessionStoreMemory   = "memory"
	SessionStorePostgres = "postgres"
	SessionStoreRedis    = "redis"
)

type Config struct {
	HTTP         HTTPConfig
	API          APIConfig
	Session      SessionConfig
	DatabaseURL  string
	RedisURL     string
	AuditLogFile string
	LogLevel     string
}

type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	ProbePath string
}

type SessionConfig struct {
	IdleTimeout  time.Duration
	CookieName   string
	CookieSecure bool
	Store        string
}

// fileConfig mirrors the optional YAML file. Environment variables win over it.
type fileConfig struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	API struct {
		BaseURL    string `yaml:"base_url"`
		TimeoutSec int    `yaml:"timeout_sec"`
		ProbePath  string `yaml:"probe_path"`
	} `yaml:"api"`
	Session struct {
		IdleTimeoutSec int    `yaml:"idle_timeout_sec"`
		CookieName     string `yaml:"cookie_name"`
		Store          string `yaml:"store"`
	} `yaml:"session"`
	DatabaseURL  string `yaml:"database_url"`
	RedisURL     string `yaml:"redis_url"`
	AuditLogFile string `yaml:"audit_log_file"`
	LogLevel     string `yaml:"log_level"`
}

func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var fc fileConfig
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return Config{}, fmt.Errorf("decode config file: %w", err)
		}
	}

	cfg := Config{
		HTTP: HTTPConfig{
			Addr:            getEnv("HTTP_ADDR", orDefault(fc.HTTP.Addr, ":8080")),
			ReadTimeout:     time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SEC", 10)) * time.Second,
			WriteTimeout:    time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SEC", 30)) * time.Second,
			ShutdownTimeout: time.Duration(getEnvInt("HTTP_SHUTDOWN_TIMEOUT_SEC", 20)) * time.Second,
		},
		API: APIConfig{
			BaseURL:   getEnv("API_BASE_URL", fc.API.BaseURL),
			Timeout:   time.Duration(getEnvInt("API_TIMEOUT_SEC", orDefaultInt(fc.API.TimeoutSec, 10))) * time.Second,
			ProbePath: getEnv("API_PROBE_PATH", orDefault(fc.API.ProbePath, "Dashboard")),
		},
		Session: SessionConfig{
			IdleTimeout:  time.Duration(getEnvInt("SESSION_IDLE_TIMEOUT_SEC", orDefaultInt(fc.Session.IdleTimeoutSec, 300))) * time.Second,
			CookieName:   getEnv("SESSION_COOKIE_NAME", orDefault(fc.Session.CookieName, "iot_session")),
			CookieSecure: getEnvBool("SESSION_COOKIE_SECURE", false),
			Store:        strings.ToLower(getEnv("SESSION_STORE", orDefault(fc.Session.Store, SessionStoreMemory))),
		},
		DatabaseURL:  getEnv("DATABASE_URL", fc.DatabaseURL),
		RedisURL:     getEnv("REDIS_URL", fc.RedisURL),
		AuditLogFile: getEnv("AUDIT_LOG_FILE", orDefault(fc.AuditLogFile, "./data/audit.log")),
		LogLevel:     strings.ToLower(getEnv("LOG_LEVEL", orDefault(fc.LogLevel, "info"))),
	}

	if cfg.HTTP.Addr == "" {
		return Config{}, fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.API.BaseURL == "" {
		return Config{}, fmt.Errorf("API_BASE_URL must not be empty")
	}
	if cfg.API.Timeout <= 0 {
		return Config{}, fmt.Errorf("API_TIMEOUT_SEC must be > 0")
	}
	if cfg.Session.IdleTimeout <= 0 {
		return Config{}, fmt.Errorf("SESSION_IDLE_TIMEOUT_SEC must be > 0")
	}
	if cfg.Session.CookieName == "" {
		return Config{}, fmt.Errorf("SESSION_COOKIE_NAME must not be empty")
	}
	switch cfg.Session.Store {
	case SessionStoreMemory:
	case SessionStorePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required when SESSION_STORE=postgres")
		}
	case SessionStoreRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL is required when SESSION_STORE=redis")
		}
	default:
		return Config{}, fmt.Errorf("SESSION_STORE must be one of memory, postgres, redis")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func orDefaultInt(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
