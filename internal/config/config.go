package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

type Config struct {
	Env             string
	LogLevel        string
	ServerPort      string
	StoreDriver     string
	DBHost          string
	DBPort          string
	DBUser          string
	DBPassword      string
	DBName          string
	MongoURI        string
	MongoDB         string
	JWTSecret       string
	WSRequireToken  bool
	WSOrigins       []string
	CORSOrigins     []string
	KafkaBrokers    []string
	KafkaTopic      string
	ShutdownTimeout time.Duration
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:          getEnv("APP_ENV", "dev"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		StoreDriver:  strings.ToLower(getEnv("STORE_DRIVER", StorePostgres)),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBUser:       getEnv("DB_USER", "vybe"),
		DBPassword:   getEnv("DB_PASSWORD", "vybe_dev_password"),
		DBName:       getEnv("DB_NAME", "vybe"),
		MongoURI:     strings.TrimSpace(os.Getenv("MONGO_URI")),
		MongoDB:      getEnv("MONGO_DB", "vybe"),
		JWTSecret:    getEnv("JWT_SECRET", "dev-secret-change-me"),
		WSOrigins:    splitAndTrim(os.Getenv("WS_ORIGIN_PATTERNS")),
		CORSOrigins:  splitAndTrim(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		KafkaBrokers: splitAndTrim(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "vybe.activity.v1"),
	}

	switch cfg.StoreDriver {
	case StoreMemory, StorePostgres:
	case StoreMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGO_URI is required when STORE_DRIVER=mongo")
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER: %s", cfg.StoreDriver)
	}

	requireToken, err := parseBool("WS_REQUIRE_TOKEN", false)
	if err != nil {
		return nil, err
	}
	cfg.WSRequireToken = requireToken

	timeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cfg.ShutdownTimeout = timeout

	return cfg, nil
}

// PostgresDSN builds the connection string for pgxpool.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func parseBool(key string, def bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		raw = def
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return dur, nil
}
