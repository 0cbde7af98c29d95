package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	SessionBackendMemory   = "memory"
	SessionBackendPostgres = "postgres"
	SessionBackendRedis    = "redis"
)

// Config holds the application configuration.
type Config struct {
	Port      string
	APIURL    string
	PublicURL string
	LogLevel  string

	SessionBackend string
	SessionTTL     time.Duration
	CookieHashKey  string
	CookieBlockKey string
	SocketSecret   string

	DB       Database
	RedisURL string

	AutosaveWindow time.Duration
	MaxUploadBytes int64
	GoogleClientID string
}

// Database mirrors the connection variables used by the Postgres session store.
type Database struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
	SSLMode  string
}

// Load reads configuration from environment variables, falling back to defaults.
// Call godotenv.Load beforehand to pick up a .env file.
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		APIURL:    strings.TrimRight(getEnv("API_URL", "http://127.0.0.1:8000/api"), "/"),
		PublicURL: strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:8080"), "/"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		SessionBackend: strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendMemory)),
		SessionTTL:     getDuration("SESSION_TTL", 7*24*time.Hour),
		CookieHashKey:  getEnv("COOKIE_HASH_KEY", ""),
		CookieBlockKey: getEnv("COOKIE_BLOCK_KEY", ""),
		SocketSecret:   getEnv("SOCKET_SECRET", ""),

		DB: Database{
			User:     getEnv("user", ""),
			Password: getEnv("password", ""),
			Host:     getEnv("host", "localhost"),
			Port:     getEnv("port", "5432"),
			Name:     getEnv("dbname", "scrollvite"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
		},
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		AutosaveWindow: getDuration("AUTOSAVE_WINDOW", 2*time.Second),
		MaxUploadBytes: getInt64("MAX_UPLOAD_BYTES", 10<<20),
		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),
	}
}

// Addr is the listen address derived from Port.
func (c *Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getInt64(key string, defaultValue int64) int64 {
	n, err := strconv.ParseInt(getEnv(key, ""), 10, 64)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
