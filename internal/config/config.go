package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv           string
	LogLevel         slog.Level
	Port             string
	DatabaseURL      string
	JWTSecret        string
	TokenExpiration  int64 // Token lifetime in seconds
	BcryptCost       int
	DBConnectRetries int64
	DBRetryDelay     int64 // Seconds between connection attempts
	ShutdownTimeout  int64 // Seconds to drain in-flight requests
}

// LoadConfig reads the process environment. DATABASE_URL, JWT_SECRET and PORT
// must be set; every other value has a default.
func LoadConfig() (*Config, error) {
	var missing []string
	required := func(key string) string {
		value := strings.TrimSpace(os.Getenv(key))
		if value == "" {
			missing = append(missing, key)
		}
		return value
	}

	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),          // Default development
		LogLevel:         getLogLevel(),                             // Default INFO
		Port:             required("PORT"),                          // Required
		DatabaseURL:      required("DATABASE_URL"),                  // Required
		JWTSecret:        required("JWT_SECRET"),                    // Required
		TokenExpiration:  getEnvAsInt64("TOKEN_EXPIRATION", 604800), // Default 7 days
		BcryptCost:       int(getEnvAsInt64("BCRYPT_COST", 10)),     // Default bcrypt.DefaultCost
		DBConnectRetries: getEnvAsInt64("DB_CONNECT_RETRIES", 10),   // Default 10 attempts
		DBRetryDelay:     getEnvAsInt64("DB_RETRY_DELAY", 2),        // Default 2 seconds
		ShutdownTimeout:  getEnvAsInt64("SHUTDOWN_TIMEOUT", 10),     // Default 10 seconds
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.ToLower(c.AppEnv) == "production"
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenExpiration) * time.Second
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
			return value
		}
	}
	return fallback
}

func getLogLevel() slog.Level {
	levelStr := getEnv("LOG_LEVEL", "INFO")

	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
