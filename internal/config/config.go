package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	AppEnv                string
	LogLevel              slog.Level
	ApiServicePort        string
	ApiGrpcPort           string
	DatabaseDriver        string
	SQLitePath            string
	PostgreSQLHost        string
	PostgreSQLPort        int64
	PostgreSQLUser        string
	PostgreSQLPassword    string
	PostgreSQLDatabase    string
	JWTSecret             string
	SessionTTL            int64 // Session lifetime in seconds
	SessionSweepInterval  int64 // Expired session purge interval in seconds
	DeleteConfirmationTTL int64 // Delete confirmation token lifetime in seconds
	TaskEditPolicy        string
	RedisHost             string
	RedisPort             int64
	RedisPassword         string
	RedisDB               int64
	LoginMaxAttempts      int64
	LoginAttemptWindow    int64 // Failed login counting window in seconds
}

func LoadConfig() *Config {
	return &Config{
		AppEnv:                getEnv("APP_ENV", "development"),                     // Default development
		LogLevel:              getLogLevel(),                                        // Default INFO
		ApiServicePort:        getEnv("API_SERVICE_PORT", "8080"),                   // Default 8080
		ApiGrpcPort:           getEnv("API_GRPC_PORT", "50052"),                     // Default 50052 (health checks)
		DatabaseDriver:        getDatabaseDriver(),                                  // Default sqlite
		SQLitePath:            getEnv("SQLITE_PATH", "data/tasktracker.db"),         // Default data/tasktracker.db
		PostgreSQLHost:        getEnv("POSTGRESQL_HOST", "db"),                      // Default db
		PostgreSQLPort:        getEnvAsInt64("POSTGRESQL_PORT", 5432),               // Default 5432
		PostgreSQLUser:        getEnv("POSTGRESQL_USER", "tasktracker_user"),        // Default user
		PostgreSQLPassword:    getEnv("POSTGRESQL_PASSWORD", "tasktracker_password"), // Default password
		PostgreSQLDatabase:    getEnv("POSTGRESQL_DATABASE", "tasktracker_db"),      // Default database name
		JWTSecret:             getEnv("JWT_SECRET", "tasktracker_secret"),           // Default secret key
		SessionTTL:            getEnvAsInt64("SESSION_TTL", 86400),                  // Default 1 day
		SessionSweepInterval:  getEnvAsInt64("SESSION_SWEEP_INTERVAL", 600),         // Default 10 minutes
		DeleteConfirmationTTL: getEnvAsInt64("DELETE_CONFIRMATION_TTL", 300),        // Default 5 minutes
		TaskEditPolicy:        getEnv("TASK_EDIT_POLICY", "any"),                    // Default any logged in user
		RedisHost:             getEnv("REDIS_HOST", "redis"),                        // Default redis
		RedisPort:             getEnvAsInt64("REDIS_PORT", 6379),                    // Default 6379
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),                         // Default empty
		RedisDB:               getEnvAsInt64("REDIS_DATABASE", 0),                   // Default 0
		LoginMaxAttempts:      getEnvAsInt64("LOGIN_MAX_ATTEMPTS", 5),               // Default 5
		LoginAttemptWindow:    getEnvAsInt64("LOGIN_ATTEMPT_WINDOW", 900),           // Default 15 minutes
	}
}

// IsProduction reports whether the app runs with production settings
func (c *Config) IsProduction() bool {
	return strings.ToLower(c.AppEnv) == "production"
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
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getDatabaseDriver() string {
	switch strings.ToLower(getEnv("DATABASE_DRIVER", DriverSQLite)) {
	case DriverPostgres, "postgresql":
		return DriverPostgres
	default:
		return DriverSQLite
	}
}
