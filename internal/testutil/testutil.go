// Package testutil holds fixtures shared by the package tests: an in-memory
// store, record factories, repository mocks and a cookie-keeping browser.
package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/EgehanKilicarslan/tasktracker/internal/config"
	"github.com/EgehanKilicarslan/tasktracker/internal/database"
	"github.com/EgehanKilicarslan/tasktracker/internal/middleware"
)

// TestConfig returns settings suited to unit tests
func TestConfig() *config.Config {
	return &config.Config{
		AppEnv:                "test",
		LogLevel:              slog.LevelError,
		DatabaseDriver:        config.DriverSQLite,
		JWTSecret:             "test_secret",
		SessionTTL:            3600,
		SessionSweepInterval:  60,
		DeleteConfirmationTTL: 300,
		TaskEditPolicy:        "any",
		LoginMaxAttempts:      3,
		LoginAttemptWindow:    900,
	}
}

// TestLogger discards everything below error level
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// SetupTestDB creates a migrated in-memory SQLite database
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// Every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.RunMigrations(db, config.DriverSQLite))

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

// SetupMiniRedis starts an in-process Redis and a limiter backed by it
func SetupMiniRedis(t *testing.T, cfg *config.Config) (*miniredis.Miniredis, middleware.RateLimiter) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	limiter := middleware.NewRateLimiterForTesting(client, cfg, TestLogger())

	t.Cleanup(func() {
		limiter.Close()
		mr.Close()
	})

	return mr, limiter
}
