package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/EgehanKilicarslan/tasktracker/internal/config"
)

// RateLimiter throttles repeated failed logins per email using Redis
type RateLimiter interface {
	// CheckLoginLimit reports whether another login attempt is allowed
	// Returns: allowed bool, failed int64, limit int64, error
	CheckLoginLimit(ctx context.Context, email string) (bool, int64, int64, error)

	// IncrementFailedLogins records a failed attempt inside the counting window
	IncrementFailedLogins(ctx context.Context, email string) error

	// ResetFailedLogins clears the counter after a successful login
	ResetFailedLogins(ctx context.Context, email string) error

	// Close closes the Redis connection
	Close() error
}

type redisRateLimiter struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
	logger      *slog.Logger
}

// NewRateLimiter creates a new Redis-based rate limiter
func NewRateLimiter(cfg *config.Config, logger *slog.Logger) (RateLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       int(cfg.RedisDB),
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("❌ [RateLimiter] Failed to connect to Redis", "error", err)
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("✅ [RateLimiter] Connected to Redis",
		"host", cfg.RedisHost,
		"port", cfg.RedisPort,
	)

	return NewRateLimiterForTesting(client, cfg, logger), nil
}

// NewRateLimiterForTesting wraps an existing client, skipping the connection check
func NewRateLimiterForTesting(client *redis.Client, cfg *config.Config, logger *slog.Logger) RateLimiter {
	return &redisRateLimiter{
		client:      client,
		maxAttempts: cfg.LoginMaxAttempts,
		window:      time.Duration(cfg.LoginAttemptWindow) * time.Second,
		logger:      logger,
	}
}

// failedLoginKey generates the Redis key for the failed login counter
// Format: login:failed:{email}
func failedLoginKey(email string) string {
	return fmt.Sprintf("login:failed:%s", strings.ToLower(strings.TrimSpace(email)))
}

func (r *redisRateLimiter) CheckLoginLimit(ctx context.Context, email string) (bool, int64, int64, error) {
	// If limit is 0 or negative, unlimited
	if r.maxAttempts <= 0 {
		return true, 0, 0, nil
	}

	count, err := r.client.Get(ctx, failedLoginKey(email)).Int64()
	if errors.Is(err, redis.Nil) {
		return true, 0, r.maxAttempts, nil
	}
	if err != nil {
		r.logger.Error("❌ [RateLimiter] Failed to get failed login count", "error", err, "email", email)
		// On error, allow the request but log it
		return true, 0, r.maxAttempts, err
	}

	return count < r.maxAttempts, count, r.maxAttempts, nil
}

func (r *redisRateLimiter) IncrementFailedLogins(ctx context.Context, email string) error {
	key := failedLoginKey(email)

	// The window starts at the first failure. NX also heals a counter left without a TTL.
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, r.window)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("❌ [RateLimiter] Failed to increment failed logins", "error", err, "email", email)
		return err
	}

	count := incr.Val()
	if count >= r.maxAttempts && r.maxAttempts > 0 {
		r.logger.Warn("🚫 [RateLimiter] Login attempts exhausted", "email", email, "failed", count)
	}
	return nil
}

func (r *redisRateLimiter) ResetFailedLogins(ctx context.Context, email string) error {
	return r.client.Del(ctx, failedLoginKey(email)).Err()
}

func (r *redisRateLimiter) Close() error {
	return r.client.Close()
}

// NoOpRateLimiter is a rate limiter that always allows requests
// Used when Redis is not available
type NoOpRateLimiter struct {
	logger *slog.Logger
}

// NewNoOpRateLimiter creates a no-op rate limiter
func NewNoOpRateLimiter(logger *slog.Logger) RateLimiter {
	logger.Warn("⚠️ [RateLimiter] Using no-op rate limiter - login throttling is disabled")
	return &NoOpRateLimiter{logger: logger}
}

func (r *NoOpRateLimiter) CheckLoginLimit(ctx context.Context, email string) (bool, int64, int64, error) {
	return true, 0, 0, nil
}

func (r *NoOpRateLimiter) IncrementFailedLogins(ctx context.Context, email string) error {
	return nil
}

func (r *NoOpRateLimiter) ResetFailedLogins(ctx context.Context, email string) error {
	return nil
}

func (r *NoOpRateLimiter) Close() error {
	return nil
}
