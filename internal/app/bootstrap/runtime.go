package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/salestracker/internal/config"
	"github.com/wolfman30/salestracker/internal/http/middleware"
	"github.com/wolfman30/salestracker/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildLoginLimiter throttles login attempts per client IP. Without Redis or
// with a non-positive limit, logins are not throttled.
func BuildLoginLimiter(redisClient *redis.Client, cfg *appconfig.Config) *middleware.RedisLimiter {
	if redisClient == nil || cfg == nil || cfg.LoginRateLimit <= 0 {
		return nil
	}
	return middleware.NewRedisLimiter(redisClient, "salestracker:ratelimit:login:", cfg.LoginRateLimit, cfg.LoginRateWindow)
}

// LoadLocation resolves the configured time zone, falling back to UTC.
func LoadLocation(cfg *appconfig.Config, logger *logging.Logger) *time.Location {
	if cfg == nil || strings.TrimSpace(cfg.Timezone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(strings.TrimSpace(cfg.Timezone))
	if err != nil {
		if logger == nil {
			logger = logging.Default()
		}
		logger.Warn("unknown TIMEZONE, using UTC", "timezone", cfg.Timezone, "error", err)
		return time.UTC
	}
	return loc
}
