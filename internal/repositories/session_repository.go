package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arjunmalhotra1/shopline/internal/api/middleware"
	"github.com/arjunmalhotra1/shopline/internal/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionRepository keeps the server-side half of the auth state in Redis:
// a sliding-window login rate limit per username, and the set of live
// refresh sessions so refresh tokens can be revoked before their TTL.
type SessionRepository interface {
	CheckLoginRateLimit(ctx context.Context, username string) (bool, int, int, error)
	SaveRefreshSession(ctx context.Context, userID uuid.UUID, tokenID string, ttl time.Duration) error
	RefreshSessionExists(ctx context.Context, userID uuid.UUID, tokenID string) (bool, error)
	DeleteRefreshSession(ctx context.Context, userID uuid.UUID, tokenID string) error
}

type sessionRepository struct {
	client *redis.Client
	cfg    *config.Config
}

func NewRedisClient(cfg *config.Config) (*redis.Client, error) {

	redisURL := cfg.RedisConnect.GetDSN()
	slog.Info("Connecting to Redis", slog.String("host", cfg.RedisConnect.Host), slog.String("port", cfg.RedisConnect.Port))

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opt.DB = cfg.RedisConnect.DB

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Test the connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("✅ Successfully connected to Redis")
	return client, nil

}

func NewSessionRepo(client *redis.Client, cfg *config.Config) SessionRepository {
	return &sessionRepository{client: client, cfg: cfg}
}

// Returns isAllowed, attempts left, seconds to wait, error
func (r *sessionRepository) CheckLoginRateLimit(ctx context.Context, username string) (bool, int, int, error) {

	logger := middleware.LoggerFromContext(ctx)

	key := fmt.Sprintf("login_attempts:%s", username)

	now := time.Now().Unix()

	// only attempts inside the window are counted
	windowStart := now - int64(r.cfg.RateConfig.WindowSize.Seconds())

	pipe := r.client.Pipeline()

	// drop entries that fell out of the window
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))

	// record the current attempt
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})

	// count attempts currently in the window
	count := pipe.ZCard(ctx, key)

	// the key expires with the window
	pipe.Expire(ctx, key, r.cfg.RateConfig.WindowSize)

	_, err := pipe.Exec(ctx)
	if err != nil {
		logger.Error("Redis pipeline execution failed for rate limit", slog.String("key", key), slog.Any("error", err))
		return false, 0, 0, fmt.Errorf("redis pipeline error for rate limit check: %w", err)
	}

	attempts := count.Val()
	remaining := r.cfg.RateConfig.MaxAttempts - attempts

	if attempts >= r.cfg.RateConfig.MaxAttempts {

		oldestScoreCmd := r.client.ZRangeArgsWithScores(ctx, redis.ZRangeArgs{
			Key: key, Start: 0, Stop: 0,
		})

		scores, err := oldestScoreCmd.Result()
		if err != nil || len(scores) == 0 {
			logger.Error("Failed to get oldest attempt time for rate limit", slog.String("key", key), slog.Any("error", err))
			return false, 0, int(r.cfg.RateConfig.WindowSize.Seconds()), fmt.Errorf("failed to get oldest attempt time: %w", err)
		}

		oldestTimestamp := int64(scores[0].Score)

		retryAfter := max((oldestTimestamp+int64(r.cfg.RateConfig.WindowSize.Seconds()))-now, 0)

		logger.Warn("Rate limit exceeded for user", slog.String("username", username), slog.Int64("attempts", attempts))
		return false, 0, int(retryAfter), nil
	}

	logger.Debug("Rate limit check passed", slog.String("username", username), slog.Int64("attempts", attempts), slog.Int64("remaining", remaining))
	return true, int(remaining), 0, nil
}

func refreshSessionKey(userID uuid.UUID, tokenID string) string {
	return fmt.Sprintf("refresh_session:%s:%s", userID, tokenID)
}

func (r *sessionRepository) SaveRefreshSession(ctx context.Context, userID uuid.UUID, tokenID string, ttl time.Duration) error {

	if err := r.client.Set(ctx, refreshSessionKey(userID, tokenID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save refresh session: %w", err)
	}

	return nil
}

func (r *sessionRepository) RefreshSessionExists(ctx context.Context, userID uuid.UUID, tokenID string) (bool, error) {

	n, err := r.client.Exists(ctx, refreshSessionKey(userID, tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check refresh session: %w", err)
	}

	return n > 0, nil
}

func (r *sessionRepository) DeleteRefreshSession(ctx context.Context, userID uuid.UUID, tokenID string) error {

	if err := r.client.Del(ctx, refreshSessionKey(userID, tokenID)).Err(); err != nil {
		return fmt.Errorf("failed to delete refresh session: %w", err)
	}

	return nil
}
