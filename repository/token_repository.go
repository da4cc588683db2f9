package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"authbridge/model"
)

// TokenRepository holds the token issuer's redis-backed state: the grace
// windows kept after rotation and the access-token blacklist. Entries are
// TTL-bound, so anything older than its window is simply gone.
type TokenRepository interface {
	PutGraceWindow(ctx context.Context, userID uint, deviceID string, win model.GraceWindow, ttl time.Duration) error
	InGraceWindow(ctx context.Context, userID uint, deviceID, tokenID string) (bool, error)
	DeleteGraceWindow(ctx context.Context, userID uint, deviceID string) error
	BlacklistAccessToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

type RedisTokenRepository struct {
	redis *redis.Client
}

func NewRedisTokenRepository(redisClient *redis.Client) *RedisTokenRepository {
	return &RedisTokenRepository{redis: redisClient}
}

func graceKey(userID uint, deviceID string) string {
	return fmt.Sprintf("grace:%d:%s", userID, deviceID)
}

// PutGraceWindow records the just-superseded token id for a device. One key
// per device, so at most one grace survivor exists per device at a time.
func (r *RedisTokenRepository) PutGraceWindow(ctx context.Context, userID uint, deviceID string, win model.GraceWindow, ttl time.Duration) error {
	data, err := json.Marshal(win)
	if err != nil {
		return err
	}
	return r.redis.Set(ctx, graceKey(userID, deviceID), data, ttl).Err()
}

func (r *RedisTokenRepository) InGraceWindow(ctx context.Context, userID uint, deviceID, tokenID string) (bool, error) {
	val, err := r.redis.Get(ctx, graceKey(userID, deviceID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var win model.GraceWindow
	if err := json.Unmarshal([]byte(val), &win); err != nil {
		return false, err
	}
	return win.TokenID == tokenID, nil
}

func (r *RedisTokenRepository) DeleteGraceWindow(ctx context.Context, userID uint, deviceID string) error {
	return r.redis.Del(ctx, graceKey(userID, deviceID)).Err()
}

func (r *RedisTokenRepository) BlacklistAccessToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.redis.Set(ctx, "blacklist:"+jti, "true", ttl).Err()
}

func (r *RedisTokenRepository) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	val, err := r.redis.Get(ctx, "blacklist:"+jti).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val == "true", nil
}
