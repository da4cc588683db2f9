package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"authbridge/model"
)

// SessionRepository stores the newer backend's revocable session records
// in redis with TTL. A missing record means the session was revoked or
// expired; callers treat that as unauthenticated, not as an error.
type SessionRepository interface {
	Store(ctx context.Context, session *model.Session, ttl time.Duration) error
	Fetch(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
}

type RedisSessionRepository struct {
	redis *redis.Client
}

func NewRedisSessionRepository(redisClient *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{redis: redisClient}
}

func sessionKey(id string) string {
	return "session:" + id
}

func (r *RedisSessionRepository) Store(ctx context.Context, session *model.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.redis.Set(ctx, sessionKey(session.ID), data, ttl).Err()
}

func (r *RedisSessionRepository) Fetch(ctx context.Context, id string) (*model.Session, error) {
	val, err := r.redis.Get(ctx, sessionKey(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	return r.redis.Del(ctx, sessionKey(id)).Err()
}
