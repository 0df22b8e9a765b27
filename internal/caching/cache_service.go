package caching

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error

	// Session role caching
	GetRole(ctx context.Context, userID uuid.UUID) (string, error)
	SetRole(ctx context.Context, userID uuid.UUID, role string, ttl time.Duration) error
	DeleteRole(ctx context.Context, userID uuid.UUID) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	IncrementRateLimit(ctx context.Context, key string, window time.Duration) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func roleKey(userID uuid.UUID) string {
	return fmt.Sprintf("lumi:role:%s", userID.String())
}

// GetRole returns "" without error on a cache miss.
func (r *redisCacheService) GetRole(ctx context.Context, userID uuid.UUID) (string, error) {
	role, err := r.client.Get(ctx, roleKey(userID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get cached role: %w", err)
	}
	return role, nil
}

func (r *redisCacheService) SetRole(ctx context.Context, userID uuid.UUID, role string, ttl time.Duration) error {
	return r.client.Set(ctx, roleKey(userID), role, ttl).Err()
}

func (r *redisCacheService) DeleteRole(ctx context.Context, userID uuid.UUID) error {
	return r.client.Del(ctx, roleKey(userID)).Err()
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Get(ctx, fmt.Sprintf("lumi:ratelimit:%s", key)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read rate limit counter: %w", err)
	}
	return count >= limit, nil
}

func (r *redisCacheService) IncrementRateLimit(ctx context.Context, key string, window time.Duration) error {
	fullKey := fmt.Sprintf("lumi:ratelimit:%s", key)
	count, err := r.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, fullKey, window).Err(); err != nil {
			log.Printf("Failed to set rate limit window for %s: %v", fullKey, err)
		}
	}
	return nil
}
