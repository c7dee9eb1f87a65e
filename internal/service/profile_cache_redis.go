package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"profile-store/internal/domain"
)

// ProfileCache guarda perfiles leídos. Es opcional: los fallos de la caché
// nunca hacen fallar una petición.
type ProfileCache interface {
	Get(ctx context.Context, email string) (domain.Profile, bool, error)
	Set(ctx context.Context, email string, profile domain.Profile) error
	Delete(ctx context.Context, email string) error
}

type noopProfileCache struct{}

func (noopProfileCache) Get(context.Context, string) (domain.Profile, bool, error) {
	return nil, false, nil
}

func (noopProfileCache) Set(context.Context, string, domain.Profile) error { return nil }

func (noopProfileCache) Delete(context.Context, string) error { return nil }

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisProfileCache struct {
	client redisKV
	ttl    time.Duration
	prefix string
}

func NewRedisProfileCache(client *redis.Client, ttl time.Duration) ProfileCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &redisProfileCache{
		client: client,
		ttl:    ttl,
		prefix: "profile:",
	}
}

// La clave usa el email tal cual: la búsqueda distingue mayúsculas.
func (c *redisProfileCache) key(email string) string {
	return c.prefix + strings.TrimSpace(email)
}

func (c *redisProfileCache) Get(ctx context.Context, email string) (domain.Profile, bool, error) {
	raw, err := c.client.Get(ctx, c.key(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var profile domain.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, false, err
	}
	return profile, true, nil
}

func (c *redisProfileCache) Set(ctx context.Context, email string, profile domain.Profile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(email), raw, c.ttl).Err()
}

func (c *redisProfileCache) Delete(ctx context.Context, email string) error {
	return c.client.Del(ctx, c.key(email)).Err()
}
