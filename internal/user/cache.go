package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/redmonkez12/taskapi/internal/logging"
)

// Cache stores identity records without their password hash.
type Cache interface {
	Get(ctx context.Context, id uuid.UUID) (*User, bool, error)
	Set(ctx context.Context, u *User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// cachedUser is the Redis payload. It deliberately has no password field.
type cachedUser struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RedisCache keeps identities in Redis with a fixed TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// getIdentityKey generates the Redis key for a cached identity
func getIdentityKey(id uuid.UUID) string {
	return fmt.Sprintf("identity:%s", id.String())
}

func (c *RedisCache) Get(ctx context.Context, id uuid.UUID) (*User, bool, error) {
	data, err := c.client.Get(ctx, getIdentityKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached identity: %w", err)
	}

	var cu cachedUser
	if err := json.Unmarshal(data, &cu); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached identity: %w", err)
	}

	return &User{
		ID:        cu.ID,
		Name:      cu.Name,
		Email:     cu.Email,
		CreatedAt: cu.CreatedAt,
		UpdatedAt: cu.UpdatedAt,
	}, true, nil
}

func (c *RedisCache) Set(ctx context.Context, u *User) error {
	data, err := json.Marshal(cachedUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}

	if err := c.client.Set(ctx, getIdentityKey(u.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache identity: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, getIdentityKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to evict identity: %w", err)
	}
	return nil
}

// Store is the persistence surface the caching decorator wraps.
type Store interface {
	Create(ctx context.Context, u *User) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Update(ctx context.Context, id uuid.UUID, upd Update) (*User, error)
}

// CachingRepository serves GetByID from the cache when possible. Records
// returned from the cache have an empty PasswordHash; credential checks go
// through GetByEmail, which always hits the store.
type CachingRepository struct {
	Store
	cache  Cache
	logger *logging.Logger
}

func NewCachingRepository(store Store, cache Cache, logger *logging.Logger) *CachingRepository {
	return &CachingRepository{Store: store, cache: cache, logger: logger}
}

func (r *CachingRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	cached, ok, err := r.cache.Get(ctx, id)
	if err != nil {
		r.logger.Warn("identity cache read failed", "user_id", id, "error", err)
	} else if ok {
		return cached, nil
	}

	u, err := r.Store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, u); err != nil {
		r.logger.Warn("identity cache write failed", "user_id", id, "error", err)
	}
	return u, nil
}

func (r *CachingRepository) Update(ctx context.Context, id uuid.UUID, upd Update) (*User, error) {
	u, err := r.Store.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Delete(ctx, id); err != nil {
		r.logger.Warn("identity cache eviction failed", "user_id", id, "error", err)
	}
	return u, nil
}
