package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "pir:np:"
	DefaultTTL = 10 * time.Minute
)

// FingerprintCache implementa noseprints.Cache: hash -> petID con TTL.
// Solo guarda hits; un miss siempre va al storage.
type FingerprintCache struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

func NewFingerprintCache(client goredis.UniversalClient, ttl time.Duration) *FingerprintCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &FingerprintCache{client: client, ttl: ttl}
}

func key(hash string) string { return keyPrefix + hash }

func (c *FingerprintCache) Get(ctx context.Context, hash string) (string, bool, error) {
	petID, err := c.client.Get(ctx, key(hash)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return petID, true, nil
}

func (c *FingerprintCache) Set(ctx context.Context, hash, petID string) error {
	return c.client.Set(ctx, key(hash), petID, c.ttl).Err()
}

func (c *FingerprintCache) Delete(ctx context.Context, hashes ...string) error {
	if len(hashes) == 0 {
		return nil
	}
	keys := make([]string, 0, len(hashes))
	for _, h := range hashes {
		keys = append(keys, key(h))
	}
	return c.client.Del(ctx, keys...).Err()
}
