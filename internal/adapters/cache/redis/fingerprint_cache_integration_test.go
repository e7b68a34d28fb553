//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"pet-identity-registry/internal/platform/config"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type FingerprintCacheSuite struct {
	suite.Suite
	container *tcredis.RedisContainer
	client    *goredis.Client
	cache     *FingerprintCache
}

func TestFingerprintCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(FingerprintCacheSuite))
}

func (s *FingerprintCacheSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.container = container

	url, err := container.ConnectionString(ctx)
	s.Require().NoError(err)

	client, err := NewClient(ctx, config.RedisConfig{
		URL:          url,
		PoolSize:     4,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	s.Require().NoError(err)
	s.client = client
	s.cache = NewFingerprintCache(client, time.Minute)
}

func (s *FingerprintCacheSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
	_ = testcontainers.TerminateContainer(s.container)
}

func (s *FingerprintCacheSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(context.Background()).Err())
}

func (s *FingerprintCacheSuite) TestMissThenHit() {
	ctx := context.Background()

	_, ok, err := s.cache.Get(ctx, "p:00ff")
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.cache.Set(ctx, "p:00ff", "pet-1"))

	petID, ok, err := s.cache.Get(ctx, "p:00ff")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("pet-1", petID)

	ttl, err := s.client.TTL(ctx, key("p:00ff")).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}

func (s *FingerprintCacheSuite) TestDelete() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, "h1", "pet-1"))
	s.Require().NoError(s.cache.Set(ctx, "h2", "pet-2"))

	s.Require().NoError(s.cache.Delete(ctx, "h1", "h2"))

	_, ok, err := s.cache.Get(ctx, "h1")
	s.Require().NoError(err)
	s.False(ok)
	_, ok, err = s.cache.Get(ctx, "h2")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *FingerprintCacheSuite) TestNewClient_EmptyURL() {
	c, err := NewClient(context.Background(), config.RedisConfig{})
	s.NoError(err)
	s.Nil(c)
}
