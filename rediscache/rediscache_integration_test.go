//go:build integration

package rediscache

import (
	"context"
	"flag"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	rediscontainer "github.com/testcontainers/testcontainers-go/modules/redis"

	httpcache "github.com/yan4rust/http-cache"
	"github.com/yan4rust/http-cache/test"
)

const redisImage = "redis:7-alpine"

// Shared Redis container endpoint for all tests in this package.
var sharedRedisEndpoint string

func TestMain(m *testing.M) {
	flag.Parse()

	ctx := context.Background()
	container, err := rediscontainer.Run(ctx, redisImage)
	if err != nil {
		panic("failed to start Redis container: " + err.Error())
	}

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		panic("failed to get Redis endpoint: " + err.Error())
	}
	sharedRedisEndpoint = endpoint

	code := m.Run()

	if err := testcontainers.TerminateContainer(container); err != nil {
		panic("failed to terminate Redis container: " + err.Error())
	}
	os.Exit(code)
}

func setupRedisStore(t *testing.T) *Store {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: sharedRedisEndpoint})
	if err := client.FlushAll(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush Redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return NewWithClient(client, "")
}

func TestIntegrationRedisStore(t *testing.T) {
	test.Store(t, setupRedisStore(t))
}

func TestIntegrationRedisManager(t *testing.T) {
	test.Manager(t, httpcache.NewStoreManager(setupRedisStore(t), nil))
}

func TestIntegrationRedisOverwrite(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value, ok, err := store.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(value) != "v2" {
		t.Errorf("value = %q, want %q", value, "v2")
	}
}
