//go:build integration

package memcache

import (
	"context"
	"flag"
	"os"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	memcachedcontainer "github.com/testcontainers/testcontainers-go/modules/memcached"

	httpcache "github.com/yan4rust/http-cache"
	"github.com/yan4rust/http-cache/test"
)

const memcachedImage = "memcached:1.6-alpine"

// Shared Memcached container endpoint for all tests in this package.
var sharedMemcachedEndpoint string

func TestMain(m *testing.M) {
	flag.Parse()

	ctx := context.Background()
	container, err := memcachedcontainer.Run(ctx, memcachedImage)
	if err != nil {
		panic("failed to start Memcached container: " + err.Error())
	}

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		panic("failed to get Memcached endpoint: " + err.Error())
	}
	sharedMemcachedEndpoint = endpoint

	code := m.Run()

	if err := testcontainers.TerminateContainer(container); err != nil {
		panic("failed to terminate Memcached container: " + err.Error())
	}
	os.Exit(code)
}

func TestIntegrationMemcacheStore(t *testing.T) {
	test.Store(t, New(sharedMemcachedEndpoint))
}

func TestIntegrationMemcacheManager(t *testing.T) {
	test.Manager(t, httpcache.NewStoreManager(New(sharedMemcachedEndpoint), nil))
}
