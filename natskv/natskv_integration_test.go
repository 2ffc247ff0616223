//go:build integration

package natskv

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/testcontainers/testcontainers-go"
	natscontainer "github.com/testcontainers/testcontainers-go/modules/nats"

	httpcache "github.com/yan4rust/http-cache"
	"github.com/yan4rust/http-cache/test"
)

const natsImage = "nats:2-alpine"

// Shared NATS container endpoint for all tests in this package.
var sharedNATSEndpoint string

func TestMain(m *testing.M) {
	flag.Parse()

	ctx := context.Background()
	container, err := natscontainer.Run(ctx, natsImage, testcontainers.WithCmd("-js"))
	if err != nil {
		panic("failed to start NATS container: " + err.Error())
	}

	endpoint, err := container.ConnectionString(ctx)
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		panic("failed to get NATS endpoint: " + err.Error())
	}
	sharedNATSEndpoint = endpoint

	code := m.Run()

	if err := testcontainers.TerminateContainer(container); err != nil {
		panic("failed to terminate NATS container: " + err.Error())
	}
	os.Exit(code)
}

var bucketCounter int

// setupContainerStore creates a per-test bucket on the shared container.
func setupContainerStore(t *testing.T) *Store {
	t.Helper()

	nc, err := nats.Connect(sharedNATSEndpoint)
	if err != nil {
		t.Fatalf("failed to connect to NATS: %v", err)
	}
	t.Cleanup(nc.Close)

	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("failed to create JetStream context: %v", err)
	}

	bucketCounter++
	kv, err := js.CreateKeyValue(context.Background(), jetstream.KeyValueConfig{
		Bucket: fmt.Sprintf("cache-%d", bucketCounter),
	})
	if err != nil {
		t.Fatalf("failed to create K/V bucket: %v", err)
	}

	return NewWithKeyValue(kv)
}

func TestIntegrationNATSKVStore(t *testing.T) {
	test.Store(t, setupContainerStore(t))
}

func TestIntegrationNATSKVManager(t *testing.T) {
	test.Manager(t, httpcache.NewStoreManager(setupContainerStore(t), nil))
}
