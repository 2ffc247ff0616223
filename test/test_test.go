package test_test

import (
	"testing"

	httpcache "github.com/yan4rust/http-cache"
	"github.com/yan4rust/http-cache/test"
)

func TestMemoryManager(t *testing.T) {
	test.Manager(t, httpcache.NewMemoryManager())
}
