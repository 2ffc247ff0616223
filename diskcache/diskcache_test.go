package diskcache

import (
	"testing"

	"github.com/yan4rust/http-cache/test"
)

func TestDiskStore(t *testing.T) {
	test.Store(t, New(t.TempDir()))
}

func TestKeysWithPathSeparators(t *testing.T) {
	// Cache keys are URLs; the filename mapping must keep them safe for the
	// filesystem and collision-free.
	if keyToFilename("GET:http://example.com/a/b") == keyToFilename("GET:http://example.com/a-b") {
		t.Error("distinct keys mapped to the same filename")
	}
	name := keyToFilename("GET:http://example.com/../../etc/passwd")
	for _, c := range name {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			t.Fatalf("filename contains non-hex character %q", c)
		}
	}
}
