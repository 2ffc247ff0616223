// Package test provides shared conformance helpers for storage backends.
package test

import (
	"bytes"
	"context"
	"testing"
	"time"

	httpcache "github.com/yan4rust/http-cache"
)

// Store exercises a httpcache.Store implementation.
func Store(t *testing.T, store httpcache.Store) {
	ctx := context.Background()
	key := "testKey"
	_, ok, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("error getting key: %v", err)
	}
	if ok {
		t.Fatal("retrieved key before adding it")
	}

	val := []byte("some bytes")
	if err := store.Set(ctx, key, val); err != nil {
		t.Fatalf("error setting key: %v", err)
	}

	retVal, ok, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("error getting key: %v", err)
	}
	if !ok {
		t.Fatal("could not retrieve an element we just added")
	}
	if !bytes.Equal(retVal, val) {
		t.Fatal("retrieved a different value than what we put in")
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("error deleting key: %v", err)
	}

	_, ok, err = store.Get(ctx, key)
	if err != nil {
		t.Fatalf("error getting key: %v", err)
	}
	if ok {
		t.Fatal("deleted key still present")
	}

	// Deleting an absent key must be a no-op.
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("error deleting absent key: %v", err)
	}
}

// Manager exercises a httpcache.Manager implementation.
func Manager(t *testing.T, manager httpcache.Manager) {
	ctx := context.Background()
	key := "GET:https://example.com/resource"

	_, _, ok, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("error getting key: %v", err)
	}
	if ok {
		t.Fatal("retrieved entry before adding it")
	}

	resp := &httpcache.Response{
		Status: 200,
		Headers: map[string]string{
			"Content-Type":  "text/plain",
			"Cache-Control": "max-age=300",
		},
		Body:    []byte("hello"),
		URL:     "https://example.com/resource",
		Version: httpcache.VersionHTTP11,
	}
	now := time.Now()
	policy := &httpcache.Policy{
		ResponseTime: now,
		Date:         now,
		Lifetime:     300 * time.Second,
	}

	if err := manager.Put(ctx, key, resp, policy); err != nil {
		t.Fatalf("error putting entry: %v", err)
	}

	gotResp, gotPolicy, ok, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("error getting key: %v", err)
	}
	if !ok {
		t.Fatal("could not retrieve an entry we just added")
	}
	if gotResp.Status != resp.Status {
		t.Fatalf("status = %d, want %d", gotResp.Status, resp.Status)
	}
	if !bytes.Equal(gotResp.Body, resp.Body) {
		t.Fatal("retrieved a different body than what we put in")
	}
	if gotResp.URL != resp.URL {
		t.Fatalf("url = %q, want %q", gotResp.URL, resp.URL)
	}
	if gotPolicy.Lifetime != policy.Lifetime {
		t.Fatalf("lifetime = %v, want %v", gotPolicy.Lifetime, policy.Lifetime)
	}

	// Overwrite with a new response under the same key.
	resp2 := resp.Clone()
	resp2.Body = []byte("updated")
	if err := manager.Put(ctx, key, resp2, policy); err != nil {
		t.Fatalf("error replacing entry: %v", err)
	}
	gotResp, _, ok, err = manager.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("error getting replaced entry: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(gotResp.Body, []byte("updated")) {
		t.Fatal("replaced entry still returns the old body")
	}

	if err := manager.Delete(ctx, key); err != nil {
		t.Fatalf("error deleting key: %v", err)
	}

	_, _, ok, err = manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("error getting key: %v", err)
	}
	if ok {
		t.Fatal("deleted entry still present")
	}

	// Deleting an absent key must be a no-op.
	if err := manager.Delete(ctx, key); err != nil {
		t.Fatalf("error deleting absent key: %v", err)
	}
}
