// Package multicache provides a multi-tiered httpcache.Store that cascades
// through several backends with automatic fallback and promotion. Tiers are
// ordered from fastest/smallest to slowest/largest; hot values naturally
// migrate to the faster tiers while the slower tiers keep them durable.
package multicache

import (
	"context"

	httpcache "github.com/yan4rust/http-cache"
)

// MultiStore implements httpcache.Store over an ordered list of tiers.
// Reads search each tier in order and promote hits to the faster tiers;
// writes and deletes go to every tier.
type MultiStore struct {
	tiers []httpcache.Store
}

// New creates a MultiStore with the given tiers, ordered fastest first.
// Returns nil when no tiers are provided, any tier is nil, or a tier is
// duplicated.
func New(tiers ...httpcache.Store) *MultiStore {
	if len(tiers) == 0 {
		return nil
	}
	seen := make(map[httpcache.Store]bool, len(tiers))
	for _, tier := range tiers {
		if tier == nil || seen[tier] {
			return nil
		}
		seen[tier] = true
	}
	return &MultiStore{tiers: tiers}
}

// Get searches each tier in order. A value found in a slower tier is
// promoted (written) to every faster tier; promotion is best-effort.
func (s *MultiStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	for i, tier := range s.tiers {
		value, found, err := tier.Get(ctx, key)
		if err != nil {
			return nil, false, err
		}
		if found {
			for _, faster := range s.tiers[:i] {
				_ = faster.Set(ctx, key, value) //nolint:errcheck // promotion is best-effort
			}
			return value, true, nil
		}
	}
	return nil, false, nil
}

// Set stores value in every tier. The first failing tier aborts the write.
func (s *MultiStore) Set(ctx context.Context, key string, value []byte) error {
	for _, tier := range s.tiers {
		if err := tier.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes key from every tier, continuing past failures so one slow
// tier cannot pin an entry in the others; the first error is returned.
func (s *MultiStore) Delete(ctx context.Context, key string) error {
	var firstErr error
	for _, tier := range s.tiers {
		if err := tier.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
