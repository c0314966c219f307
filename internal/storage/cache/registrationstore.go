// Package cache adds a Redis read-aside layer in front of a tokens.Store.
package cache

import (
	"context"
	"fmt"
	"time"

	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
	"github.com/tinywideclouds/go-push-bridge/pkg/tokens"
	"github.com/tinywideclouds/go-push-bridge/pushhub"
)

// CacheClient is the subset of Redis commands the store needs.
type CacheClient interface {
	// Get returns an error when the key is missing.
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// CachedRegistrationStore caches List results and invalidates on every write.
type CachedRegistrationStore struct {
	realStore tokens.Store
	cache     CacheClient
	ttl       time.Duration
}

func NewCachedRegistrationStore(realStore tokens.Store, cache CacheClient, ttl time.Duration) *CachedRegistrationStore {
	return &CachedRegistrationStore{
		realStore: realStore,
		cache:     cache,
		ttl:       ttl,
	}
}

func (s *CachedRegistrationStore) List(ctx context.Context, owner urn.URN) ([]pushhub.RegistrationResult, error) {
	key := s.cacheKey(owner)

	var cached []pushhub.RegistrationResult
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	fresh, err := s.realStore.List(ctx, owner)
	if err != nil {
		return nil, err
	}

	// Caching is best effort; a Redis outage falls back to the real store.
	_ = s.cache.Set(ctx, key, fresh, s.ttl)

	return fresh, nil
}

func (s *CachedRegistrationStore) Save(ctx context.Context, owner urn.URN, reg pushhub.RegistrationResult) error {
	if err := s.realStore.Save(ctx, owner, reg); err != nil {
		return err
	}
	return s.invalidate(ctx, owner)
}

// Delete must clear the cache even though the write already landed, so a
// dropped token stops being listed immediately.
func (s *CachedRegistrationStore) Delete(ctx context.Context, owner urn.URN, token string) error {
	if err := s.realStore.Delete(ctx, owner, token); err != nil {
		return err
	}
	return s.invalidate(ctx, owner)
}

func (s *CachedRegistrationStore) DeleteAll(ctx context.Context, owner urn.URN) error {
	if err := s.realStore.DeleteAll(ctx, owner); err != nil {
		return err
	}
	return s.invalidate(ctx, owner)
}

func (s *CachedRegistrationStore) invalidate(ctx context.Context, owner urn.URN) error {
	return s.cache.Del(ctx, s.cacheKey(owner))
}

func (s *CachedRegistrationStore) cacheKey(owner urn.URN) string {
	return fmt.Sprintf("push:registrations:%s", owner.String())
}
