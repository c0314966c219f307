package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
	"github.com/tinywideclouds/go-push-bridge/internal/storage/cache"
	"github.com/tinywideclouds/go-push-bridge/pushhub"
)

// --- Mocks ---
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string, dest any) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}
func (m *MockCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}
func (m *MockCache) Del(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type MockRealStore struct {
	mock.Mock
}

func (m *MockRealStore) Save(ctx context.Context, owner urn.URN, reg pushhub.RegistrationResult) error {
	return m.Called(ctx, owner, reg).Error(0)
}
func (m *MockRealStore) List(ctx context.Context, owner urn.URN) ([]pushhub.RegistrationResult, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pushhub.RegistrationResult), args.Error(1)
}
func (m *MockRealStore) Delete(ctx context.Context, owner urn.URN, token string) error {
	return m.Called(ctx, owner, token).Error(0)
}
func (m *MockRealStore) DeleteAll(ctx context.Context, owner urn.URN) error {
	return m.Called(ctx, owner).Error(0)
}

func TestCachedStore(t *testing.T) {
	ctx := context.Background()
	owner, err := urn.Parse("urn:sm:user:device-owner")
	require.NoError(t, err)
	cacheKey := "push:registrations:" + owner.String()
	reg := pushhub.RegistrationResult{Network: pushhub.NetworkGCM, Token: "regid-1"}

	t.Run("Save invalidates cache", func(t *testing.T) {
		mockCache := new(MockCache)
		mockDB := new(MockRealStore)
		store := cache.NewCachedRegistrationStore(mockDB, mockCache, time.Hour)

		mockDB.On("Save", ctx, owner, reg).Return(nil)
		mockCache.On("Del", ctx, cacheKey).Return(nil)

		require.NoError(t, store.Save(ctx, owner, reg))
		mockDB.AssertExpectations(t)
		mockCache.AssertExpectations(t)
	})

	t.Run("Failed write leaves cache alone", func(t *testing.T) {
		mockCache := new(MockCache)
		mockDB := new(MockRealStore)
		store := cache.NewCachedRegistrationStore(mockDB, mockCache, time.Hour)

		mockDB.On("DeleteAll", ctx, owner).Return(assert.AnError)

		err := store.DeleteAll(ctx, owner)
		assert.ErrorIs(t, err, assert.AnError)
		mockCache.AssertNotCalled(t, "Del", mock.Anything, mock.Anything)
	})

	t.Run("Delete invalidates cache immediately", func(t *testing.T) {
		mockCache := new(MockCache)
		mockDB := new(MockRealStore)
		store := cache.NewCachedRegistrationStore(mockDB, mockCache, time.Hour)

		mockDB.On("Delete", ctx, owner, "regid-1").Return(nil)
		mockCache.On("Del", ctx, cacheKey).Return(nil)

		require.NoError(t, store.Delete(ctx, owner, "regid-1"))
		mockCache.AssertExpectations(t)
	})

	t.Run("Cache miss reads through and refills", func(t *testing.T) {
		mockCache := new(MockCache)
		mockDB := new(MockRealStore)
		store := cache.NewCachedRegistrationStore(mockDB, mockCache, time.Hour)

		fresh := []pushhub.RegistrationResult{reg}
		mockCache.On("Get", ctx, cacheKey, mock.Anything).Return(assert.AnError)
		mockDB.On("List", ctx, owner).Return(fresh, nil)
		mockCache.On("Set", ctx, cacheKey, fresh, time.Hour).Return(nil)

		got, err := store.List(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, fresh, got)
		mockDB.AssertExpectations(t)
		mockCache.AssertExpectations(t)
	})

	t.Run("Cache hit skips the real store", func(t *testing.T) {
		mockCache := new(MockCache)
		mockDB := new(MockRealStore)
		store := cache.NewCachedRegistrationStore(mockDB, mockCache, time.Hour)

		mockCache.On("Get", ctx, cacheKey, mock.Anything).Run(func(args mock.Arguments) {
			dest := args.Get(2).(*[]pushhub.RegistrationResult)
			*dest = []pushhub.RegistrationResult{reg}
		}).Return(nil)

		got, err := store.List(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, []pushhub.RegistrationResult{reg}, got)
		mockDB.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})
}
