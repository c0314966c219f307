package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
	"github.com/tinywideclouds/go-push-bridge/internal/api"
	"github.com/tinywideclouds/go-push-bridge/pushhub"
)

// --- Mocks ---
type MockRegistrar struct {
	mock.Mock
}

func (m *MockRegistrar) Register(ctx context.Context) (pushhub.RegistrationResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(pushhub.RegistrationResult), args.Error(1)
}
func (m *MockRegistrar) Unregister(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Save(ctx context.Context, owner urn.URN, reg pushhub.RegistrationResult) error {
	return m.Called(ctx, owner, reg).Error(0)
}
func (m *MockStore) List(ctx context.Context, owner urn.URN) ([]pushhub.RegistrationResult, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pushhub.RegistrationResult), args.Error(1)
}
func (m *MockStore) Delete(ctx context.Context, owner urn.URN, token string) error {
	return m.Called(ctx, owner, token).Error(0)
}
func (m *MockStore) DeleteAll(ctx context.Context, owner urn.URN) error {
	return m.Called(ctx, owner).Error(0)
}

// --- Setup ---
func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupAPI(t *testing.T) (*api.RegistrationAPI, *MockRegistrar, *MockStore) {
	t.Helper()
	hub := new(MockRegistrar)
	store := new(MockStore)
	return api.NewRegistrationAPI(hub, store, newTestLogger()), hub, store
}

// withUser simulates the auth middleware.
func withUser(req *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithUserID(req.Context(), userID)
	return req.WithContext(ctx)
}

// --- Tests ---

func TestRegister(t *testing.T) {
	owner, _ := urn.Parse("urn:sm:user:123")

	t.Run("Success stores and returns the token", func(t *testing.T) {
		handler, hub, store := setupAPI(t)
		result := pushhub.RegistrationResult{Network: pushhub.NetworkGCM, Token: "regid-abc"}
		hub.On("Register", mock.Anything).Return(result, nil)
		store.On("Save", mock.Anything, owner, result).Return(nil)

		req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/register", nil), owner.String())
		w := httptest.NewRecorder()
		handler.Register(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var got pushhub.RegistrationResult
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, result, got)
		store.AssertExpectations(t)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		handler, hub, _ := setupAPI(t)

		w := httptest.NewRecorder()
		handler.Register(w, httptest.NewRequest(http.MethodPost, "/api/v1/register", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		hub.AssertNotCalled(t, "Register", mock.Anything)
	})

	failures := []struct {
		name   string
		err    error
		status int
	}{
		{"configuration", fmt.Errorf("%w: GCM Sender ID required", pushhub.ErrConfiguration), http.StatusInternalServerError},
		{"unsupported platform", pushhub.ErrUnsupportedPlatform, http.StatusBadRequest},
		{"concurrent", pushhub.ErrConcurrentRegistration, http.StatusConflict},
		{"timeout", pushhub.ErrTimeout, http.StatusGatewayTimeout},
		{"native", &pushhub.NativeError{Op: "register", Payload: "SERVICE_NOT_AVAILABLE"}, http.StatusBadGateway},
		{"abandoned", context.Canceled, http.StatusGatewayTimeout},
	}
	for _, tc := range failures {
		t.Run("Maps "+tc.name, func(t *testing.T) {
			handler, hub, store := setupAPI(t)
			hub.On("Register", mock.Anything).Return(pushhub.RegistrationResult{}, tc.err)

			req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/register", nil), owner.String())
			w := httptest.NewRecorder()
			handler.Register(w, req)

			assert.Equal(t, tc.status, w.Code)
			store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("Storage failure", func(t *testing.T) {
		handler, hub, store := setupAPI(t)
		result := pushhub.RegistrationResult{Network: pushhub.NetworkAPNS, Token: "apns-1"}
		hub.On("Register", mock.Anything).Return(result, nil)
		store.On("Save", mock.Anything, owner, result).Return(assert.AnError)

		req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/register", nil), owner.String())
		w := httptest.NewRecorder()
		handler.Register(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestUnregister(t *testing.T) {
	owner, _ := urn.Parse("urn:sm:user:123")

	t.Run("Success clears stored registrations", func(t *testing.T) {
		handler, hub, store := setupAPI(t)
		hub.On("Unregister", mock.Anything).Return(nil)
		store.On("DeleteAll", mock.Anything, owner).Return(nil)

		req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/unregister", nil), owner.String())
		w := httptest.NewRecorder()
		handler.Unregister(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		store.AssertExpectations(t)
	})

	t.Run("Storage failure is tolerated", func(t *testing.T) {
		handler, hub, store := setupAPI(t)
		hub.On("Unregister", mock.Anything).Return(nil)
		store.On("DeleteAll", mock.Anything, owner).Return(assert.AnError)

		req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/unregister", nil), owner.String())
		w := httptest.NewRecorder()
		handler.Unregister(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("Native failure keeps stored registrations", func(t *testing.T) {
		handler, hub, store := setupAPI(t)
		hub.On("Unregister", mock.Anything).Return(&pushhub.NativeError{Op: "unregister", Payload: "nope"})

		req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/unregister", nil), owner.String())
		w := httptest.NewRecorder()
		handler.Unregister(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		store.AssertNotCalled(t, "DeleteAll", mock.Anything, mock.Anything)
	})
}

func TestList(t *testing.T) {
	owner, _ := urn.Parse("urn:sm:user:123")
	handler, _, store := setupAPI(t)
	regs := []pushhub.RegistrationResult{
		{Network: pushhub.NetworkGCM, Token: "regid-1"},
		{Network: pushhub.NetworkAPNS, Token: "apns-1"},
	}
	store.On("List", mock.Anything, owner).Return(regs, nil)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/registrations", nil), owner.String())
	w := httptest.NewRecorder()
	handler.List(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"network":"gcm","token":"regid-1"},{"network":"apns","token":"apns-1"}]`, w.Body.String())
}
