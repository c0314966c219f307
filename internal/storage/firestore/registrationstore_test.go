//go:build integration

package firestore_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/illmade-knight/go-test/emulators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
	fs "github.com/tinywideclouds/go-push-bridge/internal/storage/firestore"
	"github.com/tinywideclouds/go-push-bridge/pushhub"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupSuite(t *testing.T) (context.Context, *fs.RegistrationStore) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	projectID := "test-registration-store"
	conn := emulators.SetupFirestoreEmulator(t, ctx, emulators.GetDefaultFirestoreConfig(projectID))
	client, err := firestore.NewClient(ctx, projectID, conn.ClientOptions...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return ctx, fs.NewRegistrationStore(client, newTestLogger())
}

func TestRegistrationStore_Integration(t *testing.T) {
	ctx, store := setupSuite(t)

	t.Run("Save is idempotent per token", func(t *testing.T) {
		owner, _ := urn.Parse("urn:sm:user:idempotent")
		reg := pushhub.RegistrationResult{Network: pushhub.NetworkGCM, Token: "regid-android-1"}

		require.NoError(t, store.Save(ctx, owner, reg))
		require.NoError(t, store.Save(ctx, owner, reg))

		got, err := store.List(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, []pushhub.RegistrationResult{reg}, got)
	})

	t.Run("Delete removes one token", func(t *testing.T) {
		owner, _ := urn.Parse("urn:sm:user:delete-one")
		gcm := pushhub.RegistrationResult{Network: pushhub.NetworkGCM, Token: "regid-android-2"}
		apns := pushhub.RegistrationResult{Network: pushhub.NetworkAPNS, Token: "apns-device-token"}
		require.NoError(t, store.Save(ctx, owner, gcm))
		require.NoError(t, store.Save(ctx, owner, apns))

		require.NoError(t, store.Delete(ctx, owner, gcm.Token))

		got, err := store.List(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, []pushhub.RegistrationResult{apns}, got)
	})

	t.Run("Delete of unknown token is not an error", func(t *testing.T) {
		owner, _ := urn.Parse("urn:sm:user:delete-missing")
		assert.NoError(t, store.Delete(ctx, owner, "never-saved"))
	})

	t.Run("DeleteAll clears the owner only", func(t *testing.T) {
		owner, _ := urn.Parse("urn:sm:user:delete-all")
		other, _ := urn.Parse("urn:sm:user:bystander")
		require.NoError(t, store.Save(ctx, owner, pushhub.RegistrationResult{Network: pushhub.NetworkGCM, Token: "a"}))
		require.NoError(t, store.Save(ctx, owner, pushhub.RegistrationResult{Network: pushhub.NetworkAPNS, Token: "b"}))
		require.NoError(t, store.Save(ctx, other, pushhub.RegistrationResult{Network: pushhub.NetworkGCM, Token: "c"}))

		require.NoError(t, store.DeleteAll(ctx, owner))

		got, err := store.List(ctx, owner)
		require.NoError(t, err)
		assert.Empty(t, got)

		kept, err := store.List(ctx, other)
		require.NoError(t, err)
		assert.Len(t, kept, 1)
	})
}
