// Package tokens defines how hosting applications keep the registrations the
// hub hands back.
package tokens

import (
	"context"

	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
	"github.com/tinywideclouds/go-push-bridge/pushhub"
)

// Store persists registration results per owner.
type Store interface {
	// Save upserts a registration. Saving the same token twice keeps one entry.
	Save(ctx context.Context, owner urn.URN, reg pushhub.RegistrationResult) error

	// List returns every registration kept for owner.
	List(ctx context.Context, owner urn.URN) ([]pushhub.RegistrationResult, error)

	// Delete removes one token. Deleting an unknown token is not an error.
	Delete(ctx context.Context, owner urn.URN, token string) error

	// DeleteAll removes every registration for owner.
	DeleteAll(ctx context.Context, owner urn.URN) error
}
