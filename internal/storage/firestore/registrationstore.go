// Package firestore keeps registration results in Cloud Firestore under
// users/{owner}/registrations/{sha256(token)}.
package firestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
	"github.com/tinywideclouds/go-push-bridge/pushhub"
)

// RegistrationStore implements tokens.Store using Google Cloud Firestore.
type RegistrationStore struct {
	client *firestore.Client
	logger *slog.Logger
	now    func() time.Time
}

func NewRegistrationStore(client *firestore.Client, logger *slog.Logger) *RegistrationStore {
	return &RegistrationStore{
		client: client,
		logger: logger.With("component", "firestore_registrations"),
		now:    time.Now,
	}
}

type registrationRecord struct {
	Network   string    `firestore:"network"`
	Token     string    `firestore:"token"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func (s *RegistrationStore) Save(ctx context.Context, owner urn.URN, reg pushhub.RegistrationResult) error {
	record := registrationRecord{
		Network:   string(reg.Network),
		Token:     reg.Token,
		UpdatedAt: s.now(),
	}

	// Hashing the token keeps doc IDs fixed-length and makes Save idempotent.
	_, err := s.registrationRef(owner, reg.Token).Set(ctx, record)
	if err != nil {
		return fmt.Errorf("save registration: %w", err)
	}
	return nil
}

func (s *RegistrationStore) List(ctx context.Context, owner urn.URN) ([]pushhub.RegistrationResult, error) {
	iter := s.registrations(owner).Documents(ctx)
	defer iter.Stop()

	out := make([]pushhub.RegistrationResult, 0)
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore iteration failed: %w", err)
		}

		var record registrationRecord
		if err := doc.DataTo(&record); err != nil {
			s.logger.Warn("Skipping unreadable registration", "doc", doc.Ref.ID, "err", err)
			continue
		}
		if record.Token == "" {
			continue
		}
		out = append(out, pushhub.RegistrationResult{
			Network: pushhub.Network(record.Network),
			Token:   record.Token,
		})
	}

	return out, nil
}

func (s *RegistrationStore) Delete(ctx context.Context, owner urn.URN, token string) error {
	_, err := s.registrationRef(owner, token).Delete(ctx)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	return nil
}

func (s *RegistrationStore) DeleteAll(ctx context.Context, owner urn.URN) error {
	iter := s.registrations(owner).Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("firestore iteration failed: %w", err)
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return fmt.Errorf("delete registration %s: %w", doc.Ref.ID, err)
		}
	}
}

// registrationRef: users/{owner}/registrations/{tokenHash}
func (s *RegistrationStore) registrationRef(owner urn.URN, token string) *firestore.DocumentRef {
	return s.registrations(owner).Doc(hashToken(token))
}

func (s *RegistrationStore) registrations(owner urn.URN) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(owner.String()).Collection("registrations")
}

func hashToken(t string) string {
	sum := sha256.Sum256([]byte(t))
	return hex.EncodeToString(sum[:])
}
