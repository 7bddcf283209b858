package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/habitathq/societyhub/internal/domain/models"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateSociety inserts a society with no requests and returns it.
func (f *Fixtures) CreateSociety(ctx context.Context, name string) models.Society {
	f.t.Helper()

	now := time.Now().UTC()
	soc := models.Society{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		City:      "Test City",
		Requests:  []models.JoinRequest{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("societies").InsertOne(ctx, soc); err != nil {
		f.t.Fatalf("failed to create test society: %v", err)
	}
	return soc
}

// CreateProfile inserts an active profile for the identity and returns it.
// role may be empty for a plain resident.
func (f *Fixtures) CreateProfile(ctx context.Context, identityID, role string) models.Profile {
	f.t.Helper()

	now := time.Now().UTC()
	prof := models.Profile{
		ID:         primitive.NewObjectID(),
		IdentityID: identityID,
		Role:       role,
		Status:     models.ProfileActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("profiles").InsertOne(ctx, prof); err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}
	return prof
}

// PendingRequest builds an unsaved pending join request for the identity.
func PendingRequest(identityID string) models.JoinRequest {
	return models.JoinRequest{
		ID:          uuid.NewString(),
		IdentityID:  identityID,
		Wing:        "A",
		Flat:        "101",
		Status:      models.RequestPending,
		SubmittedAt: time.Now().UTC(),
	}
}
