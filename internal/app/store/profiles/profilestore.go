// internal/app/store/profiles/profilestore.go
package profilestore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/habitathq/societyhub/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateProfile = errors.New("a profile for this identity already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("profiles")}
}

// EnsureIndexes creates the unique identity index and the society lookup
// index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "identity_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "society_id", Value: 1},
				{Key: "status", Value: 1},
			},
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new profile for the identity.
func (s *Store) Create(ctx context.Context, prof models.Profile) (models.Profile, error) {
	now := time.Now().UTC()
	prof.ID = primitive.NewObjectID()
	if prof.Status == "" {
		prof.Status = models.ProfileActive
	}
	prof.CreatedAt = now
	prof.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, prof)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Profile{}, ErrDuplicateProfile
		}
		return models.Profile{}, err
	}
	return prof, nil
}

// GetByIdentity loads the profile keyed by the external identity id.
// Returns mongo.ErrNoDocuments when no profile exists.
func (s *Store) GetByIdentity(ctx context.Context, identityID string) (*models.Profile, error) {
	var prof models.Profile
	err := s.c.FindOne(ctx, bson.M{"identity_id": identityID}).Decode(&prof)
	if err != nil {
		return nil, err
	}
	return &prof, nil
}

// UpsertEnrichment creates the profile if absent and refreshes the
// best-effort enrichment fields either way. Only non-empty values are
// written so a provider outage never blanks existing data.
func (s *Store) UpsertEnrichment(ctx context.Context, identityID, fullName, email, imageURL string) error {
	now := time.Now().UTC()
	set := bson.M{"updated_at": now}
	if fullName != "" {
		set["full_name"] = fullName
	}
	if email != "" {
		set["email"] = email
	}
	if imageURL != "" {
		set["image_url"] = imageURL
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"identity_id": identityID},
		bson.M{
			"$set": set,
			"$setOnInsert": bson.M{
				"_id":        primitive.NewObjectID(),
				"status":     models.ProfileActive,
				"approved":   false,
				"created_at": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// SetJoinRequest stamps the profile with its live join request reference.
// The profile is created if it does not exist yet, which is the common
// path for first-time residents.
func (s *Store) SetJoinRequest(ctx context.Context, identityID, requestID string) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"identity_id": identityID},
		bson.M{
			"$set": bson.M{
				"join_request_id": requestID,
				"updated_at":      now,
			},
			"$setOnInsert": bson.M{
				"_id":        primitive.NewObjectID(),
				"status":     models.ProfileActive,
				"approved":   false,
				"created_at": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// ClearJoinRequest removes the live join request reference after a review
// or withdrawal.
func (s *Store) ClearJoinRequest(ctx context.Context, identityID string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"identity_id": identityID},
		bson.M{
			"$unset": bson.M{"join_request_id": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		},
	)
	return err
}

// ApproveMembership records an approved join request on the profile:
// society, unit attributes, and the approved flag, clearing the request
// reference in the same write.
func (s *Store) ApproveMembership(ctx context.Context, identityID string, societyID primitive.ObjectID, societyName, wing, flat, residentType string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"identity_id": identityID},
		bson.M{
			"$set": bson.M{
				"society_id":    societyID,
				"society_name":  societyName,
				"wing":          wing,
				"flat":          flat,
				"resident_type": residentType,
				"approved":      true,
				"updated_at":    time.Now().UTC(),
			},
			"$unset": bson.M{"join_request_id": ""},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetRole changes the profile's administrative role. An empty role clears
// the override.
func (s *Store) SetRole(ctx context.Context, identityID, role string) error {
	update := bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}}
	if role == "" {
		update["$unset"] = bson.M{"role": ""}
	} else {
		update["$set"].(bson.M)["role"] = role
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"identity_id": identityID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetAssignedWings replaces the wing scope for a wing chairman.
func (s *Store) SetAssignedWings(ctx context.Context, identityID string, wings []string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"identity_id": identityID},
		bson.M{"$set": bson.M{
			"assigned_wings": wings,
			"updated_at":     time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Deactivate soft-deletes the profile. The record stays in place so audit
// events keep a subject to point at.
func (s *Store) Deactivate(ctx context.Context, identityID string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"identity_id": identityID},
		bson.M{"$set": bson.M{
			"status":     models.ProfileDeactivated,
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// TouchAdminLogin stamps the last administrative login time. Missing
// profiles are not an error here; the caller treats the stamp as best
// effort.
func (s *Store) TouchAdminLogin(ctx context.Context, identityID string) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"identity_id": identityID},
		bson.M{"$set": bson.M{"last_admin_login_at": now}},
	)
	return err
}

// ListBySociety returns active profiles belonging to a society.
func (s *Store) ListBySociety(ctx context.Context, societyID primitive.ObjectID) ([]models.Profile, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"society_id": societyID,
		"status":     models.ProfileActive,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var profs []models.Profile
	if err := cur.All(ctx, &profs); err != nil {
		return nil, err
	}
	return profs, nil
}
