// internal/app/store/societies/societystore.go
package societystore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/habitathq/societyhub/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateSociety = errors.New("a society with this name already exists")

	// ErrVersionConflict: the society's requests changed between read and
	// write. Callers reload and retry.
	ErrVersionConflict = errors.New("society version conflict")

	// ErrPendingExists: the identity already has a pending request in this
	// society. The append guard enforces this atomically.
	ErrPendingExists = errors.New("identity already has a pending request")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("societies")}
}

// EnsureIndexes creates the unique name index and the request id lookup
// index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "requests.id", Value: 1}},
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

func (s *Store) Create(ctx context.Context, soc models.Society) (models.Society, error) {
	now := time.Now().UTC()
	soc.ID = primitive.NewObjectID()
	soc.NameCI = text.Fold(soc.Name)
	if soc.Requests == nil {
		soc.Requests = []models.JoinRequest{}
	}
	soc.CreatedAt = now
	soc.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, soc)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Society{}, ErrDuplicateSociety
		}
		return models.Society{}, err
	}
	return soc, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Society, error) {
	var soc models.Society
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&soc)
	if err != nil {
		return models.Society{}, err
	}
	return soc, nil
}

// GetNameByID loads only the display name.
func (s *Store) GetNameByID(ctx context.Context, id primitive.ObjectID) (string, error) {
	var doc struct {
		Name string `bson:"name"`
	}
	opts := options.FindOne().SetProjection(bson.M{"name": 1})
	if err := s.c.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&doc); err != nil {
		return "", err
	}
	return doc.Name, nil
}

// FindByRequestID loads the society containing the join request with the
// given id. Returns mongo.ErrNoDocuments when no society holds it.
func (s *Store) FindByRequestID(ctx context.Context, requestID string) (models.Society, error) {
	var soc models.Society
	err := s.c.FindOne(ctx, bson.M{"requests.id": requestID}).Decode(&soc)
	if err != nil {
		return models.Society{}, err
	}
	return soc, nil
}

// List returns societies matching the given filter with optional find
// options. The caller builds the filter and options.
func (s *Store) List(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Society, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var socs []models.Society
	if err := cur.All(ctx, &socs); err != nil {
		return nil, err
	}
	return socs, nil
}

// AppendRequest adds a pending join request to the society, guarded so the
// identity cannot hold two pending requests in the same society no matter
// how many submissions race. The filter excludes societies that already
// contain a pending entry for the identity; a write that matches nothing is
// either a missing society or a duplicate, disambiguated with one extra
// read. The version bump makes the append visible to concurrent reviewers.
func (s *Store) AppendRequest(ctx context.Context, societyID primitive.ObjectID, req models.JoinRequest) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id": societyID,
			"requests": bson.M{"$not": bson.M{"$elemMatch": bson.M{
				"identity_id": req.IdentityID,
				"status":      models.RequestPending,
			}}},
		},
		bson.M{
			"$push": bson.M{"requests": req},
			"$inc":  bson.M{"version": 1},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if err := s.c.FindOne(ctx, bson.M{"_id": societyID}).Err(); err != nil {
			return err // mongo.ErrNoDocuments for a missing society
		}
		return ErrPendingExists
	}
	return nil
}

// ReplaceRequests rewrites the society's request collection, conditioned on
// the version the caller read. A concurrent writer bumps the version and
// this write matches nothing, surfacing ErrVersionConflict.
func (s *Store) ReplaceRequests(ctx context.Context, societyID primitive.ObjectID, requests []models.JoinRequest, expectedVersion int64) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":     societyID,
			"version": expectedVersion,
		},
		bson.M{
			"$set": bson.M{
				"requests":   requests,
				"updated_at": time.Now().UTC(),
			},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	return nil
}

// Delete removes a society by ID. Returns the number of documents deleted
// (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Count returns the number of societies matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
