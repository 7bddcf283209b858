// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth       = "auth"
	CategoryAdmin      = "admin"
	CategoryMembership = "membership"
)

// Auth event types
const (
	EventAdminLogin        = "admin_login"
	EventAdminLogout       = "admin_logout"
	EventAuthorizationDeny = "authorization_denied"
	EventRateLimited       = "rate_limited"
)

// Membership event types
const (
	EventJoinRequestSubmitted = "join_request_submitted"
	EventJoinRequestApproved  = "join_request_approved"
	EventJoinRequestRejected  = "join_request_rejected"
	EventJoinRequestWithdrawn = "join_request_withdrawn"
)

// Admin event types
const (
	EventRoleChanged        = "role_changed"
	EventProfileDeactivated = "profile_deactivated"
	EventWingsAssigned      = "wings_assigned"
	EventSocietyCreated     = "society_created"
	EventSocietyDeleted     = "society_deleted"
)

// Event is one audit record. ActorID is the external identity id, a
// string, since admins may act before any profile record exists.
type Event struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty"`
	Timestamp time.Time           `bson:"timestamp"`
	SocietyID *primitive.ObjectID `bson:"society_id,omitempty"`

	// Event classification
	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// Who and on what
	ActorID   string `bson:"actor_id"`
	ActorRole string `bson:"actor_role,omitempty"`
	SubjectID string `bson:"subject_id,omitempty"` // affected identity, if different from actor
	Resource  string `bson:"resource,omitempty"`   // e.g. join request id

	// Outcome
	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	// Additional details (varies by event type)
	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	SocietyID *primitive.ObjectID
	ActorID   string
	SubjectID string
	Category  string
	EventType string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// EnsureIndexes creates necessary indexes for efficient querying.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// Query by time range (most recent first)
		{
			Keys: bson.D{{Key: "timestamp", Value: -1}},
		},
		// Query by society
		{
			Keys: bson.D{
				{Key: "society_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		// Query by actor
		{
			Keys: bson.D{
				{Key: "actor_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		// Query by event type
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

func (f QueryFilter) query() bson.M {
	query := bson.M{}

	if f.SocietyID != nil {
		query["society_id"] = f.SocietyID
	}
	if f.ActorID != "" {
		query["actor_id"] = f.ActorID
	}
	if f.SubjectID != "" {
		query["subject_id"] = f.SubjectID
	}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.EventType != "" {
		query["event_type"] = f.EventType
	}

	if f.StartTime != nil || f.EndTime != nil {
		timeQuery := bson.M{}
		if f.StartTime != nil {
			timeQuery["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			timeQuery["$lte"] = *f.EndTime
		}
		query["timestamp"] = timeQuery
	}
	return query
}

// Query retrieves audit events matching the given filter.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, filter.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.query())
}

// GetByActor retrieves recent audit events for a specific actor.
func (s *Store) GetByActor(ctx context.Context, actorID string, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{
		ActorID: actorID,
		Limit:   limit,
	})
}

// GetRecent retrieves the most recent audit events.
func (s *Store) GetRecent(ctx context.Context, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{
		Limit: limit,
	})
}
