// internal/domain/models/society.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Join request statuses. A request leaves "pending" exactly once; approved,
// rejected, and withdrawn are terminal for that request id.
const (
	RequestPending   = "pending"
	RequestApproved  = "approved"
	RequestRejected  = "rejected"
	RequestWithdrawn = "withdrawn"
)

// JoinRequest is a value object embedded in Society.Requests. It has no
// lifecycle outside its parent society document.
type JoinRequest struct {
	ID         string `bson:"id" json:"id"`
	IdentityID string `bson:"identity_id" json:"identity_id"`

	// Requested attributes, copied onto the profile on approval.
	Wing         string `bson:"wing" json:"wing"`
	Flat         string `bson:"flat" json:"flat"`
	ResidentType string `bson:"resident_type" json:"resident_type"`
	Contact      string `bson:"contact,omitempty" json:"contact,omitempty"`

	Status      string    `bson:"status" json:"status"`
	SubmittedAt time.Time `bson:"submitted_at" json:"submitted_at"`

	// Review metadata, null until reviewed.
	ReviewedBy string     `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	Reason     string     `bson:"reason,omitempty" json:"reason,omitempty"`
}

// IsPending reports whether the request is still awaiting review.
func (r JoinRequest) IsPending() bool { return r.Status == RequestPending }

// Society is the aggregate owning an embedded ordered collection of join
// requests. Version is incremented on every rewrite of the requests
// collection and backs the optimistic concurrency guard in the society
// store; writers must condition replacements on the version they read.
type Society struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	NameCI   string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Address  string             `bson:"address,omitempty" json:"address,omitempty"`
	City     string             `bson:"city,omitempty" json:"city,omitempty"`
	Capacity int                `bson:"capacity,omitempty" json:"capacity,omitempty"`

	Requests []JoinRequest `bson:"requests" json:"requests"`
	Version  int64         `bson:"version" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// RequestByID returns the index of the join request with the given id,
// or -1 when absent.
func (s *Society) RequestByID(id string) int {
	for i := range s.Requests {
		if s.Requests[i].ID == id {
			return i
		}
	}
	return -1
}

// PendingRequestFor returns the index of the requester's pending entry,
// or -1 when the requester has no live request in this society.
func (s *Society) PendingRequestFor(identityID string) int {
	for i := range s.Requests {
		if s.Requests[i].IdentityID == identityID && s.Requests[i].IsPending() {
			return i
		}
	}
	return -1
}
