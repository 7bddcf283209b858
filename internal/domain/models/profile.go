// internal/domain/models/profile.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profile statuses. Profiles are never hard-deleted; deactivation flips the
// status and leaves the record in place for audit correlation.
const (
	ProfileActive      = "active"
	ProfileDeactivated = "deactivated"
)

// Profile is the internally-stored record for one identity. It is created on
// first registration or first join-request submission and mutated by profile
// updates and membership transitions.
//
// The identity_id is the external identity provider's subject id, not a
// Mongo ObjectID; it is the unique key for the collection.
type Profile struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	IdentityID string             `bson:"identity_id" json:"identity_id"`

	// Enrichment fields, best-effort copied from the identity provider.
	FullName string `bson:"full_name,omitempty" json:"full_name,omitempty"`
	Email    string `bson:"email,omitempty" json:"email,omitempty"`
	ImageURL string `bson:"image_url,omitempty" json:"image_url,omitempty"`

	// Role override. Empty means the profile asserts no administrative role.
	Role string `bson:"role,omitempty" json:"role,omitempty"`

	// Society membership. SocietyID is nil until a join request is approved.
	SocietyID    *primitive.ObjectID `bson:"society_id,omitempty" json:"society_id,omitempty"`
	SocietyName  string              `bson:"society_name,omitempty" json:"society_name,omitempty"`
	Wing         string              `bson:"wing,omitempty" json:"wing,omitempty"`
	Flat         string              `bson:"flat,omitempty" json:"flat,omitempty"`
	ResidentType string              `bson:"resident_type,omitempty" json:"resident_type,omitempty"`
	Approved     bool                `bson:"approved" json:"approved"`

	// AssignedWings scopes wing-restricted permissions for wing chairmen.
	// When empty, authorization falls back to the profile's own Wing.
	AssignedWings []string `bson:"assigned_wings,omitempty" json:"assigned_wings,omitempty"`

	// JoinRequestID references the profile's live join request inside the
	// society aggregate, empty when none is pending.
	JoinRequestID string `bson:"join_request_id,omitempty" json:"join_request_id,omitempty"`

	Status           string     `bson:"status" json:"status"`
	LastAdminLoginAt *time.Time `bson:"last_admin_login_at,omitempty" json:"last_admin_login_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasSociety reports whether the profile belongs to a society.
func (p *Profile) HasSociety() bool {
	return p != nil && p.SocietyID != nil
}
