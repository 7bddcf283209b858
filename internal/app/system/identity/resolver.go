// internal/app/system/identity/resolver.go

// Package identity resolves the administrative principal for each request
// from two independent sources of truth: the external identity provider's
// verified claims and the internally-stored profile record. The external
// claim and the internal record can disagree; the resolver applies a fixed
// precedence (see decideRole) so the outcome is auditable.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/habitathq/societyhub/internal/app/system/authz"
	"github.com/habitathq/societyhub/internal/domain/models"
)

// Resolution failure modes.
var (
	// ErrNotAuthorized: neither the external claim nor the profile asserts
	// any role.
	ErrNotAuthorized = errors.New("no administrative role assertable")
	// ErrInvalidRole: a role was asserted but is outside the known enum
	// (stale or corrupted claim).
	ErrInvalidRole = errors.New("unrecognized administrative role")
)

// Provenance values recorded on the principal.
const (
	ProvenanceExternal = "external"
	ProvenanceInternal = "internal"
)

// AdminPrincipal is the resolved administrative identity for one request.
// It is derived fresh on every authenticated request and never persisted.
type AdminPrincipal struct {
	ID          string
	Role        authz.Role
	SocietyID   *primitive.ObjectID
	SocietyName string
	Wings       []string
	Permissions []string
	Provenance  string
	// IsExternalAdmin marks operator identities that are not residents:
	// no profile record, or a profile with no society membership.
	IsExternalAdmin bool
}

// ProfileSource is the slice of the profile store the resolver needs.
type ProfileSource interface {
	GetByIdentity(ctx context.Context, identityID string) (*models.Profile, error)
	TouchAdminLogin(ctx context.Context, identityID string) error
}

// SocietyNameSource looks up a society's display name by id.
type SocietyNameSource interface {
	GetNameByID(ctx context.Context, id primitive.ObjectID) (string, error)
}

// Resolver merges an identity assertion with the stored profile into an
// AdminPrincipal. Society names are cached in a small LRU because every
// authenticated request pays this lookup otherwise.
type Resolver struct {
	profiles  ProfileSource
	societies SocietyNameSource
	names     *lru.Cache[string, string]
	log       *zap.Logger

	// touchTimeout bounds the fire-and-forget login stamp.
	touchTimeout time.Duration
}

// NewResolver constructs a Resolver. cacheSize bounds the society-name LRU;
// values <= 0 fall back to 256.
func NewResolver(profiles ProfileSource, societies SocietyNameSource, cacheSize int, logger *zap.Logger) (*Resolver, error) {
	if cacheSize <= 0 {
		cacheSize = 256
	}
	names, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("society name cache: %w", err)
	}
	return &Resolver{
		profiles:     profiles,
		societies:    societies,
		names:        names,
		log:          logger,
		touchTimeout: 2 * time.Second,
	}, nil
}

// Resolve produces the AdminPrincipal for a verified assertion. It performs
// one profile read, at most one society-name read (cached), and one
// best-effort login-stamp write whose failure never affects the outcome.
func (r *Resolver) Resolve(ctx context.Context, asrt Assertion) (*AdminPrincipal, error) {
	prof, err := r.profiles.GetByIdentity(ctx, asrt.SubjectID)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("loading profile for %s: %w", asrt.SubjectID, err)
	}

	role, provenance, err := decideRole(asrt, prof)
	if err != nil {
		return nil, err
	}

	societyID := resolveSocietyID(asrt, prof)

	principal := &AdminPrincipal{
		ID:              asrt.SubjectID,
		Role:            role,
		SocietyID:       societyID,
		SocietyName:     r.societyName(ctx, societyID, asrt.SocietyName),
		Permissions:     authz.PermissionsFor(role),
		Provenance:      provenance,
		IsExternalAdmin: !prof.HasSociety(),
	}
	if prof != nil {
		principal.Wings = authz.AllowedWings(prof.AssignedWings, prof.Wing)
	}

	if prof != nil {
		r.touchLogin(asrt.SubjectID)
	}

	return principal, nil
}

// decideRole is the dual-source precedence table:
//
//	external claim | profile state          | outcome
//	---------------+------------------------+---------------------------
//	absent         | absent or roleless     | ErrNotAuthorized
//	absent         | role present           | profile role (internal)
//	present        | no profile / no society| super_admin (external)
//	present        | society member         | claimed role (external)
//
// Any asserted role outside the enum fails with ErrInvalidRole before the
// escalation row applies.
func decideRole(asrt Assertion, prof *models.Profile) (authz.Role, string, error) {
	candidate := asrt.Role
	provenance := ProvenanceExternal
	if candidate == "" {
		provenance = ProvenanceInternal
		if prof != nil {
			candidate = prof.Role
		}
	}
	if candidate == "" {
		return "", "", ErrNotAuthorized
	}

	role, ok := authz.ParseRole(candidate)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRole, candidate)
	}

	// Operator escalation: an external claim with no resident profile is a
	// platform operator, regardless of the claim's literal role.
	if asrt.Role != "" && !prof.HasSociety() {
		return authz.RoleSuperAdmin, ProvenanceExternal, nil
	}

	return role, provenance, nil
}

// resolveSocietyID prefers the profile's society over the external hint.
func resolveSocietyID(asrt Assertion, prof *models.Profile) *primitive.ObjectID {
	if prof.HasSociety() {
		return prof.SocietyID
	}
	if asrt.SocietyID != "" {
		if oid, err := primitive.ObjectIDFromHex(asrt.SocietyID); err == nil {
			return &oid
		}
	}
	return nil
}

// societyName resolves the display name from the store (via cache), never
// trusting the external claim unless the store yields nothing. Lookup
// failures degrade to the claimed name; they never fail resolution.
func (r *Resolver) societyName(ctx context.Context, id *primitive.ObjectID, claimed string) string {
	if id == nil {
		return claimed
	}
	key := id.Hex()
	if name, ok := r.names.Get(key); ok {
		return name
	}
	name, err := r.societies.GetNameByID(ctx, *id)
	if err != nil || name == "" {
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			r.log.Warn("society name lookup failed", zap.String("society_id", key), zap.Error(err))
		}
		return claimed
	}
	r.names.Add(key, name)
	return name
}

// touchLogin stamps the profile's last admin login without blocking or
// failing the resolution.
func (r *Resolver) touchLogin(identityID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.touchTimeout)
		defer cancel()
		if err := r.profiles.TouchAdminLogin(ctx, identityID); err != nil {
			r.log.Warn("last admin login stamp failed",
				zap.String("identity_id", identityID), zap.Error(err))
		}
	}()
}
