// internal/app/system/auditlog/recorder.go
package auditlog

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/habitathq/societyhub/internal/app/store/audit"
)

// Config holds audit recording configuration.
type Config struct {
	// Auth controls recording for authentication events (login, logout,
	// authorization denials, rate limiting).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Membership controls recording for join-request lifecycle events.
	// Same values as Auth.
	Membership string
	// Admin controls recording for admin action events (role changes,
	// deactivations, wing assignments). Same values as Auth.
	Admin string
}

// Recorder writes audit events to MongoDB (via audit.Store) and to
// structured logs (via zap). Recording is best effort: a store failure is
// logged and swallowed, never returned, so the operation that triggered
// the event is unaffected.
type Recorder struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Recorder.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Recorder {
	return &Recorder{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (rec *Recorder) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("actor_id", event.ActorID),
	}

	if event.ActorRole != "" {
		fields = append(fields, zap.String("actor_role", event.ActorRole))
	}
	if event.SubjectID != "" {
		fields = append(fields, zap.String("subject_id", event.SubjectID))
	}
	if event.SocietyID != nil {
		fields = append(fields, zap.String("society_id", event.SocietyID.Hex()))
	}
	if event.Resource != "" {
		fields = append(fields, zap.String("resource", event.Resource))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		rec.zapLog.Info("audit event", fields...)
	} else {
		rec.zapLog.Warn("audit event", fields...)
	}
}

// Record writes an audit event based on configuration.
// If the recorder is nil, this is a no-op (allows tests to use nil).
func (rec *Recorder) Record(ctx context.Context, event audit.Event) {
	if rec == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = rec.config.Auth
	case audit.CategoryMembership:
		setting = rec.config.Membership
	case audit.CategoryAdmin:
		setting = rec.config.Admin
	default:
		setting = "all" // unknown categories are always recorded
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		rec.logToZap(event)
	}

	if setting == "all" || setting == "db" {
		if err := rec.store.Log(ctx, event); err != nil {
			rec.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// AdminLogin records a resolved admin principal starting a session.
func (rec *Recorder) AdminLogin(ctx context.Context, actorID, role string, societyID *primitive.ObjectID, provenance string) {
	rec.Record(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventAdminLogin,
		ActorID:   actorID,
		ActorRole: role,
		SocietyID: societyID,
		Success:   true,
		Details: map[string]string{
			"provenance": provenance,
		},
	})
}

// AdminLogout records a session ending.
func (rec *Recorder) AdminLogout(ctx context.Context, actorID string) {
	rec.Record(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventAdminLogout,
		ActorID:   actorID,
		Success:   true,
	})
}

// AuthorizationDenied records a permission check failure.
func (rec *Recorder) AuthorizationDenied(ctx context.Context, actorID, role, permission string) {
	rec.Record(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventAuthorizationDeny,
		ActorID:       actorID,
		ActorRole:     role,
		Success:       false,
		FailureReason: "missing permission",
		Details: map[string]string{
			"permission": permission,
		},
	})
}

// RateLimited records an action denied by the rate limiter.
func (rec *Recorder) RateLimited(ctx context.Context, actorID, action string) {
	rec.Record(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventRateLimited,
		ActorID:       actorID,
		Success:       false,
		FailureReason: "rate limit exceeded",
		Details: map[string]string{
			"action": action,
		},
	})
}

// --- Membership Events ---

// JoinRequestSubmitted records a resident submitting a join request.
func (rec *Recorder) JoinRequestSubmitted(ctx context.Context, actorID string, societyID primitive.ObjectID, requestID, wing, flat string) {
	rec.Record(ctx, audit.Event{
		Category:  audit.CategoryMembership,
		EventType: audit.EventJoinRequestSubmitted,
		ActorID:   actorID,
		SocietyID: &societyID,
		Resource:  requestID,
		Success:   true,
		Details: map[string]string{
			"wing": wing,
			"flat": flat,
		},
	})
}

// JoinRequestReviewed records an approve or reject decision.
func (rec *Recorder) JoinRequestReviewed(ctx context.Context, actorID, actorRole string, societyID primitive.ObjectID, requestID, subjectID string, approved bool, comment string) {
	eventType := audit.EventJoinRequestApproved
	if !approved {
		eventType = audit.EventJoinRequestRejected
	}
	details := map[string]string{}
	if comment != "" {
		details["comment"] = comment
	}
	rec.Record(ctx, audit.Event{
		Category:  audit.CategoryMembership,
		EventType: eventType,
		ActorID:   actorID,
		ActorRole: actorRole,
		SubjectID: subjectID,
		SocietyID: &societyID,
		Resource:  requestID,
		Success:   true,
		Details:   details,
	})
}

// JoinRequestWithdrawn records a resident withdrawing their own request.
func (rec *Recorder) JoinRequestWithdrawn(ctx context.Context, actorID string, societyID primitive.ObjectID, requestID string) {
	rec.Record(ctx, audit.Event{
		Category:  audit.CategoryMembership,
		EventType: audit.EventJoinRequestWithdrawn,
		ActorID:   actorID,
		SocietyID: &societyID,
		Resource:  requestID,
		Success:   true,
	})
}

// --- Admin Events ---

// RoleChanged records an admin changing another profile's role.
func (rec *Recorder) RoleChanged(ctx context.Context, actorID, actorRole, subjectID, newRole string, societyID *primitive.ObjectID) {
	rec.Record(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventRoleChanged,
		ActorID:   actorID,
		ActorRole: actorRole,
		SubjectID: subjectID,
		SocietyID: societyID,
		Success:   true,
		Details: map[string]string{
			"new_role": newRole,
		},
	})
}

// WingsAssigned records an admin scoping a wing chairman's wings.
func (rec *Recorder) WingsAssigned(ctx context.Context, actorID, actorRole, subjectID string, societyID *primitive.ObjectID, wings []string) {
	rec.Record(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventWingsAssigned,
		ActorID:   actorID,
		ActorRole: actorRole,
		SubjectID: subjectID,
		SocietyID: societyID,
		Success:   true,
		Details: map[string]string{
			"wings": strings.Join(wings, ","),
		},
	})
}

// SocietyCreated records an admin creating a society.
func (rec *Recorder) SocietyCreated(ctx context.Context, actorID, actorRole string, societyID primitive.ObjectID, name string) {
	rec.Record(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventSocietyCreated,
		ActorID:   actorID,
		ActorRole: actorRole,
		SocietyID: &societyID,
		Success:   true,
		Details: map[string]string{
			"name": name,
		},
	})
}

// SocietyDeleted records an admin removing a society.
func (rec *Recorder) SocietyDeleted(ctx context.Context, actorID, actorRole string, societyID primitive.ObjectID, name string) {
	rec.Record(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventSocietyDeleted,
		ActorID:   actorID,
		ActorRole: actorRole,
		SocietyID: &societyID,
		Success:   true,
		Details: map[string]string{
			"name": name,
		},
	})
}

// ProfileDeactivated records an admin deactivating a profile.
func (rec *Recorder) ProfileDeactivated(ctx context.Context, actorID, actorRole, subjectID string, societyID *primitive.ObjectID) {
	rec.Record(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventProfileDeactivated,
		ActorID:   actorID,
		ActorRole: actorRole,
		SubjectID: subjectID,
		SocietyID: societyID,
		Success:   true,
	})
}
