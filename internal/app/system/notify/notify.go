// internal/app/system/notify/notify.go

// Package notify fans membership events out to admins. Delivery is best
// effort: the membership flow fires notifications and moves on, so a
// publisher must never block or fail the calling operation.
package notify

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Scope selects the audience for an event.
type Scope string

const (
	// ScopeAllAdmins targets every administrator on the platform.
	ScopeAllAdmins Scope = "all_admins"
	// ScopeSocietyAdmins targets the admins of one society.
	ScopeSocietyAdmins Scope = "society_admins"
)

// Event is one notification to deliver.
type Event struct {
	Scope     Scope
	SocietyID *primitive.ObjectID // required for ScopeSocietyAdmins
	Kind      string              // e.g. "join_request_submitted"
	SubjectID string              // the resident the event concerns
	Message   string
}

// Publisher delivers events. Implementations swallow their own failures.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// LogPublisher writes events to the structured log. It is the default
// publisher; push channels slot in behind the same interface.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{log: logger}
}

func (p *LogPublisher) Publish(_ context.Context, ev Event) {
	fields := []zap.Field{
		zap.String("scope", string(ev.Scope)),
		zap.String("kind", ev.Kind),
		zap.String("subject_id", ev.SubjectID),
		zap.String("message", ev.Message),
	}
	if ev.SocietyID != nil {
		fields = append(fields, zap.String("society_id", ev.SocietyID.Hex()))
	}
	p.log.Info("notification", fields...)
}
