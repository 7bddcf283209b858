// internal/app/membership/service.go

// Package membership owns the join-request lifecycle: a resident submits a
// request to a society, an admin approves or rejects it, the resident may
// withdraw it first. Requests live embedded in the society document; all
// rewrites go through the society store's version guard, and this service
// retries the read-mutate-write cycle on conflict.
package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/habitathq/societyhub/internal/app/store/societies"
	"github.com/habitathq/societyhub/internal/app/system/auditlog"
	"github.com/habitathq/societyhub/internal/app/system/identity"
	"github.com/habitathq/societyhub/internal/app/system/notify"
	"github.com/habitathq/societyhub/internal/app/system/sanitize"
	"github.com/habitathq/societyhub/internal/domain/models"
)

// maxAttempts bounds the conflict retry loop. Backoff is linear per
// attempt; contention on a single society is short-lived.
const maxAttempts = 3

const retryBaseDelay = 10 * time.Millisecond

// SocietyStore is the slice of the society store the service needs.
type SocietyStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Society, error)
	FindByRequestID(ctx context.Context, requestID string) (models.Society, error)
	AppendRequest(ctx context.Context, societyID primitive.ObjectID, req models.JoinRequest) error
	ReplaceRequests(ctx context.Context, societyID primitive.ObjectID, requests []models.JoinRequest, expectedVersion int64) error
}

// ProfileStore is the slice of the profile store the service needs.
type ProfileStore interface {
	GetByIdentity(ctx context.Context, identityID string) (*models.Profile, error)
	SetJoinRequest(ctx context.Context, identityID, requestID string) error
	ClearJoinRequest(ctx context.Context, identityID string) error
	ApproveMembership(ctx context.Context, identityID string, societyID primitive.ObjectID, societyName, wing, flat, residentType string) error
	UpsertEnrichment(ctx context.Context, identityID, fullName, email, imageURL string) error
}

// ProfileProvider fetches directory records for best-effort enrichment.
type ProfileProvider interface {
	GetProfile(ctx context.Context, subjectID string) (identity.ProviderProfile, error)
}

// Service coordinates the join-request state machine. Audit, notification,
// and enrichment are side channels: their failures are logged and never
// propagate to the caller.
type Service struct {
	societies SocietyStore
	profiles  ProfileStore
	provider  ProfileProvider // may be nil
	audit     *auditlog.Recorder
	notifier  notify.Publisher
	log       *zap.Logger

	sleep func(time.Duration)
}

// New constructs the membership service. provider and notifier may be nil;
// the corresponding side effects are skipped.
func New(societies SocietyStore, profiles ProfileStore, provider ProfileProvider, audit *auditlog.Recorder, notifier notify.Publisher, logger *zap.Logger) *Service {
	return &Service{
		societies: societies,
		profiles:  profiles,
		provider:  provider,
		audit:     audit,
		notifier:  notifier,
		log:       logger,
		sleep:     time.Sleep,
	}
}

// SubmitInput carries the resident-supplied attributes of a new request.
type SubmitInput struct {
	Wing         string
	Flat         string
	ResidentType string
	Contact      string
}

// Submit creates a pending join request for the identity in the society.
// One pending request per identity: a profile reference that still resolves
// to a live pending entry, or a pending entry found in the target society,
// rejects the submission.
func (s *Service) Submit(ctx context.Context, identityID string, societyID primitive.ObjectID, in SubmitInput) (models.JoinRequest, error) {
	sanitize.Fields(&in.Wing, &in.Flat, &in.ResidentType, &in.Contact)

	prof, err := s.profiles.GetByIdentity(ctx, identityID)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return models.JoinRequest{}, fmt.Errorf("loading profile: %w", err)
	}
	if prof.HasSociety() && prof.Approved {
		return models.JoinRequest{}, ErrAlreadyMember
	}

	// The reference is advisory: a swallowed ClearJoinRequest failure on the
	// reject or withdraw path can leave it dangling, so it only blocks when
	// it still resolves to a pending entry. A stale one is cleared here.
	if prof != nil && prof.JoinRequestID != "" {
		owner, err := s.societies.FindByRequestID(ctx, prof.JoinRequestID)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return models.JoinRequest{}, fmt.Errorf("verifying request reference: %w", err)
		}
		if err == nil {
			if idx := owner.RequestByID(prof.JoinRequestID); idx >= 0 && owner.Requests[idx].IsPending() {
				return models.JoinRequest{}, ErrDuplicatePending
			}
		}
		if err := s.profiles.ClearJoinRequest(ctx, identityID); err != nil {
			s.log.Warn("clearing stale join request reference failed",
				zap.String("identity_id", identityID), zap.Error(err))
		}
	}

	req := models.JoinRequest{
		ID:           uuid.NewString(),
		IdentityID:   identityID,
		Wing:         in.Wing,
		Flat:         in.Flat,
		ResidentType: in.ResidentType,
		Contact:      in.Contact,
		Status:       models.RequestPending,
		SubmittedAt:  time.Now().UTC(),
	}

	// The append guard is the authoritative duplicate check; the profile
	// reference above is only a fast path.
	if err := s.societies.AppendRequest(ctx, societyID, req); err != nil {
		switch {
		case errors.Is(err, societystore.ErrPendingExists):
			return models.JoinRequest{}, ErrDuplicatePending
		case errors.Is(err, mongo.ErrNoDocuments):
			return models.JoinRequest{}, ErrSocietyNotFound
		default:
			return models.JoinRequest{}, fmt.Errorf("appending request: %w", err)
		}
	}

	if err := s.profiles.SetJoinRequest(ctx, identityID, req.ID); err != nil {
		// The request is committed in the society; the profile reference is
		// a convenience pointer. Log and carry on.
		s.log.Warn("setting profile join request reference failed",
			zap.String("identity_id", identityID),
			zap.String("request_id", req.ID),
			zap.Error(err))
	}

	s.enrichProfile(ctx, identityID)
	s.audit.JoinRequestSubmitted(ctx, identityID, societyID, req.ID, req.Wing, req.Flat)
	s.publish(ctx, notify.Event{
		Scope:     notify.ScopeSocietyAdmins,
		SocietyID: &societyID,
		Kind:      "join_request_submitted",
		SubjectID: identityID,
		Message:   "new join request awaiting review",
	})

	return req, nil
}

// ReviewInput identifies the reviewer and the decision.
type ReviewInput struct {
	ReviewerID   string
	ReviewerRole string
	RequestID    string
	Approve      bool
	Comment      string
}

// Review settles a pending request. The request can only leave the pending
// state once: a concurrent reviewer either loses the version race and sees
// the settled state on reload, or this call does.
func (s *Service) Review(ctx context.Context, in ReviewInput) (models.JoinRequest, error) {
	in.Comment = sanitize.Text(in.Comment)

	var settled models.JoinRequest
	var societyID primitive.ObjectID
	var societyName string
	err := s.withRetry(ctx, in.RequestID, func(soc models.Society, idx int) ([]models.JoinRequest, error) {
		req := soc.Requests[idx]
		if !req.IsPending() {
			return nil, ErrAlreadyReviewed
		}

		now := time.Now().UTC()
		req.ReviewedBy = in.ReviewerID
		req.ReviewedAt = &now
		req.Reason = in.Comment
		if in.Approve {
			req.Status = models.RequestApproved
		} else {
			req.Status = models.RequestRejected
		}

		requests := append([]models.JoinRequest(nil), soc.Requests...)
		requests[idx] = req
		settled = req
		societyID = soc.ID
		societyName = soc.Name
		return requests, nil
	})
	if err != nil {
		return models.JoinRequest{}, err
	}

	if in.Approve {
		err := s.profiles.ApproveMembership(ctx, settled.IdentityID, societyID, societyName,
			settled.Wing, settled.Flat, settled.ResidentType)
		if err != nil {
			// The society-side decision is committed; the profile write must
			// still land for the resident to count as registered.
			return models.JoinRequest{}, fmt.Errorf("recording approved membership: %w", err)
		}
	} else {
		if err := s.profiles.ClearJoinRequest(ctx, settled.IdentityID); err != nil {
			s.log.Warn("clearing profile join request reference failed",
				zap.String("identity_id", settled.IdentityID), zap.Error(err))
		}
	}

	s.audit.JoinRequestReviewed(ctx, in.ReviewerID, in.ReviewerRole, societyID,
		settled.ID, settled.IdentityID, in.Approve, in.Comment)
	kind := "join_request_rejected"
	msg := "your join request was rejected"
	if in.Approve {
		kind = "join_request_approved"
		msg = "your join request was approved"
	}
	s.publish(ctx, notify.Event{
		Scope:     notify.ScopeSocietyAdmins,
		SocietyID: &societyID,
		Kind:      kind,
		SubjectID: settled.IdentityID,
		Message:   msg,
	})

	return settled, nil
}

// Withdraw lets a resident retract their own pending request. The entry is
// removed from the society, not marked: a later submission must never be
// blocked by a stale duplicate.
func (s *Service) Withdraw(ctx context.Context, identityID, requestID string) (models.JoinRequest, error) {
	var settled models.JoinRequest
	var societyID primitive.ObjectID
	err := s.withRetry(ctx, requestID, func(soc models.Society, idx int) ([]models.JoinRequest, error) {
		req := soc.Requests[idx]
		if req.IdentityID != identityID {
			return nil, ErrNotOwner
		}
		if !req.IsPending() {
			return nil, ErrAlreadyReviewed
		}

		requests := append([]models.JoinRequest(nil), soc.Requests[:idx]...)
		requests = append(requests, soc.Requests[idx+1:]...)
		req.Status = models.RequestWithdrawn
		settled = req
		societyID = soc.ID
		return requests, nil
	})
	if err != nil {
		return models.JoinRequest{}, err
	}

	if err := s.profiles.ClearJoinRequest(ctx, identityID); err != nil {
		s.log.Warn("clearing profile join request reference failed",
			zap.String("identity_id", identityID), zap.Error(err))
	}

	s.audit.JoinRequestWithdrawn(ctx, identityID, societyID, settled.ID)
	s.publish(ctx, notify.Event{
		Scope:     notify.ScopeSocietyAdmins,
		SocietyID: &societyID,
		Kind:      "join_request_withdrawn",
		SubjectID: identityID,
		Message:   "join request withdrawn by the resident",
	})
	return settled, nil
}

// Membership states reported by Status.
const (
	StateNotRegistered  = "not_registered"
	StatePendingRequest = "pending_request"
	StateRegistered     = "registered"
)

// StatusResult describes where an identity stands in the membership
// lifecycle.
type StatusResult struct {
	State     string              `json:"state"`
	SocietyID *primitive.ObjectID `json:"society_id,omitempty"`
	Request   *models.JoinRequest `json:"request,omitempty"`
}

// Status derives the identity's membership state. The approved flag trumps
// a stale request reference: a profile that is both approved and still
// carrying a request pointer reports registered.
func (s *Service) Status(ctx context.Context, identityID string) (StatusResult, error) {
	prof, err := s.profiles.GetByIdentity(ctx, identityID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return StatusResult{State: StateNotRegistered}, nil
		}
		return StatusResult{}, fmt.Errorf("loading profile: %w", err)
	}

	if prof.Approved && prof.HasSociety() {
		return StatusResult{State: StateRegistered, SocietyID: prof.SocietyID}, nil
	}

	if prof.JoinRequestID != "" {
		soc, err := s.societies.FindByRequestID(ctx, prof.JoinRequestID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				// Dangling reference; treat as no request.
				return StatusResult{State: StateNotRegistered}, nil
			}
			return StatusResult{}, fmt.Errorf("loading join request: %w", err)
		}
		if idx := soc.RequestByID(prof.JoinRequestID); idx >= 0 && soc.Requests[idx].IsPending() {
			req := soc.Requests[idx]
			return StatusResult{State: StatePendingRequest, SocietyID: &soc.ID, Request: &req}, nil
		}
	}

	return StatusResult{State: StateNotRegistered}, nil
}

// Pending lists a society's pending requests, oldest first.
func (s *Service) Pending(ctx context.Context, societyID primitive.ObjectID) ([]models.JoinRequest, error) {
	soc, err := s.societies.GetByID(ctx, societyID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSocietyNotFound
		}
		return nil, err
	}
	var pending []models.JoinRequest
	for _, req := range soc.Requests {
		if req.IsPending() {
			pending = append(pending, req)
		}
	}
	return pending, nil
}

// withRetry runs the read-mutate-write cycle for the request's society,
// retrying with linear backoff while concurrent writers invalidate the
// version. mutate returns the full replacement request collection.
func (s *Service) withRetry(ctx context.Context, requestID string, mutate func(soc models.Society, idx int) ([]models.JoinRequest, error)) error {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		soc, err := s.societies.FindByRequestID(ctx, requestID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrRequestNotFound
			}
			return fmt.Errorf("loading society for request: %w", err)
		}
		idx := soc.RequestByID(requestID)
		if idx < 0 {
			return ErrRequestNotFound
		}

		requests, err := mutate(soc, idx)
		if err != nil {
			return err
		}

		err = s.societies.ReplaceRequests(ctx, soc.ID, requests, soc.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, societystore.ErrVersionConflict) {
			return fmt.Errorf("replacing requests: %w", err)
		}
		if attempt < maxAttempts {
			s.sleep(time.Duration(attempt) * retryBaseDelay)
		}
	}
	return ErrTransientConflict
}

// enrichProfile copies directory fields onto the profile, best effort.
func (s *Service) enrichProfile(ctx context.Context, identityID string) {
	if s.provider == nil {
		return
	}
	dir, err := s.provider.GetProfile(ctx, identityID)
	if err != nil {
		s.log.Debug("profile enrichment skipped",
			zap.String("identity_id", identityID), zap.Error(err))
		return
	}
	name := dir.FirstName
	if dir.LastName != "" {
		if name != "" {
			name += " "
		}
		name += dir.LastName
	}
	if err := s.profiles.UpsertEnrichment(ctx, identityID, name, dir.Email, dir.ImageURL); err != nil {
		s.log.Warn("profile enrichment write failed",
			zap.String("identity_id", identityID), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, ev notify.Event) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(ctx, ev)
}
