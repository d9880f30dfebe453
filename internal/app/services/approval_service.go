package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campuslink/campuslink-api/internal/app/repositories"
	"github.com/campuslink/campuslink-api/internal/domain/membership"
	"github.com/campuslink/campuslink-api/pkg/audit"
	"github.com/rs/zerolog"
)

// ApprovalService is the owner side of the membership workflow: accepting or
// declining pending requests.
type ApprovalService interface {
	// Decide transitions a pending request to approved or declined. Only the
	// resource owner may decide, never on their own request, and approvals
	// re-check capacity at decision time. On a full resource the request
	// stays pending and ErrResourceFull is returned.
	Decide(ctx context.Context, requestID, deciderUserID string, decision membership.Decision) (*membership.Request, error)
}

type approvalService struct {
	resources repositories.ResourceRepository
	requests  repositories.MembershipRepository
	trail     *audit.Trail
	log       zerolog.Logger
}

// NewApprovalService assembles the approval service.
func NewApprovalService(resources repositories.ResourceRepository, requests repositories.MembershipRepository, trail *audit.Trail, log zerolog.Logger) ApprovalService {
	return &approvalService{resources: resources, requests: requests, trail: trail, log: log}
}

func (s *approvalService) Decide(ctx context.Context, requestID, deciderUserID string, decision membership.Decision) (*membership.Request, error) {
	if !decision.Valid() {
		return nil, fmt.Errorf("%w: unknown decision %q", ErrValidation, decision)
	}
	req, err := s.requests.GetByID(ctx, requestID)
	if errors.Is(err, repositories.ErrRequestNotFound) {
		return nil, fmt.Errorf("%w: request %s", ErrNotFound, requestID)
	}
	if err != nil {
		return nil, err
	}
	res, err := s.resources.GetByID(ctx, req.ResourceID)
	if errors.Is(err, repositories.ErrResourceNotFound) {
		return nil, fmt.Errorf("%w: resource %s", ErrNotFound, req.ResourceID)
	}
	if err != nil {
		return nil, err
	}

	if deciderUserID != res.OwnerID {
		return nil, fmt.Errorf("%w: only the owner may decide", ErrForbidden)
	}
	// Even an owner cannot rule on their own request.
	if deciderUserID == req.UserID {
		return nil, fmt.Errorf("%w: cannot decide own request", ErrForbidden)
	}
	if req.Status != membership.StatusPending {
		return nil, fmt.Errorf("%w: request is %s", ErrInvalidState, req.Status)
	}

	now := time.Now().UTC()
	var updated *membership.Request

	switch decision {
	case membership.DecisionApprove:
		// Take the seat first; the guarded increment is what keeps the
		// approved count within capacity under concurrent approvals.
		if err := s.resources.ReserveSeat(ctx, res.ID); err != nil {
			if errors.Is(err, repositories.ErrCapacityExceeded) {
				return nil, fmt.Errorf("%w: %s", ErrResourceFull, res.ID)
			}
			return nil, err
		}
		updated, err = s.requests.UpdateStatus(ctx, req.ID, membership.StatusPending, membership.StatusApproved, now)
		if err != nil {
			_ = s.resources.ReleaseSeat(ctx, res.ID)
			if errors.Is(err, repositories.ErrStatusConflict) {
				return nil, fmt.Errorf("%w: request no longer pending", ErrInvalidState)
			}
			return nil, err
		}
		s.record(ctx, updated, deciderUserID, audit.ActionApproved)
	case membership.DecisionDecline:
		updated, err = s.requests.UpdateStatus(ctx, req.ID, membership.StatusPending, membership.StatusDeclined, now)
		if err != nil {
			if errors.Is(err, repositories.ErrStatusConflict) {
				return nil, fmt.Errorf("%w: request no longer pending", ErrInvalidState)
			}
			return nil, err
		}
		s.record(ctx, updated, deciderUserID, audit.ActionDeclined)
	}

	s.log.Info().
		Str("request_id", req.ID).
		Str("resource_id", res.ID).
		Str("decider_id", deciderUserID).
		Str("status", string(updated.Status)).
		Msg("request decided")
	return updated, nil
}

func (s *approvalService) record(ctx context.Context, req *membership.Request, actorID string, action audit.Action) {
	_ = s.trail.Record(ctx, audit.Event{
		RequestID:  req.ID,
		ResourceID: req.ResourceID,
		UserID:     req.UserID,
		ActorID:    actorID,
		Action:     action,
	})
}
