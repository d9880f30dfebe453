package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campuslink/campuslink-api/internal/app/repositories"
	"github.com/campuslink/campuslink-api/internal/domain/membership"
	"github.com/campuslink/campuslink-api/internal/domain/resource"
	"github.com/campuslink/campuslink-api/pkg/audit"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestService handles the requester side of the membership workflow:
// joining a resource and withdrawing from it.
type RequestService interface {
	// Join creates a membership request, or returns the existing record for
	// the pair unchanged. Projects land in pending for owner review; events
	// skip review and are approved immediately when capacity allows.
	Join(ctx context.Context, in membership.JoinInput) (*membership.Request, error)
	// Cancel withdraws the caller's own pending request or approved
	// membership. Succeeds as a no-op when there is nothing to withdraw.
	Cancel(ctx context.Context, resourceID, userID string) error
}

type requestService struct {
	resources repositories.ResourceRepository
	requests  repositories.MembershipRepository
	trail     *audit.Trail
	log       zerolog.Logger
}

// NewRequestService assembles the request service.
func NewRequestService(resources repositories.ResourceRepository, requests repositories.MembershipRepository, trail *audit.Trail, log zerolog.Logger) RequestService {
	return &requestService{resources: resources, requests: requests, trail: trail, log: log}
}

func (s *requestService) Join(ctx context.Context, in membership.JoinInput) (*membership.Request, error) {
	res, err := s.resources.GetByID(ctx, in.ResourceID)
	if errors.Is(err, repositories.ErrResourceNotFound) {
		return nil, fmt.Errorf("%w: resource %s", ErrNotFound, in.ResourceID)
	}
	if err != nil {
		return nil, err
	}
	if err := in.Validate(res.Type); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	// One record per pair: an existing non-withdrawn record is the answer,
	// whatever its status. Terminal records never reopen.
	existing, err := s.requests.FindCurrent(ctx, res.ID, in.UserID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrRequestNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	req := &membership.Request{
		ID:           uuid.NewString(),
		ResourceID:   res.ID,
		ResourceType: res.Type,
		UserID:       in.UserID,
		RequestedAt:  now,
	}

	switch res.Type {
	case resource.TypeEvent:
		// Events have no review step: the seat is taken now or the join fails.
		if err := s.resources.ReserveSeat(ctx, res.ID); err != nil {
			if errors.Is(err, repositories.ErrCapacityExceeded) {
				return nil, fmt.Errorf("%w: event %s", ErrResourceFull, res.ID)
			}
			if errors.Is(err, repositories.ErrResourceNotFound) {
				return nil, fmt.Errorf("%w: resource %s", ErrNotFound, res.ID)
			}
			return nil, err
		}
		req.Status = membership.StatusApproved
		req.DecidedAt = &now
		if err := s.requests.Create(ctx, req); err != nil {
			// Give the seat back before reporting; a duplicate means another
			// call won the race and its record is the idempotent answer.
			_ = s.resources.ReleaseSeat(ctx, res.ID)
			if errors.Is(err, repositories.ErrDuplicateRequest) {
				return s.requests.FindCurrent(ctx, res.ID, in.UserID)
			}
			return nil, err
		}
	default:
		req.Status = membership.StatusPending
		req.Role = strings.TrimSpace(in.Role)
		req.Message = strings.TrimSpace(in.Message)
		if err := s.requests.Create(ctx, req); err != nil {
			if errors.Is(err, repositories.ErrDuplicateRequest) {
				return s.requests.FindCurrent(ctx, res.ID, in.UserID)
			}
			return nil, err
		}
	}

	s.record(ctx, req, in.UserID, joinAction(req.Status))
	s.log.Info().
		Str("resource_id", res.ID).
		Str("user_id", in.UserID).
		Str("status", string(req.Status)).
		Msg("join request created")
	return req, nil
}

func joinAction(status membership.Status) audit.Action {
	if status == membership.StatusApproved {
		return audit.ActionApproved
	}
	return audit.ActionRequested
}

func (s *requestService) Cancel(ctx context.Context, resourceID, userID string) error {
	// A decider may race the withdrawal; one retry covers the pending record
	// turning approved between the read and the conditional update.
	for attempt := 0; attempt < 2; attempt++ {
		cur, err := s.requests.FindCurrent(ctx, resourceID, userID)
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		var from membership.Status
		switch cur.Status {
		case membership.StatusPending, membership.StatusApproved:
			from = cur.Status
		default:
			// Declined is terminal and retained; nothing to withdraw.
			return nil
		}

		if _, err := s.requests.UpdateStatus(ctx, cur.ID, from, membership.StatusWithdrawn, time.Now().UTC()); err != nil {
			if errors.Is(err, repositories.ErrStatusConflict) {
				continue
			}
			return err
		}
		if from == membership.StatusApproved {
			if err := s.resources.ReleaseSeat(ctx, resourceID); err != nil {
				s.log.Error().Err(err).Str("resource_id", resourceID).Msg("failed to release seat after withdrawal")
			}
		}
		s.record(ctx, cur, userID, audit.ActionWithdrawn)
		s.log.Info().
			Str("resource_id", resourceID).
			Str("user_id", userID).
			Str("previous_status", string(from)).
			Msg("membership withdrawn")
		return nil
	}
	return nil
}

func (s *requestService) record(ctx context.Context, req *membership.Request, actorID string, action audit.Action) {
	_ = s.trail.Record(ctx, audit.Event{
		RequestID:  req.ID,
		ResourceID: req.ResourceID,
		UserID:     req.UserID,
		ActorID:    actorID,
		Action:     action,
	})
}
