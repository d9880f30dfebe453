package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/campuslink/campuslink-api/internal/app/repositories"
	"github.com/campuslink/campuslink-api/internal/domain/membership"
)

// MembershipViewService projects a resource and its membership for display.
type MembershipViewService interface {
	// Membership returns the resource with its approved members. The pending
	// list and the free-text pitches are owner-only: the filter runs here,
	// not in the UI, because pitches were written for the owner's eyes.
	Membership(ctx context.Context, resourceID, callerUserID string) (*membership.View, error)
}

type membershipViewService struct {
	resources repositories.ResourceRepository
	requests  repositories.MembershipRepository
}

// NewMembershipViewService assembles the read-side projection service.
func NewMembershipViewService(resources repositories.ResourceRepository, requests repositories.MembershipRepository) MembershipViewService {
	return &membershipViewService{resources: resources, requests: requests}
}

func (s *membershipViewService) Membership(ctx context.Context, resourceID, callerUserID string) (*membership.View, error) {
	res, err := s.resources.GetByID(ctx, resourceID)
	if errors.Is(err, repositories.ErrResourceNotFound) {
		return nil, fmt.Errorf("%w: resource %s", ErrNotFound, resourceID)
	}
	if err != nil {
		return nil, err
	}

	approved, err := s.requests.ListByResource(ctx, resourceID, membership.StatusApproved)
	if err != nil {
		return nil, err
	}

	isOwner := callerUserID != "" && callerUserID == res.OwnerID

	members := make([]*membership.Request, 0, len(approved))
	for _, m := range approved {
		if isOwner || m.UserID == callerUserID {
			members = append(members, m)
			continue
		}
		members = append(members, m.Redacted())
	}

	view := &membership.View{
		Resource:        res,
		ApprovedMembers: members,
	}
	if isOwner {
		pending, err := s.requests.ListByResource(ctx, resourceID, membership.StatusPending)
		if err != nil {
			return nil, err
		}
		view.PendingRequests = pending
	}
	return view, nil
}
