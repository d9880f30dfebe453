package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/campuslink/campuslink-api/internal/app/repositories"
	"github.com/campuslink/campuslink-api/internal/domain/membership"
	"github.com/campuslink/campuslink-api/internal/domain/resource"
	"github.com/campuslink/campuslink-api/pkg/logger"
)

func newFixture(t *testing.T) (repositories.ResourceRepository, repositories.MembershipRepository, RequestService, ApprovalService) {
	t.Helper()
	resources := repositories.NewInMemoryResourceRepo()
	requests := repositories.NewInMemoryMembershipRepo()
	loggers := logger.InitForTests()
	requestSvc := NewRequestService(resources, requests, nil, loggers.App)
	approvalSvc := NewApprovalService(resources, requests, nil, loggers.App)
	return resources, requests, requestSvc, approvalSvc
}

func seedResource(t *testing.T, repo repositories.ResourceRepository, id string, typ resource.Type, ownerID string, capacity int) {
	t.Helper()
	err := repo.Create(context.Background(), &resource.Resource{
		ID:        id,
		Name:      id,
		Type:      typ,
		OwnerID:   ownerID,
		Capacity:  capacity,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed resource %s: %v", id, err)
	}
}

func TestJoinProjectLandsPending(t *testing.T) {
	resources, _, svc, _ := newFixture(t)
	seedResource(t, resources, "proj", resource.TypeProject, "owner", 0)

	req, err := svc.Join(context.Background(), membership.JoinInput{
		ResourceID: "proj",
		UserID:     "alice",
		Role:       "backend",
		Message:    strings.Repeat("x", 25),
	})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if req.Status != membership.StatusPending {
		t.Fatalf("project join must await review, got %s", req.Status)
	}
	if req.DecidedAt != nil {
		t.Fatalf("pending request must not carry a decision time")
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	resources, _, svc, _ := newFixture(t)
	seedResource(t, resources, "proj", resource.TypeProject, "owner", 0)
	ctx := context.Background()

	in := membership.JoinInput{ResourceID: "proj", UserID: "alice", Message: strings.Repeat("x", 30)}
	first, err := svc.Join(ctx, in)
	if err != nil {
		t.Fatalf("first join: %v", err)
	}
	second, err := svc.Join(ctx, in)
	if err != nil {
		t.Fatalf("second join: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("second join must return the existing record, got %s and %s", first.ID, second.ID)
	}
}

func TestJoinProjectMessageTooShort(t *testing.T) {
	resources, _, svc, _ := newFixture(t)
	seedResource(t, resources, "proj", resource.TypeProject, "owner", 0)

	_, err := svc.Join(context.Background(), membership.JoinInput{
		ResourceID: "proj",
		UserID:     "dave",
		Message:    strings.Repeat("x", 15),
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestJoinUnknownResource(t *testing.T) {
	_, _, svc, _ := newFixture(t)
	_, err := svc.Join(context.Background(), membership.JoinInput{ResourceID: "missing", UserID: "alice"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEventJoinFillsToCapacity(t *testing.T) {
	resources, _, svc, _ := newFixture(t)
	seedResource(t, resources, "evt", resource.TypeEvent, "organizer", 2)
	ctx := context.Background()

	a, err := svc.Join(ctx, membership.JoinInput{ResourceID: "evt", UserID: "a"})
	if err != nil {
		t.Fatalf("join a: %v", err)
	}
	if a.Status != membership.StatusApproved {
		t.Fatalf("event join should approve immediately, got %s", a.Status)
	}
	if a.DecidedAt == nil {
		t.Fatalf("auto-approved RSVP must carry a decision time")
	}

	b, err := svc.Join(ctx, membership.JoinInput{ResourceID: "evt", UserID: "b"})
	if err != nil {
		t.Fatalf("join b: %v", err)
	}
	if b.Status != membership.StatusApproved {
		t.Fatalf("second join should approve, got %s", b.Status)
	}

	_, err = svc.Join(ctx, membership.JoinInput{ResourceID: "evt", UserID: "c"})
	if !errors.Is(err, ErrResourceFull) {
		t.Fatalf("third join must fail full, got %v", err)
	}

	res, err := resources.GetByID(ctx, "evt")
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if res.ApprovedCount != 2 {
		t.Fatalf("approved count must equal capacity, got %d", res.ApprovedCount)
	}
}

func TestCancelWithoutRecordIsNoOp(t *testing.T) {
	resources, _, svc, _ := newFixture(t)
	seedResource(t, resources, "proj", resource.TypeProject, "owner", 0)

	if err := svc.Cancel(context.Background(), "proj", "nobody"); err != nil {
		t.Fatalf("cancel must succeed as no-op, got %v", err)
	}
}

func TestCancelApprovedReleasesSeat(t *testing.T) {
	resources, _, svc, _ := newFixture(t)
	seedResource(t, resources, "evt", resource.TypeEvent, "organizer", 1)
	ctx := context.Background()

	if _, err := svc.Join(ctx, membership.JoinInput{ResourceID: "evt", UserID: "a"}); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := svc.Join(ctx, membership.JoinInput{ResourceID: "evt", UserID: "b"}); !errors.Is(err, ErrResourceFull) {
		t.Fatalf("event should be full, got %v", err)
	}

	if err := svc.Cancel(ctx, "evt", "a"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	res, _ := resources.GetByID(ctx, "evt")
	if res.ApprovedCount != 0 {
		t.Fatalf("seat must be released, count %d", res.ApprovedCount)
	}

	// The freed seat is available again.
	b, err := svc.Join(ctx, membership.JoinInput{ResourceID: "evt", UserID: "b"})
	if err != nil {
		t.Fatalf("join after release: %v", err)
	}
	if b.Status != membership.StatusApproved {
		t.Fatalf("expected approval after seat freed, got %s", b.Status)
	}
}

func TestCancelAfterDeclineIsNoOp(t *testing.T) {
	resources, requests, svc, approvals := newFixture(t)
	seedResource(t, resources, "proj", resource.TypeProject, "owner", 0)
	ctx := context.Background()

	req, err := svc.Join(ctx, membership.JoinInput{ResourceID: "proj", UserID: "alice", Message: strings.Repeat("x", 40)})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := approvals.Decide(ctx, req.ID, "owner", membership.DecisionDecline); err != nil {
		t.Fatalf("decline: %v", err)
	}

	if err := svc.Cancel(ctx, "proj", "alice"); err != nil {
		t.Fatalf("cancel after decline must be a no-op, got %v", err)
	}
	got, err := requests.GetByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != membership.StatusDeclined {
		t.Fatalf("declined record must be retained, got %s", got.Status)
	}
}
