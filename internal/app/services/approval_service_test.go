package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/campuslink/campuslink-api/internal/domain/membership"
	"github.com/campuslink/campuslink-api/internal/domain/resource"
)

func TestDecideRequiresOwner(t *testing.T) {
	resources, requests, svc, approvals := newFixture(t)
	seedResource(t, resources, "proj", resource.TypeProject, "owner", 0)
	ctx := context.Background()

	req, err := svc.Join(ctx, membership.JoinInput{ResourceID: "proj", UserID: "alice", Message: strings.Repeat("x", 30)})
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	_, err = approvals.Decide(ctx, req.ID, "intruder", membership.DecisionApprove)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	got, _ := requests.GetByID(ctx, req.ID)
	if got.Status != membership.StatusPending {
		t.Fatalf("forbidden decide must leave request pending, got %s", got.Status)
	}
}

func TestDecideRejectsSelfApproval(t *testing.T) {
	resources, _, svc, approvals := newFixture(t)
	seedResource(t, resources, "proj", resource.TypeProject, "owner", 0)
	ctx := context.Background()

	// The owner somehow filed a request on their own project.
	req, err := svc.Join(ctx, membership.JoinInput{ResourceID: "proj", UserID: "owner", Message: strings.Repeat("x", 30)})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := approvals.Decide(ctx, req.ID, "owner", membership.DecisionApprove); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden on self-approval, got %v", err)
	}
}

func TestDecideApproveAndDecline(t *testing.T) {
	resources, _, svc, approvals := newFixture(t)
	seedResource(t, resources, "proj", resource.TypeProject, "owner", 0)
	ctx := context.Background()

	reqA, _ := svc.Join(ctx, membership.JoinInput{ResourceID: "proj", UserID: "alice", Message: strings.Repeat("x", 30)})
	reqB, _ := svc.Join(ctx, membership.JoinInput{ResourceID: "proj", UserID: "bob", Message: strings.Repeat("x", 30)})

	approved, err := approvals.Decide(ctx, reqA.ID, "owner", membership.DecisionApprove)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != membership.StatusApproved || approved.DecidedAt == nil {
		t.Fatalf("expected approved with decision time, got %+v", approved)
	}

	declined, err := approvals.Decide(ctx, reqB.ID, "owner", membership.DecisionDecline)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if declined.Status != membership.StatusDeclined {
		t.Fatalf("expected declined, got %s", declined.Status)
	}

	res, _ := resources.GetByID(ctx, "proj")
	if res.ApprovedCount != 1 {
		t.Fatalf("approval must count one seat, got %d", res.ApprovedCount)
	}
}

func TestDecideOnTerminalRequestFails(t *testing.T) {
	resources, requests, svc, approvals := newFixture(t)
	seedResource(t, resources, "proj", resource.TypeProject, "owner", 0)
	ctx := context.Background()

	req, _ := svc.Join(ctx, membership.JoinInput{ResourceID: "proj", UserID: "alice", Message: strings.Repeat("x", 30)})
	if _, err := approvals.Decide(ctx, req.ID, "owner", membership.DecisionDecline); err != nil {
		t.Fatalf("decline: %v", err)
	}

	for _, d := range []membership.Decision{membership.DecisionApprove, membership.DecisionDecline} {
		if _, err := approvals.Decide(ctx, req.ID, "owner", d); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("decide %s on declined request: expected invalid state, got %v", d, err)
		}
	}
	got, _ := requests.GetByID(ctx, req.ID)
	if got.Status != membership.StatusDeclined {
		t.Fatalf("terminal record mutated to %s", got.Status)
	}
}

func TestDecideUnknownRequest(t *testing.T) {
	_, _, _, approvals := newFixture(t)
	if _, err := approvals.Decide(context.Background(), "missing", "owner", membership.DecisionApprove); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestApproveOnFullProjectLeavesPending(t *testing.T) {
	resources, requests, svc, approvals := newFixture(t)
	seedResource(t, resources, "proj", resource.TypeProject, "owner", 1)
	ctx := context.Background()

	reqA, _ := svc.Join(ctx, membership.JoinInput{ResourceID: "proj", UserID: "alice", Message: strings.Repeat("x", 30)})
	// Projects always accept the request itself; only approval is capacity gated.
	reqB, err := svc.Join(ctx, membership.JoinInput{ResourceID: "proj", UserID: "bob", Message: strings.Repeat("x", 30)})
	if err != nil {
		t.Fatalf("second project join must queue even at capacity: %v", err)
	}

	if _, err := approvals.Decide(ctx, reqA.ID, "owner", membership.DecisionApprove); err != nil {
		t.Fatalf("approve a: %v", err)
	}
	_, err = approvals.Decide(ctx, reqB.ID, "owner", membership.DecisionApprove)
	if !errors.Is(err, ErrResourceFull) {
		t.Fatalf("expected resource full, got %v", err)
	}
	got, _ := requests.GetByID(ctx, reqB.ID)
	if got.Status != membership.StatusPending {
		t.Fatalf("failed approval must leave request pending, got %s", got.Status)
	}
}

func TestConcurrentApprovalsRespectCapacity(t *testing.T) {
	resources, requests, svc, approvals := newFixture(t)
	seedResource(t, resources, "proj", resource.TypeProject, "owner", 2)
	ctx := context.Background()

	users := []string{"u1", "u2", "u3", "u4", "u5"}
	ids := make([]string, len(users))
	for i, u := range users {
		req, err := svc.Join(ctx, membership.JoinInput{ResourceID: "proj", UserID: u, Message: strings.Repeat("x", 30)})
		if err != nil {
			t.Fatalf("join %s: %v", u, err)
		}
		ids[i] = req.ID
	}

	var wg sync.WaitGroup
	errs := make([]error, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = approvals.Decide(ctx, id, "owner", membership.DecisionApprove)
		}(i, id)
	}
	wg.Wait()

	var approvedCalls, fullCalls int
	for _, err := range errs {
		switch {
		case err == nil:
			approvedCalls++
		case errors.Is(err, ErrResourceFull):
			fullCalls++
		default:
			t.Fatalf("unexpected decide error: %v", err)
		}
	}
	if approvedCalls != 2 || fullCalls != 3 {
		t.Fatalf("expected 2 approvals and 3 full, got %d and %d", approvedCalls, fullCalls)
	}

	res, _ := resources.GetByID(ctx, "proj")
	if res.ApprovedCount != 2 {
		t.Fatalf("approved count exceeded capacity: %d", res.ApprovedCount)
	}
	approved, _ := requests.ListByResource(ctx, "proj", membership.StatusApproved)
	if len(approved) != 2 {
		t.Fatalf("expected 2 approved records, got %d", len(approved))
	}
}
