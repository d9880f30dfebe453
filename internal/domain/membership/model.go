package membership

import (
	"errors"
	"fmt"
	"time"

	"github.com/campuslink/campuslink-api/internal/domain/resource"
)

// Status is the lifecycle state of a membership request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusDeclined  Status = "declined"
	StatusWithdrawn Status = "withdrawn"
)

// Terminal reports whether no further owner decision is possible from s.
// An approved member may still withdraw (leave), which is the single
// permitted exit from a terminal state.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusDeclined || s == StatusWithdrawn
}

// Decision is an owner's verdict on a pending request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionDecline Decision = "decline"
)

// Valid reports whether d is a known decision.
func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionDecline
}

// Message length bounds for project join pitches.
const (
	MessageMinLen = 20
	MessageMaxLen = 300
)

// ErrMessageLength is returned when a project join message falls outside the
// allowed bounds.
var ErrMessageLength = fmt.Errorf("message must be between %d and %d characters", MessageMinLen, MessageMaxLen)

// Request is a durable record of one user's intent to join one resource.
// At most one non-withdrawn record exists per (ResourceID, UserID) pair.
type Request struct {
	ID           string        `json:"id"`
	ResourceID   string        `json:"resourceId"`
	ResourceType resource.Type `json:"resourceType"`
	UserID       string        `json:"userId"`
	Status       Status        `json:"status"`
	Role         string        `json:"role,omitempty"`
	Message      string        `json:"message,omitempty"`
	RequestedAt  time.Time     `json:"requestedAt"`
	DecidedAt    *time.Time    `json:"decidedAt,omitempty"`
}

// Redacted returns a copy of the request with the free-text pitch removed.
// Used when projecting state to callers who are neither the resource owner
// nor the requester themselves.
func (r *Request) Redacted() *Request {
	out := *r
	out.Message = ""
	return &out
}

// JoinInput carries the payload of a join attempt.
type JoinInput struct {
	ResourceID string `json:"resourceId" validate:"required"`
	UserID     string `json:"userId" validate:"required"`
	Role       string `json:"role,omitempty" validate:"omitempty,max=80"`
	Message    string `json:"message,omitempty"`
}

// Validate enforces the join input constraints that do not depend on stored
// state. The message bound applies to projects only; events carry no pitch.
func (in JoinInput) Validate(resourceType resource.Type) error {
	if in.ResourceID == "" {
		return errors.New("resourceId is required")
	}
	if in.UserID == "" {
		return errors.New("userId is required")
	}
	if resourceType == resource.TypeProject && in.Message != "" {
		if n := len([]rune(in.Message)); n < MessageMinLen || n > MessageMaxLen {
			return ErrMessageLength
		}
	}
	return nil
}

// View is the read-side projection of a resource and its membership.
// PendingRequests is populated only when the caller owns the resource.
type View struct {
	Resource        *resource.Resource `json:"resource"`
	ApprovedMembers []*Request         `json:"approvedMembers"`
	PendingRequests []*Request         `json:"pendingRequests,omitempty"`
}
