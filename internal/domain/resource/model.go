package resource

import "time"

// Type distinguishes the two kinds of joinable resources.
type Type string

const (
	TypeProject Type = "project"
	TypeEvent   Type = "event"
)

// Valid reports whether t is one of the known resource types.
func (t Type) Valid() bool {
	return t == TypeProject || t == TypeEvent
}

// CreateInput contains the payload required to create a resource.
type CreateInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type" validate:"required,oneof=project event"`
	OwnerID     string `json:"ownerId" validate:"required"`
	Capacity    int    `json:"capacity" validate:"min=0"`
}

// Resource is a project or event that users can join. Capacity 0 means
// unlimited and is preserved verbatim in responses, never normalized.
type Resource struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Type          Type      `json:"type"`
	OwnerID       string    `json:"ownerId"`
	Capacity      int       `json:"capacity"`
	ApprovedCount int       `json:"approvedCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Unlimited reports whether the resource has no member cap.
func (r *Resource) Unlimited() bool {
	return r.Capacity == 0
}

// CanAccept reports whether a resource with the given capacity can take one
// more approved member on top of currentApprovedCount. Pure; callers pass the
// count they observed, which for decisions must be the count at decision time.
func CanAccept(r *Resource, currentApprovedCount int) bool {
	if r.Capacity == 0 {
		return true
	}
	return currentApprovedCount < r.Capacity
}
