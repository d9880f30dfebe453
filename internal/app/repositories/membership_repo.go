package repositories

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/campuslink/campuslink-api/internal/domain/membership"
)

var (
	ErrRequestNotFound  = errors.New("membership request not found")
	ErrDuplicateRequest = errors.New("membership request already exists")
	// ErrStatusConflict is returned by conditional transitions when the row is
	// no longer in the expected prior status.
	ErrStatusConflict = errors.New("membership request status conflict")
)

// MembershipRepository persists membership requests. Implementations must
// guarantee at most one non-withdrawn record per (resourceID, userID) pair and
// serialize status transitions through the conditional UpdateStatus.
type MembershipRepository interface {
	Create(ctx context.Context, req *membership.Request) error
	GetByID(ctx context.Context, id string) (*membership.Request, error)
	// FindCurrent returns the single non-withdrawn record for the pair, or
	// ErrRequestNotFound when none exists.
	FindCurrent(ctx context.Context, resourceID, userID string) (*membership.Request, error)
	// UpdateStatus transitions the record from `from` to `to`, stamping
	// decidedAt. It commits only if the row is still in `from`; otherwise it
	// returns ErrStatusConflict and leaves the row untouched.
	UpdateStatus(ctx context.Context, id string, from, to membership.Status, decidedAt time.Time) (*membership.Request, error)
	// ListByResource returns records in the given status. Pending requests
	// come most-recent-first; approved members oldest-first (join order).
	ListByResource(ctx context.Context, resourceID string, status membership.Status) ([]*membership.Request, error)
}

type inMemoryMembershipRepo struct {
	mu      sync.RWMutex
	byID    map[string]*membership.Request
	current map[string]string // resourceID|userID -> id of the non-withdrawn record
}

// NewInMemoryMembershipRepo returns an in-memory membership repository.
func NewInMemoryMembershipRepo() MembershipRepository {
	return &inMemoryMembershipRepo{
		byID:    make(map[string]*membership.Request),
		current: make(map[string]string),
	}
}

func pairKey(resourceID, userID string) string {
	return resourceID + "|" + userID
}

func (r *inMemoryMembershipRepo) Create(ctx context.Context, req *membership.Request) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey(req.ResourceID, req.UserID)
	if _, exists := r.current[key]; exists {
		return ErrDuplicateRequest
	}
	stored := *req
	r.byID[stored.ID] = &stored
	r.current[key] = stored.ID
	return nil
}

func (r *inMemoryMembershipRepo) GetByID(ctx context.Context, id string) (*membership.Request, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.byID[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	out := *req
	return &out, nil
}

func (r *inMemoryMembershipRepo) FindCurrent(ctx context.Context, resourceID, userID string) (*membership.Request, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.current[pairKey(resourceID, userID)]
	if !ok {
		return nil, ErrRequestNotFound
	}
	out := *r.byID[id]
	return &out, nil
}

func (r *inMemoryMembershipRepo) UpdateStatus(ctx context.Context, id string, from, to membership.Status, decidedAt time.Time) (*membership.Request, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byID[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	if req.Status != from {
		return nil, ErrStatusConflict
	}
	req.Status = to
	stamp := decidedAt.UTC()
	req.DecidedAt = &stamp
	if to == membership.StatusWithdrawn {
		delete(r.current, pairKey(req.ResourceID, req.UserID))
	}
	out := *req
	return &out, nil
}

func (r *inMemoryMembershipRepo) ListByResource(ctx context.Context, resourceID string, status membership.Status) ([]*membership.Request, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*membership.Request
	for _, req := range r.byID {
		if req.ResourceID != resourceID || req.Status != status {
			continue
		}
		cp := *req
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if status == membership.StatusPending {
			// Most recent first so owners review the newest pitches on top.
			if !out[i].RequestedAt.Equal(out[j].RequestedAt) {
				return out[j].RequestedAt.Before(out[i].RequestedAt)
			}
		} else {
			if !out[i].RequestedAt.Equal(out[j].RequestedAt) {
				return out[i].RequestedAt.Before(out[j].RequestedAt)
			}
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
