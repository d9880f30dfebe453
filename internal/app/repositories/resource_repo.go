package repositories

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/campuslink/campuslink-api/internal/domain/resource"
)

var (
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	// ErrCapacityExceeded is returned by ReserveSeat when the resource is full.
	ErrCapacityExceeded = errors.New("resource capacity exceeded")
)

// ResourceRepository persists joinable resources and owns the approved-member
// seat count. ReserveSeat and ReleaseSeat must be atomic so the capacity
// invariant holds under concurrent approvals.
type ResourceRepository interface {
	Create(ctx context.Context, res *resource.Resource) error
	GetByID(ctx context.Context, id string) (*resource.Resource, error)
	List(ctx context.Context) ([]*resource.Resource, error)
	// ReserveSeat increments the approved count only while it stays within
	// capacity (capacity 0 is unlimited). ErrCapacityExceeded when full.
	ReserveSeat(ctx context.Context, id string) error
	// ReleaseSeat decrements the approved count, never below zero.
	ReleaseSeat(ctx context.Context, id string) error
}

type inMemoryResourceRepo struct {
	mu        sync.RWMutex
	resources map[string]*resource.Resource
}

// NewInMemoryResourceRepo returns an in-memory resource repository.
func NewInMemoryResourceRepo() ResourceRepository {
	return &inMemoryResourceRepo{resources: make(map[string]*resource.Resource)}
}

func (r *inMemoryResourceRepo) Create(ctx context.Context, res *resource.Resource) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.resources[res.ID]; exists {
		return ErrResourceAlreadyExists
	}
	stored := *res
	r.resources[stored.ID] = &stored
	return nil
}

func (r *inMemoryResourceRepo) GetByID(ctx context.Context, id string) (*resource.Resource, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.resources[id]
	if !ok {
		return nil, ErrResourceNotFound
	}
	out := *res
	return &out, nil
}

func (r *inMemoryResourceRepo) List(ctx context.Context) ([]*resource.Resource, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*resource.Resource, 0, len(r.resources))
	for _, res := range r.resources {
		cp := *res
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *inMemoryResourceRepo) ReserveSeat(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.resources[id]
	if !ok {
		return ErrResourceNotFound
	}
	if !resource.CanAccept(res, res.ApprovedCount) {
		return ErrCapacityExceeded
	}
	res.ApprovedCount++
	return nil
}

func (r *inMemoryResourceRepo) ReleaseSeat(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.resources[id]
	if !ok {
		return ErrResourceNotFound
	}
	if res.ApprovedCount > 0 {
		res.ApprovedCount--
	}
	return nil
}
