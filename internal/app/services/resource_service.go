package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campuslink/campuslink-api/internal/app/repositories"
	"github.com/campuslink/campuslink-api/internal/domain/resource"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ResourceService manages the projects and events users can join.
type ResourceService interface {
	Create(ctx context.Context, in resource.CreateInput) (*resource.Resource, error)
	Get(ctx context.Context, id string) (*resource.Resource, error)
	List(ctx context.Context) ([]*resource.Resource, error)
}

type resourceService struct {
	resources repositories.ResourceRepository
	log       zerolog.Logger
}

// NewResourceService assembles the resource service.
func NewResourceService(resources repositories.ResourceRepository, log zerolog.Logger) ResourceService {
	return &resourceService{resources: resources, log: log}
}

func (s *resourceService) Create(ctx context.Context, in resource.CreateInput) (*resource.Resource, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(in.OwnerID) == "" {
		return nil, fmt.Errorf("%w: ownerId is required", ErrValidation)
	}
	typ := resource.Type(strings.ToLower(strings.TrimSpace(in.Type)))
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: type must be %q or %q", ErrValidation, resource.TypeProject, resource.TypeEvent)
	}
	if in.Capacity < 0 {
		return nil, fmt.Errorf("%w: capacity must be >= 0", ErrValidation)
	}

	now := time.Now().UTC()
	res := &resource.Resource{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Type:        typ,
		OwnerID:     strings.TrimSpace(in.OwnerID),
		Capacity:    in.Capacity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.resources.Create(ctx, res); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("resource_id", res.ID).
		Str("type", string(res.Type)).
		Str("owner_id", res.OwnerID).
		Int("capacity", res.Capacity).
		Msg("resource created")
	return res, nil
}

func (s *resourceService) Get(ctx context.Context, id string) (*resource.Resource, error) {
	res, err := s.resources.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrResourceNotFound) {
		return nil, fmt.Errorf("%w: resource %s", ErrNotFound, id)
	}
	return res, err
}

func (s *resourceService) List(ctx context.Context) ([]*resource.Resource, error) {
	return s.resources.List(ctx)
}
