package services

import (
	"context"
	"errors"
	"testing"

	"github.com/campuslink/campuslink-api/internal/app/repositories"
	"github.com/campuslink/campuslink-api/internal/domain/resource"
	"github.com/campuslink/campuslink-api/pkg/logger"
)

func TestCreateResource(t *testing.T) {
	svc := NewResourceService(repositories.NewInMemoryResourceRepo(), logger.InitForTests().App)
	ctx := context.Background()

	res, err := svc.Create(ctx, resource.CreateInput{
		Name:     "Robotics Club Site",
		Type:     "project",
		OwnerID:  "owner",
		Capacity: 4,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.ID == "" {
		t.Fatalf("expected generated id")
	}
	if res.Type != resource.TypeProject {
		t.Fatalf("type mismatch: %s", res.Type)
	}
	if res.ApprovedCount != 0 {
		t.Fatalf("new resource must start empty")
	}

	got, err := svc.Get(ctx, res.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.OwnerID != "owner" {
		t.Fatalf("owner mismatch: %s", got.OwnerID)
	}
}

func TestCreateResourceValidation(t *testing.T) {
	svc := NewResourceService(repositories.NewInMemoryResourceRepo(), logger.InitForTests().App)
	ctx := context.Background()

	cases := []resource.CreateInput{
		{Type: "project", OwnerID: "owner"},                         // missing name
		{Name: "x", Type: "seminar", OwnerID: "owner"},              // unknown type
		{Name: "x", Type: "event", OwnerID: ""},                     // missing owner
		{Name: "x", Type: "event", OwnerID: "owner", Capacity: -1},  // negative capacity
	}
	for i, in := range cases {
		if _, err := svc.Create(ctx, in); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestGetResourceNotFound(t *testing.T) {
	svc := NewResourceService(repositories.NewInMemoryResourceRepo(), logger.InitForTests().App)
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
