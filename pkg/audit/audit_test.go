package audit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestDisabledTrailIsNilSafe(t *testing.T) {
	trail, err := Open("", zerolog.Nop())
	if err != nil {
		t.Fatalf("open with empty path: %v", err)
	}
	if trail.Enabled() {
		t.Fatalf("empty path must disable the trail")
	}
	if err := trail.Record(context.Background(), Event{RequestID: "r"}); err != nil {
		t.Fatalf("record on disabled trail must be a no-op, got %v", err)
	}
	events, err := trail.Recent(context.Background(), 10)
	if err != nil || events != nil {
		t.Fatalf("recent on disabled trail: %v %v", events, err)
	}
}

func TestRecordAndRecent(t *testing.T) {
	trail, err := Open(filepath.Join(t.TempDir(), "audit.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer trail.Close()
	ctx := context.Background()

	for _, e := range []Event{
		{RequestID: "r1", ResourceID: "proj", UserID: "alice", ActorID: "alice", Action: ActionRequested},
		{RequestID: "r1", ResourceID: "proj", UserID: "alice", ActorID: "owner", Action: ActionApproved},
		{RequestID: "r1", ResourceID: "proj", UserID: "alice", ActorID: "alice", Action: ActionWithdrawn},
	} {
		if err := trail.Record(ctx, e); err != nil {
			t.Fatalf("record %s: %v", e.Action, err)
		}
	}

	events, err := trail.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected limit respected, got %d events", len(events))
	}
	for _, e := range events {
		if e.ID == "" {
			t.Fatalf("expected generated event id")
		}
		if e.RecordedAt.IsZero() {
			t.Fatalf("expected recorded timestamp")
		}
	}
}
