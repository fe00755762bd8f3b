package audit_test

import (
	"context"
	"testing"
	"time"

	"nodues/internal/audit"
	"nodues/internal/clearance"
)

func TestMemoryRecorderHistoryOrdersByTimestampThenInsertion(t *testing.T) {
	recorder := audit.NewMemoryRecorder()
	ctx := context.Background()

	base := time.Date(2026, time.April, 2, 10, 0, 0, 0, time.UTC)
	entries := []clearance.AuditEntry{
		{ApplicationID: "app-1", Action: "stage_approved", CreatedAt: base.Add(2 * time.Second)},
		{ApplicationID: "app-1", Action: "application_submitted", CreatedAt: base},
		{ApplicationID: "app-2", Action: "application_submitted", CreatedAt: base},
		{ApplicationID: "app-1", Action: "stage_rejected", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, entry := range entries {
		if err := recorder.Record(ctx, entry); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	history, err := recorder.History(ctx, "app-1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	want := []string{"application_submitted", "stage_approved", "stage_rejected"}
	if len(history) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(history))
	}
	for i, action := range want {
		if history[i].Action != action {
			t.Fatalf("entry %d: expected %s, got %s", i, action, history[i].Action)
		}
	}
	// The two entries sharing a timestamp keep their recording order.
	if history[1].ID >= history[2].ID {
		t.Fatalf("tie not broken by insertion order: %d then %d", history[1].ID, history[2].ID)
	}
}

func TestMemoryRecorderAssignsIDsAndTimestamps(t *testing.T) {
	recorder := audit.NewMemoryRecorder()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := recorder.Record(ctx, clearance.AuditEntry{ApplicationID: "app-1", Action: "stage_approved"}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	history, err := recorder.History(ctx, "app-1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	for i, entry := range history {
		if entry.ID != int64(i+1) {
			t.Fatalf("entry %d has id %d", i, entry.ID)
		}
		if entry.CreatedAt.IsZero() {
			t.Fatalf("entry %d missing timestamp", i)
		}
	}
}
