package clearance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"nodues/internal/clearance"
	"nodues/internal/testsupport"
)

func TestCreateApplicationSeedsAllStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	reg := testsupport.MustRegistry(t, cfg)

	ctx := context.Background()
	app := testsupport.NewApplication(t, store, reg, "student-1")
	if app.ID == "" {
		t.Fatal("expected application id to be assigned")
	}
	if app.Status != clearance.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", app.Status)
	}

	stages, err := store.GetStages(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetStages: %v", err)
	}
	if len(stages) != 3 {
		t.Fatalf("expected 3 stages, got %d", len(stages))
	}
	for i, stage := range stages {
		if stage.Position != i+1 {
			t.Fatalf("stage %d has position %d", i, stage.Position)
		}
		if stage.State != clearance.StagePending {
			t.Fatalf("stage %s not pending: %s", stage.Department, stage.State)
		}
	}
	if err := clearance.ValidatePositions(stages); err != nil {
		t.Fatalf("positions invalid: %v", err)
	}
}

func TestCreateApplicationRequiresStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.CreateApplication(context.Background(), "student-1", nil); err == nil {
		t.Fatal("expected error for empty stage seeds")
	}
}

func TestGetApplicationNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	_, err := store.GetApplication(context.Background(), "missing")
	if !errors.Is(err, clearance.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFindByStudentReturnsLatest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	reg := testsupport.MustRegistry(t, cfg)

	ctx := context.Background()
	if app, err := store.FindByStudent(ctx, "student-1"); err != nil || app != nil {
		t.Fatalf("expected no application, got %v (%v)", app, err)
	}

	created := testsupport.NewApplication(t, store, reg, "student-1")
	found, err := store.FindByStudent(ctx, "student-1")
	if err != nil {
		t.Fatalf("FindByStudent: %v", err)
	}
	if found == nil || found.ID != created.ID {
		t.Fatalf("expected application %s, got %#v", created.ID, found)
	}
}

func TestCreateApplicationRefusesSecondActive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	reg := testsupport.MustRegistry(t, cfg)

	if store.Path() != cfg.DatabasePath() {
		t.Fatalf("store path %s does not match config %s", store.Path(), cfg.DatabasePath())
	}

	ctx := context.Background()
	first := testsupport.NewApplication(t, store, reg, "student-1")

	seeds, err := reg.StagesFor()
	if err != nil {
		t.Fatalf("registry.StagesFor: %v", err)
	}
	if _, err := store.CreateApplication(ctx, "student-1", seeds); !errors.Is(err, clearance.ErrInvalidState) {
		t.Fatalf("expected invalid state for second active application, got %v", err)
	}

	stages, err := store.GetStages(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetStages: %v", err)
	}
	decideStage(t, store, stages[0], clearance.StageRejected, clearance.StatusRejected)

	// The index only covers in_progress rows, so a rejected application
	// no longer blocks a fresh one.
	if _, err := store.CreateApplication(ctx, "student-1", seeds); err != nil {
		t.Fatalf("CreateApplication after rejection: %v", err)
	}
}

func decideStage(t *testing.T, store *clearance.Store, stage clearance.Stage, state clearance.StageState, newStatus clearance.Status) {
	t.Helper()
	now := time.Now().UTC()
	stage.State = state
	stage.ApproverID = "approver-1"
	stage.DecidedAt = &now
	err := store.ApplyDecision(context.Background(), clearance.DecisionRecord{
		Stage:     stage,
		NewStatus: newStatus,
		Audit: clearance.AuditEntry{
			ApplicationID: stage.ApplicationID,
			StageID:       stage.ID,
			Actor:         "approver-1",
			Action:        clearance.ActionStageApproved,
			FromState:     string(clearance.StagePending),
			ToState:       string(state),
		},
	})
	if err != nil {
		t.Fatalf("ApplyDecision: %v", err)
	}
}

func TestApplyDecisionPersistsStageStatusAndAudit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	reg := testsupport.MustRegistry(t, cfg)

	ctx := context.Background()
	app := testsupport.NewApplication(t, store, reg, "student-1")
	stages, err := store.GetStages(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetStages: %v", err)
	}

	decideStage(t, store, stages[0], clearance.StageApproved, clearance.StatusInProgress)

	updated, err := store.GetStages(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetStages: %v", err)
	}
	if updated[0].State != clearance.StageApproved {
		t.Fatalf("stage not approved: %s", updated[0].State)
	}
	if updated[0].ApproverID != "approver-1" || updated[0].DecidedAt == nil {
		t.Fatalf("decision metadata missing: %#v", updated[0])
	}

	entries, err := store.AuditHistory(ctx, app.ID)
	if err != nil {
		t.Fatalf("AuditHistory: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	if entries[0].FromState != string(clearance.StagePending) || entries[0].ToState != string(clearance.StageApproved) {
		t.Fatalf("audit states wrong: %#v", entries[0])
	}
}

func TestApplyDecisionRefusesDecidedStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	reg := testsupport.MustRegistry(t, cfg)

	ctx := context.Background()
	app := testsupport.NewApplication(t, store, reg, "student-1")
	stages, err := store.GetStages(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetStages: %v", err)
	}

	decideStage(t, store, stages[0], clearance.StageApproved, clearance.StatusInProgress)

	now := time.Now().UTC()
	repeat := stages[0]
	repeat.State = clearance.StageRejected
	repeat.DecidedAt = &now
	err = store.ApplyDecision(ctx, clearance.DecisionRecord{
		Stage:     repeat,
		NewStatus: clearance.StatusRejected,
		Audit:     clearance.AuditEntry{ApplicationID: app.ID, StageID: repeat.ID, Actor: "x", Action: clearance.ActionStageRejected},
	})
	if !errors.Is(err, clearance.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestApplyDecisionCompletedSetsCompletionTimestamp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	reg := testsupport.MustRegistry(t, cfg)

	ctx := context.Background()
	app := testsupport.NewApplication(t, store, reg, "student-1")
	stages, err := store.GetStages(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetStages: %v", err)
	}

	for i, stage := range stages {
		status := clearance.StatusInProgress
		if i == len(stages)-1 {
			status = clearance.StatusCompleted
		}
		decideStage(t, store, stage, clearance.StageApproved, status)
	}

	final, err := store.GetApplication(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetApplication: %v", err)
	}
	if final.Status != clearance.StatusCompleted {
		t.Fatalf("expected completed, got %s", final.Status)
	}
	if final.CompletedAt == nil {
		t.Fatal("expected completion timestamp")
	}
}

func TestResubmitResetsRejectedApplication(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	reg := testsupport.MustRegistry(t, cfg)

	ctx := context.Background()
	app := testsupport.NewApplication(t, store, reg, "student-1")
	stages, err := store.GetStages(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetStages: %v", err)
	}

	rejected := stages[0]
	rejected.Comment = "library dues pending"
	decideStage(t, store, rejected, clearance.StageRejected, clearance.StatusRejected)

	err = store.Resubmit(ctx, app.ID, clearance.AuditEntry{
		ApplicationID: app.ID,
		Actor:         "student-1",
		Action:        clearance.ActionApplicationResubmitted,
	})
	if err != nil {
		t.Fatalf("Resubmit: %v", err)
	}

	refreshed, err := store.GetApplication(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetApplication: %v", err)
	}
	if refreshed.Status != clearance.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", refreshed.Status)
	}
	reset, err := store.GetStages(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetStages: %v", err)
	}
	for _, stage := range reset {
		if stage.State != clearance.StagePending || stage.ApproverID != "" || stage.DecidedAt != nil || stage.Comment != "" {
			t.Fatalf("stage not reset: %#v", stage)
		}
	}
}

func TestResubmitRequiresRejectedStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	reg := testsupport.MustRegistry(t, cfg)

	ctx := context.Background()
	app := testsupport.NewApplication(t, store, reg, "student-1")

	err := store.Resubmit(ctx, app.ID, clearance.AuditEntry{ApplicationID: app.ID, Actor: "student-1", Action: clearance.ActionApplicationResubmitted})
	if !errors.Is(err, clearance.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestAuditHistoryOrdersByTimestampThenInsertion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	entries := []clearance.AuditEntry{
		{ApplicationID: "app-1", Actor: "a", Action: "first", CreatedAt: ts},
		{ApplicationID: "app-1", Actor: "b", Action: "second", CreatedAt: ts},
		{ApplicationID: "app-1", Actor: "c", Action: "earlier", CreatedAt: ts.Add(-time.Hour)},
	}
	for _, entry := range entries {
		if err := store.AppendAudit(ctx, entry); err != nil {
			t.Fatalf("AppendAudit: %v", err)
		}
	}

	history, err := store.AuditHistory(ctx, "app-1")
	if err != nil {
		t.Fatalf("AuditHistory: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(history))
	}
	got := []string{history[0].Action, history[1].Action, history[2].Action}
	want := []string{"earlier", "first", "second"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order %v, want %v", got, want)
		}
	}
}

func TestRecordCertificateIsIdempotentPerApplication(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	reg := testsupport.MustRegistry(t, cfg)

	ctx := context.Background()
	app := testsupport.NewApplication(t, store, reg, "student-1")

	first := clearance.Certificate{ID: "cert-1", ApplicationID: app.ID, Number: "ND-2026-AAAA1111", Location: "/tmp/a.html", GeneratedAt: time.Now()}
	inserted, err := store.RecordCertificate(ctx, first)
	if err != nil || !inserted {
		t.Fatalf("first insert: inserted=%v err=%v", inserted, err)
	}

	second := clearance.Certificate{ID: "cert-2", ApplicationID: app.ID, Number: "ND-2026-BBBB2222", Location: "/tmp/b.html", GeneratedAt: time.Now()}
	inserted, err = store.RecordCertificate(ctx, second)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if inserted {
		t.Fatal("expected duplicate insert to be dropped")
	}

	cert, err := store.GetCertificate(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetCertificate: %v", err)
	}
	if cert.ID != "cert-1" {
		t.Fatalf("expected first certificate to win, got %s", cert.ID)
	}
}

func TestMissingCertificatesListsCompletedWithoutRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	reg := testsupport.MustRegistry(t, cfg)

	ctx := context.Background()
	app := testsupport.NewApplication(t, store, reg, "student-1")
	stages, err := store.GetStages(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetStages: %v", err)
	}
	for i, stage := range stages {
		status := clearance.StatusInProgress
		if i == len(stages)-1 {
			status = clearance.StatusCompleted
		}
		decideStage(t, store, stage, clearance.StageApproved, status)
	}

	missing, err := store.MissingCertificates(ctx)
	if err != nil {
		t.Fatalf("MissingCertificates: %v", err)
	}
	if len(missing) != 1 || missing[0].ID != app.ID {
		t.Fatalf("expected app %s missing, got %#v", app.ID, missing)
	}

	if _, err := store.RecordCertificate(ctx, clearance.Certificate{ID: "cert-1", ApplicationID: app.ID, Number: "ND-2026-CCCC3333", Location: "/tmp/c.html", GeneratedAt: time.Now()}); err != nil {
		t.Fatalf("RecordCertificate: %v", err)
	}
	missing, err = store.MissingCertificates(ctx)
	if err != nil {
		t.Fatalf("MissingCertificates: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("expected no missing certificates, got %d", len(missing))
	}
}

func TestClaimNotificationDeduplicatesWithinWindow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	claimed, err := store.ClaimNotification(ctx, "app-1", "application_completed", "", time.Minute)
	if err != nil || !claimed {
		t.Fatalf("first claim: claimed=%v err=%v", claimed, err)
	}

	claimed, err = store.ClaimNotification(ctx, "app-1", "application_completed", "", time.Minute)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if claimed {
		t.Fatal("expected duplicate claim within window to be suppressed")
	}

	// A different ref is a distinct notification.
	claimed, err = store.ClaimNotification(ctx, "app-1", "decision_recorded", "stage-1", time.Minute)
	if err != nil || !claimed {
		t.Fatalf("distinct claim: claimed=%v err=%v", claimed, err)
	}
}
