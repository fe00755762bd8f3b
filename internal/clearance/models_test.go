package clearance_test

import (
	"errors"
	"testing"

	"nodues/internal/clearance"
)

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name   string
		states []clearance.StageState
		want   clearance.Status
	}{
		{"no stages", nil, clearance.StatusDraft},
		{"all pending", []clearance.StageState{clearance.StagePending, clearance.StagePending}, clearance.StatusInProgress},
		{"partially approved", []clearance.StageState{clearance.StageApproved, clearance.StagePending}, clearance.StatusInProgress},
		{"all approved", []clearance.StageState{clearance.StageApproved, clearance.StageApproved}, clearance.StatusCompleted},
		{"any rejected", []clearance.StageState{clearance.StageApproved, clearance.StageRejected, clearance.StagePending}, clearance.StatusRejected},
		{"rejected wins over complete", []clearance.StageState{clearance.StageRejected, clearance.StageApproved}, clearance.StatusRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stages := make([]clearance.Stage, 0, len(tc.states))
			for i, state := range tc.states {
				stages = append(stages, clearance.Stage{ID: string(rune('a' + i)), Position: i + 1, State: state})
			}
			if got := clearance.DeriveStatus(stages); got != tc.want {
				t.Fatalf("DeriveStatus = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestFirstPendingPicksLowestPosition(t *testing.T) {
	stages := []clearance.Stage{
		{ID: "c", Position: 3, State: clearance.StagePending},
		{ID: "a", Position: 1, State: clearance.StageApproved},
		{ID: "b", Position: 2, State: clearance.StagePending},
	}
	next, ok := clearance.FirstPending(stages)
	if !ok {
		t.Fatal("expected a pending stage")
	}
	if next.ID != "b" {
		t.Fatalf("expected stage b, got %s", next.ID)
	}
}

func TestFirstPendingNoneLeft(t *testing.T) {
	stages := []clearance.Stage{
		{ID: "a", Position: 1, State: clearance.StageApproved},
		{ID: "b", Position: 2, State: clearance.StageRejected},
	}
	if _, ok := clearance.FirstPending(stages); ok {
		t.Fatal("expected no pending stage")
	}
}

func TestValidatePositions(t *testing.T) {
	cases := []struct {
		name      string
		positions []int
		wantErr   bool
	}{
		{"gapless", []int{1, 2, 3}, false},
		{"unordered but gapless", []int{3, 1, 2}, false},
		{"duplicate", []int{1, 2, 2}, true},
		{"gap", []int{1, 3, 4}, true},
		{"zero based", []int{0, 1, 2}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stages := make([]clearance.Stage, 0, len(tc.positions))
			for i, pos := range tc.positions {
				stages = append(stages, clearance.Stage{ID: string(rune('a' + i)), Department: string(rune('a' + i)), Position: pos})
			}
			err := clearance.ValidatePositions(stages)
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr && !errors.Is(err, clearance.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestDecisionValidate(t *testing.T) {
	cases := []struct {
		name     string
		decision clearance.Decision
		wantErr  error
	}{
		{"approve without comment", clearance.Decision{Outcome: clearance.OutcomeApprove, Actor: "u-1"}, nil},
		{"reject with comment", clearance.Decision{Outcome: clearance.OutcomeReject, Actor: "u-1", Comment: "dues pending"}, nil},
		{"reject without comment", clearance.Decision{Outcome: clearance.OutcomeReject, Actor: "u-1"}, clearance.ErrInvalidState},
		{"missing actor", clearance.Decision{Outcome: clearance.OutcomeApprove}, clearance.ErrUnauthorized},
		{"unknown outcome", clearance.Decision{Outcome: "defer", Actor: "u-1"}, clearance.ErrInvalidState},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.decision.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestOutcomeState(t *testing.T) {
	if clearance.OutcomeApprove.State() != clearance.StageApproved {
		t.Fatal("approve should resolve to approved")
	}
	if clearance.OutcomeReject.State() != clearance.StageRejected {
		t.Fatal("reject should resolve to rejected")
	}
}
