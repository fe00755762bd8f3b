package clearance

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Status represents the derived lifecycle of an application.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusInProgress Status = "in_progress"
	StatusRejected   Status = "rejected"
	StatusCompleted  Status = "completed"
)

var allStatuses = []Status{
	StatusDraft,
	StatusInProgress,
	StatusRejected,
	StatusCompleted,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Valid reports whether the status is a known value.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// Terminal reports whether no further decisions are accepted.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCompleted
}

// StageState represents one department's decision point.
type StageState string

const (
	StagePending  StageState = "pending"
	StageApproved StageState = "approved"
	StageRejected StageState = "rejected"
)

// Valid reports whether the stage state is a known value.
func (s StageState) Valid() bool {
	switch s {
	case StagePending, StageApproved, StageRejected:
		return true
	}
	return false
}

// Outcome is the approver's requested action on a stage.
type Outcome string

const (
	OutcomeApprove Outcome = "approve"
	OutcomeReject  Outcome = "reject"
)

// State returns the stage state the outcome resolves to.
func (o Outcome) State() StageState {
	if o == OutcomeReject {
		return StageRejected
	}
	return StageApproved
}

// Valid reports whether the outcome is a known value.
func (o Outcome) Valid() bool {
	return o == OutcomeApprove || o == OutcomeReject
}

// Application is one student's clearance request.
type Application struct {
	ID          string
	StudentID   string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// Stage is one department's decision point within an application.
type Stage struct {
	ID            string
	ApplicationID string
	Department    string
	Position      int
	State         StageState
	ApproverID    string
	DecidedAt     *time.Time
	Comment       string
}

// Decision is one approver's action against a stage. It is consumed by the
// transition engine and never persisted as its own row.
type Decision struct {
	Outcome Outcome
	Actor   string
	Comment string
}

// Validate checks the decision payload before it reaches the engine. A
// rejection must carry remarks so the student knows what to fix.
func (d Decision) Validate() error {
	if !d.Outcome.Valid() {
		return fmt.Errorf("%w: unknown outcome %q", ErrInvalidState, d.Outcome)
	}
	if strings.TrimSpace(d.Actor) == "" {
		return fmt.Errorf("%w: decision requires an actor", ErrUnauthorized)
	}
	if d.Outcome == OutcomeReject && strings.TrimSpace(d.Comment) == "" {
		return fmt.Errorf("%w: rejection requires a comment", ErrInvalidState)
	}
	return nil
}

// AuditEntry is one immutable row in the append-only audit log.
type AuditEntry struct {
	ID            int64
	ApplicationID string
	StageID       string
	Actor         string
	ActorRole     string
	Action        string
	FromState     string
	ToState       string
	CreatedAt     time.Time
}

// Certificate references the artifact produced when an application completes.
type Certificate struct {
	ID            string
	ApplicationID string
	Number        string
	Location      string
	GeneratedAt   time.Time
}

// DeriveStatus computes the overall application status from its stages. The
// application status is never set independently of this function.
func DeriveStatus(stages []Stage) Status {
	if len(stages) == 0 {
		return StatusDraft
	}
	approved := 0
	for _, stage := range stages {
		switch stage.State {
		case StageRejected:
			return StatusRejected
		case StageApproved:
			approved++
		}
	}
	if approved == len(stages) {
		return StatusCompleted
	}
	return StatusInProgress
}

// FirstPending returns the lowest-position Pending stage, which is the only
// stage eligible for a decision.
func FirstPending(stages []Stage) (Stage, bool) {
	best := Stage{}
	found := false
	for _, stage := range stages {
		if stage.State != StagePending {
			continue
		}
		if !found || stage.Position < best.Position {
			best = stage
			found = true
		}
	}
	return best, found
}

// SortStages orders stages by sequence position in place.
func SortStages(stages []Stage) {
	sort.Slice(stages, func(i, j int) bool {
		return stages[i].Position < stages[j].Position
	})
}

// ValidatePositions verifies stages form a total order 1..N with no gaps or
// duplicates.
func ValidatePositions(stages []Stage) error {
	seen := make(map[int]string, len(stages))
	for _, stage := range stages {
		if prior, dup := seen[stage.Position]; dup {
			return fmt.Errorf("%w: departments %s and %s share position %d",
				ErrConfiguration, prior, stage.Department, stage.Position)
		}
		seen[stage.Position] = stage.Department
	}
	for pos := 1; pos <= len(stages); pos++ {
		if _, ok := seen[pos]; !ok {
			return fmt.Errorf("%w: missing stage position %d", ErrConfiguration, pos)
		}
	}
	return nil
}
