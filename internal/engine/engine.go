// Package engine applies a single approval or rejection to a clearance
// stage. Decide is a pure state-transition function over a fetched snapshot:
// it performs no storage or network side effects, which keeps the ordering
// and authorization rules testable in isolation. Persistence, audit, and
// side-effect dispatch belong to the workflow coordinator.
package engine

import (
	"fmt"
	"time"

	"nodues/internal/clearance"
	"nodues/internal/identity"
)

// Roles exposes the registry lookup the engine needs.
type Roles interface {
	AuthorizedRole(department string) (string, error)
}

// Result describes the effect of one decision.
type Result struct {
	// Stage is the updated stage snapshot. The caller persists it.
	Stage clearance.Stage
	// PreviousState is the stage state before the decision.
	PreviousState clearance.StageState
	// ActorRole is the resolved role of the deciding actor, recorded in audit.
	ActorRole string
	// NewStatus is the application status derived from the stages after the
	// decision.
	NewStatus clearance.Status
	// StatusChanged reports whether the decision changed the derived overall
	// status: true for any rejection and for the final approval.
	StatusChanged bool
}

// Engine validates and applies decisions against stage snapshots.
type Engine struct {
	roles    Roles
	resolver identity.Resolver
}

// New constructs an engine over the given registry and identity resolver.
func New(roles Roles, resolver identity.Resolver) *Engine {
	return &Engine{roles: roles, resolver: resolver}
}

// Decide validates the decision against the snapshot and returns the updated
// stage plus the derived application status. Preconditions are checked in
// order, first failure wins:
//
//  1. The application is in progress, else ErrInvalidState.
//  2. The department's stage exists and is the first pending stage in
//     sequence order, else ErrNotFound / ErrOutOfOrder.
//  3. The actor holds the department's registered role for this department,
//     else ErrUnauthorized.
func (e *Engine) Decide(app *clearance.Application, stages []clearance.Stage, department string, decision clearance.Decision, now time.Time) (Result, error) {
	if err := decision.Validate(); err != nil {
		return Result{}, err
	}
	if app == nil {
		return Result{}, fmt.Errorf("%w: application", clearance.ErrNotFound)
	}
	if app.Status != clearance.StatusInProgress {
		return Result{}, fmt.Errorf("%w: application %s is %s", clearance.ErrInvalidState, app.ID, app.Status)
	}
	if err := clearance.ValidatePositions(stages); err != nil {
		return Result{}, err
	}

	target, ok := stageFor(stages, department)
	if !ok {
		return Result{}, fmt.Errorf("%w: application %s has no %s stage", clearance.ErrNotFound, app.ID, department)
	}
	next, ok := clearance.FirstPending(stages)
	if !ok {
		// An in-progress application always has a pending stage; a snapshot
		// without one is corrupt.
		return Result{}, fmt.Errorf("%w: application %s has no pending stage", clearance.ErrInvalidState, app.ID)
	}
	if target.ID != next.ID {
		return Result{}, fmt.Errorf("%w: %s is not next in sequence (waiting on %s)",
			clearance.ErrOutOfOrder, department, next.Department)
	}

	requiredRole, err := e.roles.AuthorizedRole(department)
	if err != nil {
		return Result{}, err
	}
	actor, err := e.resolver.Resolve(decision.Actor)
	if err != nil {
		return Result{}, err
	}
	if actor.Role != requiredRole || actor.Department != target.Department {
		return Result{}, fmt.Errorf("%w: actor %s may not decide the %s stage",
			clearance.ErrUnauthorized, decision.Actor, department)
	}

	decidedAt := now.UTC()
	updated := target
	updated.State = decision.Outcome.State()
	updated.ApproverID = actor.ID
	updated.DecidedAt = &decidedAt
	updated.Comment = decision.Comment

	newStatus := deriveWith(stages, updated)
	return Result{
		Stage:         updated,
		PreviousState: target.State,
		ActorRole:     actor.Role,
		NewStatus:     newStatus,
		StatusChanged: newStatus != app.Status,
	}, nil
}

func stageFor(stages []clearance.Stage, department string) (clearance.Stage, bool) {
	for _, stage := range stages {
		if stage.Department == department {
			return stage, true
		}
	}
	return clearance.Stage{}, false
}

func deriveWith(stages []clearance.Stage, updated clearance.Stage) clearance.Status {
	merged := make([]clearance.Stage, 0, len(stages))
	for _, stage := range stages {
		if stage.ID == updated.ID {
			merged = append(merged, updated)
			continue
		}
		merged = append(merged, stage)
	}
	return clearance.DeriveStatus(merged)
}
