package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"nodues/internal/audit"
	"nodues/internal/certificates"
	"nodues/internal/clearance"
	"nodues/internal/config"
	"nodues/internal/engine"
	"nodues/internal/logging"
	"nodues/internal/notifications"
	"nodues/internal/registry"
)

// Coordinator drives the clearance workflow: submission, decisions, and the
// side effects that follow state transitions.
type Coordinator struct {
	cfg          *config.Config
	store        *clearance.Store
	registry     *registry.Registry
	engine       *engine.Engine
	recorder     audit.Recorder
	certificates *certificates.Service
	notifier     notifications.Service
	logger       *slog.Logger

	locks        *appLocks
	studentLocks *appLocks
	wg           sync.WaitGroup

	dedupWindow  time.Duration
	syncDispatch bool
}

// Option configures optional Coordinator behavior.
type Option func(*Coordinator)

// WithSynchronousSideEffects makes side-effect dispatch run inline instead
// of in a background goroutine. Tests use this to assert on effects without
// waiting.
func WithSynchronousSideEffects() Option {
	return func(c *Coordinator) {
		c.syncDispatch = true
	}
}

// NewCoordinator constructs the workflow coordinator.
func NewCoordinator(
	cfg *config.Config,
	store *clearance.Store,
	reg *registry.Registry,
	eng *engine.Engine,
	recorder audit.Recorder,
	certs *certificates.Service,
	notifier notifications.Service,
	logger *slog.Logger,
	opts ...Option,
) *Coordinator {
	c := &Coordinator{
		cfg:          cfg,
		store:        store,
		registry:     reg,
		engine:       eng,
		recorder:     recorder,
		certificates: certs,
		notifier:     notifier,
		logger:       logging.NewComponentLogger(logger, "workflow"),
		locks:        newAppLocks(),
		studentLocks: newAppLocks(),
		dedupWindow:  time.Duration(cfg.Notifications.DedupWindowSeconds) * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wait blocks until all in-flight side-effect dispatches finish.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Submit creates a clearance application for the student, seeding one
// pending stage per registered department. A rejected application is
// resubmitted instead: its stages reset and the approval chain starts over.
// An active or completed application blocks a new submission. Submissions
// for the same student are serialized so concurrent submits cannot slip past
// the single-active check; the store's unique index backs the rule across
// processes.
func (c *Coordinator) Submit(ctx context.Context, studentID string) (*clearance.Application, error) {
	release := c.studentLocks.acquire(studentID)
	defer release()

	existing, err := c.store.FindByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		switch existing.Status {
		case clearance.StatusInProgress:
			return nil, fmt.Errorf("%w: student %s already has an active application", clearance.ErrInvalidState, studentID)
		case clearance.StatusCompleted:
			return nil, fmt.Errorf("%w: student %s already completed clearance", clearance.ErrInvalidState, studentID)
		case clearance.StatusRejected:
			return c.resubmit(ctx, existing, studentID)
		}
	}

	seeds, err := c.registry.StagesFor()
	if err != nil {
		return nil, err
	}
	app, err := c.store.CreateApplication(ctx, studentID, seeds)
	if err != nil {
		return nil, err
	}
	if err := c.recorder.Record(ctx, clearance.AuditEntry{
		ApplicationID: app.ID,
		Actor:         studentID,
		Action:        clearance.ActionApplicationSubmitted,
		FromState:     string(clearance.StatusDraft),
		ToState:       string(clearance.StatusInProgress),
	}); err != nil {
		return nil, fmt.Errorf("record submission: %w", err)
	}

	c.logger.Info("application submitted",
		logging.String(logging.FieldApplicationID, app.ID),
		logging.String("student_id", studentID))
	c.dispatch(app.ID, func(ctx context.Context) {
		c.publish(ctx, app.ID, notifications.EventApplicationSubmitted, "", notifications.Payload{
			"application_id": app.ID,
			"student_id":     studentID,
		})
	})
	return app, nil
}

func (c *Coordinator) resubmit(ctx context.Context, app *clearance.Application, studentID string) (*clearance.Application, error) {
	release := c.locks.acquire(app.ID)
	err := func() error {
		defer release()
		return c.store.Resubmit(ctx, app.ID, clearance.AuditEntry{
			ApplicationID: app.ID,
			Actor:         studentID,
			Action:        clearance.ActionApplicationResubmitted,
			FromState:     string(clearance.StatusRejected),
			ToState:       string(clearance.StatusInProgress),
		})
	}()
	if err != nil {
		return nil, err
	}
	c.logger.Info("application resubmitted",
		logging.String(logging.FieldApplicationID, app.ID),
		logging.String("student_id", studentID))
	return c.store.GetApplication(ctx, app.ID)
}

// Outcome reports what a decision changed.
type Outcome struct {
	Stage         clearance.Stage
	NewStatus     clearance.Status
	StatusChanged bool
}

// Decide applies one approver decision to the application's stage for the
// given department. The read-decide-write sequence runs under the
// application's lock; certificate generation and notifications run after the
// lock is released and never fail the decision.
func (c *Coordinator) Decide(ctx context.Context, applicationID, department string, decision clearance.Decision) (*Outcome, error) {
	requestID := uuid.NewString()
	ctx = logging.WithRequestID(logging.WithDepartment(logging.WithApplicationID(ctx, applicationID), department), requestID)
	logger := logging.WithContext(ctx, c.logger)

	release := c.locks.acquire(applicationID)
	outcome, result, err := func() (*Outcome, engine.Result, error) {
		defer release()

		app, err := c.store.GetApplication(ctx, applicationID)
		if err != nil {
			return nil, engine.Result{}, err
		}
		stages, err := c.store.GetStages(ctx, applicationID)
		if err != nil {
			return nil, engine.Result{}, err
		}

		result, err := c.engine.Decide(app, stages, department, decision, time.Now())
		if err != nil {
			return nil, engine.Result{}, err
		}

		action := clearance.ActionStageApproved
		if result.Stage.State == clearance.StageRejected {
			action = clearance.ActionStageRejected
		}
		rec := clearance.DecisionRecord{
			Stage:         result.Stage,
			NewStatus:     result.NewStatus,
			StatusChanged: result.StatusChanged,
			Audit: clearance.AuditEntry{
				ApplicationID: applicationID,
				StageID:       result.Stage.ID,
				Actor:         decision.Actor,
				ActorRole:     result.ActorRole,
				Action:        action,
				FromState:     string(result.PreviousState),
				ToState:       string(result.Stage.State),
			},
		}
		if err := c.store.ApplyDecision(ctx, rec); err != nil {
			return nil, engine.Result{}, err
		}
		return &Outcome{
			Stage:         result.Stage,
			NewStatus:     result.NewStatus,
			StatusChanged: result.StatusChanged,
		}, result, nil
	}()
	if err != nil {
		return nil, err
	}

	logger.Info("decision recorded",
		logging.String(logging.FieldStageID, outcome.Stage.ID),
		logging.String(logging.FieldActor, decision.Actor),
		logging.String("outcome", string(decision.Outcome)),
		logging.String("application_status", string(outcome.NewStatus)))

	c.dispatch(applicationID, func(ctx context.Context) {
		c.afterDecision(ctx, applicationID, department, decision, result)
	})
	return outcome, nil
}

// History returns the application's audit trail.
func (c *Coordinator) History(ctx context.Context, applicationID string) ([]clearance.AuditEntry, error) {
	return c.recorder.History(ctx, applicationID)
}
