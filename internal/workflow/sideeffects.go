package workflow

import (
	"context"
	"time"

	"nodues/internal/clearance"
	"nodues/internal/engine"
	"nodues/internal/logging"
	"nodues/internal/notifications"
)

// sideEffectTimeout bounds each background dispatch so a hung notifier or
// renderer cannot leak goroutines forever.
const sideEffectTimeout = 30 * time.Second

// dispatch runs fn after the decision path has committed. The request
// context may already be cancelled by the time effects run, so dispatch
// always derives a fresh context.
func (c *Coordinator) dispatch(applicationID string, fn func(ctx context.Context)) {
	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()
		fn(logging.WithApplicationID(ctx, applicationID))
	}
	if c.syncDispatch {
		run()
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		run()
	}()
}

// afterDecision dispatches the side effects of one committed decision: the
// per-decision notification, terminal notifications, and certificate
// generation when the application completed. All effects are at-least-once
// and idempotent; none can undo the committed transition.
func (c *Coordinator) afterDecision(ctx context.Context, applicationID, department string, decision clearance.Decision, result engine.Result) {
	c.publish(ctx, applicationID, notifications.EventDecisionRecorded, result.Stage.ID, notifications.Payload{
		"application_id": applicationID,
		"department":     c.registry.Label(department),
		"outcome":        string(decision.Outcome),
		"actor":          decision.Actor,
	})

	if !result.StatusChanged {
		return
	}

	switch result.NewStatus {
	case clearance.StatusRejected:
		c.publish(ctx, applicationID, notifications.EventApplicationRejected, "", notifications.Payload{
			"application_id": applicationID,
			"department":     c.registry.Label(department),
		})
	case clearance.StatusCompleted:
		c.publish(ctx, applicationID, notifications.EventApplicationCompleted, "", notifications.Payload{
			"application_id": applicationID,
		})
		c.issueCertificate(ctx, applicationID)
	}
}

// issueCertificate generates the completion certificate. Failure is logged
// and reported via the error notification; the application keeps its
// completed status and the worker retries out-of-band.
func (c *Coordinator) issueCertificate(ctx context.Context, applicationID string) {
	logger := logging.WithContext(ctx, c.logger)
	cert, issued, err := c.certificates.Issue(ctx, applicationID)
	if err != nil {
		logger.Error("certificate generation failed; will retry out-of-band",
			logging.String(logging.FieldEventType, "certificate_failed"),
			logging.Error(err))
		c.publish(ctx, applicationID, notifications.EventError, "certificate", notifications.Payload{
			"application_id": applicationID,
			"context":        "certificate generation",
			"error":          err,
		})
		return
	}
	if !issued {
		return
	}
	c.publish(ctx, applicationID, notifications.EventCertificateReady, "", notifications.Payload{
		"application_id":     applicationID,
		"certificate_number": cert.Number,
	})
}

// publish sends one notification if its (application, event, ref) claim has
// not been taken within the dedup window. Failures are logged, never
// propagated.
func (c *Coordinator) publish(ctx context.Context, applicationID string, event notifications.Event, ref string, payload notifications.Payload) {
	logger := logging.WithContext(ctx, c.logger)
	claimed, err := c.store.ClaimNotification(ctx, applicationID, string(event), ref, c.dedupWindow)
	if err != nil {
		logger.Warn("notification claim failed; skipping send",
			logging.String(logging.FieldEventType, string(event)),
			logging.Error(err))
		return
	}
	if !claimed {
		return
	}
	if err := c.notifier.Publish(ctx, event, payload); err != nil {
		logger.Warn("notification delivery failed",
			logging.String(logging.FieldEventType, string(event)),
			logging.Error(clearance.Wrap(clearance.ErrNotification, "workflow", "publish", string(event), err)))
	}
}
