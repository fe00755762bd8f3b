package clearance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Audit actions recorded by the store.
const (
	ActionApplicationSubmitted   = "application_submitted"
	ActionApplicationResubmitted = "application_resubmitted"
	ActionStageApproved          = "stage_approved"
	ActionStageRejected          = "stage_rejected"
	ActionCertificateIssued      = "certificate_issued"
)

// DecisionRecord carries everything a single decision writes: the updated
// stage snapshot, the recomputed application status, and the audit entry.
type DecisionRecord struct {
	Stage         Stage
	NewStatus     Status
	StatusChanged bool
	Audit         AuditEntry
}

// ApplyDecision persists one decision atomically: the stage row, the derived
// application status, and the audit entry commit or roll back together. The
// stage row is guarded so a stage can only be decided once.
func (s *Store) ApplyDecision(ctx context.Context, rec DecisionRecord) error {
	if !rec.Stage.State.Valid() || rec.Stage.State == StagePending {
		return fmt.Errorf("%w: decision must resolve the stage", ErrInvalidState)
	}
	if !rec.NewStatus.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidState, rec.NewStatus)
	}

	now := time.Now().UTC()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(
			ctx,
			`UPDATE application_stages
             SET state = ?, approver_id = ?, decided_at = ?, comment = ?
             WHERE id = ? AND state = ?`,
			rec.Stage.State,
			nullableString(rec.Stage.ApproverID),
			nullableTime(rec.Stage.DecidedAt),
			nullableString(rec.Stage.Comment),
			rec.Stage.ID,
			StagePending,
		)
		if err != nil {
			return fmt.Errorf("update stage: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update stage result: %w", err)
		}
		if affected != 1 {
			return fmt.Errorf("%w: stage %s already decided", ErrInvalidState, rec.Stage.ID)
		}

		var completedAt any
		if rec.NewStatus == StatusCompleted {
			completedAt = formatTime(now)
		}
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE applications SET status = ?, updated_at = ?, completed_at = ? WHERE id = ?`,
			rec.NewStatus, formatTime(now), completedAt, rec.Stage.ApplicationID,
		); err != nil {
			return fmt.Errorf("update application status: %w", err)
		}

		if err := appendAuditTx(ctx, tx, rec.Audit); err != nil {
			return err
		}
		return nil
	})
}

// Resubmit resets a rejected application so the approval chain starts over.
// All stages return to pending with decision metadata cleared; completed
// applications may not reapply.
func (s *Store) Resubmit(ctx context.Context, applicationID string, audit AuditEntry) error {
	now := time.Now().UTC()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var status Status
		err := tx.QueryRowContext(ctx, `SELECT status FROM applications WHERE id = ?`, applicationID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: application %s", ErrNotFound, applicationID)
		}
		if err != nil {
			return fmt.Errorf("read application status: %w", err)
		}
		if status != StatusRejected {
			return fmt.Errorf("%w: only rejected applications can be resubmitted (status %s)", ErrInvalidState, status)
		}

		if _, err := tx.ExecContext(
			ctx,
			`UPDATE application_stages
             SET state = ?, approver_id = NULL, decided_at = NULL, comment = NULL
             WHERE application_id = ?`,
			StagePending, applicationID,
		); err != nil {
			return fmt.Errorf("reset stages: %w", err)
		}

		if _, err := tx.ExecContext(
			ctx,
			`UPDATE applications SET status = ?, updated_at = ?, completed_at = NULL WHERE id = ?`,
			StatusInProgress, formatTime(now), applicationID,
		); err != nil {
			return fmt.Errorf("reset application: %w", err)
		}

		return appendAuditTx(ctx, tx, audit)
	})
}
