package clearance

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

func appendAuditTx(ctx context.Context, tx *sql.Tx, entry AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO audit_log (application_id, stage_id, actor, actor_role, action, from_state, to_state, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ApplicationID,
		nullableString(entry.StageID),
		entry.Actor,
		nullableString(entry.ActorRole),
		entry.Action,
		nullableString(entry.FromState),
		nullableString(entry.ToState),
		formatTime(entry.CreatedAt),
	); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// AppendAudit writes a standalone audit entry outside any decision
// transaction, for application-level events like submission.
func (s *Store) AppendAudit(ctx context.Context, entry AuditEntry) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return appendAuditTx(ctx, tx, entry)
	})
}

// AuditHistory returns the application's audit trail ordered by timestamp
// ascending, with insertion order breaking ties.
func (s *Store) AuditHistory(ctx context.Context, applicationID string) ([]AuditEntry, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT id, application_id, stage_id, actor, actor_role, action, from_state, to_state, created_at
         FROM audit_log WHERE application_id = ?
         ORDER BY created_at ASC, id ASC`,
		applicationID,
	)
	if err != nil {
		return nil, fmt.Errorf("audit history: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var (
			entry     AuditEntry
			stageID   sql.NullString
			actorRole sql.NullString
			fromState sql.NullString
			toState   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&entry.ID, &entry.ApplicationID, &stageID, &entry.Actor,
			&actorRole, &entry.Action, &fromState, &toState, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.StageID = stageID.String
		entry.ActorRole = actorRole.String
		entry.FromState = fromState.String
		entry.ToState = toState.String
		if entry.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
