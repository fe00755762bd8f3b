package clearance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ClaimNotification records the intent to send a notification identified by
// (application, event, ref) and reports whether this caller won the claim.
// A claim older than the dedup window may be re-taken so at-least-once
// delivery can recover from a dispatcher that died mid-send; within the
// window duplicates are suppressed.
func (s *Store) ClaimNotification(ctx context.Context, applicationID, event, ref string, window time.Duration) (bool, error) {
	now := time.Now().UTC()
	claimed := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		claimed = false
		var sentAt string
		err := tx.QueryRowContext(
			ctx,
			`SELECT sent_at FROM notification_ledger WHERE application_id = ? AND event = ? AND ref = ?`,
			applicationID, event, ref,
		).Scan(&sentAt)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO notification_ledger (application_id, event, ref, sent_at) VALUES (?, ?, ?, ?)`,
				applicationID, event, ref, formatTime(now),
			); err != nil {
				return fmt.Errorf("insert notification claim: %w", err)
			}
			claimed = true
			return nil
		case err != nil:
			return fmt.Errorf("read notification claim: %w", err)
		}

		previous, err := parseTime(sentAt)
		if err != nil {
			return err
		}
		if window > 0 && now.Sub(previous) <= window {
			return nil
		}
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE notification_ledger SET sent_at = ? WHERE application_id = ? AND event = ? AND ref = ?`,
			formatTime(now), applicationID, event, ref,
		); err != nil {
			return fmt.Errorf("refresh notification claim: %w", err)
		}
		claimed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}
