package clearance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// RecordCertificate inserts the certificate reference for an application.
// The UNIQUE constraint on application_id makes the insert idempotent:
// a retry that races an earlier success is dropped and reported as such.
func (s *Store) RecordCertificate(ctx context.Context, cert Certificate) (bool, error) {
	if cert.ApplicationID == "" {
		return false, fmt.Errorf("%w: certificate requires an application id", ErrInvalidState)
	}
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO certificates (id, application_id, number, location, generated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(application_id) DO NOTHING`,
		cert.ID, cert.ApplicationID, cert.Number, cert.Location, formatTime(cert.GeneratedAt),
	)
	if err != nil {
		return false, fmt.Errorf("record certificate: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record certificate result: %w", err)
	}
	return affected == 1, nil
}

// GetCertificate fetches the certificate reference for an application.
func (s *Store) GetCertificate(ctx context.Context, applicationID string) (*Certificate, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT id, application_id, number, location, generated_at
         FROM certificates WHERE application_id = ?`,
		applicationID,
	)
	var (
		cert        Certificate
		generatedAt string
	)
	err := row.Scan(&cert.ID, &cert.ApplicationID, &cert.Number, &cert.Location, &generatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: certificate for application %s", ErrNotFound, applicationID)
	}
	if err != nil {
		return nil, fmt.Errorf("get certificate: %w", err)
	}
	if cert.GeneratedAt, err = parseTime(generatedAt); err != nil {
		return nil, err
	}
	return &cert, nil
}

// MissingCertificates returns completed applications that have no certificate
// row yet. These are the retry candidates for out-of-band generation.
func (s *Store) MissingCertificates(ctx context.Context) ([]Application, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT a.id, a.student_id, a.status, a.created_at, a.updated_at, a.completed_at
         FROM applications a
         LEFT JOIN certificates c ON c.application_id = a.id
         WHERE a.status = ? AND c.id IS NULL
         ORDER BY a.updated_at ASC`,
		StatusCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("missing certificates: %w", err)
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return apps, nil
}
