package clearance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StageSeed describes one stage to create alongside a new application. Seeds
// come from the department registry; positions must already form a gapless
// sequence.
type StageSeed struct {
	Department string
	Position   int
}

// CreateApplication inserts an application and all of its pending stages in a
// single transaction. The application starts in progress; no application ever
// exists with zero or partial stages.
func (s *Store) CreateApplication(ctx context.Context, studentID string, seeds []StageSeed) (*Application, error) {
	if studentID == "" {
		return nil, fmt.Errorf("%w: student id is required", ErrInvalidState)
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("%w: application requires at least one stage", ErrConfiguration)
	}

	now := time.Now().UTC()
	app := &Application{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Status:    StatusInProgress,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO applications (id, student_id, status, created_at, updated_at, completed_at)
             VALUES (?, ?, ?, ?, ?, NULL)`,
			app.ID, app.StudentID, app.Status, formatTime(now), formatTime(now),
		); err != nil {
			// The partial unique index on (student_id) WHERE in_progress
			// enforces the single-active-application rule at the schema level.
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: student %s already has an active application", ErrInvalidState, studentID)
			}
			return fmt.Errorf("insert application: %w", err)
		}
		for _, seed := range seeds {
			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO application_stages (id, application_id, department, position, state, approver_id, decided_at, comment)
                 VALUES (?, ?, ?, ?, ?, NULL, NULL, NULL)`,
				uuid.NewString(), app.ID, seed.Department, seed.Position, StagePending,
			); err != nil {
				return fmt.Errorf("insert stage %s: %w", seed.Department, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// GetApplication fetches one application by id.
func (s *Store) GetApplication(ctx context.Context, id string) (*Application, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT id, student_id, status, created_at, updated_at, completed_at
         FROM applications WHERE id = ?`,
		id,
	)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: application %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	return app, nil
}

// FindByStudent returns the student's most recent application, or nil when
// the student has never applied.
func (s *Store) FindByStudent(ctx context.Context, studentID string) (*Application, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT id, student_id, status, created_at, updated_at, completed_at
         FROM applications WHERE student_id = ?
         ORDER BY created_at DESC, id DESC LIMIT 1`,
		studentID,
	)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find application by student: %w", err)
	}
	return app, nil
}

// ListApplications returns applications, optionally filtered by status,
// newest first.
func (s *Store) ListApplications(ctx context.Context, statuses ...Status) ([]Application, error) {
	query := `SELECT id, student_id, status, created_at, updated_at, completed_at
              FROM applications`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += " WHERE status IN (" + makePlaceholders(len(statuses)) + ")"
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
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

// GetStages returns the application's stages ordered by sequence position.
func (s *Store) GetStages(ctx context.Context, applicationID string) ([]Stage, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT id, application_id, department, position, state, approver_id, decided_at, comment
         FROM application_stages WHERE application_id = ?
         ORDER BY position ASC`,
		applicationID,
	)
	if err != nil {
		return nil, fmt.Errorf("get stages: %w", err)
	}
	defer rows.Close()

	var stages []Stage
	for rows.Next() {
		stage, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		stages = append(stages, stage)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stages: %w", err)
	}
	if len(stages) == 0 {
		return nil, fmt.Errorf("%w: stages for application %s", ErrNotFound, applicationID)
	}
	return stages, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*Application, error) {
	var (
		app         Application
		createdAt   string
		updatedAt   string
		completedAt sql.NullString
	)
	if err := row.Scan(&app.ID, &app.StudentID, &app.Status, &createdAt, &updatedAt, &completedAt); err != nil {
		return nil, err
	}
	var err error
	if app.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if app.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, err
		}
		app.CompletedAt = &t
	}
	return &app, nil
}

func scanStage(row rowScanner) (Stage, error) {
	var (
		stage      Stage
		approverID sql.NullString
		decidedAt  sql.NullString
		comment    sql.NullString
	)
	if err := row.Scan(&stage.ID, &stage.ApplicationID, &stage.Department, &stage.Position,
		&stage.State, &approverID, &decidedAt, &comment); err != nil {
		return Stage{}, err
	}
	stage.ApproverID = approverID.String
	stage.Comment = comment.String
	if decidedAt.Valid && decidedAt.String != "" {
		t, err := parseTime(decidedAt.String)
		if err != nil {
			return Stage{}, err
		}
		stage.DecidedAt = &t
	}
	return stage, nil
}

func makePlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, n*2-1)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '?')
	}
	return string(out)
}
