package certificates

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"nodues/internal/clearance"
	"nodues/internal/logging"
	"nodues/internal/registry"
)

// Service issues certificates for completed applications.
type Service struct {
	store    *clearance.Store
	registry *registry.Registry
	renderer Renderer
	issuer   string
	prefix   string
	logger   *slog.Logger
}

// NewService constructs a certificate service.
func NewService(store *clearance.Store, reg *registry.Registry, renderer Renderer, issuer, prefix string, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		registry: reg,
		renderer: renderer,
		issuer:   issuer,
		prefix:   prefix,
		logger:   logging.NewComponentLogger(logger, "certificates"),
	}
}

// Issue generates the certificate for a completed application. It is
// idempotent on the application id: if a certificate already exists it is
// returned unchanged and issued reports false.
func (s *Service) Issue(ctx context.Context, applicationID string) (*clearance.Certificate, bool, error) {
	if existing, err := s.store.GetCertificate(ctx, applicationID); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, clearance.ErrNotFound) {
		return nil, false, err
	}

	app, err := s.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, false, err
	}
	if app.Status != clearance.StatusCompleted {
		return nil, false, clearance.Wrap(clearance.ErrInvalidState, "certificates", "issue",
			"application is not completed", nil)
	}
	stages, err := s.store.GetStages(ctx, applicationID)
	if err != nil {
		return nil, false, err
	}
	// The rendered stage table follows the chain order.
	clearance.SortStages(stages)

	completedAt := app.UpdatedAt
	if app.CompletedAt != nil {
		completedAt = *app.CompletedAt
	}

	cert := clearance.Certificate{
		ID:            uuid.NewString(),
		ApplicationID: applicationID,
		Number:        Number(s.prefix, completedAt, uuid.NewString()),
		GeneratedAt:   time.Now().UTC(),
	}

	data := Data{
		ApplicationID: app.ID,
		StudentID:     app.StudentID,
		Number:        cert.Number,
		Issuer:        s.issuer,
		CompletedAt:   completedAt,
	}
	for _, stage := range stages {
		line := StageLine{
			Department: s.registry.Label(stage.Department),
			Approver:   stage.ApproverID,
		}
		if stage.DecidedAt != nil {
			line.DecidedAt = *stage.DecidedAt
		}
		data.Stages = append(data.Stages, line)
	}

	location, err := s.renderer.Render(ctx, data)
	if err != nil {
		return nil, false, err
	}
	cert.Location = location

	inserted, err := s.store.RecordCertificate(ctx, cert)
	if err != nil {
		return nil, false, err
	}
	if !inserted {
		// A concurrent retry won the insert; theirs is canonical, so the
		// artifact rendered under the losing number must not linger.
		if removeErr := os.Remove(location); removeErr != nil && !os.IsNotExist(removeErr) {
			s.logger.Warn("failed to remove superseded certificate artifact",
				logging.String("location", location), logging.Error(removeErr))
		}
		existing, err := s.store.GetCertificate(ctx, applicationID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	if err := s.store.AppendAudit(ctx, clearance.AuditEntry{
		ApplicationID: applicationID,
		Actor:         "system",
		Action:        clearance.ActionCertificateIssued,
		ToState:       cert.Number,
	}); err != nil {
		s.logger.Warn("certificate issued but audit append failed", logging.Error(err),
			logging.String(logging.FieldApplicationID, applicationID))
	}

	s.logger.Info("certificate issued",
		logging.String(logging.FieldApplicationID, applicationID),
		logging.String("certificate_number", cert.Number),
		logging.String("location", cert.Location))
	return &cert, true, nil
}

// RetryPending issues certificates for completed applications that are still
// missing one. Failures are logged and skipped so one bad application does
// not starve the rest; the count of newly issued certificates is returned.
func (s *Service) RetryPending(ctx context.Context) (int, error) {
	apps, err := s.store.MissingCertificates(ctx)
	if err != nil {
		return 0, err
	}
	issued := 0
	for _, app := range apps {
		if err := ctx.Err(); err != nil {
			return issued, err
		}
		_, created, err := s.Issue(ctx, app.ID)
		if err != nil {
			if clearance.Retryable(err) {
				s.logger.Warn("certificate issue failed, will retry on the next sweep",
					logging.String(logging.FieldApplicationID, app.ID),
					logging.Error(err))
			} else {
				s.logger.Error("certificate issue failed and will not recover on retry",
					logging.String(logging.FieldApplicationID, app.ID),
					logging.Error(err))
			}
			continue
		}
		if created {
			issued++
		}
	}
	return issued, nil
}
