// Package worker runs the out-of-band maintenance loop: retrying
// certificate generation for completed applications that are still missing
// their artifact. A file lock enforces a single worker instance per data
// directory.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"

	"nodues/internal/certificates"
	"nodues/internal/config"
	"nodues/internal/logging"
)

// Worker periodically retries pending certificate generation.
type Worker struct {
	cfg          *config.Config
	certificates *certificates.Service
	logger       *slog.Logger

	lockPath string
	lock     *flock.Flock
	interval time.Duration
}

// New constructs a worker with initialized dependencies.
func New(cfg *config.Config, certs *certificates.Service, logger *slog.Logger) (*Worker, error) {
	if cfg == nil || certs == nil {
		return nil, errors.New("worker requires config and certificate service")
	}
	interval := time.Duration(cfg.Certificates.RetryIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	lockPath := cfg.LockPath()
	return &Worker{
		cfg:          cfg,
		certificates: certs,
		logger:       logging.NewComponentLogger(logger, "worker"),
		lockPath:     lockPath,
		lock:         flock.New(lockPath),
		interval:     interval,
	}, nil
}

// Run acquires the worker lock and retries pending certificates until the
// context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire worker lock: %w", err)
	}
	if !ok {
		return errors.New("another nodues worker instance is already running")
	}
	defer func() {
		if err := w.lock.Unlock(); err != nil {
			w.logger.Warn("failed to release worker lock", logging.Error(err))
		}
	}()

	w.logger.Info("worker started",
		logging.String("lock", w.lockPath),
		logging.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// First pass immediately so a restart doesn't wait a full interval.
	w.retryOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped")
			return nil
		case <-ticker.C:
			w.retryOnce(ctx)
		}
	}
}

func (w *Worker) retryOnce(ctx context.Context) {
	issued, err := w.certificates.RetryPending(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		w.logger.Warn("certificate retry pass failed", logging.Error(err))
		return
	}
	if issued > 0 {
		w.logger.Info("certificates issued on retry", logging.Int("count", issued))
	}
}
