package main

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"nodues/internal/audit"
	"nodues/internal/certificates"
	"nodues/internal/clearance"
	"nodues/internal/config"
	"nodues/internal/engine"
	"nodues/internal/identity"
	"nodues/internal/logging"
	"nodues/internal/notifications"
	"nodues/internal/registry"
	"nodues/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) withStore(fn func(cfg *config.Config, store *clearance.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := clearance.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

// withCoordinator wires the full clearance stack for one command invocation
// and flushes outstanding side effects before the store closes.
func (c *commandContext) withCoordinator(ctx context.Context, fn func(ctx context.Context, coord *workflow.Coordinator) error) error {
	return c.withStore(func(cfg *config.Config, store *clearance.Store) error {
		// Command output stays clean; structured logs go to the log file.
		logger, err := logging.New(logging.Options{
			Level:      cfg.Logging.Level,
			Format:     cfg.Logging.Format,
			OutputPath: filepath.Join(cfg.Paths.LogDir, "nodues.log"),
		})
		if err != nil {
			return err
		}

		reg, err := registry.New(cfg.Departments)
		if err != nil {
			return err
		}
		eng := engine.New(reg, identity.NewDirectory(cfg.Approvers))
		certs := certificates.NewService(store, reg,
			certificates.NewFileRenderer(cfg.Paths.CertificateDir),
			cfg.Certificates.Issuer, cfg.Certificates.NumberPrefix, logger)

		coord := workflow.NewCoordinator(cfg, store, reg, eng,
			audit.NewStoreRecorder(store), certs, notifications.NewService(cfg), logger)
		defer coord.Wait()

		return fn(ctx, coord)
	})
}
