package main

import (
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"nodues/internal/certificates"
	"nodues/internal/clearance"
	"nodues/internal/config"
	"nodues/internal/logging"
	"nodues/internal/registry"
	"nodues/internal/worker"
)

func newWorkerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the background certificate retry loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return ctx.withStore(func(cfg *config.Config, store *clearance.Store) error {
				logger, err := logging.New(logging.Options{
					Level:      cfg.Logging.Level,
					Format:     cfg.Logging.Format,
					OutputPath: filepath.Join(cfg.Paths.LogDir, "nodues-worker.log"),
				})
				if err != nil {
					return err
				}
				reg, err := registry.New(cfg.Departments)
				if err != nil {
					return err
				}
				svc := certificates.NewService(store, reg,
					certificates.NewFileRenderer(cfg.Paths.CertificateDir),
					cfg.Certificates.Issuer, cfg.Certificates.NumberPrefix, logger)

				w, err := worker.New(cfg, svc, logger)
				if err != nil {
					return err
				}
				return w.Run(runCtx)
			})
		},
	}
}
