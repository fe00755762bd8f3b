package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nodues/internal/certificates"
	"nodues/internal/clearance"
	"nodues/internal/config"
	"nodues/internal/logging"
	"nodues/internal/registry"
)

func newCertificatesCommand(ctx *commandContext) *cobra.Command {
	certCmd := &cobra.Command{
		Use:   "certificates",
		Short: "Inspect and repair completion certificates",
	}

	certCmd.AddCommand(newCertificatesShowCommand(ctx))
	certCmd.AddCommand(newCertificatesRetryCommand(ctx))

	return certCmd
}

func newCertificatesShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <application-id>",
		Short: "Show the certificate issued for an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applicationID := strings.TrimSpace(args[0])
			return ctx.withStore(func(cfg *config.Config, store *clearance.Store) error {
				cert, err := store.GetCertificate(cmd.Context(), applicationID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Certificate: %s\n", cert.Number)
				fmt.Fprintf(out, "Application: %s\n", cert.ApplicationID)
				fmt.Fprintf(out, "Generated:   %s\n", cert.GeneratedAt.Local().Format(time.RFC822))
				fmt.Fprintf(out, "Location:    %s\n", cert.Location)
				return nil
			})
		},
	}
}

func newCertificatesRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Generate certificates for completed applications missing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *clearance.Store) error {
				reg, err := registry.New(cfg.Departments)
				if err != nil {
					return err
				}
				svc := certificates.NewService(store, reg,
					certificates.NewFileRenderer(cfg.Paths.CertificateDir),
					cfg.Certificates.Issuer, cfg.Certificates.NumberPrefix, logging.NewNop())

				issued, err := svc.RetryPending(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if issued == 0 {
					fmt.Fprintln(out, "No certificates were missing")
					return nil
				}
				fmt.Fprintf(out, "Issued %d certificate(s)\n", issued)
				return nil
			})
		},
	}
}
