package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nodues/internal/clearance"
	"nodues/internal/config"
	"nodues/internal/registry"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <application-id>",
		Short: "Show an application's clearance progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applicationID := strings.TrimSpace(args[0])
			return ctx.withStore(func(cfg *config.Config, store *clearance.Store) error {
				reg, err := registry.New(cfg.Departments)
				if err != nil {
					return err
				}

				app, err := store.GetApplication(cmd.Context(), applicationID)
				if err != nil {
					return err
				}
				stages, err := store.GetStages(cmd.Context(), applicationID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				fmt.Fprintf(out, "Application: %s\n", app.ID)
				fmt.Fprintf(out, "Student:     %s\n", app.StudentID)
				fmt.Fprintf(out, "Status:      %s\n", colorizeStatus(string(app.Status), colorize))
				fmt.Fprintf(out, "Submitted:   %s\n", app.CreatedAt.Local().Format(time.RFC822))
				if app.CompletedAt != nil {
					fmt.Fprintf(out, "Completed:   %s\n", app.CompletedAt.Local().Format(time.RFC822))
				}

				rows := make([][]string, 0, len(stages))
				for _, stage := range stages {
					decided := ""
					if stage.DecidedAt != nil {
						decided = stage.DecidedAt.Local().Format(time.RFC822)
					}
					rows = append(rows, []string{
						fmt.Sprintf("%d", stage.Position),
						reg.Label(stage.Department),
						colorizeStatus(string(stage.State), colorize),
						stage.ApproverID,
						decided,
						stage.Comment,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Department", "State", "Approver", "Decided", "Comment"},
					rows, 0,
				))

				cert, err := store.GetCertificate(cmd.Context(), applicationID)
				switch {
				case err == nil:
					fmt.Fprintf(out, "Certificate: %s (%s)\n", cert.Number, cert.Location)
				case errors.Is(err, clearance.ErrNotFound):
				default:
					return err
				}
				return nil
			})
		},
	}
}
