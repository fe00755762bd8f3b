package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"nodues/internal/clearance"
	"nodues/internal/config"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var statusFilters []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clearance applications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *clearance.Store) error {
				var statuses []clearance.Status
				for _, value := range statusFilters {
					status := clearance.Status(value)
					if !status.Valid() {
						return fmt.Errorf("unknown status %q", value)
					}
					statuses = append(statuses, status)
				}

				apps, err := store.ListApplications(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(apps) == 0 {
					fmt.Fprintln(out, "No applications found")
					return nil
				}

				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(apps))
				for _, app := range apps {
					rows = append(rows, []string{
						app.ID,
						app.StudentID,
						colorizeStatus(string(app.Status), colorize),
						app.CreatedAt.Local().Format(time.RFC822),
						app.UpdatedAt.Local().Format(time.RFC822),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Application", "Student", "Status", "Submitted", "Updated"},
					rows,
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFilters, "status", "s", nil, "Filter by status (in_progress, rejected, completed)")
	return cmd
}
