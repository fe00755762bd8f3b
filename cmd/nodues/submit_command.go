package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nodues/internal/workflow"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <student-id>",
		Short: "Submit a clearance application for a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID := strings.TrimSpace(args[0])
			if studentID == "" {
				return fmt.Errorf("student id is required")
			}
			return ctx.withCoordinator(cmd.Context(), func(runCtx context.Context, coord *workflow.Coordinator) error {
				app, err := coord.Submit(runCtx, studentID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Application %s submitted for student %s\n", app.ID, app.StudentID)
				summary, err := coord.Summarize(runCtx, app.ID)
				if err != nil {
					return err
				}
				if summary.CurrentDepartment != "" {
					fmt.Fprintf(out, "Awaiting decision from %s (%d of %d stages approved)\n",
						summary.CurrentDepartment, summary.Approved, summary.Total)
				}
				return nil
			})
		},
	}
}
