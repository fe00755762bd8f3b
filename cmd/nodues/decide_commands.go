package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nodues/internal/clearance"
	"nodues/internal/workflow"
)

func newApproveCommand(ctx *commandContext) *cobra.Command {
	var actor string
	var comment string

	cmd := &cobra.Command{
		Use:   "approve <application-id> <department>",
		Short: "Approve the department's clearance stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecision(ctx, cmd, args, clearance.Decision{
				Outcome: clearance.OutcomeApprove,
				Actor:   strings.TrimSpace(actor),
				Comment: strings.TrimSpace(comment),
			})
		},
	}

	cmd.Flags().StringVarP(&actor, "actor", "a", "", "Approver id recorded for the decision")
	cmd.Flags().StringVarP(&comment, "comment", "m", "", "Optional remark attached to the decision")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func newRejectCommand(ctx *commandContext) *cobra.Command {
	var actor string
	var comment string

	cmd := &cobra.Command{
		Use:   "reject <application-id> <department>",
		Short: "Reject the department's clearance stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecision(ctx, cmd, args, clearance.Decision{
				Outcome: clearance.OutcomeReject,
				Actor:   strings.TrimSpace(actor),
				Comment: strings.TrimSpace(comment),
			})
		},
	}

	cmd.Flags().StringVarP(&actor, "actor", "a", "", "Approver id recorded for the decision")
	cmd.Flags().StringVarP(&comment, "comment", "m", "", "Remark explaining the rejection (required)")
	_ = cmd.MarkFlagRequired("actor")
	_ = cmd.MarkFlagRequired("comment")
	return cmd
}

func runDecision(ctx *commandContext, cmd *cobra.Command, args []string, decision clearance.Decision) error {
	applicationID := strings.TrimSpace(args[0])
	department := strings.ToLower(strings.TrimSpace(args[1]))
	if applicationID == "" || department == "" {
		return fmt.Errorf("application id and department are required")
	}

	return ctx.withCoordinator(cmd.Context(), func(runCtx context.Context, coord *workflow.Coordinator) error {
		outcome, err := coord.Decide(runCtx, applicationID, department, decision)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Stage %s %s by %s\n", department, outcome.Stage.State, decision.Actor)
		switch outcome.NewStatus {
		case clearance.StatusCompleted:
			fmt.Fprintln(out, "All departments cleared; the completion certificate is being generated")
		case clearance.StatusRejected:
			fmt.Fprintln(out, "Application rejected; the student may resubmit to restart the chain")
		default:
			summary, err := coord.Summarize(runCtx, applicationID)
			if err != nil {
				return err
			}
			if summary.CurrentDepartment != "" {
				fmt.Fprintf(out, "Awaiting decision from %s (%d of %d stages approved)\n",
					summary.CurrentDepartment, summary.Approved, summary.Total)
			}
		}
		return nil
	})
}
