package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nodues/internal/clearance"
	"nodues/internal/config"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history <application-id>",
		Short: "Show an application's audit trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applicationID := strings.TrimSpace(args[0])
			return ctx.withStore(func(cfg *config.Config, store *clearance.Store) error {
				if _, err := store.GetApplication(cmd.Context(), applicationID); err != nil {
					return err
				}
				entries, err := store.AuditHistory(cmd.Context(), applicationID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No audit entries recorded")
					return nil
				}

				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					actor := entry.Actor
					if entry.ActorRole != "" {
						actor = fmt.Sprintf("%s (%s)", entry.Actor, entry.ActorRole)
					}
					transition := entry.ToState
					if entry.FromState != "" {
						transition = fmt.Sprintf("%s -> %s", entry.FromState, entry.ToState)
					}
					rows = append(rows, []string{
						entry.CreatedAt.Local().Format(time.RFC822),
						entry.Action,
						actor,
						transition,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"When", "Action", "Actor", "Transition"},
					rows,
				))
				return nil
			})
		},
	}
}
