package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/ims/internal/audit"
)

var auditCmd = &cobra.Command{
	Use:     "audit",
	Short:   "List recent requests from the audit log",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if app.cfg.AuditDatabaseURL == "" {
			return fmt.Errorf("no audit log configured: set IMS_AUDIT_DATABASE_URL")
		}
		limit, _ := cmd.Flags().GetInt("limit")
		outcome, _ := cmd.Flags().GetString("outcome")

		entries, err := app.recorder.List(cmd.Context(), audit.ListOptions{Limit: limit, Outcome: outcome})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no requests recorded")
			return nil
		}
		printAuditTable(cmd.OutOrStdout(), entries)
		return nil
	},
}

func init() {
	auditCmd.Flags().IntP("limit", "n", 50, "number of entries")
	auditCmd.Flags().String("outcome", "", "only this outcome (ok, auth_expired, failure)")
}
