package main

import (
	"fmt"
	"strings"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/chatlog"
	"github.com/spf13/cobra"
)

func newPurgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete all rows of a durable log table",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, _ := cmd.Flags().GetString("table")
			table = strings.TrimSpace(table)
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				return fmt.Errorf("refusing to purge %q without --yes", table)
			}
			store, closeFn, err := openChatlog()
			if err != nil {
				return err
			}
			defer closeFn()
			if err := store.Purge(cmd.Context(), table); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "purged %s\n", table)
			return nil
		},
	}
	cmd.Flags().String("table", chatlog.TableMessages, "Table to purge: messages|request_counters.")
	cmd.Flags().Bool("yes", false, "Confirm the purge.")
	return cmd
}
