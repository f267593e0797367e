package main

import (
	"fmt"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/db"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/chatlog"
	"github.com/spf13/cobra"
)

func openChatlog() (*chatlog.Store, func(), error) {
	gdb, err := db.Open(dbConfigFromViper())
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	store, err := chatlog.New(gdb)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return store, closeFn, nil
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print today's request statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := openChatlog()
			if err != nil {
				return err
			}
			defer closeFn()
			summary, err := store.StatsSummary(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}
