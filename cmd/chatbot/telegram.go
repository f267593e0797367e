package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/bot"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/configutil"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/logutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newTelegramCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telegram",
		Short: "Run the Telegram bot (long polling)",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			cfg, err := botConfigFromFlags(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := bot.Build(ctx, cfg, bot.Deps{Logger: logger})
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			if err := app.Run(ctx); err != nil {
				logger.Error("telegram_stopped", "error", err.Error())
				return err
			}
			logger.Info("telegram_stopped")
			return nil
		},
	}

	cmd.Flags().String("telegram-bot-token", "", "Telegram bot token.")
	cmd.Flags().Duration("telegram-poll-timeout", 30*time.Second, "Long polling timeout for getUpdates.")
	cmd.Flags().Duration("telegram-task-timeout", 10*time.Minute, "Upper bound for handling one event.")
	cmd.Flags().Int("telegram-max-concurrency", 3, "Max number of users handled concurrently.")
	cmd.Flags().String("llm-model", "", "Model name sent to the completion endpoint.")
	cmd.Flags().StringArray("operator-id", nil, "Telegram user id that receives error reports and /stats (repeatable).")
	cmd.Flags().Bool("strict-status", false, "Treat only 429/401 provider responses as rate limits.")
	cmd.Flags().Int("history-max-turns", 0, "Keep at most this many non-system turns per user (0 = unbounded).")

	return cmd
}

func botConfigFromFlags(cmd *cobra.Command) (bot.Config, error) {
	operators, err := configutil.FlagOrViperInt64Slice(cmd, "operator-id", "chat.operator_ids")
	if err != nil {
		return bot.Config{}, fmt.Errorf("chat.operator_ids: %w", err)
	}
	model := strings.TrimSpace(configutil.FlagOrViperString(cmd, "llm-model", "llm.model"))
	maxConc := configutil.FlagOrViperInt(cmd, "telegram-max-concurrency", "telegram.max_concurrency")
	if maxConc <= 0 {
		maxConc = 3
	}
	return bot.Config{
		TelegramToken:     strings.TrimSpace(configutil.FlagOrViperString(cmd, "telegram-bot-token", "telegram.bot_token")),
		TelegramBaseURL:   viper.GetString("telegram.base_url"),
		PollTimeout:       configutil.FlagOrViperDuration(cmd, "telegram-poll-timeout", "telegram.poll_timeout"),
		TaskTimeout:       configutil.FlagOrViperDuration(cmd, "telegram-task-timeout", "telegram.task_timeout"),
		MaxConcurrency:    maxConc,
		LLMEndpoint:       viper.GetString("llm.endpoint"),
		LLMAPIKey:         viper.GetString("llm.api_key"),
		LLMModel:          model,
		LLMRequestTimeout: viper.GetDuration("llm.request_timeout"),
		OperatorIDs:       operators,
		MaxAttempts:       viper.GetInt("chat.max_attempts"),
		StrictStatus:      configutil.FlagOrViperBool(cmd, "strict-status", "chat.strict_status_classification"),
		HistoryMaxTurns:   configutil.FlagOrViperInt(cmd, "history-max-turns", "chat.history_max_turns"),
		DB:                dbConfigFromViper(),
		StatsCron:         viper.GetString("scheduled.stats_cron"),
		PurgeCron:         viper.GetString("scheduled.purge_cron"),
		TextsFile:         viper.GetString("texts.file"),
	}, nil
}
