package features

import (
	"context"
	"log/slog"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/intercept"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/router"
)

// Reactions counts reactions on messages the bot has archived.
func Reactions(counter intercept.Counter, chain intercept.Chain, logger *slog.Logger) router.Feature {
	if logger == nil {
		logger = slog.Default()
	}
	return router.Feature{
		Name:  "reactions",
		Match: func(ev *event.Event) bool { return ev.Kind == event.KindReaction },
		Chain: chain,
		Handler: func(ctx context.Context, ev *event.Event, data *intercept.Data) error {
			msg, ok := intercept.ReactedMessage(data)
			if !ok {
				logger.Debug("reaction_unknown_message", "chat_id", ev.ChatID, "message_id", ev.MessageID)
				return nil
			}
			logger.Debug("reaction_received", "chat_id", msg.ChatID, "message_id", msg.MessageID, "reactions", ev.Reactions)
			if counter == nil {
				return nil
			}
			return counter.IncrementCounter(ctx, ev.FromUserID, CategoryReactions)
		},
	}
}
