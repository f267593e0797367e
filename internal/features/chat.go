package features

import (
	"context"
	"errors"
	"log/slog"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/conversation"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/intercept"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/router"
)

type ChatHandler interface {
	Handle(ctx context.Context, ev *event.Event) (conversation.Outcome, error)
}

// Chat turns plain text and /ask requests into a completion exchange.
func Chat(handler ChatHandler, chain intercept.Chain, logger *slog.Logger) router.Feature {
	if logger == nil {
		logger = slog.Default()
	}
	return router.Feature{
		Name: "chat",
		Match: func(ev *event.Event) bool {
			if ev.Kind != event.KindMessage {
				return false
			}
			if ev.Command == CommandAsk {
				return true
			}
			return ev.Command == "" && ev.HasText()
		},
		Chain: chain,
		Handler: func(ctx context.Context, ev *event.Event, data *intercept.Data) error {
			req := *ev
			if req.Command == CommandAsk {
				req.Text = req.CommandArgs
			}
			out, err := handler.Handle(ctx, &req)
			if errors.Is(err, conversation.ErrEmptyPrompt) {
				logger.Debug("chat_empty_prompt", "chat_id", ev.ChatID, "user_id", ev.FromUserID)
				return nil
			}
			if err != nil {
				return err
			}
			logger.Debug("chat_outcome", "request_id", out.RequestID, "state", string(out.State), "attempts", out.Attempts)
			return nil
		},
	}
}
