package intercept

import (
	"context"
	"log/slog"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
)

// KeyReactedMessage holds the archived message a reaction refers to, as
// *event.Message; the value is nil when the message was not found.
const KeyReactedMessage = "reacted_message"

type MessageLookup interface {
	Lookup(ctx context.Context, chatID, messageID, userID int64) (event.Message, bool, error)
}

// ReactedMessage returns the message attached by ReactionEnrichment.
func ReactedMessage(data *Data) (*event.Message, bool) {
	v, ok := data.Get(KeyReactedMessage)
	if !ok {
		return nil, false
	}
	msg, _ := v.(*event.Message)
	return msg, msg != nil
}

func ReactionEnrichment(lookup MessageLookup, logger *slog.Logger) Interceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return InterceptorFunc(func(ctx context.Context, next Handler, ev *event.Event, data *Data) error {
		if ev == nil || ev.Kind != event.KindReaction {
			return next(ctx, ev, data)
		}
		var found *event.Message
		if lookup != nil {
			msg, ok, err := lookup.Lookup(ctx, ev.ChatID, ev.MessageID, ev.FromUserID)
			if err != nil {
				logger.Warn("reaction_lookup_error", "chat_id", ev.ChatID, "message_id", ev.MessageID, "error", err.Error())
			} else if ok {
				found = &msg
			}
		}
		data.Set(KeyReactedMessage, found)
		return next(ctx, ev, data)
	})
}
