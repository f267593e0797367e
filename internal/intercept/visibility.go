package intercept

import (
	"context"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
)

// Visibility keeps a feature quiet in group chats unless the message replies
// to the bot or carries an explicit command. Dropped events get no answer.
// Do not put it in front of command features.
func Visibility(botID int64) Interceptor {
	return Gate(func(ctx context.Context, ev *event.Event, data *Data) (Decision, error) {
		switch {
		case ev == nil:
			return DropDecision(), nil
		case ev.IsPrivate():
			return ForwardDecision(), nil
		case ev.ReplyTo != nil && botID != 0 && ev.ReplyTo.FromUserID == botID:
			return ForwardDecision(), nil
		case ev.Command != "":
			return ForwardDecision(), nil
		default:
			return DropDecision(), nil
		}
	}, nil)
}
