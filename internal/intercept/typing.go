package intercept

import (
	"context"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
)

type TypingIndicator interface {
	// StartTyping shows a typing status in chatID until stop is called.
	StartTyping(ctx context.Context, chatID int64) (stop func())
}

func Typing(indicator TypingIndicator) Interceptor {
	return InterceptorFunc(func(ctx context.Context, next Handler, ev *event.Event, data *Data) error {
		if indicator == nil || ev == nil || ev.ChatID == 0 {
			return next(ctx, ev, data)
		}
		stop := indicator.StartTyping(ctx, ev.ChatID)
		defer stop()
		return next(ctx, ev, data)
	})
}
