package intercept

import (
	"context"
	"log/slog"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
)

type Counter interface {
	IncrementCounter(ctx context.Context, userID int64, category string) error
}

// Accounting counts the request under category and always forwards. Register
// it last so only admitted events are counted.
func Accounting(counter Counter, category string, logger *slog.Logger) Interceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return InterceptorFunc(func(ctx context.Context, next Handler, ev *event.Event, data *Data) error {
		if counter != nil && ev != nil {
			if err := counter.IncrementCounter(ctx, ev.FromUserID, category); err != nil {
				logger.Warn("request_counter_error", "user_id", ev.FromUserID, "category", category, "error", err.Error())
			}
		}
		return next(ctx, ev, data)
	})
}
