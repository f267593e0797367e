package intercept

import (
	"context"
	"log/slog"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/retryutil"
)

type Archiver interface {
	Archive(ctx context.Context, msg event.Message) error
}

// RetryFunc schedules fn to run again later.
type RetryFunc func(name string, fn func(ctx context.Context) error)

type ArchivalOptions struct {
	Logger *slog.Logger
	Retry  RetryFunc
}

// Archival stores every text-bearing event before anything else decides about
// it. A failed write is handed to the retry func and the event still proceeds.
func Archival(archiver Archiver, opts ArchivalOptions) Interceptor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retry := opts.Retry
	if retry == nil {
		retry = func(name string, fn func(ctx context.Context) error) {
			retryutil.AsyncRetry(logger, name, retryutil.Options{}, fn)
		}
	}
	return InterceptorFunc(func(ctx context.Context, next Handler, ev *event.Event, data *Data) error {
		if archiver != nil && ev != nil && ev.Kind == event.KindMessage && ev.HasText() {
			msg := ev.Message()
			if err := archiver.Archive(ctx, msg); err != nil {
				logger.Warn("archive_message_error", "chat_id", msg.ChatID, "message_id", msg.MessageID, "error", err.Error())
				retry("archive_message", func(ctx context.Context) error {
					return archiver.Archive(ctx, msg)
				})
			}
		}
		return next(ctx, ev, data)
	})
}
