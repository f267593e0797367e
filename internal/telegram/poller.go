package telegram

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
)

// Poller reads updates with long polling and hands them over as events in
// arrival order.
type Poller struct {
	api         *API
	logger      *slog.Logger
	timeout     time.Duration
	backoff     time.Duration
	botUsername string
	offset      int64
}

type PollerOptions struct {
	Logger      *slog.Logger
	PollTimeout time.Duration
	// ErrorBackoff is the pause after a failed getUpdates.
	ErrorBackoff time.Duration
	BotUsername  string
}

func NewPoller(api *API, opts PollerOptions) *Poller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.PollTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	backoff := opts.ErrorBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	return &Poller{api: api, logger: logger, timeout: timeout, backoff: backoff, botUsername: opts.BotUsername}
}

// Run polls until ctx is done. A rejected token stops it with an error; any
// other failure is logged and retried.
func (p *Poller) Run(ctx context.Context, handle func(event.Event)) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		updates, next, err := p.api.GetUpdates(ctx, p.offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			if IsUnauthorized(err) {
				return err
			}
			p.logger.Warn("telegram_get_updates_error", "error", err.Error())
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.backoff):
			}
			continue
		}
		p.offset = next
		for _, u := range updates {
			ev, ok := ToEvent(u, p.botUsername)
			if !ok {
				p.logger.Debug("telegram_update_skipped", "update_id", u.UpdateID)
				continue
			}
			handle(ev)
		}
	}
}
