package retryutil

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultRetryDelay    = 2 * time.Second
	defaultRetryTimeout  = 12 * time.Second
	defaultRetryAttempts = 3
)

type Options struct {
	Delay    time.Duration
	Timeout  time.Duration
	Attempts int
}

// AsyncRetry runs fn in the background until it succeeds or the attempts are
// used up, waiting delay before each attempt. Each attempt gets its own timeout.
func AsyncRetry(logger *slog.Logger, name string, opts Options, fn func(ctx context.Context) error) {
	if fn == nil {
		return
	}
	if opts.Delay <= 0 {
		opts.Delay = defaultRetryDelay
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultRetryTimeout
	}
	if opts.Attempts <= 0 {
		opts.Attempts = defaultRetryAttempts
	}
	if logger != nil {
		logger.Info(name+"_retry_scheduled", "delay", opts.Delay.String(), "timeout", opts.Timeout.String(), "attempts", opts.Attempts)
	}
	go func() {
		var lastErr error
		for attempt := 1; attempt <= opts.Attempts; attempt++ {
			timer := time.NewTimer(opts.Delay * time.Duration(attempt))
			<-timer.C
			timer.Stop()

			ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
			lastErr = fn(ctx)
			cancel()
			if lastErr == nil {
				if logger != nil {
					logger.Info(name+"_retry_ok", "attempt", attempt)
				}
				return
			}
			if logger != nil {
				logger.Warn(name+"_retry_failed", "attempt", attempt, "error", lastErr.Error())
			}
		}
		if logger != nil {
			logger.Error(name+"_retry_exhausted", "attempts", opts.Attempts, "error", lastErr.Error())
		}
	}()
}
