// Package scheduled runs the bot's periodic operator jobs.
package scheduled

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
	"github.com/robfig/cron/v3"
)

type Sender interface {
	Send(ctx context.Context, chatID int64, text string, opts event.SendOptions) (event.Message, error)
}

type Log interface {
	StatsSummary(ctx context.Context) (string, error)
	Purge(ctx context.Context, table string) error
}

type Options struct {
	// StatsCron is a five-field cron expression; empty disables the daily stats.
	StatsCron string
	// PurgeCron is a five-field cron expression; empty disables purging.
	PurgeCron   string
	PurgeTable  string
	OperatorIDs []int64
	Sender      Sender
	Log         Log
	Logger      *slog.Logger
}

type Scheduler struct {
	cron   *cron.Cron
	opts   Options
	logger *slog.Logger
	jobs   int
}

func New(opts Options) (*Scheduler, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(opts.PurgeTable) == "" {
		opts.PurgeTable = "messages"
	}
	s := &Scheduler{
		cron:   cron.New(),
		opts:   opts,
		logger: logger,
	}
	if expr := strings.TrimSpace(opts.StatsCron); expr != "" {
		if opts.Log == nil || opts.Sender == nil {
			return nil, fmt.Errorf("scheduled: stats job needs a log and a sender")
		}
		if _, err := s.cron.AddFunc(expr, func() { s.SendStats(context.Background()) }); err != nil {
			return nil, fmt.Errorf("scheduled: stats cron %q: %w", expr, err)
		}
		s.jobs++
	}
	if expr := strings.TrimSpace(opts.PurgeCron); expr != "" {
		if opts.Log == nil {
			return nil, fmt.Errorf("scheduled: purge job needs a log")
		}
		if _, err := s.cron.AddFunc(expr, func() { s.Purge(context.Background()) }); err != nil {
			return nil, fmt.Errorf("scheduled: purge cron %q: %w", expr, err)
		}
		s.jobs++
	}
	return s, nil
}

// Jobs is the number of registered jobs.
func (s *Scheduler) Jobs() int { return s.jobs }

// Run starts the schedule and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.jobs == 0 {
		<-ctx.Done()
		return nil
	}
	s.logger.Info("scheduler_start", "jobs", s.jobs, "stats_cron", s.opts.StatsCron, "purge_cron", s.opts.PurgeCron)
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler_stopped")
	return nil
}

// SendStats sends today's statistics to every operator.
func (s *Scheduler) SendStats(ctx context.Context) {
	summary, err := s.opts.Log.StatsSummary(ctx)
	if err != nil {
		s.logger.Warn("scheduled_stats_error", "error", err.Error())
		return
	}
	for _, id := range s.opts.OperatorIDs {
		if _, err := s.opts.Sender.Send(ctx, id, summary, event.SendOptions{}); err != nil {
			s.logger.Warn("scheduled_stats_send_error", "operator_id", id, "error", err.Error())
		}
	}
	s.logger.Info("scheduled_stats_sent", "operators", len(s.opts.OperatorIDs))
}

func (s *Scheduler) Purge(ctx context.Context) {
	if err := s.opts.Log.Purge(ctx, s.opts.PurgeTable); err != nil {
		s.logger.Warn("scheduled_purge_error", "table", s.opts.PurgeTable, "error", err.Error())
		return
	}
	s.logger.Info("scheduled_purge_done", "table", s.opts.PurgeTable)
}
