// Package bot wires the chat front-end: durable log, session store,
// completion client, interceptor chains, router, dispatch workers and the
// Telegram poller.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/db"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/channelruntime/worker"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/chatlog"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/conversation"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/features"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/intercept"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/router"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/scheduled"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/session"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/telegram"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/texts"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/llm"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/providers/openai"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Config struct {
	TelegramToken   string
	TelegramBaseURL string
	PollTimeout     time.Duration
	TaskTimeout     time.Duration
	MaxConcurrency  int

	LLMEndpoint       string
	LLMAPIKey         string
	LLMModel          string
	LLMRequestTimeout time.Duration

	OperatorIDs     []int64
	MaxAttempts     int
	StrictStatus    bool
	HistoryMaxTurns int

	DB db.Config

	StatsCron string
	PurgeCron string
	TextsFile string
}

func (c Config) validate() error {
	if strings.TrimSpace(c.TelegramToken) == "" {
		return fmt.Errorf("missing telegram.bot_token (set via --telegram-bot-token or CHATBOT_TELEGRAM_BOT_TOKEN)")
	}
	if c.MaxAttempts != 0 && c.MaxAttempts != conversation.MaxAttempts {
		return fmt.Errorf("chat.max_attempts must be %d, got %d", conversation.MaxAttempts, c.MaxAttempts)
	}
	if c.HistoryMaxTurns < 0 {
		return fmt.Errorf("chat.history_max_turns must be >= 0")
	}
	return nil
}

// Deps overrides collaborators, mainly for tests.
type Deps struct {
	HTTPClient *http.Client
	LLM        llm.Client
	Logger     *slog.Logger
}

type App struct {
	cfg       Config
	logger    *slog.Logger
	gdb       *gorm.DB
	router    *router.Router
	poller    *telegram.Poller
	scheduler *scheduled.Scheduler
	me        *telegram.User
}

// Build assembles the bot. It contacts Telegram once to learn the bot's own
// identity, which the visibility rule needs.
func Build(ctx context.Context, cfg Config, deps Deps) (*App, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	catalog := texts.Default()
	if path := strings.TrimSpace(cfg.TextsFile); path != "" {
		loaded, err := texts.LoadFile(path)
		if err != nil {
			return nil, err
		}
		catalog = loaded
	}

	gdb, err := db.Open(cfg.DB)
	if err != nil {
		return nil, err
	}
	store, err := chatlog.New(gdb)
	if err != nil {
		_ = closeDB(gdb)
		return nil, err
	}

	client := deps.LLM
	if client == nil {
		client = openai.New(cfg.LLMEndpoint, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMRequestTimeout)
	}

	api := telegram.NewAPI(deps.HTTPClient, cfg.TelegramBaseURL, cfg.TelegramToken)
	me, err := api.GetMe(ctx)
	if err != nil {
		_ = closeDB(gdb)
		return nil, fmt.Errorf("telegram getMe: %w", err)
	}
	tg := telegram.NewBot(api, telegram.BotOptions{Logger: logger})

	sessions := session.NewStore(session.Options{MaxTurns: cfg.HistoryMaxTurns})
	controller, err := conversation.New(conversation.Options{
		Sessions:       sessions,
		Client:         client,
		Model:          cfg.LLMModel,
		Replier:        tg,
		Archiver:       store,
		Texts:          catalog,
		OperatorIDs:    cfg.OperatorIDs,
		StrictStatus:   cfg.StrictStatus,
		RequestTimeout: cfg.LLMRequestTimeout,
		Logger:         logger,
	})
	if err != nil {
		_ = closeDB(gdb)
		return nil, err
	}

	rt, err := newRouter(routerDeps{
		botID:      me.ID,
		tg:         tg,
		store:      store,
		sessions:   sessions,
		controller: controller,
		texts:      catalog,
		operators:  cfg.OperatorIDs,
		logger:     logger,
	})
	if err != nil {
		_ = closeDB(gdb)
		return nil, err
	}

	sched, err := scheduled.New(scheduled.Options{
		StatsCron:   cfg.StatsCron,
		PurgeCron:   cfg.PurgeCron,
		OperatorIDs: cfg.OperatorIDs,
		Sender:      tg,
		Log:         store,
		Logger:      logger,
	})
	if err != nil {
		_ = closeDB(gdb)
		return nil, err
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		gdb:       gdb,
		router:    rt,
		poller:    telegram.NewPoller(api, telegram.PollerOptions{Logger: logger, PollTimeout: cfg.PollTimeout, BotUsername: me.Username}),
		scheduler: sched,
		me:        me,
	}, nil
}

type routerDeps struct {
	botID      int64
	tg         *telegram.Bot
	store      *chatlog.Store
	sessions   *session.Store
	controller *conversation.Controller
	texts      *texts.Catalog
	operators  []int64
	logger     *slog.Logger
}

// newRouter lays out both interceptor levels. Order matters: archival sees
// every event, ownership runs before any feature, and accounting sits last in
// the chat chain so only admitted requests are counted.
func newRouter(d routerDeps) (*router.Router, error) {
	global := intercept.NewChain(
		intercept.Archival(d.store, intercept.ArchivalOptions{Logger: d.logger}),
		intercept.ReactionEnrichment(d.store, d.logger),
		intercept.CallbackOwnership(func(ev *event.Event) string {
			return d.texts.Get(ev.FromLanguage, texts.NotYourRequest)
		}, d.tg),
	)
	fd := features.Deps{
		Replier:     d.tg,
		Sessions:    d.sessions,
		Stats:       d.store,
		Texts:       d.texts,
		OperatorIDs: d.operators,
		Logger:      d.logger,
	}
	return router.New(global, []router.Feature{
		features.Settings(fd, intercept.NewChain()),
		features.Commands(fd, intercept.NewChain(
			intercept.Accounting(d.store, features.CategoryCommands, d.logger),
		)),
		features.Chat(d.controller, intercept.NewChain(
			intercept.Visibility(d.botID),
			intercept.Typing(d.tg),
			intercept.Accounting(d.store, features.CategoryTextRequests, d.logger),
		), d.logger),
		features.Reactions(d.store, intercept.NewChain(), d.logger),
	}, d.logger)
}

// BotUser is the identity reported by getMe.
func (a *App) BotUser() telegram.User { return *a.me }

// Run polls Telegram and runs the scheduler until ctx is done. Events are
// handled by one worker per user.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	pool := worker.NewPool(gctx, worker.PoolOptions[int64, event.Event]{
		MaxConcurrency: a.cfg.MaxConcurrency,
		Logger:         a.logger,
		Handle: func(ctx context.Context, _ int64, ev event.Event) {
			_ = a.Dispatch(ctx, &ev)
		},
	})
	defer pool.Close()

	a.logger.Info("telegram_start",
		"bot_id", a.me.ID,
		"bot_username", a.me.Username,
		"max_concurrency", a.cfg.MaxConcurrency,
		"task_timeout", a.cfg.TaskTimeout.String(),
		"operators", len(a.cfg.OperatorIDs),
	)
	g.Go(func() error {
		return a.poller.Run(gctx, func(ev event.Event) {
			if err := pool.Submit(gctx, dispatchKey(ev), ev); err != nil && gctx.Err() == nil {
				a.logger.Warn("telegram_enqueue_error", "chat_id", ev.ChatID, "error", err.Error())
			}
		})
	})
	g.Go(func() error {
		return a.scheduler.Run(gctx)
	})
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Dispatch handles one event within the task timeout. Failures are logged
// and returned.
func (a *App) Dispatch(ctx context.Context, ev *event.Event) (err error) {
	if a.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.TaskTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			a.logger.Warn("dispatch_error",
				"kind", string(ev.Kind),
				"event_id", ev.ID,
				"chat_id", ev.ChatID,
				"user_id", ev.FromUserID,
				"error", err.Error(),
			)
		}
	}()
	return a.router.Dispatch(ctx, ev)
}

// Close releases the database.
func (a *App) Close() error {
	return closeDB(a.gdb)
}

// dispatchKey serializes events per user; events without a user fall back
// to their chat.
func dispatchKey(ev event.Event) int64 {
	if ev.FromUserID != 0 {
		return ev.FromUserID
	}
	return ev.ChatID
}

func closeDB(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
