package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
)

// Bot is the reply channel over the Bot API.
type Bot struct {
	api            *API
	logger         *slog.Logger
	typingInterval time.Duration
}

type BotOptions struct {
	Logger *slog.Logger
	// TypingInterval is how often the typing action is refreshed.
	TypingInterval time.Duration
}

func NewBot(api *API, opts BotOptions) *Bot {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := opts.TypingInterval
	if interval <= 0 {
		interval = 4 * time.Second
	}
	return &Bot{api: api, logger: logger, typingInterval: interval}
}

func (b *Bot) Send(ctx context.Context, chatID int64, text string, opts event.SendOptions) (event.Message, error) {
	if strings.TrimSpace(text) == "" {
		text = "(empty)"
	}
	msg, err := b.api.SendMessage(ctx, chatID, text, opts)
	if err != nil {
		return event.Message{}, err
	}
	return toMessage(msg), nil
}

func (b *Bot) Edit(ctx context.Context, h event.MessageHandle, text string) (event.Message, error) {
	if strings.TrimSpace(text) == "" {
		text = "(empty)"
	}
	msg, err := b.api.EditMessageText(ctx, h.ChatID, h.MessageID, text)
	if err != nil {
		return event.Message{}, err
	}
	return toMessage(msg), nil
}

func (b *Bot) Delete(ctx context.Context, h event.MessageHandle) error {
	return b.api.DeleteMessage(ctx, h.ChatID, h.MessageID)
}

// AnswerEphemeral answers a button press with a toast only its presser sees.
func (b *Bot) AnswerEphemeral(ctx context.Context, eventID string, text string) error {
	if strings.TrimSpace(eventID) == "" {
		return fmt.Errorf("telegram answerCallbackQuery: missing callback id")
	}
	return b.api.AnswerCallbackQuery(ctx, eventID, text)
}

// StartTyping keeps the typing action visible in chatID until stop is called.
func (b *Bot) StartTyping(ctx context.Context, chatID int64) func() {
	if ctx == nil {
		ctx = context.Background()
	}
	if chatID == 0 {
		return func() {}
	}
	ticker := time.NewTicker(b.typingInterval)
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		b.sendTyping(ctx, chatID)
		for {
			select {
			case <-ticker.C:
				b.sendTyping(ctx, chatID)
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		select {
		case <-done:
		default:
			close(done)
		}
		ticker.Stop()
		<-stopped
	}
}

func (b *Bot) sendTyping(ctx context.Context, chatID int64) {
	if err := b.api.SendChatAction(ctx, chatID, "typing"); err != nil && ctx.Err() == nil {
		b.logger.Debug("telegram_chat_action_error", "chat_id", chatID, "error", err.Error())
	}
}
