// Package features holds the routable units of the bot: commands, the
// settings keyboard, chat requests and reactions.
package features

import (
	"context"
	"log/slog"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/session"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/texts"
)

const (
	CategoryTextRequests = "text_requests"
	CategoryReactions    = "reactions"
	CategoryCommands     = "commands"

	settingsPrefix = "set"
	buttonErase    = "erase"
	buttonDelete   = "delete"
)

type Replier interface {
	Send(ctx context.Context, chatID int64, text string, opts event.SendOptions) (event.Message, error)
	Delete(ctx context.Context, h event.MessageHandle) error
	AnswerEphemeral(ctx context.Context, eventID string, text string) error
}

type StatsSource interface {
	StatsSummary(ctx context.Context) (string, error)
}

// Deps are shared by the command and settings features.
type Deps struct {
	Replier     Replier
	Sessions    *session.Store
	Stats       StatsSource
	Texts       *texts.Catalog
	OperatorIDs []int64
	Logger      *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d Deps) text(ev *event.Event, key texts.Key) string {
	catalog := d.Texts
	if catalog == nil {
		catalog = texts.Default()
	}
	return catalog.Get(ev.FromLanguage, key)
}

func (d Deps) isOperator(userID int64) bool {
	for _, id := range d.OperatorIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (d Deps) reply(ctx context.Context, ev *event.Event, text string, keyboard [][]event.Button) error {
	_, err := d.Replier.Send(ctx, ev.ChatID, text, event.SendOptions{
		ReplyToMessageID: ev.MessageID,
		Keyboard:         keyboard,
	})
	return err
}
