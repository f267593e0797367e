package features

import (
	"context"
	"fmt"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/intercept"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/router"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/texts"
)

const (
	CommandStart    = "/start"
	CommandHelp     = "/help"
	CommandErase    = "/erase"
	CommandStats    = "/stats"
	CommandSettings = "/settings"
	CommandAsk      = "/ask"
)

// Commands answers the fixed bot commands. /ask is left to the chat feature.
func Commands(d Deps, chain intercept.Chain) router.Feature {
	return router.Feature{
		Name: "commands",
		Match: func(ev *event.Event) bool {
			if ev.Kind != event.KindMessage {
				return false
			}
			switch ev.Command {
			case CommandStart, CommandHelp, CommandErase, CommandStats, CommandSettings:
				return true
			default:
				return false
			}
		},
		Chain: chain,
		Handler: func(ctx context.Context, ev *event.Event, data *intercept.Data) error {
			switch ev.Command {
			case CommandStart:
				return d.reply(ctx, ev, d.text(ev, texts.Welcome), nil)
			case CommandHelp:
				return d.reply(ctx, ev, d.text(ev, texts.Help), nil)
			case CommandErase:
				key := texts.HistoryEmpty
				if d.Sessions != nil && d.Sessions.Erase(ev.FromUserID) {
					key = texts.HistoryCleared
				}
				return d.reply(ctx, ev, d.text(ev, key), nil)
			case CommandStats:
				return d.stats(ctx, ev)
			case CommandSettings:
				return d.reply(ctx, ev, d.text(ev, texts.Settings), d.settingsKeyboard(ev))
			}
			return nil
		},
	}
}

func (d Deps) stats(ctx context.Context, ev *event.Event) error {
	if !d.isOperator(ev.FromUserID) {
		return d.reply(ctx, ev, d.text(ev, texts.OperatorsOnly), nil)
	}
	if d.Stats == nil {
		return fmt.Errorf("stats source is not configured")
	}
	summary, err := d.Stats.StatsSummary(ctx)
	if err != nil {
		return fmt.Errorf("stats summary: %w", err)
	}
	return d.reply(ctx, ev, summary, nil)
}

func (d Deps) settingsKeyboard(ev *event.Event) [][]event.Button {
	button := func(label texts.Key, name string) event.Button {
		return event.Button{
			Text:         d.text(ev, label),
			CallbackData: event.CallbackData{Prefix: settingsPrefix, UserID: ev.FromUserID, Button: name}.Pack(),
		}
	}
	return [][]event.Button{
		{button(texts.ButtonErase, buttonErase)},
		{button(texts.ButtonDelete, buttonDelete)},
	}
}
