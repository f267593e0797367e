package features

import (
	"context"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/intercept"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/router"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/texts"
)

// Settings handles presses on the /settings keyboard.
func Settings(d Deps, chain intercept.Chain) router.Feature {
	return router.Feature{
		Name: "settings",
		Match: func(ev *event.Event) bool {
			return ev.Kind == event.KindCallback && ev.Callback != nil && ev.Callback.Prefix == settingsPrefix
		},
		Chain: chain,
		Handler: func(ctx context.Context, ev *event.Event, data *intercept.Data) error {
			switch ev.Callback.Button {
			case buttonErase:
				key := texts.HistoryEmpty
				if d.Sessions != nil && d.Sessions.Erase(ev.FromUserID) {
					key = texts.HistoryCleared
				}
				return d.Replier.AnswerEphemeral(ctx, ev.ID, d.text(ev, key))
			case buttonDelete:
				if err := d.Replier.AnswerEphemeral(ctx, ev.ID, d.text(ev, texts.SettingsDeleted)); err != nil {
					d.logger().Warn("settings_answer_error", "event_id", ev.ID, "error", err.Error())
				}
				return d.Replier.Delete(ctx, event.MessageHandle{ChatID: ev.ChatID, MessageID: ev.MessageID})
			default:
				d.logger().Debug("settings_unknown_button", "button", ev.Callback.Button, "user_id", ev.FromUserID)
				return d.Replier.AnswerEphemeral(ctx, ev.ID, "")
			}
		},
	}
}
