package intercept

import (
	"context"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
)

// CallbackOwnership lets a button press through in private chats, or when the
// presser is the user the keyboard was rendered for. Everyone else gets the
// notice. Events other than button presses pass untouched.
func CallbackOwnership(notice func(ev *event.Event) string, notifier Notifier) Interceptor {
	return Gate(func(ctx context.Context, ev *event.Event, data *Data) (Decision, error) {
		if ev == nil || ev.Kind != event.KindCallback {
			return ForwardDecision(), nil
		}
		if ev.IsPrivate() {
			return ForwardDecision(), nil
		}
		if ev.Callback != nil && ev.Callback.UserID == ev.FromUserID {
			return ForwardDecision(), nil
		}
		text := ""
		if notice != nil {
			text = notice(ev)
		}
		return NoticeDecision(text), nil
	}, notifier)
}
