package conversation

import (
	"strings"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
)

const fence = "```"

// ComposePrompt builds the user turn for ev. A reply to a message that has
// text quotes that message ahead of the new request.
func ComposePrompt(ev *event.Event) string {
	if ev == nil {
		return ""
	}
	text := ev.Text
	if ev.ReplyTo != nil && ev.ReplyTo.Text != "" {
		return "User replies to this message:\n\n" + ev.ReplyTo.Text + "\n\nwith this request:\n\n" + text
	}
	return text
}

// BalanceFences closes a dangling code fence so the reply renders.
func BalanceFences(text string) string {
	if strings.Count(text, fence)%2 == 1 {
		return text + fence
	}
	return text
}

// splitHalf cuts text at its rune midpoint.
func splitHalf(text string) (string, string) {
	runes := []rune(text)
	mid := len(runes) / 2
	return string(runes[:mid]), string(runes[mid:])
}
