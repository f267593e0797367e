package telegram

import (
	"strconv"
	"strings"
	"time"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
)

// ToEvent converts an update into a core event. botUsername, when set, makes
// commands addressed to other bots ("/ask@OtherBot") plain text.
func ToEvent(u Update, botUsername string) (event.Event, bool) {
	switch {
	case u.Message != nil:
		return messageEvent(u, botUsername)
	case u.MessageReaction != nil:
		return reactionEvent(u)
	case u.CallbackQuery != nil:
		return callbackEvent(u)
	default:
		return event.Event{}, false
	}
}

func messageEvent(u Update, botUsername string) (event.Event, bool) {
	msg := u.Message
	if msg.Chat == nil {
		return event.Event{}, false
	}
	ev := event.Event{
		Kind:      event.KindMessage,
		ID:        strconv.FormatInt(u.UpdateID, 10),
		ChatID:    msg.Chat.ID,
		ChatType:  msg.Chat.Type,
		MessageID: msg.MessageID,
		Text:      msg.Text,
		SentAt:    unixTime(msg.Date),
	}
	if msg.From != nil {
		ev.FromUserID = msg.From.ID
		ev.FromLanguage = msg.From.LanguageCode
	}
	if msg.ReplyTo != nil {
		reply := toMessage(msg.ReplyTo)
		ev.ReplyTo = &reply
	}
	if hasLeadingCommand(msg) {
		cmd, args := splitCommand(ev.Text)
		if name, ok := normalizeSlashCommand(cmd, botUsername); ok {
			ev.Command = name
			ev.CommandArgs = args
		}
	}
	return ev, true
}

func reactionEvent(u Update) (event.Event, bool) {
	r := u.MessageReaction
	if r.Chat == nil || len(r.NewReaction) == 0 {
		return event.Event{}, false
	}
	ev := event.Event{
		Kind:      event.KindReaction,
		ID:        strconv.FormatInt(u.UpdateID, 10),
		ChatID:    r.Chat.ID,
		ChatType:  r.Chat.Type,
		MessageID: r.MessageID,
		SentAt:    unixTime(r.Date),
	}
	if r.User != nil {
		ev.FromUserID = r.User.ID
		ev.FromLanguage = r.User.LanguageCode
	}
	for _, rt := range r.NewReaction {
		switch {
		case rt.Emoji != "":
			ev.Reactions = append(ev.Reactions, rt.Emoji)
		case rt.CustomEmojiID != "":
			ev.Reactions = append(ev.Reactions, rt.CustomEmojiID)
		}
	}
	return ev, true
}

func callbackEvent(u Update) (event.Event, bool) {
	q := u.CallbackQuery
	ev := event.Event{
		Kind:         event.KindCallback,
		ID:           q.ID,
		CallbackData: q.Data,
	}
	if q.From != nil {
		ev.FromUserID = q.From.ID
		ev.FromLanguage = q.From.LanguageCode
	}
	if q.Message != nil {
		ev.MessageID = q.Message.MessageID
		if q.Message.Chat != nil {
			ev.ChatID = q.Message.Chat.ID
			ev.ChatType = q.Message.Chat.Type
		}
	}
	if data, err := event.ParseCallbackData(q.Data); err == nil {
		ev.Callback = &data
	}
	return ev, true
}

func toMessage(msg *Message) event.Message {
	out := event.Message{
		MessageID: msg.MessageID,
		Text:      msg.Text,
		SentAt:    unixTime(msg.Date),
	}
	if msg.Chat != nil {
		out.ChatID = msg.Chat.ID
	}
	if msg.From != nil {
		out.FromUserID = msg.From.ID
		out.FromIsBot = msg.From.IsBot
	}
	if msg.ReplyTo != nil {
		out.ReplyToMessageID = msg.ReplyTo.MessageID
	}
	return out
}

func hasLeadingCommand(msg *Message) bool {
	for _, e := range msg.Entities {
		if e.Type == "bot_command" && e.Offset == 0 {
			return true
		}
	}
	return false
}

func splitCommand(text string) (cmd string, rest string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	i := strings.IndexAny(text, " \n\t")
	if i == -1 {
		return text, ""
	}
	return text[:i], strings.TrimSpace(text[i:])
}

// normalizeSlashCommand lowercases cmd and strips a "@BotName" suffix. It
// rejects commands addressed to a different bot.
func normalizeSlashCommand(cmd string, botUsername string) (string, bool) {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" || !strings.HasPrefix(cmd, "/") {
		return "", false
	}
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		target := cmd[at+1:]
		cmd = cmd[:at]
		botUsername = strings.TrimPrefix(strings.TrimSpace(botUsername), "@")
		if botUsername != "" && !strings.EqualFold(target, botUsername) {
			return "", false
		}
	}
	return strings.ToLower(cmd), true
}

func unixTime(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
