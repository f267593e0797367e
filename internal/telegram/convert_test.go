package telegram

import (
	"encoding/json"
	"testing"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/conversation"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
)

func TestToEventMessageWithCommand(t *testing.T) {
	u := Update{UpdateID: 3, Message: &Message{
		MessageID: 8,
		Date:      1700000000,
		Chat:      &Chat{ID: -100, Type: "supergroup"},
		From:      &User{ID: 5, LanguageCode: "ru"},
		Entities:  []Entity{{Type: "bot_command", Offset: 0, Length: 12}},
		Text:      "/Ask@MyBot what is up",
		ReplyTo:   &Message{MessageID: 7, From: &User{ID: 99, IsBot: true}, Text: "earlier answer"},
	}}
	ev, ok := ToEvent(u, "mybot")
	if !ok {
		t.Fatalf("ToEvent() ok = false")
	}
	if ev.Kind != event.KindMessage || ev.ChatID != -100 || ev.MessageID != 8 || ev.FromUserID != 5 {
		t.Fatalf("event = %+v", ev)
	}
	if ev.Command != "/ask" || ev.CommandArgs != "what is up" {
		t.Fatalf("command = %q args = %q", ev.Command, ev.CommandArgs)
	}
	if ev.FromLanguage != "ru" || ev.SentAt.IsZero() {
		t.Fatalf("language = %q sent_at = %v", ev.FromLanguage, ev.SentAt)
	}
	if ev.ReplyTo == nil || ev.ReplyTo.FromUserID != 99 || !ev.ReplyTo.FromIsBot || ev.ReplyTo.Text != "earlier answer" {
		t.Fatalf("reply_to = %+v", ev.ReplyTo)
	}
}

func TestToEventCommandForOtherBot(t *testing.T) {
	u := Update{UpdateID: 1, Message: &Message{
		Chat:     &Chat{ID: -1, Type: "group"},
		Entities: []Entity{{Type: "bot_command", Offset: 0, Length: 15}},
		Text:     "/ask@OtherBot hi",
	}}
	ev, _ := ToEvent(u, "mybot")
	if ev.Command != "" {
		t.Fatalf("command = %q, want none", ev.Command)
	}
}

func TestToEventPlainSlashTextIsNotCommand(t *testing.T) {
	u := Update{UpdateID: 1, Message: &Message{Chat: &Chat{ID: 1, Type: "private"}, Text: "/etc/hosts is a file"}}
	ev, _ := ToEvent(u, "")
	if ev.Command != "" {
		t.Fatalf("command = %q, want none without a bot_command entity", ev.Command)
	}
}

func TestToEventReaction(t *testing.T) {
	u := Update{UpdateID: 2, MessageReaction: &MessageReaction{
		Chat:        &Chat{ID: 1, Type: "private"},
		MessageID:   40,
		User:        &User{ID: 6},
		NewReaction: []ReactionType{{Type: "emoji", Emoji: "👍"}},
	}}
	ev, ok := ToEvent(u, "")
	if !ok || ev.Kind != event.KindReaction || ev.MessageID != 40 || ev.FromUserID != 6 {
		t.Fatalf("event = %+v ok = %v", ev, ok)
	}
	if len(ev.Reactions) != 1 || ev.Reactions[0] != "👍" {
		t.Fatalf("reactions = %v", ev.Reactions)
	}

	u.MessageReaction.NewReaction = nil
	if _, ok := ToEvent(u, ""); ok {
		t.Fatalf("removed reactions should be skipped")
	}
}

func TestToEventCallback(t *testing.T) {
	u := Update{UpdateID: 4, CallbackQuery: &CallbackQuery{
		ID:      "cbq",
		From:    &User{ID: 2},
		Message: &Message{MessageID: 9, Chat: &Chat{ID: -3, Type: "group"}},
		Data:    "set:1:erase",
	}}
	ev, ok := ToEvent(u, "")
	if !ok || ev.Kind != event.KindCallback || ev.ID != "cbq" || ev.ChatType != "group" || ev.MessageID != 9 {
		t.Fatalf("event = %+v", ev)
	}
	if ev.Callback == nil || ev.Callback.UserID != 1 || ev.Callback.Button != "erase" {
		t.Fatalf("callback = %+v", ev.Callback)
	}

	u.CallbackQuery.Data = "garbage"
	ev, _ = ToEvent(u, "")
	if ev.Callback != nil || ev.CallbackData != "garbage" {
		t.Fatalf("unparsed payload: %+v", ev)
	}
}

func TestToEventUnknownUpdate(t *testing.T) {
	if _, ok := ToEvent(Update{UpdateID: 1}, ""); ok {
		t.Fatalf("empty update should be skipped")
	}
}

func TestToEventIgnoresCaptions(t *testing.T) {
	raw := `{"update_id":9,"message":{"message_id":12,"chat":{"id":5,"type":"private"},"from":{"id":5},
		"photo":[{"file_id":"a"}],"caption":"look at my cat",
		"reply_to_message":{"message_id":11,"chat":{"id":5,"type":"private"},"photo":[{"file_id":"b"}],"caption":"old photo caption"}}}`
	var u Update
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	ev, ok := ToEvent(u, "")
	if !ok {
		t.Fatalf("ToEvent() ok = false")
	}
	if ev.Text != "" || ev.HasText() {
		t.Fatalf("text = %q, want empty for a captioned photo", ev.Text)
	}
	if ev.ReplyTo == nil || ev.ReplyTo.Text != "" {
		t.Fatalf("reply_to = %+v, want no text", ev.ReplyTo)
	}

	ev.Text = "what breed is it?"
	if got := conversation.ComposePrompt(&ev); got != "what breed is it?" {
		t.Fatalf("ComposePrompt() = %q, want the request unquoted", got)
	}
}
